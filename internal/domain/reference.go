package domain

// Currency is the read-only currency configuration served to clients.
// Base and Exponent describe how minor units relate to display units
// (USD: base 10, exponent 2).
type Currency struct {
	Code     string
	Base     int
	Exponent int
}

// PublicKey is the processor's encryption key clients use to encrypt card
// and bank-account data before submission. Rotated out-of-band; consumers
// must tolerate staleness and re-fetch on cryptographic failure.
type PublicKey struct {
	KeyID     string
	PublicKey string
}
