package service

import (
	"context"

	"go.uber.org/zap"

	"payments/internal/domain"
	"payments/internal/processor"
)

// PublicKeyCache caches the processor's encryption public key with bounded
// staleness.
type PublicKeyCache interface {
	Get(ctx context.Context) (*domain.PublicKey, error)
	Set(ctx context.Context, key *domain.PublicKey) error
}

// ReferenceService exposes the currency configuration and the processor's
// encryption public key.
type ReferenceService struct {
	currency domain.Currency
	gateway  processor.Gateway
	cache    PublicKeyCache
	logger   *zap.Logger
}

// NewReferenceService creates a new ReferenceService. cache may be nil, in
// which case every key request hits the gateway.
func NewReferenceService(currency domain.Currency, gateway processor.Gateway, cache PublicKeyCache, logger *zap.Logger) *ReferenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceService{
		currency: currency,
		gateway:  gateway,
		cache:    cache,
		logger:   logger,
	}
}

// GetCurrency returns the configured currency. No side effects.
func (s *ReferenceService) GetCurrency(ctx context.Context) domain.Currency {
	return s.currency
}

// Supports reports whether the given currency code is accepted for payments.
func (s *ReferenceService) Supports(code string) bool {
	return code == s.currency.Code
}

// GetPublicKey returns the processor's encryption public key, served from
// cache when fresh. Cache failures fall through to the gateway; the key is
// rotated out-of-band, so staleness is bounded by the cache TTL.
func (s *ReferenceService) GetPublicKey(ctx context.Context) (*domain.PublicKey, error) {
	if s.cache != nil {
		key, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.Warn("public key cache read failed", zap.Error(err))
		} else if key != nil {
			return key, nil
		}
	}

	key, err := s.gateway.PublicKey(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key); err != nil {
			s.logger.Warn("public key cache write failed", zap.Error(err))
		}
	}

	return key, nil
}
