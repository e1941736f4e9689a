package tests

import (
	"context"
	"errors"
	"testing"

	"payments/internal/domain"
	"payments/internal/service"
)

var testCurrency = domain.Currency{Code: "USD", Base: 10, Exponent: 2}

func TestGetCurrency_ReturnsConfiguredCurrency(t *testing.T) {
	t.Parallel()

	referenceService := service.NewReferenceService(testCurrency, &MockGateway{}, nil, nil)

	currency := referenceService.GetCurrency(context.Background())
	if currency != testCurrency {
		t.Errorf("expected %+v, got %+v", testCurrency, currency)
	}

	if !referenceService.Supports("USD") {
		t.Error("configured currency must be supported")
	}
	if referenceService.Supports("EUR") {
		t.Error("other currencies must be rejected")
	}
}

func TestGetPublicKey_CachesAfterFirstFetch(t *testing.T) {
	t.Parallel()

	gateway := &MockGateway{Key: &domain.PublicKey{KeyID: "key-1", PublicKey: "pem"}}
	cache := &MockKeyCache{}
	referenceService := service.NewReferenceService(testCurrency, gateway, cache, nil)

	for i := 0; i < 3; i++ {
		key, err := referenceService.GetPublicKey(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if key.KeyID != "key-1" {
			t.Errorf("expected key-1, got %s", key.KeyID)
		}
	}

	if gateway.PublicKeyCallCount != 1 {
		t.Errorf("expected 1 gateway fetch, got %d", gateway.PublicKeyCallCount)
	}
}

func TestGetPublicKey_RefetchesAfterExpiry(t *testing.T) {
	t.Parallel()

	gateway := &MockGateway{Key: &domain.PublicKey{KeyID: "key-1", PublicKey: "pem"}}
	cache := &MockKeyCache{}
	referenceService := service.NewReferenceService(testCurrency, gateway, cache, nil)

	if _, err := referenceService.GetPublicKey(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cache.Expire()
	gateway.Key = &domain.PublicKey{KeyID: "key-2", PublicKey: "pem2"}

	key, err := referenceService.GetPublicKey(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if key.KeyID != "key-2" {
		t.Errorf("expected rotated key after expiry, got %s", key.KeyID)
	}
	if gateway.PublicKeyCallCount != 2 {
		t.Errorf("expected 2 gateway fetches, got %d", gateway.PublicKeyCallCount)
	}
}

func TestGetPublicKey_CacheFailureFallsThroughToGateway(t *testing.T) {
	t.Parallel()

	gateway := &MockGateway{Key: &domain.PublicKey{KeyID: "key-1", PublicKey: "pem"}}
	cache := &MockKeyCache{GetError: errors.New("redis down"), SetError: errors.New("redis down")}
	referenceService := service.NewReferenceService(testCurrency, gateway, cache, nil)

	key, err := referenceService.GetPublicKey(context.Background())
	if err != nil {
		t.Fatalf("cache failure must not surface, got: %v", err)
	}
	if key.KeyID != "key-1" {
		t.Errorf("expected key-1, got %s", key.KeyID)
	}
}

func TestGetPublicKey_NilCacheHitsGatewayEveryTime(t *testing.T) {
	t.Parallel()

	gateway := &MockGateway{}
	referenceService := service.NewReferenceService(testCurrency, gateway, nil, nil)

	for i := 0; i < 2; i++ {
		if _, err := referenceService.GetPublicKey(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if gateway.PublicKeyCallCount != 2 {
		t.Errorf("expected 2 gateway fetches, got %d", gateway.PublicKeyCallCount)
	}
}
