package jwtauth

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Algorithm names accepted by the gate. Anything else, including "none",
// is rejected at startup.
const (
	AlgRS256 = "RS256"
	AlgES256 = "ES256"
)

// Keyset holds the process-wide verification material: the public key, the
// single permitted algorithm, and the expected claim values. It is built
// once at startup and never mutated afterwards, so it is safe to share
// across request goroutines without locking.
type Keyset struct {
	key      any // *rsa.PublicKey or *ecdsa.PublicKey
	method   jwt.SigningMethod
	alg      string
	audience string
	issuer   string
	maxAge   time.Duration
	skew     time.Duration
}

// KeysetConfig carries the raw startup inputs for a Keyset.
type KeysetConfig struct {
	// PublicKeyPEM is the PEM-encoded public key (PKIX "PUBLIC KEY" or
	// algorithm-specific block).
	PublicKeyPEM string

	// Algorithm is the single permitted signing algorithm, RS256 or ES256.
	Algorithm string

	// Audience is the exact expected aud claim.
	Audience string

	// Issuer is the exact expected iss claim.
	Issuer string

	// MaxAge is the maximum accepted token age (now - iat).
	MaxAge time.Duration

	// ClockSkew is the tolerance applied to exp and iat checks.
	ClockSkew time.Duration
}

// NewKeyset parses and validates the key material. Any problem here is a
// startup error; callers must treat it as fatal rather than falling back
// to a degraded always-accept or always-reject mode.
func NewKeyset(cfg KeysetConfig) (*Keyset, error) {
	if cfg.Audience == "" {
		return nil, fmt.Errorf("jwtauth: audience must not be empty")
	}
	if cfg.Issuer == "" {
		return nil, fmt.Errorf("jwtauth: issuer must not be empty")
	}
	if cfg.MaxAge <= 0 {
		return nil, fmt.Errorf("jwtauth: max age must be positive")
	}
	if cfg.ClockSkew < 0 {
		return nil, fmt.Errorf("jwtauth: clock skew must be non-negative")
	}

	ks := &Keyset{
		alg:      cfg.Algorithm,
		audience: cfg.Audience,
		issuer:   cfg.Issuer,
		maxAge:   cfg.MaxAge,
		skew:     cfg.ClockSkew,
	}

	switch cfg.Algorithm {
	case AlgRS256:
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("jwtauth: failed to parse RSA public key: %w", err)
		}
		ks.key = key
		ks.method = jwt.SigningMethodRS256
	case AlgES256:
		key, err := jwt.ParseECPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("jwtauth: failed to parse EC public key: %w", err)
		}
		if key.Curve.Params().Name != "P-256" {
			return nil, fmt.Errorf("jwtauth: ES256 requires a P-256 key, got %s", key.Curve.Params().Name)
		}
		ks.key = key
		ks.method = jwt.SigningMethodES256
	default:
		return nil, fmt.Errorf("jwtauth: unsupported algorithm %q (want RS256 or ES256)", cfg.Algorithm)
	}

	return ks, nil
}

// Algorithm returns the configured algorithm name.
func (k *Keyset) Algorithm() string { return k.alg }

// Audience returns the expected aud claim.
func (k *Keyset) Audience() string { return k.audience }

// Issuer returns the expected iss claim.
func (k *Keyset) Issuer() string { return k.issuer }

// RSAKey returns the RSA public key, or nil for an EC keyset.
func (k *Keyset) RSAKey() *rsa.PublicKey {
	key, _ := k.key.(*rsa.PublicKey)
	return key
}

// ECKey returns the ECDSA public key, or nil for an RSA keyset.
func (k *Keyset) ECKey() *ecdsa.PublicKey {
	key, _ := k.key.(*ecdsa.PublicKey)
	return key
}
