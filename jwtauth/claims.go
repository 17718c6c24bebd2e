package jwtauth

import (
	"encoding/json"
	"time"
)

// Claims is the verified payload of an accepted token. Every field is
// required; tokens missing any of them are rejected before a Claims value
// is ever constructed.
type Claims struct {
	// Subject is the authenticated username.
	Subject string

	// IssuedAt and ExpiresAt are the token's iat and exp instants.
	IssuedAt  time.Time
	ExpiresAt time.Time

	// Audience and Issuer are the token's aud and iss values.
	Audience string
	Issuer   string
}

// wireClaims mirrors the JSON payload with pointer fields so a missing
// claim is distinguishable from a zero value. A wrong-typed field fails
// json.Unmarshal outright, which the validator maps to InvalidClaims.
type wireClaims struct {
	Sub *string `json:"sub"`
	Iat *int64  `json:"iat"`
	Exp *int64  `json:"exp"`
	Aud *string `json:"aud"`
	Iss *string `json:"iss"`
}

// decodeClaims parses the payload JSON and checks that every required
// claim is present with the right type. It performs no time, audience,
// issuer, or subject-content checks; those have their own ordered steps
// in the validator.
func decodeClaims(payload []byte) (*Claims, *AuthError) {
	var wire wireClaims
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, newError(KindInvalidClaims, "payload is not a valid claims object")
	}
	switch {
	case wire.Sub == nil:
		return nil, newError(KindInvalidClaims, "missing required claim: sub")
	case wire.Iat == nil:
		return nil, newError(KindInvalidClaims, "missing required claim: iat")
	case wire.Exp == nil:
		return nil, newError(KindInvalidClaims, "missing required claim: exp")
	case wire.Aud == nil:
		return nil, newError(KindInvalidClaims, "missing required claim: aud")
	case wire.Iss == nil:
		return nil, newError(KindInvalidClaims, "missing required claim: iss")
	}
	return &Claims{
		Subject:   *wire.Sub,
		IssuedAt:  time.Unix(*wire.Iat, 0),
		ExpiresAt: time.Unix(*wire.Exp, 0),
		Audience:  *wire.Aud,
		Issuer:    *wire.Iss,
	}, nil
}
