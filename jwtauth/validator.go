package jwtauth

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
)

// Validator verifies externally issued JWTs against a fixed Keyset. It
// never issues tokens. Validation is synchronous and CPU-bound; a
// Validator is safe for concurrent use.
type Validator struct {
	keyset *Keyset
}

// NewValidator creates a Validator over immutable key material.
func NewValidator(keyset *Keyset) *Validator {
	return &Validator{keyset: keyset}
}

// tokenHeader is the decoded JOSE header. Only alg matters to the gate.
type tokenHeader struct {
	Alg *string `json:"alg"`
	Typ string  `json:"typ"`
}

// Validate runs the fixed sequence of checks against a raw token and
// returns the parsed claims on success. The first failing check wins; the
// order is deliberate and must not be reordered, so a caller always
// observes the same rejection for the same input and an attacker learns
// nothing about which later check would have passed.
//
// Order: structure, segment decoding, algorithm, signature, claim shape,
// expiry, future-issue, age, audience, issuer, subject.
func (v *Validator) Validate(raw string, now time.Time) (*Claims, error) {
	// 1. Exactly three non-empty dot-separated segments.
	parts := strings.Split(raw, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return nil, newError(KindMalformedToken, "token must have three segments")
	}

	// 2. Base64url-decode header and payload.
	headerJSON, err := decodeSegment(parts[0])
	if err != nil {
		return nil, newError(KindMalformedToken, "header segment is not valid base64url")
	}
	payloadJSON, err := decodeSegment(parts[1])
	if err != nil {
		return nil, newError(KindMalformedToken, "payload segment is not valid base64url")
	}

	// 3. Header alg must equal the configured algorithm exactly. A header
	// that does not parse as JSON is a malformed token, not an algorithm
	// mismatch.
	var header tokenHeader
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return nil, newError(KindMalformedToken, "header is not a valid JSON object")
	}
	if header.Alg == nil || *header.Alg != v.keyset.alg {
		return nil, newError(KindUnsupportedAlgorithm, "token algorithm does not match configured algorithm")
	}

	// 4. Verify the signature over "header.payload".
	sig, err := decodeSegment(parts[2])
	if err != nil {
		return nil, newError(KindInvalidSignature, "signature segment is not valid base64url")
	}
	signingInput := parts[0] + "." + parts[1]
	if err := v.keyset.method.Verify(signingInput, sig, v.keyset.key); err != nil {
		return nil, newError(KindInvalidSignature, "signature verification failed")
	}

	// 5. Parse the payload into strongly typed claims.
	claims, authErr := decodeClaims(payloadJSON)
	if authErr != nil {
		return nil, authErr
	}

	skew := v.keyset.skew

	// 6. Expiry, with skew tolerance.
	if now.After(claims.ExpiresAt.Add(skew)) {
		return nil, newError(KindTokenExpired, "token has expired")
	}

	// 7. Reject tokens issued in the future beyond tolerance.
	if claims.IssuedAt.Add(-skew).After(now) {
		return nil, newError(KindInvalidClaims, "token issued in the future")
	}

	// 8. Maximum age.
	if now.Sub(claims.IssuedAt) > v.keyset.maxAge {
		return nil, newError(KindTokenTooOld, "token exceeds maximum age")
	}

	// 9. Audience, exact match.
	if claims.Audience != v.keyset.audience {
		return nil, newError(KindInvalidAudience, "audience mismatch")
	}

	// 10. Issuer, exact match.
	if claims.Issuer != v.keyset.issuer {
		return nil, newError(KindInvalidIssuer, "issuer mismatch")
	}

	// 11. Subject must be non-empty.
	if claims.Subject == "" {
		return nil, newError(KindInvalidClaims, "empty subject")
	}

	return claims, nil
}

// decodeSegment decodes a base64url JWT segment. Tokens are produced
// without padding per RFC 7515, but padded input from sloppy issuers is
// normalized rather than rejected.
func decodeSegment(seg string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(seg, "="))
}
