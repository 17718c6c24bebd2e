package jwtauth

import "fmt"

// ErrorKind identifies why a token was rejected. The set is closed: every
// rejection the validator or binder can produce maps to exactly one kind.
type ErrorKind string

const (
	// KindMissingToken means no token was found in the request.
	KindMissingToken ErrorKind = "missing_token"

	// KindMalformedToken means the token is not a well-formed three-part
	// base64url JWT.
	KindMalformedToken ErrorKind = "malformed_token"

	// KindUnsupportedAlgorithm means the token header's alg does not match
	// the configured algorithm. This includes "none".
	KindUnsupportedAlgorithm ErrorKind = "unsupported_algorithm"

	// KindInvalidSignature means signature verification failed.
	KindInvalidSignature ErrorKind = "invalid_signature"

	// KindTokenExpired means the token's exp has passed (beyond skew).
	KindTokenExpired ErrorKind = "token_expired"

	// KindTokenTooOld means the token was issued longer ago than the
	// configured maximum age.
	KindTokenTooOld ErrorKind = "token_too_old"

	// KindInvalidAudience means the aud claim does not match.
	KindInvalidAudience ErrorKind = "invalid_audience"

	// KindInvalidIssuer means the iss claim does not match.
	KindInvalidIssuer ErrorKind = "invalid_issuer"

	// KindInvalidClaims means a required claim is missing, has the wrong
	// type, or fails a structural check (empty sub, future iat).
	KindInvalidClaims ErrorKind = "invalid_claims"

	// KindForbidden means the authenticated principal does not own the
	// targeted resource.
	KindForbidden ErrorKind = "forbidden"
)

// AuthError is the rejection type for the authentication gate. It carries
// only the kind and a short internal message; never token content,
// signature bytes, or key material.
type AuthError struct {
	Kind ErrorKind
	msg  string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.msg == "" {
		return fmt.Sprintf("jwtauth: %s", e.Kind)
	}
	return fmt.Sprintf("jwtauth: %s: %s", e.Kind, e.msg)
}

// Is allows errors.Is comparison against the package sentinels by kind.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Kind == e.Kind
}

func newError(kind ErrorKind, msg string) *AuthError {
	return &AuthError{Kind: kind, msg: msg}
}

// Sentinel values for errors.Is checks at call sites.
var (
	ErrMissingToken         = &AuthError{Kind: KindMissingToken}
	ErrMalformedToken       = &AuthError{Kind: KindMalformedToken}
	ErrUnsupportedAlgorithm = &AuthError{Kind: KindUnsupportedAlgorithm}
	ErrInvalidSignature     = &AuthError{Kind: KindInvalidSignature}
	ErrTokenExpired         = &AuthError{Kind: KindTokenExpired}
	ErrTokenTooOld          = &AuthError{Kind: KindTokenTooOld}
	ErrInvalidAudience      = &AuthError{Kind: KindInvalidAudience}
	ErrInvalidIssuer        = &AuthError{Kind: KindInvalidIssuer}
	ErrInvalidClaims        = &AuthError{Kind: KindInvalidClaims}
	ErrForbidden            = &AuthError{Kind: KindForbidden}
)

// KindOf returns the ErrorKind carried by err, or an empty string when err
// is not an *AuthError.
func KindOf(err error) ErrorKind {
	if ae, ok := err.(*AuthError); ok {
		return ae.Kind
	}
	return ""
}

// IsUnauthenticated reports whether the kind maps to the external
// "unauthenticated" category (HTTP 401). Forbidden is the only kind in the
// "unauthorized" category (HTTP 403).
func (k ErrorKind) IsUnauthenticated() bool {
	return k != KindForbidden && k != ""
}
