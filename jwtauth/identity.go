package jwtauth

// AuthContext is the verified identity produced by a successful validation
// pass. It exists if and only if signature verification succeeded and every
// claim check passed; nothing partially verified ever escapes the
// validator. It lives for a single request.
type AuthContext struct {
	Username string
}

// Bind derives the verified principal from validated claims. When
// requiredUsername is non-empty the principal must match it exactly
// (case-sensitive); a mismatch means the caller is trying to act on
// another identity's resource.
func Bind(claims *Claims, requiredUsername string) (*AuthContext, error) {
	ctx := &AuthContext{Username: claims.Subject}
	if requiredUsername != "" && requiredUsername != claims.Subject {
		return nil, newError(KindForbidden, "principal does not own the targeted resource")
	}
	return ctx, nil
}

// AuthorizeForUsername checks resource ownership for an already
// authenticated context. Handlers with ownership constraints call this for
// usernames derived from the request body or path.
func AuthorizeForUsername(ctx *AuthContext, requiredUsername string) error {
	if ctx == nil {
		return newError(KindMissingToken, "no authenticated context")
	}
	if ctx.Username != requiredUsername {
		return newError(KindForbidden, "principal does not own the targeted resource")
	}
	return nil
}
