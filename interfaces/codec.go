package interfaces

import "time"

// TokenCodec signs and verifies installation tokens.
type TokenCodec interface {
	// Issue signs claims and returns the token with its expiry.
	Issue(claims TokenClaims) (string, time.Time, error)

	// VerifyAndDecode checks signature and expiry and returns the claims.
	// Failures wrap ErrInvalidToken.
	VerifyAndDecode(token string) (TokenClaims, error)
}
