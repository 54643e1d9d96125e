package token

import "errors"

var (
	// ErrTokenExpired means the signature checked out but the token is past
	// its expiry.
	ErrTokenExpired = errors.New("token has expired")
	// ErrTokenMalformed covers everything else: bad signature, undecodable
	// string, wrong signing method, issuer mismatch.
	ErrTokenMalformed = errors.New("invalid token")
)
