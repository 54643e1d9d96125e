package token

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/osmacan/weather-api/internal/user"
	"github.com/osmacan/weather-api/pkg/id"
)

// Claims is the full identity payload embedded in every session token.
// Claims are immutable once issued; revocation is tracked out-of-band in
// the Blacklist.
type Claims struct {
	Sub   id.PublicID `json:"sub"`
	Email string      `json:"email"`
	Role  user.Role   `json:"role"`
	jwt.RegisteredClaims
}
