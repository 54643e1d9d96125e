package auth

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/osmacan/weather-api/internal/user"
)

// CredentialVerifier checks a presented email/password pair against the
// stored hash. It is read-only: recording the outcome with the Throttle is
// the caller's job, which keeps hashing and throttling independently
// testable.
type CredentialVerifier struct {
	users  user.Repo
	logger *zap.Logger
}

func NewCredentialVerifier(users user.Repo, logger *zap.Logger) *CredentialVerifier {
	return &CredentialVerifier{users: users, logger: logger}
}

// Verify expects email already normalized (trimmed, lower-cased). Returns
// ErrNoSuchUser, ErrWrongPassword, or the matched user record. Store
// failures pass through unchanged.
func (v *CredentialVerifier) Verify(ctx context.Context, email, password string) (*user.User, error) {
	u, err := v.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNoSuchUser
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrWrongPassword
		}
		v.logger.Error("bcrypt comparison failed", zap.Error(err))
		return nil, err
	}
	return u, nil
}
