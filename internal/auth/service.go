package auth

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/osmacan/weather-api/internal/token"
	"github.com/osmacan/weather-api/internal/user"
)

const bcryptCost = 12

type Service interface {
	Register(ctx context.Context, dto *RegisterDTO) (*user.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
}

type RegisterDTO struct {
	FirstName string
	LastName  string
	Email     string
	City      string
	Role      user.Role
	Password  string
}

type LoginResult struct {
	User      *user.User
	Token     string
	ExpiresIn int64 // seconds
}

type service struct {
	users    user.Repo
	verifier *CredentialVerifier
	throttle *Throttle
	tokens   token.Service
	logger   *zap.Logger
}

func NewService(users user.Repo, verifier *CredentialVerifier, throttle *Throttle, tokens token.Service, logger *zap.Logger) Service {
	return &service{
		users:    users,
		verifier: verifier,
		throttle: throttle,
		tokens:   tokens,
		logger:   logger,
	}
}

func (s *service) Register(ctx context.Context, dto *RegisterDTO) (*user.User, error) {
	if dto.Role == "" {
		dto.Role = user.RoleUser
	}
	if !user.ValidRole(dto.Role) {
		return nil, ErrInvalidRole
	}
	if !passwordStrongEnough(dto.Password) {
		return nil, ErrWeakPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcryptCost)
	if err != nil {
		s.logger.Error("failed to hash password", zap.Error(err))
		return nil, err
	}

	return s.users.Create(ctx, &user.CreateDTO{
		FirstName: dto.FirstName,
		LastName:  dto.LastName,
		Email:     dto.Email,
		City:      dto.City,
		Role:      dto.Role,
		Password:  string(hashed),
	})
}

// Login runs the full flow: throttle check, credential verification with the
// outcome reported back to the throttle, then token issuance. NoSuchUser and
// WrongPassword both surface as ErrInvalidCredentials.
func (s *service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = NormalizeEmail(email)

	if s.throttle.CheckLocked(email) {
		s.logger.Warn("login rejected, identifier locked out", zap.String("email", email))
		return nil, ErrLockedOut
	}

	u, err := s.verifier.Verify(ctx, email, password)
	if err != nil {
		if errors.Is(err, ErrNoSuchUser) || errors.Is(err, ErrWrongPassword) {
			s.throttle.RecordAttempt(email, false)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	s.throttle.RecordAttempt(email, true)

	issued, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		User:      u,
		Token:     issued.Token,
		ExpiresIn: int64(issued.ExpiresAt.Sub(issued.IssuedAt).Seconds()),
	}, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// at least 8 chars with one lowercase, one uppercase and one digit
func passwordStrongEnough(password string) bool {
	if len(password) < 8 {
		return false
	}
	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}
