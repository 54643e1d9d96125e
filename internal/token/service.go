package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/osmacan/weather-api/internal/config"
	"github.com/osmacan/weather-api/internal/user"
)

type Service interface {
	Issue(u *user.User) (*IssueResult, error)
	Validate(tokenString string) (*Claims, error)
}

type IssueResult struct {
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type service struct {
	logger     *zap.Logger
	cfg        *config.JWTConfig
	signingAlg jwt.SigningMethod
	now        func() time.Time
}

func NewService(logger *zap.Logger, cfg *config.JWTConfig) Service {
	return &service{
		logger:     logger,
		cfg:        cfg,
		signingAlg: jwt.SigningMethodHS256,
		now:        time.Now,
	}
}

func (s *service) Issue(u *user.User) (*IssueResult, error) {
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.cfg.TTL)
	claims := &Claims{
		Sub:   u.PublicID,
		Email: u.Email,
		Role:  u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(s.signingAlg, claims).SignedString(s.cfg.Secret)
	if err != nil {
		s.logger.Error("failed to sign session token", zap.Error(err))
		return nil, err
	}

	return &IssueResult{
		Token:     signed,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Validate is a pure function of token string, secret and clock: it holds no
// shared mutable state, so concurrent validation needs no locking. Revocation
// is checked separately against the Blacklist.
func (s *service) Validate(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{s.signingAlg.Alg()}),
		jwt.WithTimeFunc(s.now),
	)

	var claims Claims
	tkn, err := parser.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.cfg.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}
	if !tkn.Valid {
		return nil, ErrTokenMalformed
	}

	if claims.Issuer != s.cfg.Issuer {
		return nil, ErrTokenMalformed
	}
	return &claims, nil
}
