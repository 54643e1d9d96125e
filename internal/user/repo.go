package user

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/osmacan/weather-api/pkg/id"
)

type CreateDTO struct {
	FirstName string
	LastName  string
	Email     string
	City      string
	Role      Role
	Password  string // bcrypt hash, never plaintext
}

type Repo interface {
	Create(ctx context.Context, dto *CreateDTO) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
}

const (
	insertUserQuery = `
						INSERT INTO users (public_id, firstname, lastname, email, city, role, password)
						VALUES ($1, $2, $3, $4, $5, $6, $7)
						RETURNING id, created_at, updated_at
						`
	findUserByEmailQuery = `
						SELECT id, public_id, firstname, lastname, email, city, role, password, created_at, updated_at
						FROM users
						WHERE lower(email) = lower($1)
						LIMIT 1
						`
)

type repo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewRepo(db *sql.DB, logger *zap.Logger) Repo {
	return &repo{db: db, logger: logger}
}

func (r *repo) Create(ctx context.Context, dto *CreateDTO) (*User, error) {
	u := &User{
		PublicID:  id.NewPublicID(),
		FirstName: strings.TrimSpace(dto.FirstName),
		LastName:  strings.TrimSpace(dto.LastName),
		Email:     strings.ToLower(strings.TrimSpace(dto.Email)),
		City:      strings.TrimSpace(dto.City),
		Role:      dto.Role,
		Password:  dto.Password,
	}

	row := r.db.QueryRowContext(ctx, insertUserQuery,
		string(u.PublicID),
		u.FirstName,
		u.LastName,
		u.Email,
		u.City,
		u.Role,
		u.Password,
	)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			r.logger.Warn("create user canceled/timed out", zap.Error(err))
			return nil, err
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			r.logger.Debug("duplicate email", zap.String("email", u.Email))
			return nil, ErrDuplicateEmail
		}

		r.logger.Error("failed to insert user", zap.Error(err))
		return nil, err
	}

	r.logger.Debug("user created",
		zap.Int64("id", u.ID),
		zap.String("public_id", string(u.PublicID)),
	)
	return u, nil
}

func (r *repo) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.db.QueryRowContext(ctx, findUserByEmailQuery, strings.TrimSpace(email))

	var u User
	err := row.Scan(
		&u.ID,
		&u.PublicID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.City,
		&u.Role,
		&u.Password,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("failed to lookup user by email", zap.Error(err))
		return nil, err
	}
	return &u, nil
}
