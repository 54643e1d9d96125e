package user

import (
	"time"

	"github.com/osmacan/weather-api/pkg/id"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func ValidRole(r Role) bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID        int64       `json:"-"`
	PublicID  id.PublicID `json:"userId"`
	FirstName string      `json:"firstname"`
	LastName  string      `json:"lastname"`
	Email     string      `json:"email"`
	City      string      `json:"city"`
	Role      Role        `json:"role"`
	Password  string      `json:"-"` // bcrypt hash
	CreatedAt time.Time   `json:"-"`
	UpdatedAt time.Time   `json:"-"`
}
