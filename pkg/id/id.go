package id

import "github.com/google/uuid"

// PublicID is the externally visible identifier for a user. The numeric
// database key never leaves the repo layer.
type PublicID string

func NewPublicID() PublicID {
	return PublicID(uuid.NewString())
}
