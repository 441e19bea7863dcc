package models

import "github.com/google/uuid"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User - проекция пользователя платформы: только то, что нужно спорам.
type User struct {
	ID   uuid.UUID `db:"id" json:"id"`
	Role string    `db:"role" json:"role"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
