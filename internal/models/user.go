package models

import (
	"strings"
	"time"
)

// Role names understood by the authorization gates
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
	RoleEvaluador = "evaluador"
)

// RoleVocabulary is the fixed set of role names
var RoleVocabulary = []string{RoleUser, RoleModerator, RoleAdmin, RoleEvaluador}

// NormalizeRoleName lower-cases a role name and strips any legacy "role_" prefix
func NormalizeRoleName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.TrimPrefix(name, "role_")
}

// IsKnownRole reports whether name belongs to the role vocabulary
func IsKnownRole(name string) bool {
	name = NormalizeRoleName(name)
	for _, r := range RoleVocabulary {
		if r == name {
			return true
		}
	}
	return false
}

// User is a registered account
type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string    `gorm:"size:50;not null;uniqueIndex" json:"username"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Password     string    `gorm:"size:255;not null" json:"-"`
	Nombre       string    `gorm:"size:255;not null" json:"nombre"`
	Carrera      string    `gorm:"size:255" json:"carrera"`
	Cuatrimestre string    `gorm:"size:255" json:"cuatrimestre"`
	Categoria    string    `gorm:"size:255" json:"categoria"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Roles        []Role    `gorm:"many2many:user_roles" json:"roles,omitempty"`
}

// RoleNames returns the normalized names of the loaded roles
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, NormalizeRoleName(r.Name))
	}
	return names
}

// Role is a named permission group
type Role struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"size:50;not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserRole assigns a role to a user; the composite key makes the pair unique
type UserRole struct {
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	RoleID    uint      `gorm:"primaryKey;autoIncrement:false" json:"roleId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RefreshToken is an opaque credential used to mint new access tokens
type RefreshToken struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Token      string    `gorm:"size:255;not null;uniqueIndex" json:"token"`
	UserID     uint      `gorm:"not null;index" json:"userId"`
	ExpiryDate time.Time `gorm:"not null" json:"expiryDate"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// IsExpired reports whether the token's expiry is before now
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return t.ExpiryDate.Before(now)
}

// TableName overrides the table name for User
func (User) TableName() string {
	return "users"
}

// TableName overrides the table name for Role
func (Role) TableName() string {
	return "roles"
}

// TableName overrides the table name for UserRole
func (UserRole) TableName() string {
	return "user_roles"
}

// TableName overrides the table name for RefreshToken
func (RefreshToken) TableName() string {
	return "refresh_tokens"
}
