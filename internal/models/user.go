package models

import (
	"strings"
	"time"
)

// Role is the capability class of a staff member
type Role string

const (
	RoleWaiter Role = "waiter"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleWaiter || r == RoleAdmin
}

// Identity is the authenticated staff member owning a session
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Role        Role   `json:"role"`
}

// Credential is a username/password pair submitted at login
type Credential struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Blank reports whether either field is empty after trimming whitespace
func (c Credential) Blank() bool {
	return strings.TrimSpace(c.Username) == "" || strings.TrimSpace(c.Password) == ""
}

// User is a staff account as listed in the admin panel
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserRecord is a stored account including its password hash
type UserRecord struct {
	User
	PasswordHash string `json:"-"`
}

// UserRef identifies the staff member who submitted an order
type UserRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}
