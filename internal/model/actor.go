package model

import "github.com/google/uuid"

// Actor roles as carried in the access token. Identity resolution happens
// upstream; this service only consumes the resolved id and role.
const (
	RoleCitizen = "citizen"
	RoleAgent   = "agent"
	RoleAdmin   = "admin"
)

// Actor is the authenticated caller of a scheduling operation.
type Actor struct {
	ID   uuid.UUID `json:"id"`
	Role string    `json:"role"`
}
