package models

import "time"

// RefreshToken is an opaque, persisted refresh token of the operator.
type RefreshToken struct {
	ID        string
	Subject   string
	Token     string
	Expires   time.Time
	CreatedAt time.Time
}
