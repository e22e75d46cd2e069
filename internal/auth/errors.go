package auth

import "errors"

var (
	// ErrTenantMismatch indicates the resource belongs to a different tenant.
	ErrTenantMismatch = errors.New("auth: tenant mismatch")
	// ErrNotFound indicates the resource was not found.
	ErrNotFound = errors.New("auth: resource not found")
	// ErrInvalidToken indicates a malformed or rejected token.
	ErrInvalidToken = errors.New("auth: invalid token")
)
