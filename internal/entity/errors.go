package entity

import "errors"

var (
	ErrNotFound                = errors.New("record not found")
	ErrDomainAlreadyRegistered = errors.New("This domain is already registered in our system.")
	ErrEmailAlreadyExists      = errors.New("This email is already registered")
	ErrStatusConflict          = errors.New("opportunity status changed concurrently")
)
