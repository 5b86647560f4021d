package domain

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already exists")
	ErrUnknownUser     = errors.New("unknown user")
	ErrUnknownView     = errors.New("unknown view")
	ErrLockTimeout     = errors.New("session lock acquisition timeout")
)
