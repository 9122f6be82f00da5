package repository

import "errors"

var (
	ErrNotFound            = errors.New("record not found")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrInvalidTransition   = errors.New("invalid document status transition")
)
