package errors

import "errors"

var (
	ErrAlreadyExists         = errors.New("already exists")
	ErrNotFound              = errors.New("not found")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrInvalidAddress        = errors.New("invalid address")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrLoanNotActive         = errors.New("loan not active")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
)
