package loan

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid loan input")
	ErrInvalidTransition = errors.New("loan not in a state that allows this transition")
	ErrInvalidState      = errors.New("loan is not active")
	ErrNotFound          = errors.New("loan not found")
	ErrNotOwner          = errors.New("loan belongs to another user")
	ErrAlreadyPaid       = errors.New("installment already paid for the current period")
)
