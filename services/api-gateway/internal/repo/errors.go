package repo

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrEmailTaken        = errors.New("email already registered")
	ErrNotAssigned       = errors.New("order not assigned to this transporter")
	ErrNotOwner          = errors.New("order does not belong to this customer")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrNotCancellable    = errors.New("order can no longer be cancelled")
)
