package domain

import "errors"

var (
	ErrInvalidAccountNumber = errors.New("transfer: account number must be exactly 6 characters")
	ErrSameAccount          = errors.New("transfer: from and to accounts must differ")
	ErrInvalidAmount        = errors.New("transfer: amount must be positive with at most 2 decimal places")

	ErrAccountNotFound  = errors.New("ledger: account not found")
	ErrJobNotFound      = errors.New("transfer: job not found")
	ErrAlreadyFinalized = errors.New("transfer: job already finalized")

	ErrQueueFull      = errors.New("dispatch: queue is full")
	ErrDispatchFailed = errors.New("dispatch: transfer could not be queued")
)
