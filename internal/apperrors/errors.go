package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrForbidden indicates that the caller is not allowed to perform the operation.
var ErrForbidden = errors.New("operation not permitted")

// ErrInsufficientFunds indicates a transfer requested more than the source ledger holds.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrNoRecipient indicates no connected session owns the destination actor.
var ErrNoRecipient = errors.New("recipient not found or not connected")

// ErrUnknownOp indicates a channel envelope carried an unrecognized operation tag.
var ErrUnknownOp = errors.New("unknown message op")
