package allocation

import "errors"

var (
	ErrAllocationNotFound  = errors.New("allocation not found")
	ErrMissingActivationID = errors.New("activation id is required")
	ErrMissingNumber       = errors.New("number is required")
	ErrInvalidRequest      = errors.New("request id is required")
)
