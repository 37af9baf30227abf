package numberrequest

import "errors"

var (
	ErrRequestNotFound = errors.New("number request not found")
	ErrInvalidService  = errors.New("service is not in the catalog")
	ErrInvalidClient   = errors.New("client id is required")
)
