package client

import "errors"

var (
	ErrClientNotFound    = errors.New("client not found")
	ErrInvalidPlatformID = errors.New("platform id is required")
)
