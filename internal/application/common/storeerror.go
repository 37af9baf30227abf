// Package common holds helpers shared by the use case packages.
package common

import (
	"github.com/RobertLogos32/bto-prova/internal/shared/errors"
	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

// StoreError logs a failed store call and converts it to the transient
// store error callers may retry.
func StoreError(log logger.Interface, op string, err error) error {
	log.Errorw("store operation failed", "op", op, "error", err)
	return errors.NewStoreUnavailableError(op, err)
}
