// Package goroutine provides utilities for safely launching goroutines with panic recovery.
package goroutine

import (
	"fmt"
	"runtime/debug"

	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

// SafeGo launches fn in its own goroutine. A panic is logged with its stack
// and swallowed so that one bad update or poll item cannot take the process down.
func SafeGo(log logger.Interface, name string, fn func()) {
	go Run(log, name, fn)
}

// Run executes fn on the calling goroutine with the same recovery as SafeGo.
// It reports whether fn returned without panicking.
func Run(log logger.Interface, name string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorw("goroutine panicked",
				"goroutine", name,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			ok = false
		}
	}()
	fn()
	return true
}
