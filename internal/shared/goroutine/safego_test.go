package goroutine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/RobertLogos32/bto-prova/internal/shared/logger"
)

func TestRun_RecoversPanic(t *testing.T) {
	ok := Run(logger.NewNopLogger(), "boom", func() { panic("exploded") })
	assert.False(t, ok)
}

func TestRun_ReturnsTrue(t *testing.T) {
	called := false
	ok := Run(logger.NewNopLogger(), "fine", func() { called = true })
	assert.True(t, ok)
	assert.True(t, called)
}

func TestSafeGo_RunsFunction(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	SafeGo(logger.NewNopLogger(), "worker", func() {
		defer wg.Done()
		panic("still recovered")
	})
	wg.Wait()
}
