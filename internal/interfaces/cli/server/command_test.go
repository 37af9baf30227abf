package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/RobertLogos32/bto-prova/internal/infrastructure/config"
	sharedConfig "github.com/RobertLogos32/bto-prova/internal/shared/config"
)

func TestNewHTTPServer(t *testing.T) {
	cfg := &config.Config{
		Server:     sharedConfig.ServerConfig{Host: "127.0.0.1", Port: 9090},
		Activation: sharedConfig.ActivationConfig{AwaitTimeout: 2 * time.Minute},
	}

	srv := newHTTPServer(cfg, nil)

	assert.Equal(t, "127.0.0.1:9090", srv.Addr)
	assert.Equal(t, 150*time.Second, srv.WriteTimeout)
	assert.Equal(t, 15*time.Second, srv.ReadTimeout)
}

func TestNewCommand_Flags(t *testing.T) {
	cmd := NewCommand()

	for _, name := range []string{"env", "config", "auto-migrate", "skip-migration-check"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "e", cmd.Flags().Lookup("env").Shorthand)
}
