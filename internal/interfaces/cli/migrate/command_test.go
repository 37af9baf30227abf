package migrate

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedConfig "github.com/RobertLogos32/bto-prova/internal/shared/config"
)

func TestSelectStrategy(t *testing.T) {
	s, err := selectStrategy(sharedConfig.DriverMySQL, strategyGoose)
	require.NoError(t, err)
	assert.Equal(t, "goose", s.GetName())

	s, err = selectStrategy(sharedConfig.DriverMySQL, strategyGorm)
	require.NoError(t, err)
	assert.Equal(t, "gorm_auto_migrate", s.GetName())

	_, err = selectStrategy(sharedConfig.DriverMySQL, "flyway")
	assert.Error(t, err)

	_, err = selectStrategy("sqlite", strategyGoose)
	assert.Error(t, err)
}

func TestCreateCommand_WritesBothDialects(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"mysql", "postgres"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}

	cmd := NewCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"create", "--name", "add_index", "--dir", root})
	require.NoError(t, cmd.Execute())

	for _, d := range []string{"mysql", "postgres"} {
		files, err := filepath.Glob(filepath.Join(root, d, "*_add_index.sql"))
		require.NoError(t, err)
		assert.Len(t, files, 1, d)
	}
	assert.Contains(t, out.String(), "add_index")
}

func TestDownCommand_RejectsZeroSteps(t *testing.T) {
	t.Setenv("ENV", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logger:\n  output_path: stderr\n"), 0o600))

	cmd := NewCommand()
	cmd.SetArgs([]string{"down", "-n", "0", "-e", "test", "--config", path})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps")
}
