package provider

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RobertLogos32/bto-prova/internal/application/activation/usecases"
	"github.com/RobertLogos32/bto-prova/internal/domain/allocation"
)

func newFakeProvider(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "k3y", q.Get("api_key"))
		switch q.Get("action") {
		case "getBalance":
			_, _ = io.WriteString(w, "ACCESS_BALANCE:12.50")
		case "getStatus":
			switch q.Get("id") {
			case "777":
				_, _ = io.WriteString(w, "STATUS_OK:Your code is 123456")
			case "778":
				_, _ = io.WriteString(w, "NO_ACTIVATION")
			default:
				_, _ = io.WriteString(w, "WRONG_ACTIVATION_ID")
			}
		default:
			_, _ = io.WriteString(w, "BAD_ACTION")
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, providerURL string) string {
	t.Helper()
	t.Setenv("ENV", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := fmt.Sprintf(`
logger:
  output_path: stderr
provider:
  base_url: %s
  api_key: k3y
  timeout: 2s
`, providerURL)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestBalanceCommand(t *testing.T) {
	cfgPath := writeConfig(t, newFakeProvider(t).URL)

	out, err := execute(t, "balance", "-e", "test", "--config", cfgPath)

	require.NoError(t, err)
	assert.Equal(t, "Balance: 12.50\n", out)
}

func TestStatusCommand(t *testing.T) {
	cfgPath := writeConfig(t, newFakeProvider(t).URL)

	out, err := execute(t, "status", "777", "-e", "test", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Status:   delivered")
	assert.Contains(t, out, "Code:     Your code is 123456")

	out, err = execute(t, "status", "778", "-e", "test", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Status:   ended")
	assert.NotContains(t, out, "Code:")

	_, err = execute(t, "status", "1", "-e", "test", "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WRONG_ACTIVATION_ID")
}

func TestStatusCommand_RequiresActivationID(t *testing.T) {
	_, err := execute(t, "status")
	assert.Error(t, err)
}

func TestResolveOperator(t *testing.T) {
	roster := []int64{100, 200}

	id, err := resolveOperator(0, roster)
	require.NoError(t, err)
	assert.Equal(t, int64(100), id)

	id, err = resolveOperator(200, roster)
	require.NoError(t, err)
	assert.Equal(t, int64(200), id)

	_, err = resolveOperator(300, roster)
	assert.Error(t, err)

	_, err = resolveOperator(0, nil)
	assert.Error(t, err)
}

func TestPrintAwait(t *testing.T) {
	var out bytes.Buffer
	printAwait(&out, "alloc_1", &usecases.AwaitCodeResult{State: allocation.PollDelivered, Code: "123456"})
	assert.Contains(t, out.String(), "Code:     123456")

	out.Reset()
	printAwait(&out, "alloc_1", &usecases.AwaitCodeResult{State: allocation.PollExpired})
	assert.NotContains(t, out.String(), "Code:")
}
