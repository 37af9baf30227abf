package numberrequest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	tests := map[string]string{
		"bet365":  "ie",
		"sisal":   "bmi",
		"SNAI":    "bqy",
		"snai":    "bqy",
		"Betflag": "bmj",
	}
	for name, code := range tests {
		def, ok := c.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, code, def.Code)
		assert.False(t, def.SingleCode)
	}

	_, ok := c.Lookup("eurobet")
	assert.False(t, ok)
	assert.Equal(t, []string{"bet365", "sisal", "SNAI", "Betflag"}, c.Names())

	def, ok := c.LookupCode("bmj")
	require.True(t, ok)
	assert.Equal(t, "Betflag", def.Name)
}

func TestCatalog_WithSingleCode(t *testing.T) {
	base := DefaultCatalog()
	c, unknown := base.WithSingleCode([]string{"snai", "eurobet"})

	assert.Equal(t, []string{"eurobet"}, unknown)
	def, _ := c.Lookup("SNAI")
	assert.True(t, def.SingleCode)

	orig, _ := base.Lookup("SNAI")
	assert.False(t, orig.SingleCode)
}
