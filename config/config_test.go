package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	c, err := Parse(`
name = "orders"
maxRetries = 5
logLevel = "debug"
`)
	require.NoError(t, err)
	assert.Equal(t, "orders", c.Name)
	assert.Equal(t, 5, c.MaxRetries)
	assert.Equal(t, "debug", c.LogLevel)

	opts, err := c.Options()
	require.NoError(t, err)
	assert.Len(t, opts, 2)
}

func TestAdjustDefaults(t *testing.T) {
	c, err := Parse("")
	require.NoError(t, err)
	assert.Equal(t, "batch", c.Name)
	assert.Equal(t, 3, c.MaxRetries)
	assert.Equal(t, "info", c.LogLevel)
}

func TestInvalidLogLevel(t *testing.T) {
	c, err := Parse(`logLevel = "noisy"`)
	require.NoError(t, err)
	_, err = c.Options()
	assert.Error(t, err)
}
