package cli

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gitscope/internal/adapters/driving/mcp"
)

func withVersion(t *testing.T, v string) {
	t.Helper()
	prev := version
	version = v
	t.Cleanup(func() { version = prev })
}

func TestVersion_Full(t *testing.T) {
	setupTestServices(t)
	withVersion(t, "1.4.2")

	out, err := execute(t, "version")
	require.NoError(t, err)

	assert.Contains(t, out, "gitscope 1.4.2")
	assert.Contains(t, out, runtime.Version())
	assert.Contains(t, out, "mcp: "+mcp.Version)
}

func TestVersion_Short(t *testing.T) {
	setupTestServices(t)
	withVersion(t, "dev")

	out, err := execute(t, "version", "--short")
	require.NoError(t, err)

	assert.Equal(t, "dev", strings.TrimSpace(out))
}

func TestVersion_RejectsArgs(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "version", "extra")
	assert.Error(t, err)
}
