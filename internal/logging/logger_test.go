package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewDevelopmentEnablesDebug(t *testing.T) {
	t.Parallel()

	logger, err := New(true)
	require.NoError(t, err)
	defer logger.Sync() //nolint:errcheck // best-effort flush

	assert.NotNil(t, logger.Check(zap.DebugLevel, "enabled"))
}

func TestNewProductionSuppressesDebug(t *testing.T) {
	t.Parallel()

	logger, err := New(false)
	require.NoError(t, err)
	defer logger.Sync() //nolint:errcheck // best-effort flush

	assert.Nil(t, logger.Check(zap.DebugLevel, "suppressed"))
	assert.NotNil(t, logger.Check(zap.InfoLevel, "enabled"))
}
