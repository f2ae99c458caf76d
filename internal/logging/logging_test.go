package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerDefaultsToNop(t *testing.T) {
	assert.NotNil(t, Logger)
	assert.NotPanics(t, func() { Logger.Debugw("ignored", "key", "value") })
}

func TestInitLogger(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	for _, debug := range []bool{true, false} {
		require.NoError(t, InitLogger(debug))
		assert.NotNil(t, Logger)
		assert.Equal(t, debug, Logger.Desugar().Core().Enabled(-1))
	}
}
