package logging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/baystatedata/covidetl/internal/logging"
)

func TestNewVerbosityLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		verbosity int
		level     zapcore.Level
	}{
		{0, zapcore.ErrorLevel},
		{1, zapcore.InfoLevel},
		{2, zapcore.DebugLevel},
	}

	for _, tt := range tests {
		for _, development := range []bool{true, false} {
			logger, err := logging.New(tt.verbosity, development)
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.level))
			if tt.level != zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(tt.level-1))
			}
		}
	}
}
