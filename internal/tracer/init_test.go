package tracer

import (
	"context"
	"testing"

	"ai-docchat-client/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func TestDisabledTracerIsNoop(t *testing.T) {
	shutdown := InitTracer(false, "docchat-test", logger.NewNopLogger())
	assert.NoError(t, shutdown(context.Background()))
}
