package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestSetLogLevel(t *testing.T) {
	defer func() { _ = SetLogLevel("info") }()

	assert.NoError(t, SetLogLevel("debug"))
	assert.True(t, logLevel.Enabled(zapcore.DebugLevel))

	assert.NoError(t, SetLogLevel("WARN"))
	assert.False(t, logLevel.Enabled(zapcore.InfoLevel))

	assert.Error(t, SetLogLevel("verbose"))
}

func TestFrom(t *testing.T) {
	fallback := Nop()
	assert.Same(t, fallback, From(context.Background(), fallback))

	scoped := New("scoped")
	ctx := With(context.Background(), scoped)
	assert.Same(t, scoped, From(ctx, fallback))
	assert.NotNil(t, From(context.TODO(), nil))
}
