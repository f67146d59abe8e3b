package buildmode

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/wolfeidau/stackup/internal/config"
)

func TestContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)
	assert.Equal(t, "development", NodeEnv(context.Background()))

	ctx := NewContext(context.Background(), config.Production)
	mode, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, config.Production, mode)
	assert.Equal(t, "production", NodeEnv(ctx))
}

func TestContext_Isolated(t *testing.T) {
	prod := NewContext(context.Background(), config.Production)
	dev := NewContext(context.Background(), config.Development)

	assert.Equal(t, "production", NodeEnv(prod))
	assert.Equal(t, "development", NodeEnv(dev))
}
