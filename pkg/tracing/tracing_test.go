package tracing

import (
	"context"
	"testing"

	"github.com/2am33m/kinect/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(context.Background(), &config.TracingConfig{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_Enabled(t *testing.T) {
	shutdown, err := Init(context.Background(), &config.TracingConfig{
		Enabled:     true,
		Endpoint:    "127.0.0.1:4318",
		ServiceName: "kinect-test",
		SampleRatio: 1,
	})
	require.NoError(t, err)
	// 没有 span 需要导出，关闭不会访问 collector
	assert.NoError(t, shutdown(context.Background()))
}
