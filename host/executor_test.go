package host

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
)

// emptyModule is the smallest valid wasm binary: magic and version only.
var emptyModule = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

func TestNewExecutor(t *testing.T) {
	ctx := context.Background()
	e, err := NewExecutor(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultModuleName, e.Config().ModuleName)
	assert.NoError(t, e.Close(ctx))
}

func TestNewExecutor_InvalidConfig(t *testing.T) {
	_, err := NewExecutor(context.Background(), WithMaxRequestSize(0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MaxRequestSize")
}

func TestNewExecutor_CompilationCache(t *testing.T) {
	ctx := context.Background()
	cache := wazero.NewCompilationCache()
	defer cache.Close(ctx)

	e, err := NewExecutor(ctx, WithCompilationCache(cache))
	require.NoError(t, err)
	assert.NoError(t, e.Close(ctx))
}

func TestLoad_InvalidBinary(t *testing.T) {
	ctx := context.Background()
	e, err := NewExecutor(ctx)
	require.NoError(t, err)
	defer e.Close(ctx)

	_, err = e.Load(ctx, []byte("not wasm"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to compile module")
}

func TestLoad_MissingExports(t *testing.T) {
	ctx := context.Background()
	e, err := NewExecutor(ctx)
	require.NoError(t, err)
	defer e.Close(ctx)

	_, err = e.Load(ctx, emptyModule)
	require.ErrorIs(t, err, ErrMissingExport)
	assert.Contains(t, err.Error(), `"allocate"`)
}
