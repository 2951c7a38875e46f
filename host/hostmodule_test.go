package host

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"

	"github.com/reglet-dev/evaluator/log"
)

type fakeMemory struct {
	api.Memory
	data []byte
}

func (m *fakeMemory) Read(offset, n uint32) ([]byte, bool) {
	if uint64(offset)+uint64(n) > uint64(len(m.data)) {
		return nil, false
	}
	return m.data[offset : offset+n], true
}

type fakeModule struct {
	api.Module
	mem *fakeMemory
}

func (m *fakeModule) Memory() api.Memory { return m.mem }
func (m *fakeModule) Name() string       { return "fake" }

func TestOutput_CopiesBuffer(t *testing.T) {
	mod := &fakeModule{mem: &fakeMemory{data: []byte(`xx{"data":1}yy`)}}
	col := newCollector(slog.Default())

	output(withCollector(context.Background(), col), mod, 2, 10)

	require.Equal(t, 1, col.calls)
	assert.Equal(t, `{"data":1}`, string(col.data))

	copy(mod.mem.data, "..........")
	assert.Equal(t, `{"data":1}`, string(col.data))
}

func TestOutput_CountsDuplicates(t *testing.T) {
	mod := &fakeModule{mem: &fakeMemory{data: []byte(`abcdef`)}}
	col := newCollector(slog.Default())
	ctx := withCollector(context.Background(), col)

	output(ctx, mod, 0, 3)
	output(ctx, mod, 3, 3)

	assert.Equal(t, 2, col.calls)
	assert.Equal(t, "abc", string(col.data))
}

func TestOutput_OutOfRange(t *testing.T) {
	mod := &fakeModule{mem: &fakeMemory{data: []byte(`abc`)}}
	var logs bytes.Buffer
	col := newCollector(slog.New(log.NewHandler(log.WithWriter(&logs))))

	output(withCollector(context.Background(), col), mod, 2, 10)

	assert.Equal(t, 1, col.calls)
	assert.True(t, col.err)
	assert.Nil(t, col.data)
	assert.Contains(t, logs.String(), "output out of range of module memory")
	assert.Contains(t, logs.String(), "module=fake")
}

func TestOutput_WithoutCollector(t *testing.T) {
	mod := &fakeModule{mem: &fakeMemory{data: []byte(`abc`)}}
	assert.NotPanics(t, func() {
		output(context.Background(), mod, 0, 3)
	})
}
