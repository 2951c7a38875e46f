//go:build wasip1

package abi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateRelease(t *testing.T) {
	FreeAllTracked()

	ptr := allocate(1024)
	require.NotZero(t, ptr)

	count, total := Stats()
	assert.Equal(t, 1, count)
	assert.Equal(t, 1024, total)

	copy(View(ptr, 1024), "hello world")
	assert.Equal(t, []byte("hello"), View(ptr, 5))

	release(ptr, 1024)
	count, total = Stats()
	assert.Equal(t, 0, count)
	assert.Equal(t, 0, total)
}

func TestAllocate_ZeroSize(t *testing.T) {
	assert.Zero(t, allocate(0))
}

func TestRelease_Twice(t *testing.T) {
	FreeAllTracked()

	ptr := allocate(100)
	release(ptr, 100)
	release(ptr, 100)

	_, total := Stats()
	assert.Zero(t, total)
}

func TestAllocate_ReusableAfterRelease(t *testing.T) {
	FreeAllTracked()
	Configure(WithMaxTotalAllocations(4096))
	t.Cleanup(func() { Configure(WithMaxTotalAllocations(DefaultMaxTotalAllocations)) })

	for range 1000 {
		ptr := allocate(4096)
		require.NotZero(t, ptr)
		release(ptr, 4096)
	}
	assert.Panics(t, func() {
		allocate(4097)
	})
}

func TestView_Empty(t *testing.T) {
	assert.Nil(t, View(0, 10))
	assert.Nil(t, View(8, 0))
}
