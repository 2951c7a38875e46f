//go:build wasip1

package abi

import "unsafe"

func addressOf(buf []byte) uint32 {
	//nolint:gosec // G103: wasm32 linear memory addresses fit in uint32
	return uint32(uintptr(unsafe.Pointer(&buf[0])))
}

// allocate reserves size bytes and returns their address. The contents are
// zeroed; the host is expected to overwrite all of them.
//
//go:wasmexport allocate
func allocate(size uint32) uint32 {
	return memoryManager.reserve(size, addressOf)
}

// release returns a region obtained from allocate.
//
//go:wasmexport release
func release(ptr uint32, size uint32) {
	memoryManager.free(ptr)
}

// View returns the length bytes at ptr without copying. Tracked regions are
// served from the pin table; anything else is read straight from linear
// memory.
func View(ptr, length uint32) []byte {
	if ptr == 0 || length == 0 {
		return nil
	}
	if buf, ok := memoryManager.region(ptr, length); ok {
		return buf
	}
	//nolint:gosec // G103: valid unsafe.Pointer use for wasm linear memory access
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), length)
}
