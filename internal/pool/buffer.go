// Package pool provides reusable byte buffers for chunked reads.
//
// Buffers are pooled by exact size: cat and cmp use fixed chunk sizes and a
// multipart upload uses one part size for its whole lifetime.
package pool

import (
	"sync"
)

const (
	// CatChunkSize is the read size used when streaming a range to a writer (8KB)
	CatChunkSize = 8 * 1024
	// CompareChunkSize is the lock-step read size used by byte comparison (64KB)
	CompareChunkSize = 64 * 1024
	// MaxPooledSize is the largest buffer kept for reuse (64MB)
	MaxPooledSize = 64 * 1024 * 1024
)

// BufferPool manages reusable buffers keyed by size.
type BufferPool struct {
	mu    sync.Mutex
	pools map[int]*sync.Pool
}

// NewBufferPool creates an empty buffer pool.
func NewBufferPool() *BufferPool {
	return &BufferPool{
		pools: make(map[int]*sync.Pool),
	}
}

func (bp *BufferPool) poolFor(size int) *sync.Pool {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	p, ok := bp.pools[size]
	if !ok {
		p = &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, size)
				return &buf
			},
		}
		bp.pools[size] = p
	}
	return p
}

// Get returns a buffer of exactly size bytes. Its contents are unspecified.
// The caller should hand it back with Put once done.
func (bp *BufferPool) Get(size int) []byte {
	if size <= 0 {
		return nil
	}
	if size > MaxPooledSize {
		return make([]byte, size)
	}
	bufPtr := bp.poolFor(size).Get().(*[]byte)
	return (*bufPtr)[:size]
}

// Put returns a buffer to the pool matching its capacity.
// The buffer should not be used after calling Put.
func (bp *BufferPool) Put(buf []byte) {
	size := cap(buf)
	if size == 0 || size > MaxPooledSize {
		return
	}
	buf = buf[:size]
	bp.poolFor(size).Put(&buf)
}

// Global buffer pool instance for use throughout the module.
var globalBufferPool = NewBufferPool()

// GetBuffer returns a buffer of exactly size bytes from the global pool.
func GetBuffer(size int) []byte {
	return globalBufferPool.Get(size)
}

// PutBuffer returns a buffer to the global pool.
func PutBuffer(buf []byte) {
	globalBufferPool.Put(buf)
}
