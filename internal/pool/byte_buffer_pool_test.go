package pool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewByteBuffer(t *testing.T) {
	bb := NewByteBuffer(1024)

	require.NotNil(t, bb.B)
	require.Equal(t, 0, bb.Len())
	require.Equal(t, 1024, bb.Cap())
	require.Equal(t, 1024, bb.Available())
}

func TestByteBuffer_Reset(t *testing.T) {
	bb := NewByteBuffer(64)
	bb.B = append(bb.B, "some data"...)

	bb.Reset()
	require.Equal(t, 0, bb.Len())
	require.Equal(t, 64, bb.Cap())
}

func TestByteBuffer_SliceAndSetLength(t *testing.T) {
	bb := NewByteBuffer(16)
	bb.B = append(bb.B, 'a', 'b')

	spare := bb.Slice(bb.Len(), bb.Cap())
	require.Len(t, spare, 14)
	copy(spare, "cd")
	bb.SetLength(4)
	require.Equal(t, []byte("abcd"), bb.Bytes())

	require.Panics(t, func() { bb.Slice(0, 17) })
	require.Panics(t, func() { bb.Slice(3, 2) })
	require.Panics(t, func() { bb.SetLength(-1) })
	require.Panics(t, func() { bb.SetLength(17) })
}

func TestByteBuffer_Grow(t *testing.T) {
	t.Run("sufficient capacity", func(t *testing.T) {
		bb := NewByteBuffer(64)
		bb.Grow(64)
		require.Equal(t, 64, bb.Cap())
	})

	t.Run("small buffer grows by default size", func(t *testing.T) {
		bb := NewByteBuffer(8)
		bb.B = append(bb.B, "12345678"...)
		bb.Grow(1)
		require.Equal(t, 8+FrameBufferDefaultSize, bb.Cap())
		require.Equal(t, []byte("12345678"), bb.Bytes())
	})

	t.Run("large buffer grows by a quarter", func(t *testing.T) {
		size := 8 * FrameBufferDefaultSize
		bb := NewByteBuffer(size)
		bb.SetLength(size)
		bb.Grow(1)
		require.Equal(t, size+size/4, bb.Cap())
	})

	t.Run("never less than requested", func(t *testing.T) {
		bb := NewByteBuffer(0)
		bb.Grow(3 * FrameBufferDefaultSize)
		require.GreaterOrEqual(t, bb.Available(), 3*FrameBufferDefaultSize)
	})
}

func TestByteBufferPool(t *testing.T) {
	p := NewByteBufferPool(32, 128)

	bb := p.Get()
	require.NotNil(t, bb)
	require.Equal(t, 0, bb.Len())
	bb.B = append(bb.B, "data"...)
	p.Put(bb)

	again := p.Get()
	require.Equal(t, 0, again.Len())

	p.Put(nil)
	p.Put(NewByteBuffer(256)) // dropped, above threshold
}

func TestFrameBufferPoolConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				bb := GetFrameBuffer()
				bb.Grow(128)
				bb.SetLength(128)
				PutFrameBuffer(bb)
			}
		}()
	}
	wg.Wait()
}
