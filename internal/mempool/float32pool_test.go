package mempool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizeClass(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 1024},
		{1, 1024},
		{1024, 1024},
		{1025, 2048},
		{3 * 640 * 640, 1229824},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, sizeClass(tt.n), "sizeClass(%d)", tt.n)
	}
}

func TestGetFloat32ReturnsRequestedLength(t *testing.T) {
	for _, n := range []int{1, 100, 1024, 5000, 3 * 480 * 640} {
		buf := GetFloat32(n)
		require.Len(t, buf, n)
		assert.GreaterOrEqual(t, cap(buf), n)
		PutFloat32(buf)
	}
}

func TestPutFloat32NilIsSafe(t *testing.T) {
	assert.NotPanics(t, func() { PutFloat32(nil) })
}

func TestBufferReuse(t *testing.T) {
	buf := GetFloat32(2048)
	for i := range buf {
		buf[i] = float32(i)
	}
	PutFloat32(buf)

	// A subsequent Get of the same size class may hand back the same backing
	// array with stale contents. Only length and capacity are guaranteed.
	again := GetFloat32(2048)
	require.Len(t, again, 2048)
	PutFloat32(again)
}

func TestConcurrentGetPut(t *testing.T) {
	var wg sync.WaitGroup
	for n := 0; n < 16; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < 100; n++ {
				buf := GetFloat32(4096)
				buf[0] = 1
				buf[len(buf)-1] = 1
				PutFloat32(buf)
			}
		}()
	}
	wg.Wait()
}
