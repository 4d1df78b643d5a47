package framebuffer

import (
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fill(img *image.RGBA, value byte) {
	for i := range img.Pix {
		img.Pix[i] = value
	}
}

func uniform(img *image.RGBA) (byte, bool) {
	first := img.Pix[0]
	for _, p := range img.Pix {
		if p != first {
			return 0, false
		}
	}
	return first, true
}

func TestSwapExchangesSurfaces(t *testing.T) {
	b := New(4, 4)

	fill(b.Back(), 7)
	b.Swap()

	b.ReadFront(func(front *image.RGBA) {
		value, ok := uniform(front)
		assert.True(t, ok)
		assert.Equal(t, byte(7), value)
	})
}

func TestCopyFrontIsDetached(t *testing.T) {
	b := New(4, 4)

	fill(b.Back(), 1)
	b.Swap()

	clone := b.CopyFront()

	fill(b.Back(), 2)
	b.Swap()

	value, ok := uniform(clone)
	assert.True(t, ok)
	assert.Equal(t, byte(1), value)
}

// A reader overlapping Swap must see a single whole frame, never pixels from
// two different frames.
func TestReadersNeverObserveTornFrames(t *testing.T) {
	b := New(32, 32)
	done := make(chan struct{})

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		frame := byte(0)
		for {
			select {
			case <-done:
				return
			default:
			}

			frame++
			fill(b.Back(), frame)
			b.Swap()
		}
	}()

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}

				b.ReadFront(func(front *image.RGBA) {
					if _, ok := uniform(front); !ok {
						t.Error("observed a torn frame")
					}
				})
			}
		}()
	}

	time.Sleep(200 * time.Millisecond)
	close(done)
	wg.Wait()
}
