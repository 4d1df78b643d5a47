package framebuffer

import (
	"image"

	"github.com/sasha-s/go-deadlock"
)

// Buffer is a double-buffered pixel surface. The render cycle draws into the
// back surface and calls Swap; sinks read the front surface through ReadFront
// or CopyFront. Swap excludes readers, so a reader always observes one whole
// frame and never a mix of two.
//
// Back is reserved for the render cycle, which never overlaps its own Swap.
type Buffer struct {
	mutex  deadlock.RWMutex
	front  *image.RGBA
	back   *image.RGBA
	width  int
	height int
}

func New(width, height int) *Buffer {
	bounds := image.Rect(0, 0, width, height)
	return &Buffer{
		front:  image.NewRGBA(bounds),
		back:   image.NewRGBA(bounds),
		width:  width,
		height: height,
	}
}

func (b *Buffer) Width() int {
	return b.width
}

func (b *Buffer) Height() int {
	return b.height
}

// Back returns the writable surface. Only the render cycle may hold it, and
// it must not be retained across a Swap.
func (b *Buffer) Back() *image.RGBA {
	return b.back
}

// Swap exchanges the front and back surfaces.
func (b *Buffer) Swap() {
	b.mutex.Lock()
	b.front, b.back = b.back, b.front
	b.mutex.Unlock()
}

// ReadFront runs fn against the stable front surface. fn must not write to
// the image or retain it past the call.
func (b *Buffer) ReadFront(fn func(*image.RGBA)) {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	fn(b.front)
}

// CopyFront returns a private copy of the front surface.
func (b *Buffer) CopyFront() *image.RGBA {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	clone := image.NewRGBA(b.front.Bounds())
	copy(clone.Pix, b.front.Pix)
	return clone
}
