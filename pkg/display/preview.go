package display

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"net"
	"net/http"

	"github.com/rinkworks/puckpulse/pkg/framebuffer"

	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
)

// Preview serves the front buffer over HTTP as a PNG, standing in for the
// desktop preview window on headless installs. Output re-encodes the current
// frame; the handler only ever serves the cached encoding, so a slow HTTP
// client never touches the buffer.
type Preview struct {
	buffer *framebuffer.Buffer

	mutex  deadlock.RWMutex
	cached []byte

	listener   net.Listener
	httpServer *http.Server
}

func NewPreview(buffer *framebuffer.Buffer) *Preview {
	return &Preview{
		buffer: buffer,
	}
}

func (p *Preview) Name() string {
	return "preview"
}

func (p *Preview) Output(ctx context.Context) error {
	frame := p.buffer.CopyFront()

	var encoded bytes.Buffer
	if err := png.Encode(&encoded, frame); err != nil {
		return err
	}

	p.mutex.Lock()
	p.cached = encoded.Bytes()
	p.mutex.Unlock()

	return nil
}

func (p *Preview) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/frame.png" {
		http.NotFound(w, r)
		return
	}

	p.mutex.RLock()
	frame := p.cached
	p.mutex.RUnlock()

	if frame == nil {
		http.Error(w, "no frame yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(frame)
}

// Listen binds the preview port. Separate from Serve so callers learn at
// startup whether this sink is usable at all.
func (p *Preview) Listen(listenAddr string) error {
	listen, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}

	log.Info().Str("address", listen.Addr().String()).Msg("preview listening")
	p.listener = listen
	return nil
}

func (p *Preview) Serve(ctx context.Context) error {
	p.httpServer = &http.Server{Handler: p}

	go func() {
		<-ctx.Done()
		p.httpServer.Close()
	}()

	err := p.httpServer.Serve(p.listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
