package display

import (
	"context"
	"encoding/binary"
	"image"
	"net"

	"github.com/rinkworks/puckpulse/pkg/framebuffer"

	"github.com/rs/zerolog/log"
)

// Panel drives a network-addressed LED panel. Each frame goes out as one
// datagram per pixel row followed by a commit packet; the controller latches
// the frame on commit. Delivery is best-effort by design, the next push is
// never more than one interval away.
type Panel struct {
	buffer *framebuffer.Buffer
	conn   net.Conn
}

const (
	packetRow    = 0x55
	packetCommit = 0x56
)

func NewPanel(address string, buffer *framebuffer.Buffer) (*Panel, error) {
	conn, err := net.Dial("udp", address)
	if err != nil {
		return nil, err
	}

	log.Info().Str("address", address).Msg("LED panel connected")

	return &Panel{
		buffer: buffer,
		conn:   conn,
	}, nil
}

func (p *Panel) Name() string {
	return "panel"
}

func (p *Panel) Output(ctx context.Context) error {
	var err error

	p.buffer.ReadFront(func(front *image.RGBA) {
		width := front.Rect.Dx()
		height := front.Rect.Dy()

		packet := make([]byte, 5+width*3)

		for y := 0; y < height; y++ {
			packet[0] = packetRow
			binary.BigEndian.PutUint16(packet[1:3], uint16(y))
			binary.BigEndian.PutUint16(packet[3:5], uint16(width))

			row := front.Pix[y*front.Stride : y*front.Stride+width*4]
			for x := 0; x < width; x++ {
				packet[5+x*3] = row[x*4]
				packet[5+x*3+1] = row[x*4+1]
				packet[5+x*3+2] = row[x*4+2]
			}

			if _, err = p.conn.Write(packet); err != nil {
				return
			}
		}

		_, err = p.conn.Write([]byte{packetCommit})
	})

	return err
}

func (p *Panel) Close() error {
	return p.conn.Close()
}
