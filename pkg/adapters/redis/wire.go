package redis

import (
	"fmt"
	"image"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aretw0/framegraph/pkg/domain"
)

// record is the msgpack layout of a stored snapshot. Pixels are raw RGBA
// rows, zstd-compressed when Compressed is set.
type record struct {
	RunID       string              `msgpack:"run_id"`
	Frame       uint64              `msgpack:"frame"`
	TimestampMs int64               `msgpack:"ts"`
	Width       int                 `msgpack:"w,omitempty"`
	Height      int                 `msgpack:"h,omitempty"`
	Compressed  bool                `msgpack:"z,omitempty"`
	Pixels      []byte              `msgpack:"px,omitempty"`
	Control     domain.Control      `msgpack:"control"`
	Trail       []domain.TrailPoint `msgpack:"trail,omitempty"`
}

// ControlMessage is what subscribers receive on the control channel.
type ControlMessage struct {
	RunID   string         `msgpack:"run_id"`
	Frame   uint64         `msgpack:"frame"`
	Control domain.Control `msgpack:"control"`
}

type codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newCodec() (*codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, err
	}
	return &codec{enc: enc, dec: dec}, nil
}

func (c *codec) close() {
	c.enc.Close()
	c.dec.Close()
}

func (c *codec) encode(s domain.Snapshot, compress bool) ([]byte, error) {
	r := record{
		RunID:       s.RunID,
		Frame:       s.Frame,
		TimestampMs: s.Timestamp.UnixMilli(),
		Control:     s.Control,
		Trail:       s.Trail,
	}
	if s.Image != nil {
		b := s.Image.Bounds()
		r.Width, r.Height = b.Dx(), b.Dy()
		r.Pixels = packRows(s.Image)
		if compress {
			r.Pixels = c.enc.EncodeAll(r.Pixels, nil)
			r.Compressed = true
		}
	}
	return msgpack.Marshal(&r)
}

func (c *codec) decode(data []byte) (domain.Snapshot, error) {
	var r record
	if err := msgpack.Unmarshal(data, &r); err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	s := domain.Snapshot{
		RunID:     r.RunID,
		Frame:     r.Frame,
		Timestamp: time.UnixMilli(r.TimestampMs).UTC(),
		Control:   r.Control,
		Trail:     r.Trail,
	}
	if r.Width == 0 || r.Height == 0 {
		return s, nil
	}

	pix := r.Pixels
	if r.Compressed {
		var err error
		if pix, err = c.dec.DecodeAll(pix, nil); err != nil {
			return domain.Snapshot{}, fmt.Errorf("failed to decompress frame: %w", err)
		}
	}
	if len(pix) != r.Width*r.Height*4 {
		return domain.Snapshot{}, fmt.Errorf("frame payload is %d bytes, want %d", len(pix), r.Width*r.Height*4)
	}
	s.Image = &image.RGBA{Pix: pix, Stride: r.Width * 4, Rect: image.Rect(0, 0, r.Width, r.Height)}
	return s, nil
}

// packRows copies the visible rows of img, dropping any stride padding.
func packRows(img *image.RGBA) []byte {
	b := img.Bounds()
	row := b.Dx() * 4
	out := make([]byte, 0, row*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		out = append(out, img.Pix[off:off+row]...)
	}
	return out
}
