package protocol

import (
	"bufio"
	"fmt"
	"io"
)

// StreamDecoder extracts enveloped frames from a continuous serial byte
// stream. It resynchronizes on the start delimiter, so junk between frames
// and a mid-stream attach are both tolerated.
type StreamDecoder struct {
	r    *bufio.Reader
	mode OperatingMode
}

// NewStreamDecoder wraps r for frame extraction in the given operating mode.
func NewStreamDecoder(r io.Reader, mode OperatingMode) (*StreamDecoder, error) {
	if !mode.supported() {
		return nil, fmt.Errorf("mode %s: %w", mode, ErrUnsupportedMode)
	}
	return &StreamDecoder{r: bufio.NewReader(r), mode: mode}, nil
}

// Next scans to the next start delimiter and returns the de-escaped,
// checksum-verified body of the frame that follows. On a checksum failure or
// an empty declared body it returns ErrInvalidFrame; the caller may call Next
// again to resynchronize at the next delimiter. Returns io.EOF when the stream ends cleanly between
// frames and io.ErrUnexpectedEOF when it ends mid-frame.
func (d *StreamDecoder) Next() ([]byte, error) {
	for {
		b, err := d.r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b == StartDelimiter {
			break
		}
	}

	lenHi, err := d.readByte()
	if err != nil {
		return nil, midFrame(err)
	}
	lenLo, err := d.readByte()
	if err != nil {
		return nil, midFrame(err)
	}

	// A body holds at least the frame type byte; a declared length of zero
	// is a framing fault, same as Strip's minimum frame size check.
	bodyLen := int(lenHi)<<8 | int(lenLo)
	if bodyLen == 0 {
		return nil, fmt.Errorf("declared body length 0: %w", ErrInvalidFrame)
	}

	body := make([]byte, bodyLen)
	for i := range body {
		if body[i], err = d.readByte(); err != nil {
			return nil, midFrame(err)
		}
	}

	sum, err := d.readByte()
	if err != nil {
		return nil, midFrame(err)
	}
	if want := Checksum(body); sum != want {
		return nil, fmt.Errorf("checksum 0x%02x, computed 0x%02x: %w", sum, want, ErrInvalidFrame)
	}
	return body, nil
}

// readByte reads one logical byte, reversing escaped-mode stuffing.
func (d *StreamDecoder) readByte() (byte, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return 0, err
	}
	if d.mode == ModeEscapedAPI && b == escapeByte {
		nb, err := d.r.ReadByte()
		if err != nil {
			return 0, err
		}
		return nb ^ escapeXOR, nil
	}
	return b, nil
}

func midFrame(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
