package protocol

import (
	"encoding/binary"
	"fmt"
)

// OperatingMode selects the transport encoding of the serial link.
type OperatingMode byte

// The two supported transport modes. Escaped API mode byte-stuffs special
// bytes after the start delimiter; plain API mode transmits the body as-is.
const (
	ModeAPI        OperatingMode = 0x01
	ModeEscapedAPI OperatingMode = 0x02
)

// String returns a human-readable mode name.
func (m OperatingMode) String() string {
	switch m {
	case ModeAPI:
		return "api"
	case ModeEscapedAPI:
		return "escaped"
	default:
		return fmt.Sprintf("unknown(0x%02x)", byte(m))
	}
}

func (m OperatingMode) supported() bool {
	return m == ModeAPI || m == ModeEscapedAPI
}

// Envelope constants.
const (
	// StartDelimiter marks the first byte of every frame on the wire.
	StartDelimiter = 0x7E

	escapeByte = 0x7D
	xonByte    = 0x11
	xoffByte   = 0x13
	escapeXOR  = 0x20

	// envelopeOverhead is delimiter + 2-byte length + checksum.
	envelopeOverhead = 4

	// minFrameSize is the smallest possible wire frame: envelope overhead
	// plus a one-byte body (the frame type code).
	minFrameSize = envelopeOverhead + 1
)

// Checksum returns the envelope checksum for body: 0xFF minus the low byte
// of the byte sum. A frame verifies when sum(body)+checksum masks to 0xFF.
func Checksum(body []byte) byte {
	var sum int
	for _, b := range body {
		sum += int(b)
	}
	return byte(0xFF - (sum & 0xFF))
}

func needsEscape(b byte) bool {
	switch b {
	case StartDelimiter, escapeByte, xonByte, xoffByte:
		return true
	default:
		return false
	}
}

// appendEscaped appends b to buf, stuffing it if it collides with a special
// byte. Used for every byte after the start delimiter in escaped mode.
func appendEscaped(buf []byte, b byte) []byte {
	if needsEscape(b) {
		return append(buf, escapeByte, b^escapeXOR)
	}
	return append(buf, b)
}

// unescape reverses byte stuffing over data (everything after the start
// delimiter). A trailing escape byte with nothing following it is a framing
// fault.
func unescape(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		b := data[i]
		if b == escapeByte {
			i++
			if i >= len(data) {
				return nil, fmt.Errorf("dangling escape byte: %w", ErrInvalidFrame)
			}
			b = data[i] ^ escapeXOR
		}
		out = append(out, b)
	}
	return out, nil
}

// Wrap builds the on-wire frame for body: start delimiter, big-endian length,
// body and checksum, byte-stuffed when mode is ModeEscapedAPI.
func Wrap(body []byte, mode OperatingMode) ([]byte, error) {
	if !mode.supported() {
		return nil, fmt.Errorf("mode %s: %w", mode, ErrUnsupportedMode)
	}

	var length [2]byte
	binary.BigEndian.PutUint16(length[:], uint16(len(body)))

	raw := make([]byte, 0, len(body)+envelopeOverhead)
	raw = append(raw, StartDelimiter)

	if mode == ModeAPI {
		raw = append(raw, length[0], length[1])
		raw = append(raw, body...)
		raw = append(raw, Checksum(body))
		return raw, nil
	}

	raw = appendEscaped(raw, length[0])
	raw = appendEscaped(raw, length[1])
	for _, b := range body {
		raw = appendEscaped(raw, b)
	}
	return appendEscaped(raw, Checksum(body)), nil
}

// Strip verifies the envelope of raw and returns a copy of the inner body
// (frame type byte + fields, checksum removed). It checks, in order: the
// operating mode, the minimum frame size, the start delimiter, escaped-mode
// de-stuffing, the declared-vs-actual length, and the checksum.
func Strip(raw []byte, mode OperatingMode) ([]byte, error) {
	if !mode.supported() {
		return nil, fmt.Errorf("mode %s: %w", mode, ErrUnsupportedMode)
	}
	if len(raw) < minFrameSize {
		return nil, fmt.Errorf("frame too short: %d bytes (minimum %d): %w",
			len(raw), minFrameSize, ErrInvalidFrame)
	}
	if raw[0] != StartDelimiter {
		return nil, fmt.Errorf("bad start delimiter 0x%02x (expected 0x%02x): %w",
			raw[0], StartDelimiter, ErrInvalidFrame)
	}

	inner := raw[1:]
	if mode == ModeEscapedAPI {
		var err error
		if inner, err = unescape(inner); err != nil {
			return nil, err
		}
	}
	if len(inner) < minFrameSize-1 {
		return nil, fmt.Errorf("frame too short after unescaping: %d bytes: %w",
			len(inner), ErrInvalidFrame)
	}

	declared := int(binary.BigEndian.Uint16(inner[:2]))
	body := inner[2 : len(inner)-1]
	if declared != len(body) {
		return nil, fmt.Errorf("declared length %d, actual body %d bytes: %w",
			declared, len(body), ErrInvalidFrame)
	}

	if got, want := inner[len(inner)-1], Checksum(body); got != want {
		return nil, fmt.Errorf("checksum 0x%02x, computed 0x%02x: %w", got, want, ErrInvalidFrame)
	}

	out := make([]byte, len(body))
	copy(out, body)
	return out, nil
}
