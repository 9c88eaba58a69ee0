package protocol

import (
	"fmt"
	"unicode/utf8"
)

// Frame type codes of the device-cloud family.
const (
	FrameTypeSendDataRequest      = 0x28
	FrameTypeDeviceResponse       = 0x2A
	FrameTypeSendDataResponse     = 0xB8
	FrameTypeDeviceRequest        = 0xB9
	FrameTypeDeviceResponseStatus = 0xBA
	FrameTypeFrameError           = 0xFE
)

// FrameTypeName returns a human-readable name for a frame type code.
func FrameTypeName(frameType byte) string {
	switch frameType {
	case FrameTypeSendDataRequest:
		return "SendDataRequest"
	case FrameTypeDeviceResponse:
		return "DeviceResponse"
	case FrameTypeSendDataResponse:
		return "SendDataResponse"
	case FrameTypeDeviceRequest:
		return "DeviceRequest"
	case FrameTypeDeviceResponseStatus:
		return "DeviceResponseStatus"
	case FrameTypeFrameError:
		return "FrameError"
	default:
		return fmt.Sprintf("Unknown(0x%02X)", frameType)
	}
}

// Packet is one decoded device-cloud frame body. Concrete kinds are plain
// value-like objects: they own copies of their variable-length fields and
// carry no shared mutable state.
type Packet interface {
	// FrameType returns the one-byte frame type code of the kind.
	FrameType() byte

	// Encode serializes the packet to its body bytes (frame type byte
	// included, envelope excluded). Encode is total: validation already
	// happened at construction or mutation time.
	Encode() []byte

	// View projects the packet into its ordered field-name/value mapping
	// for diagnostics.
	View() []Field

	String() string
}

// Field is one entry of a packet's introspection view. Views preserve the
// on-wire field order.
type Field struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Decode decodes body as the frame kind identified by frameType. The leading
// byte of body must match frameType; a body of a different kind is a hard
// decode error, not a different variant.
func Decode(frameType byte, body []byte) (Packet, error) {
	var (
		pkt Packet
		err error
	)
	switch frameType {
	case FrameTypeDeviceRequest:
		pkt, err = DecodeDeviceRequestPacket(body)
	case FrameTypeDeviceResponse:
		pkt, err = DecodeDeviceResponsePacket(body)
	case FrameTypeDeviceResponseStatus:
		pkt, err = DecodeDeviceResponseStatusPacket(body)
	case FrameTypeFrameError:
		pkt, err = DecodeFrameErrorPacket(body)
	case FrameTypeSendDataRequest:
		pkt, err = DecodeSendDataRequestPacket(body)
	case FrameTypeSendDataResponse:
		pkt, err = DecodeSendDataResponsePacket(body)
	default:
		return nil, fmt.Errorf("0x%02X is not a device-cloud frame type: %w",
			frameType, ErrFrameTypeMismatch)
	}
	if err != nil {
		return nil, err
	}
	return pkt, nil
}

// checkBody performs the shared leading validation for every kind: minimum
// body length first (matching the envelope-level minimum packet checks), then
// the frame type discriminator.
func checkBody(frameType byte, body []byte, minLen int) error {
	if len(body) < minLen {
		return fmt.Errorf("%s body is %d bytes (minimum %d): %w",
			FrameTypeName(frameType), len(body), minLen, ErrTruncatedField)
	}
	if body[0] != frameType {
		return fmt.Errorf("expected %s (0x%02X), got 0x%02X: %w",
			FrameTypeName(frameType), frameType, body[0], ErrFrameTypeMismatch)
	}
	return nil
}

// checkByteRange validates an integer destined for a one-byte field.
func checkByteRange(name string, v int) (uint8, error) {
	if v < 0 || v > 255 {
		return 0, fmt.Errorf("%s must be between 0 and 255, got %d: %w",
			name, v, ErrRangeViolation)
	}
	return uint8(v), nil
}

// checkText validates a text field against its one-byte length prefix.
func checkText(name, s string) error {
	if len(s) > 255 {
		return fmt.Errorf("%s is %d bytes (maximum 255): %w",
			name, len(s), ErrLengthViolation)
	}
	return nil
}

// readText reads the one-byte length prefix at off and the text that follows
// it, returning the text and the offset just past it. A zero prefix decodes
// to the empty string, the canonical absent state.
func readText(name string, body []byte, off int) (string, int, error) {
	if off >= len(body) {
		return "", 0, fmt.Errorf("%s length prefix at offset %d past end of body: %w",
			name, off, ErrTruncatedField)
	}
	n := int(body[off])
	off++
	if off+n > len(body) {
		return "", 0, fmt.Errorf("%s declares %d bytes but only %d remain: %w",
			name, n, len(body)-off, ErrTruncatedField)
	}
	raw := body[off : off+n]
	if !utf8.Valid(raw) {
		return "", 0, fmt.Errorf("%s: %w", name, ErrEncoding)
	}
	return string(raw), off + n, nil
}

// appendText appends the one-byte length prefix and the text bytes.
func appendText(buf []byte, s string) []byte {
	buf = append(buf, byte(len(s)))
	return append(buf, s...)
}

// trailing returns a copy of the payload bytes from off to the end of body.
// Zero remaining bytes and an absent payload are the same decoded state: nil.
func trailing(body []byte, off int) []byte {
	if off >= len(body) {
		return nil
	}
	out := make([]byte, len(body)-off)
	copy(out, body[off:])
	return out
}

// cloneBytes copies a caller-supplied or packet-owned payload so neither side
// can mutate the other. Empty collapses to nil, the canonical absent state.
func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
