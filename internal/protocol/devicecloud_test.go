package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		pkt  func(t *testing.T) Packet
	}{
		{
			name: "device request",
			pkt: func(t *testing.T) Packet {
				p, err := NewDeviceRequestPacket(42, "myTarget", []byte{0xDE, 0xAD})
				if err != nil {
					t.Fatalf("construct: %v", err)
				}
				return p
			},
		},
		{
			name: "device request without payload",
			pkt: func(t *testing.T) Packet {
				p, err := NewDeviceRequestPacket(0, "", nil)
				if err != nil {
					t.Fatalf("construct: %v", err)
				}
				return p
			},
		},
		{
			name: "device response",
			pkt: func(t *testing.T) Packet {
				p, err := NewDeviceResponsePacket(255, 0, []byte{0x01, 0x02, 0x03})
				if err != nil {
					t.Fatalf("construct: %v", err)
				}
				return p
			},
		},
		{
			name: "device response status",
			pkt: func(t *testing.T) Packet {
				p, err := NewDeviceResponseStatusPacket(7, StatusSuccess)
				if err != nil {
					t.Fatalf("construct: %v", err)
				}
				return p
			},
		},
		{
			name: "frame error",
			pkt: func(t *testing.T) Packet {
				return NewFrameErrorPacket(FrameErrInvalidChecksum)
			},
		},
		{
			name: "send data request",
			pkt: func(t *testing.T) Packet {
				p, err := NewSendDataRequestPacket(3, "a.txt", "text/plain",
					OptionOverwrite, []byte{0x01, 0x02})
				if err != nil {
					t.Fatalf("construct: %v", err)
				}
				return p
			},
		},
		{
			name: "send data response",
			pkt: func(t *testing.T) Packet {
				p, err := NewSendDataResponsePacket(9, StatusTimeout)
				if err != nil {
					t.Fatalf("construct: %v", err)
				}
				return p
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := tt.pkt(t)
			body := orig.Encode()

			decoded, err := Decode(orig.FrameType(), body)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !bytes.Equal(decoded.Encode(), body) {
				t.Errorf("re-encode = % x, want % x", decoded.Encode(), body)
			}

			// Views are the observable field projection, so equal views
			// mean equal packets.
			got, want := decoded.View(), orig.View()
			if len(got) != len(want) {
				t.Fatalf("view has %d fields, want %d", len(got), len(want))
			}
			for i := range want {
				if got[i].Name != want[i].Name {
					t.Errorf("field %d name = %q, want %q", i, got[i].Name, want[i].Name)
				}
				gb, gok := got[i].Value.([]byte)
				wb, wok := want[i].Value.([]byte)
				if gok || wok {
					if !bytes.Equal(gb, wb) {
						t.Errorf("field %q = % x, want % x", want[i].Name, gb, wb)
					}
					continue
				}
				if got[i].Value != want[i].Value {
					t.Errorf("field %q = %v, want %v", want[i].Name, got[i].Value, want[i].Value)
				}
			}
		})
	}
}

func TestDecodeTruncatedBody(t *testing.T) {
	tests := []struct {
		name      string
		frameType byte
		minLen    int
	}{
		{"device request", FrameTypeDeviceRequest, deviceRequestMinLen},
		{"device response", FrameTypeDeviceResponse, deviceResponseMinLen},
		{"device response status", FrameTypeDeviceResponseStatus, deviceResponseStatusMinLen},
		{"frame error", FrameTypeFrameError, frameErrorMinLen},
		{"send data request", FrameTypeSendDataRequest, sendDataRequestMinLen},
		{"send data response", FrameTypeSendDataResponse, sendDataResponseMinLen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Correct leading type byte, one byte short of the minimum.
			body := make([]byte, tt.minLen-1)
			body[0] = tt.frameType

			pkt, err := Decode(tt.frameType, body)
			if !errors.Is(err, ErrTruncatedField) {
				t.Errorf("error = %v, want ErrTruncatedField", err)
			}
			if pkt != nil {
				t.Errorf("got partial packet %v, want nil", pkt)
			}
		})
	}
}

func TestDecodeFrameTypeMismatch(t *testing.T) {
	// A well-formed device response status body fed to every other decoder.
	body := []byte{FrameTypeDeviceResponseStatus, 0x07, 0x00}

	for _, frameType := range []byte{
		FrameTypeDeviceRequest,
		FrameTypeDeviceResponse,
		FrameTypeFrameError,
		FrameTypeSendDataRequest,
		FrameTypeSendDataResponse,
	} {
		t.Run(FrameTypeName(frameType), func(t *testing.T) {
			padded := append(append([]byte(nil), body...), 0x00, 0x00, 0x00)
			padded[0] = FrameTypeDeviceResponseStatus
			if _, err := Decode(frameType, padded); !errors.Is(err, ErrFrameTypeMismatch) {
				t.Errorf("error = %v, want ErrFrameTypeMismatch", err)
			}
		})
	}

	t.Run("unknown frame type", func(t *testing.T) {
		if _, err := Decode(0x00, body); !errors.Is(err, ErrFrameTypeMismatch) {
			t.Errorf("error = %v, want ErrFrameTypeMismatch", err)
		}
	})
}

func TestIntegerRangeValidation(t *testing.T) {
	for _, v := range []int{-1, 256} {
		if _, err := NewDeviceRequestPacket(v, "t", nil); !errors.Is(err, ErrRangeViolation) {
			t.Errorf("request ID %d: error = %v, want ErrRangeViolation", v, err)
		}
		if _, err := NewDeviceResponsePacket(v, 0, nil); !errors.Is(err, ErrRangeViolation) {
			t.Errorf("frame ID %d: error = %v, want ErrRangeViolation", v, err)
		}
		if _, err := NewDeviceResponsePacket(0, v, nil); !errors.Is(err, ErrRangeViolation) {
			t.Errorf("request ID %d: error = %v, want ErrRangeViolation", v, err)
		}
	}

	for _, v := range []int{0, 255} {
		if _, err := NewDeviceResponsePacket(v, v, nil); err != nil {
			t.Errorf("frame/request ID %d: unexpected error %v", v, err)
		}
	}
}

func TestSetterValidationLeavesPacketUnchanged(t *testing.T) {
	p, err := NewDeviceResponsePacket(10, 20, nil)
	if err != nil {
		t.Fatalf("construct: %v", err)
	}

	if err := p.SetFrameID(256); !errors.Is(err, ErrRangeViolation) {
		t.Errorf("SetFrameID(256) error = %v, want ErrRangeViolation", err)
	}
	if p.FrameID() != 10 {
		t.Errorf("frame ID = %d after failed set, want 10", p.FrameID())
	}

	req, err := NewDeviceRequestPacket(1, "orig", nil)
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	long := make([]byte, 256)
	for i := range long {
		long[i] = 'a'
	}
	if err := req.SetTarget(string(long)); !errors.Is(err, ErrLengthViolation) {
		t.Errorf("SetTarget error = %v, want ErrLengthViolation", err)
	}
	if req.Target() != "orig" {
		t.Errorf("target = %q after failed set, want %q", req.Target(), "orig")
	}
}

func TestTextLengthValidation(t *testing.T) {
	max := string(bytes.Repeat([]byte{'x'}, 255))
	over := max + "x"

	if _, err := NewDeviceRequestPacket(1, over, nil); !errors.Is(err, ErrLengthViolation) {
		t.Errorf("target 256 bytes: error = %v, want ErrLengthViolation", err)
	}
	if _, err := NewDeviceRequestPacket(1, max, nil); err != nil {
		t.Errorf("target 255 bytes: unexpected error %v", err)
	}
	if _, err := NewSendDataRequestPacket(1, over, "", OptionAppend, nil); !errors.Is(err, ErrLengthViolation) {
		t.Errorf("path 256 bytes: error = %v, want ErrLengthViolation", err)
	}
	if _, err := NewSendDataRequestPacket(1, "", over, OptionAppend, nil); !errors.Is(err, ErrLengthViolation) {
		t.Errorf("content type 256 bytes: error = %v, want ErrLengthViolation", err)
	}
	if _, err := NewSendDataRequestPacket(1, max, max, OptionAppend, nil); err != nil {
		t.Errorf("path/content type 255 bytes: unexpected error %v", err)
	}
}

func TestAbsentAndEmptyPayloadCollapse(t *testing.T) {
	withNil, err := NewDeviceRequestPacket(5, "t", nil)
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	withEmpty, err := NewDeviceRequestPacket(5, "t", []byte{})
	if err != nil {
		t.Fatalf("construct: %v", err)
	}

	if !bytes.Equal(withNil.Encode(), withEmpty.Encode()) {
		t.Errorf("nil and empty payload encode differently: % x vs % x",
			withNil.Encode(), withEmpty.Encode())
	}

	decoded, err := DecodeDeviceRequestPacket(withNil.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Payload() != nil {
		t.Errorf("payload = %v, want nil", decoded.Payload())
	}

	resp, err := NewDeviceResponsePacket(1, 2, []byte{})
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	rd, err := DecodeDeviceResponsePacket(resp.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rd.Payload() != nil {
		t.Errorf("response payload = %v, want nil", rd.Payload())
	}
}

func TestDeviceRequestDeclaredTargetLengthPastEnd(t *testing.T) {
	// target_len says 10 but only 3 bytes remain before end of body.
	body := []byte{FrameTypeDeviceRequest, 0x01, 0x00, 0x00, 10, 'a', 'b', 'c'}

	_, err := DecodeDeviceRequestPacket(body)
	if !errors.Is(err, ErrTruncatedField) {
		t.Errorf("error = %v, want ErrTruncatedField", err)
	}
}

func TestDecodeInvalidUTF8Text(t *testing.T) {
	body := []byte{FrameTypeDeviceRequest, 0x01, 0x00, 0x00, 2, 0xFF, 0xFE}
	if _, err := DecodeDeviceRequestPacket(body); !errors.Is(err, ErrEncoding) {
		t.Errorf("error = %v, want ErrEncoding", err)
	}

	body = []byte{FrameTypeSendDataRequest, 0x01, 1, 0xC0, 0, 0x00, 0x00}
	if _, err := DecodeSendDataRequestPacket(body); !errors.Is(err, ErrEncoding) {
		t.Errorf("error = %v, want ErrEncoding", err)
	}
}

func TestDeviceResponseStatusUnknownCode(t *testing.T) {
	p, err := NewDeviceResponseStatusPacket(7, StatusSuccess)
	if err != nil {
		t.Fatalf("construct: %v", err)
	}

	decoded, err := DecodeDeviceResponseStatusPacket(p.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.FrameID() != 7 {
		t.Errorf("frame ID = %d, want 7", decoded.FrameID())
	}
	if decoded.Status() != StatusSuccess {
		t.Errorf("status = %v, want success", decoded.Status())
	}

	// An unregistered wire code still decodes and re-encodes losslessly.
	raw := []byte{FrameTypeDeviceResponseStatus, 0x07, 0xFF}
	decoded, err = DecodeDeviceResponseStatusPacket(raw)
	if err != nil {
		t.Fatalf("decode unknown status: %v", err)
	}
	if decoded.Status().Registered() {
		t.Errorf("status 0xFF should be unregistered")
	}
	if got := decoded.Status().String(); got != "unknown (0xFF)" {
		t.Errorf("status string = %q, want %q", got, "unknown (0xFF)")
	}
	if !bytes.Equal(decoded.Encode(), raw) {
		t.Errorf("re-encode = % x, want % x", decoded.Encode(), raw)
	}
}

func TestSendDataRequestExactRoundTrip(t *testing.T) {
	p, err := NewSendDataRequestPacket(3, "a.txt", "text/plain",
		OptionOverwrite, []byte{0x01, 0x02})
	if err != nil {
		t.Fatalf("construct: %v", err)
	}

	body := p.Encode()
	want := []byte{
		FrameTypeSendDataRequest, 0x03,
		5, 'a', '.', 't', 'x', 't',
		10, 't', 'e', 'x', 't', '/', 'p', 'l', 'a', 'i', 'n',
		0x00, // transport
		byte(OptionOverwrite),
		0x01, 0x02,
	}
	if !bytes.Equal(body, want) {
		t.Fatalf("encode = % x, want % x", body, want)
	}

	decoded, err := DecodeSendDataRequestPacket(body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.FrameID() != 3 || decoded.Path() != "a.txt" ||
		decoded.ContentType() != "text/plain" || decoded.Options() != OptionOverwrite {
		t.Errorf("decoded = %v", decoded)
	}
	if !bytes.Equal(decoded.Payload(), []byte{0x01, 0x02}) {
		t.Errorf("payload = % x, want 01 02", decoded.Payload())
	}
}

func TestSendDataRequestFloatingOffsets(t *testing.T) {
	// The content type length prefix starts where the path ended, and the
	// transport/options pair floats after both strings.
	tests := []struct {
		name        string
		path        string
		contentType string
	}{
		{"both present", "logs/boot.txt", "text/plain"},
		{"absent path", "", "application/octet-stream"},
		{"absent content type", "data.bin", ""},
		{"both absent", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewSendDataRequestPacket(1, tt.path, tt.contentType,
				OptionAppend, []byte{0xAA})
			if err != nil {
				t.Fatalf("construct: %v", err)
			}
			decoded, err := DecodeSendDataRequestPacket(p.Encode())
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if decoded.Path() != tt.path {
				t.Errorf("path = %q, want %q", decoded.Path(), tt.path)
			}
			if decoded.ContentType() != tt.contentType {
				t.Errorf("content type = %q, want %q", decoded.ContentType(), tt.contentType)
			}
			if decoded.Options() != OptionAppend {
				t.Errorf("options = %v, want append", decoded.Options())
			}
			if !bytes.Equal(decoded.Payload(), []byte{0xAA}) {
				t.Errorf("payload = % x, want aa", decoded.Payload())
			}
		})
	}
}

func TestSendDataRequestMissingOptionsBytes(t *testing.T) {
	// Strings consume the rest of the body; the transport/options pair is
	// gone even though the body meets the fixed minimum length.
	body := []byte{FrameTypeSendDataRequest, 0x01, 2, 'a', 'b', 0}
	if _, err := DecodeSendDataRequestPacket(body); !errors.Is(err, ErrTruncatedField) {
		t.Errorf("error = %v, want ErrTruncatedField", err)
	}
}

func TestPayloadDefensiveCopies(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03}
	p, err := NewDeviceRequestPacket(1, "t", buf)
	if err != nil {
		t.Fatalf("construct: %v", err)
	}

	// Mutating the caller's buffer must not reach the packet.
	buf[0] = 0xFF
	if got := p.Payload(); got[0] != 0x01 {
		t.Errorf("payload[0] = 0x%02x after caller mutation, want 0x01", got[0])
	}

	// Mutating a returned copy must not reach the packet either.
	out := p.Payload()
	out[1] = 0xFF
	if got := p.Payload(); got[1] != 0x02 {
		t.Errorf("payload[1] = 0x%02x after getter mutation, want 0x02", got[1])
	}
}

func TestViewFieldOrder(t *testing.T) {
	tests := []struct {
		name  string
		pkt   Packet
		names []string
	}{
		{
			name:  "device request",
			pkt:   mustPacket(NewDeviceRequestPacket(1, "t", nil)),
			names: []string{"request_id", "transport", "flags", "target", "payload"},
		},
		{
			name:  "device response",
			pkt:   mustPacket(NewDeviceResponsePacket(1, 2, nil)),
			names: []string{"frame_id", "request_id", "reserved", "payload"},
		},
		{
			name:  "device response status",
			pkt:   mustPacket(NewDeviceResponseStatusPacket(1, StatusSuccess)),
			names: []string{"frame_id", "status"},
		},
		{
			name:  "frame error",
			pkt:   NewFrameErrorPacket(FrameErrWrongState),
			names: []string{"error"},
		},
		{
			name:  "send data request",
			pkt:   mustPacket(NewSendDataRequestPacket(1, "p", "ct", OptionArchive, nil)),
			names: []string{"frame_id", "path", "content_type", "transport", "options", "payload"},
		},
		{
			name:  "send data response",
			pkt:   mustPacket(NewSendDataResponsePacket(1, StatusCanceled)),
			names: []string{"frame_id", "status"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := tt.pkt.View()
			if len(view) != len(tt.names) {
				t.Fatalf("view has %d fields, want %d", len(view), len(tt.names))
			}
			for i, name := range tt.names {
				if view[i].Name != name {
					t.Errorf("field %d = %q, want %q", i, view[i].Name, name)
				}
			}
		})
	}
}

func mustPacket[P Packet](p P, err error) P {
	if err != nil {
		panic(err)
	}
	return p
}
