package protocol

import "fmt"

// Minimum body lengths per kind (frame type byte included). These mirror the
// envelope-level minimum packet checks: every fixed field and every length
// prefix must be present before the trailing payload can start.
const (
	deviceRequestMinLen        = 5
	deviceResponseMinLen       = 4
	deviceResponseStatusMinLen = 3
	frameErrorMinLen           = 2
	sendDataRequestMinLen      = 6
	sendDataResponseMinLen     = 3
)

// DeviceRequestPacket is a request from the cloud service, relayed out the
// serial port by the radio module.
//
// Body layout:
//
//	[0]     0xB9           Frame type
//	[1]     request_id     Correlates the request/response pair
//	[2]     transport      Reserved, written as zero
//	[3]     flags          Reserved, written as zero
//	[4]     target_len     One-byte length prefix
//	[5..]   target         UTF-8 target name (target_len bytes)
//	[..]    payload        Request data, everything to end of body
type DeviceRequestPacket struct {
	requestID uint8
	target    string
	payload   []byte
}

// NewDeviceRequestPacket builds a validated device request. requestID must
// fit in one byte and target in 255 UTF-8 bytes. payload is copied; nil and
// empty are the same absent state.
func NewDeviceRequestPacket(requestID int, target string, payload []byte) (*DeviceRequestPacket, error) {
	id, err := checkByteRange("request ID", requestID)
	if err != nil {
		return nil, err
	}
	if err := checkText("target", target); err != nil {
		return nil, err
	}
	return &DeviceRequestPacket{requestID: id, target: target, payload: cloneBytes(payload)}, nil
}

// DecodeDeviceRequestPacket decodes a device request body. The reserved
// transport and flags bytes are ignored, not validated.
func DecodeDeviceRequestPacket(body []byte) (*DeviceRequestPacket, error) {
	if err := checkBody(FrameTypeDeviceRequest, body, deviceRequestMinLen); err != nil {
		return nil, err
	}
	target, off, err := readText("target", body, 4)
	if err != nil {
		return nil, err
	}
	return &DeviceRequestPacket{
		requestID: body[1],
		target:    target,
		payload:   trailing(body, off),
	}, nil
}

// FrameType returns the frame type code (0xB9).
func (p *DeviceRequestPacket) FrameType() byte { return FrameTypeDeviceRequest }

// Encode serializes the packet to its body bytes.
func (p *DeviceRequestPacket) Encode() []byte {
	buf := make([]byte, 0, deviceRequestMinLen+len(p.target)+len(p.payload))
	buf = append(buf, FrameTypeDeviceRequest, p.requestID, 0x00, 0x00)
	buf = appendText(buf, p.target)
	return append(buf, p.payload...)
}

// RequestID returns the request ID of the packet.
func (p *DeviceRequestPacket) RequestID() uint8 { return p.requestID }

// SetRequestID sets the request ID, leaving the packet unchanged when v is
// out of range.
func (p *DeviceRequestPacket) SetRequestID(v int) error {
	id, err := checkByteRange("request ID", v)
	if err != nil {
		return err
	}
	p.requestID = id
	return nil
}

// Target returns the request target. Empty means absent.
func (p *DeviceRequestPacket) Target() string { return p.target }

// SetTarget sets the request target, leaving the packet unchanged when s
// exceeds 255 bytes.
func (p *DeviceRequestPacket) SetTarget(s string) error {
	if err := checkText("target", s); err != nil {
		return err
	}
	p.target = s
	return nil
}

// Payload returns a copy of the request data, nil when absent.
func (p *DeviceRequestPacket) Payload() []byte { return cloneBytes(p.payload) }

// SetPayload stores a copy of b as the request data.
func (p *DeviceRequestPacket) SetPayload(b []byte) { p.payload = cloneBytes(b) }

// View returns the ordered field projection for diagnostics.
func (p *DeviceRequestPacket) View() []Field {
	return []Field{
		{Name: "request_id", Value: p.requestID},
		{Name: "transport", Value: uint8(0)},
		{Name: "flags", Value: uint8(0)},
		{Name: "target", Value: p.target},
		{Name: "payload", Value: cloneBytes(p.payload)},
	}
}

func (p *DeviceRequestPacket) String() string {
	return fmt.Sprintf("DeviceRequest{request_id=%d, target=%q, payload=%d bytes}",
		p.requestID, p.target, len(p.payload))
}

// DeviceResponsePacket is the host's reply to a DeviceRequestPacket. It
// should be sent promptly; the module times the exchange out on its own.
//
// Body layout:
//
//	[0]     0x2A           Frame type
//	[1]     frame_id       Correlates the module's status reply
//	[2]     request_id     Must match the device request
//	[3]     reserved       Written as zero
//	[4..]   payload        Response data, everything to end of body
type DeviceResponsePacket struct {
	frameID   uint8
	requestID uint8
	payload   []byte
}

// NewDeviceResponsePacket builds a validated device response.
func NewDeviceResponsePacket(frameID, requestID int, payload []byte) (*DeviceResponsePacket, error) {
	fid, err := checkByteRange("frame ID", frameID)
	if err != nil {
		return nil, err
	}
	rid, err := checkByteRange("request ID", requestID)
	if err != nil {
		return nil, err
	}
	return &DeviceResponsePacket{frameID: fid, requestID: rid, payload: cloneBytes(payload)}, nil
}

// DecodeDeviceResponsePacket decodes a device response body.
func DecodeDeviceResponsePacket(body []byte) (*DeviceResponsePacket, error) {
	if err := checkBody(FrameTypeDeviceResponse, body, deviceResponseMinLen); err != nil {
		return nil, err
	}
	return &DeviceResponsePacket{
		frameID:   body[1],
		requestID: body[2],
		payload:   trailing(body, 4),
	}, nil
}

// FrameType returns the frame type code (0x2A).
func (p *DeviceResponsePacket) FrameType() byte { return FrameTypeDeviceResponse }

// Encode serializes the packet to its body bytes.
func (p *DeviceResponsePacket) Encode() []byte {
	buf := make([]byte, 0, deviceResponseMinLen+len(p.payload))
	buf = append(buf, FrameTypeDeviceResponse, p.frameID, p.requestID, 0x00)
	return append(buf, p.payload...)
}

// FrameID returns the frame ID of the packet.
func (p *DeviceResponsePacket) FrameID() uint8 { return p.frameID }

// SetFrameID sets the frame ID, leaving the packet unchanged when v is out
// of range.
func (p *DeviceResponsePacket) SetFrameID(v int) error {
	fid, err := checkByteRange("frame ID", v)
	if err != nil {
		return err
	}
	p.frameID = fid
	return nil
}

// RequestID returns the request ID of the packet.
func (p *DeviceResponsePacket) RequestID() uint8 { return p.requestID }

// SetRequestID sets the request ID, leaving the packet unchanged when v is
// out of range.
func (p *DeviceResponsePacket) SetRequestID(v int) error {
	rid, err := checkByteRange("request ID", v)
	if err != nil {
		return err
	}
	p.requestID = rid
	return nil
}

// Payload returns a copy of the response data, nil when absent.
func (p *DeviceResponsePacket) Payload() []byte { return cloneBytes(p.payload) }

// SetPayload stores a copy of b as the response data.
func (p *DeviceResponsePacket) SetPayload(b []byte) { p.payload = cloneBytes(b) }

// View returns the ordered field projection for diagnostics.
func (p *DeviceResponsePacket) View() []Field {
	return []Field{
		{Name: "frame_id", Value: p.frameID},
		{Name: "request_id", Value: p.requestID},
		{Name: "reserved", Value: uint8(0)},
		{Name: "payload", Value: cloneBytes(p.payload)},
	}
}

func (p *DeviceResponsePacket) String() string {
	return fmt.Sprintf("DeviceResponse{frame_id=%d, request_id=%d, payload=%d bytes}",
		p.frameID, p.requestID, len(p.payload))
}

// DeviceResponseStatusPacket is the module's acknowledgement of a
// DeviceResponsePacket.
//
// Body layout:
//
//	[0]     0xBA           Frame type
//	[1]     frame_id       Matches the device response
//	[2]     status         DeviceCloudStatus code
type DeviceResponseStatusPacket struct {
	frameID uint8
	status  DeviceCloudStatus
}

// NewDeviceResponseStatusPacket builds a validated device response status.
// Any status code is representable, including unregistered ones.
func NewDeviceResponseStatusPacket(frameID int, status DeviceCloudStatus) (*DeviceResponseStatusPacket, error) {
	fid, err := checkByteRange("frame ID", frameID)
	if err != nil {
		return nil, err
	}
	return &DeviceResponseStatusPacket{frameID: fid, status: status}, nil
}

// DecodeDeviceResponseStatusPacket decodes a device response status body.
func DecodeDeviceResponseStatusPacket(body []byte) (*DeviceResponseStatusPacket, error) {
	if err := checkBody(FrameTypeDeviceResponseStatus, body, deviceResponseStatusMinLen); err != nil {
		return nil, err
	}
	return &DeviceResponseStatusPacket{
		frameID: body[1],
		status:  DeviceCloudStatus(body[2]),
	}, nil
}

// FrameType returns the frame type code (0xBA).
func (p *DeviceResponseStatusPacket) FrameType() byte { return FrameTypeDeviceResponseStatus }

// Encode serializes the packet to its body bytes.
func (p *DeviceResponseStatusPacket) Encode() []byte {
	return []byte{FrameTypeDeviceResponseStatus, p.frameID, byte(p.status)}
}

// FrameID returns the frame ID of the packet.
func (p *DeviceResponseStatusPacket) FrameID() uint8 { return p.frameID }

// SetFrameID sets the frame ID, leaving the packet unchanged when v is out
// of range.
func (p *DeviceResponseStatusPacket) SetFrameID(v int) error {
	fid, err := checkByteRange("frame ID", v)
	if err != nil {
		return err
	}
	p.frameID = fid
	return nil
}

// Status returns the status code of the packet.
func (p *DeviceResponseStatusPacket) Status() DeviceCloudStatus { return p.status }

// SetStatus sets the status code. The registry is total, so every code is
// valid.
func (p *DeviceResponseStatusPacket) SetStatus(s DeviceCloudStatus) { p.status = s }

// View returns the ordered field projection for diagnostics.
func (p *DeviceResponseStatusPacket) View() []Field {
	return []Field{
		{Name: "frame_id", Value: p.frameID},
		{Name: "status", Value: p.status},
	}
}

func (p *DeviceResponseStatusPacket) String() string {
	return fmt.Sprintf("DeviceResponseStatus{frame_id=%d, status=%s}", p.frameID, p.status)
}

// FrameErrorPacket is sent out the serial port by the module for any type of
// frame-level fault in traffic it received.
//
// Body layout:
//
//	[0]     0xFE           Frame type
//	[1]     error          FrameErrorCode
type FrameErrorPacket struct {
	errCode FrameErrorCode
}

// NewFrameErrorPacket builds a frame error packet. Any error code is
// representable, including unregistered ones.
func NewFrameErrorPacket(errCode FrameErrorCode) *FrameErrorPacket {
	return &FrameErrorPacket{errCode: errCode}
}

// DecodeFrameErrorPacket decodes a frame error body.
func DecodeFrameErrorPacket(body []byte) (*FrameErrorPacket, error) {
	if err := checkBody(FrameTypeFrameError, body, frameErrorMinLen); err != nil {
		return nil, err
	}
	return &FrameErrorPacket{errCode: FrameErrorCode(body[1])}, nil
}

// FrameType returns the frame type code (0xFE).
func (p *FrameErrorPacket) FrameType() byte { return FrameTypeFrameError }

// Encode serializes the packet to its body bytes.
func (p *FrameErrorPacket) Encode() []byte {
	return []byte{FrameTypeFrameError, byte(p.errCode)}
}

// ErrorCode returns the error code of the packet.
func (p *FrameErrorPacket) ErrorCode() FrameErrorCode { return p.errCode }

// SetErrorCode sets the error code.
func (p *FrameErrorPacket) SetErrorCode(e FrameErrorCode) { p.errCode = e }

// View returns the ordered field projection for diagnostics.
func (p *FrameErrorPacket) View() []Field {
	return []Field{
		{Name: "error", Value: p.errCode},
	}
}

func (p *FrameErrorPacket) String() string {
	return fmt.Sprintf("FrameError{error=%s}", p.errCode)
}

// SendDataRequestPacket uploads a file of the given name and type to the
// cloud service. The module replies with a SendDataResponsePacket when the
// frame ID is non-zero.
//
// Body layout:
//
//	[0]     0x28           Frame type
//	[1]     frame_id       Correlates the module's response
//	[2]     path_len       One-byte length prefix
//	[3..]   path           UTF-8 upload path (path_len bytes)
//	[..]    ct_len         One-byte length prefix
//	[..]    content_type   UTF-8 content type (ct_len bytes)
//	[..]    transport      Always zero (TCP)
//	[..]    options        SendDataOption code
//	[..]    payload        File data, everything to end of body
//
// The content type, transport and options offsets float with the lengths of
// the variable fields that precede them.
type SendDataRequestPacket struct {
	frameID     uint8
	path        string
	contentType string
	options     SendDataOption
	payload     []byte
}

// NewSendDataRequestPacket builds a validated send data request. path and
// contentType must each fit in 255 UTF-8 bytes.
func NewSendDataRequestPacket(frameID int, path, contentType string, options SendDataOption, payload []byte) (*SendDataRequestPacket, error) {
	fid, err := checkByteRange("frame ID", frameID)
	if err != nil {
		return nil, err
	}
	if err := checkText("path", path); err != nil {
		return nil, err
	}
	if err := checkText("content type", contentType); err != nil {
		return nil, err
	}
	return &SendDataRequestPacket{
		frameID:     fid,
		path:        path,
		contentType: contentType,
		options:     options,
		payload:     cloneBytes(payload),
	}, nil
}

// DecodeSendDataRequestPacket decodes a send data request body. The two
// length-prefixed strings are read left to right, each starting where the
// previous one ended; the transport byte after them is ignored.
func DecodeSendDataRequestPacket(body []byte) (*SendDataRequestPacket, error) {
	if err := checkBody(FrameTypeSendDataRequest, body, sendDataRequestMinLen); err != nil {
		return nil, err
	}
	path, off, err := readText("path", body, 2)
	if err != nil {
		return nil, err
	}
	contentType, off, err := readText("content type", body, off)
	if err != nil {
		return nil, err
	}
	if off+2 > len(body) {
		return nil, fmt.Errorf("transport and options bytes missing at offset %d: %w",
			off, ErrTruncatedField)
	}
	return &SendDataRequestPacket{
		frameID:     body[1],
		path:        path,
		contentType: contentType,
		options:     SendDataOption(body[off+1]),
		payload:     trailing(body, off+2),
	}, nil
}

// FrameType returns the frame type code (0x28).
func (p *SendDataRequestPacket) FrameType() byte { return FrameTypeSendDataRequest }

// Encode serializes the packet to its body bytes.
func (p *SendDataRequestPacket) Encode() []byte {
	buf := make([]byte, 0, sendDataRequestMinLen+len(p.path)+len(p.contentType)+len(p.payload))
	buf = append(buf, FrameTypeSendDataRequest, p.frameID)
	buf = appendText(buf, p.path)
	buf = appendText(buf, p.contentType)
	buf = append(buf, 0x00, byte(p.options)) // transport is always TCP
	return append(buf, p.payload...)
}

// FrameID returns the frame ID of the packet.
func (p *SendDataRequestPacket) FrameID() uint8 { return p.frameID }

// SetFrameID sets the frame ID, leaving the packet unchanged when v is out
// of range.
func (p *SendDataRequestPacket) SetFrameID(v int) error {
	fid, err := checkByteRange("frame ID", v)
	if err != nil {
		return err
	}
	p.frameID = fid
	return nil
}

// Path returns the upload path. Empty means absent.
func (p *SendDataRequestPacket) Path() string { return p.path }

// SetPath sets the upload path, leaving the packet unchanged when s exceeds
// 255 bytes.
func (p *SendDataRequestPacket) SetPath(s string) error {
	if err := checkText("path", s); err != nil {
		return err
	}
	p.path = s
	return nil
}

// ContentType returns the upload content type. Empty means absent.
func (p *SendDataRequestPacket) ContentType() string { return p.contentType }

// SetContentType sets the upload content type, leaving the packet unchanged
// when s exceeds 255 bytes.
func (p *SendDataRequestPacket) SetContentType(s string) error {
	if err := checkText("content type", s); err != nil {
		return err
	}
	p.contentType = s
	return nil
}

// Options returns the upload disposition of the packet.
func (p *SendDataRequestPacket) Options() SendDataOption { return p.options }

// SetOptions sets the upload disposition.
func (p *SendDataRequestPacket) SetOptions(o SendDataOption) { p.options = o }

// Payload returns a copy of the file data, nil when absent.
func (p *SendDataRequestPacket) Payload() []byte { return cloneBytes(p.payload) }

// SetPayload stores a copy of b as the file data.
func (p *SendDataRequestPacket) SetPayload(b []byte) { p.payload = cloneBytes(b) }

// View returns the ordered field projection for diagnostics.
func (p *SendDataRequestPacket) View() []Field {
	return []Field{
		{Name: "frame_id", Value: p.frameID},
		{Name: "path", Value: p.path},
		{Name: "content_type", Value: p.contentType},
		{Name: "transport", Value: uint8(0)},
		{Name: "options", Value: p.options},
		{Name: "payload", Value: cloneBytes(p.payload)},
	}
}

func (p *SendDataRequestPacket) String() string {
	return fmt.Sprintf("SendDataRequest{frame_id=%d, path=%q, content_type=%q, options=%s, payload=%d bytes}",
		p.frameID, p.path, p.contentType, p.options, len(p.payload))
}

// SendDataResponsePacket is the module's acknowledgement of a
// SendDataRequestPacket with a non-zero frame ID.
//
// Body layout:
//
//	[0]     0xB8           Frame type
//	[1]     frame_id       Matches the send data request
//	[2]     status         DeviceCloudStatus code
type SendDataResponsePacket struct {
	frameID uint8
	status  DeviceCloudStatus
}

// NewSendDataResponsePacket builds a validated send data response.
func NewSendDataResponsePacket(frameID int, status DeviceCloudStatus) (*SendDataResponsePacket, error) {
	fid, err := checkByteRange("frame ID", frameID)
	if err != nil {
		return nil, err
	}
	return &SendDataResponsePacket{frameID: fid, status: status}, nil
}

// DecodeSendDataResponsePacket decodes a send data response body.
func DecodeSendDataResponsePacket(body []byte) (*SendDataResponsePacket, error) {
	if err := checkBody(FrameTypeSendDataResponse, body, sendDataResponseMinLen); err != nil {
		return nil, err
	}
	return &SendDataResponsePacket{
		frameID: body[1],
		status:  DeviceCloudStatus(body[2]),
	}, nil
}

// FrameType returns the frame type code (0xB8).
func (p *SendDataResponsePacket) FrameType() byte { return FrameTypeSendDataResponse }

// Encode serializes the packet to its body bytes.
func (p *SendDataResponsePacket) Encode() []byte {
	return []byte{FrameTypeSendDataResponse, p.frameID, byte(p.status)}
}

// FrameID returns the frame ID of the packet.
func (p *SendDataResponsePacket) FrameID() uint8 { return p.frameID }

// SetFrameID sets the frame ID, leaving the packet unchanged when v is out
// of range.
func (p *SendDataResponsePacket) SetFrameID(v int) error {
	fid, err := checkByteRange("frame ID", v)
	if err != nil {
		return err
	}
	p.frameID = fid
	return nil
}

// Status returns the status code of the packet.
func (p *SendDataResponsePacket) Status() DeviceCloudStatus { return p.status }

// SetStatus sets the status code.
func (p *SendDataResponsePacket) SetStatus(s DeviceCloudStatus) { p.status = s }

// View returns the ordered field projection for diagnostics.
func (p *SendDataResponsePacket) View() []Field {
	return []Field{
		{Name: "frame_id", Value: p.frameID},
		{Name: "status", Value: p.status},
	}
}

func (p *SendDataResponsePacket) String() string {
	return fmt.Sprintf("SendDataResponse{frame_id=%d, status=%s}", p.frameID, p.status)
}
