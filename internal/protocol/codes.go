package protocol

import "fmt"

// Code registries for the status, error and options fields. Each registry is
// total over the full byte range: a code without a registered name still
// decodes, renders as "unknown (0xNN)" and re-encodes to the same byte, so
// round-trip of unrecognized wire codes is lossless.

// DeviceCloudStatus is the one-byte result code carried by
// DeviceResponseStatus and SendDataResponse frames.
type DeviceCloudStatus uint8

const (
	StatusSuccess             DeviceCloudStatus = 0x00
	StatusBadRequest          DeviceCloudStatus = 0x01
	StatusResponseUnavailable DeviceCloudStatus = 0x02
	StatusCloudError          DeviceCloudStatus = 0x03
	StatusCanceled            DeviceCloudStatus = 0x20
	StatusTimeout             DeviceCloudStatus = 0x21
	StatusUnknownError        DeviceCloudStatus = 0x40
)

var deviceCloudStatusNames = map[DeviceCloudStatus]string{
	StatusSuccess:             "success",
	StatusBadRequest:          "bad request",
	StatusResponseUnavailable: "response unavailable",
	StatusCloudError:          "device cloud error",
	StatusCanceled:            "canceled",
	StatusTimeout:             "time out",
	StatusUnknownError:        "unknown error",
}

// Registered reports whether the code has a name in the registry.
func (s DeviceCloudStatus) Registered() bool {
	_, ok := deviceCloudStatusNames[s]
	return ok
}

// String returns the registered name, or "unknown (0xNN)" for an
// unrecognized code.
func (s DeviceCloudStatus) String() string {
	if name, ok := deviceCloudStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("unknown (0x%02X)", uint8(s))
}

// FrameErrorCode is the one-byte fault code carried by FrameError frames,
// reported by the module for malformed traffic it received.
type FrameErrorCode uint8

const (
	FrameErrInvalidType       FrameErrorCode = 0x02
	FrameErrInvalidLength     FrameErrorCode = 0x03
	FrameErrInvalidChecksum   FrameErrorCode = 0x04
	FrameErrPayloadTooBig     FrameErrorCode = 0x05
	FrameErrStringEntryTooBig FrameErrorCode = 0x06
	FrameErrWrongState        FrameErrorCode = 0x07
	FrameErrWrongRequestID    FrameErrorCode = 0x08
)

var frameErrorNames = map[FrameErrorCode]string{
	FrameErrInvalidType:       "invalid frame type",
	FrameErrInvalidLength:     "invalid frame length",
	FrameErrInvalidChecksum:   "erroneous checksum",
	FrameErrPayloadTooBig:     "payload too big",
	FrameErrStringEntryTooBig: "string entry too big",
	FrameErrWrongState:        "wrong state",
	FrameErrWrongRequestID:    "wrong request ID",
}

// Registered reports whether the code has a name in the registry.
func (e FrameErrorCode) Registered() bool {
	_, ok := frameErrorNames[e]
	return ok
}

// String returns the registered name, or "unknown (0xNN)" for an
// unrecognized code.
func (e FrameErrorCode) String() string {
	if name, ok := frameErrorNames[e]; ok {
		return name
	}
	return fmt.Sprintf("unknown (0x%02X)", uint8(e))
}

// SendDataOption is the one-byte upload disposition carried by
// SendDataRequest frames.
type SendDataOption uint8

const (
	OptionOverwrite SendDataOption = 0x00
	OptionArchive   SendDataOption = 0x01
	OptionAppend    SendDataOption = 0x02
	OptionTransient SendDataOption = 0x03
)

var sendDataOptionNames = map[SendDataOption]string{
	OptionOverwrite: "overwrite",
	OptionArchive:   "archive",
	OptionAppend:    "append",
	OptionTransient: "transient",
}

// Registered reports whether the code has a name in the registry.
func (o SendDataOption) Registered() bool {
	_, ok := sendDataOptionNames[o]
	return ok
}

// String returns the registered name, or "unknown (0xNN)" for an
// unrecognized code.
func (o SendDataOption) String() string {
	if name, ok := sendDataOptionNames[o]; ok {
		return name
	}
	return fmt.Sprintf("unknown (0x%02X)", uint8(o))
}
