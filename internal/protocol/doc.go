// Package protocol implements the device-cloud frame codec used between a
// host and a cloud-connected radio module over a framed serial link.
//
// Each message is a typed, length-delimited byte record. The outer envelope
// (start delimiter, 16-bit length, optional byte escaping, checksum) wraps a
// body that begins with a one-byte frame type code followed by the fields of
// that frame kind.
//
// # Frame Envelope
//
//	[0]     0x7E           Start delimiter
//	[1-2]   length         Body length (big-endian uint16)
//	[3..]   body           Frame type byte + kind-specific fields
//	[last]  checksum       0xFF - (sum of body bytes & 0xFF)
//
// In escaped mode every byte after the start delimiter that collides with a
// special byte (0x7E, 0x7D, 0x11, 0x13) is transmitted as 0x7D followed by
// the byte XOR 0x20.
//
// # Frame Kinds
//
// The device-cloud family has six frame kinds:
//   - DeviceRequest (0xB9): request from the cloud, relayed by the module
//   - DeviceResponse (0x2A): host reply to a device request
//   - DeviceResponseStatus (0xBA): module ack for a device response
//   - FrameError (0xFE): module-reported framing fault
//   - SendDataRequest (0x28): host upload of a file to the cloud
//   - SendDataResponse (0xB8): module ack for a send data request
//
// # Usage Example - Decoding
//
//	body, err := protocol.Strip(raw, protocol.ModeAPI)
//	if err != nil {
//	    return err
//	}
//	pkt, err := protocol.Decode(body[0], body)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(pkt)
//
// # Usage Example - Encoding
//
//	pkt, err := protocol.NewSendDataRequestPacket(3, "a.txt", "text/plain",
//	    protocol.OptionOverwrite, data)
//	if err != nil {
//	    return err
//	}
//	raw, err := protocol.Wrap(pkt.Encode(), protocol.ModeEscapedAPI)
//
// The codec is purely computational: no I/O, no logging, no internal locking.
// Packets own copies of their variable-length fields, so a caller's buffer
// can be reused freely after construction.
package protocol
