// Package protocol decodes the frames a GoCube smart cube sends over BLE.
// Only the frames the puzzle mirrors are decoded: face rotations, battery
// level and cube type.
package protocol

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// Nordic UART service used by the cube.
const (
	ServiceUUID = "6e400001-b5a3-f393-e0a9-e50e24dcca9e"
	TxCharUUID  = "6e400003-b5a3-f393-e0a9-e50e24dcca9e" // notify
	RxCharUUID  = "6e400002-b5a3-f393-e0a9-e50e24dcca9e" // write
)

// Frame types.
const (
	TypeRotation byte = 0x01
	TypeState    byte = 0x02
	TypeBattery  byte = 0x05
	TypeCubeType byte = 0x08
)

// Commands written to the RX characteristic.
const (
	CmdRequestBattery  byte = 0x32
	CmdRequestState    byte = 0x33
	CmdResetSolved     byte = 0x35
	CmdFlashBacklight  byte = 0x41
	CmdRequestCubeType byte = 0x56
)

const (
	framePrefix  byte = 0x2A // '*'
	frameSuffix1 byte = 0x0D
	frameSuffix2 byte = 0x0A
)

var (
	ErrTooShort        = errors.New("protocol: frame too short")
	ErrInvalidPrefix   = errors.New("protocol: invalid frame prefix")
	ErrInvalidSuffix   = errors.New("protocol: invalid frame suffix")
	ErrInvalidLength   = errors.New("protocol: invalid frame length")
	ErrInvalidChecksum = errors.New("protocol: invalid checksum")
)

// Frame is one decoded notification.
type Frame struct {
	Type    byte
	Payload []byte
	Raw     string // base64 of the full frame, for logging
}

// Parse validates and unwraps a raw notification.
//
// Layout: [0x2A] [len] [type] [payload...] [checksum] [0x0D 0x0A], where len
// counts every byte after itself.
func Parse(data []byte) (*Frame, error) {
	if len(data) < 5 {
		return nil, ErrTooShort
	}
	if data[0] != framePrefix {
		return nil, ErrInvalidPrefix
	}

	length := int(data[1])
	total := 2 + length
	if len(data) < total {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidLength, total, len(data))
	}

	sumIdx := length - 1
	if sumIdx < 3 {
		return nil, ErrTooShort
	}
	if data[sumIdx+1] != frameSuffix1 || data[sumIdx+2] != frameSuffix2 {
		return nil, ErrInvalidSuffix
	}

	var sum byte
	for _, b := range data[:sumIdx] {
		sum += b
	}
	if sum != data[sumIdx] {
		return nil, fmt.Errorf("%w: frame says 0x%02X, computed 0x%02X", ErrInvalidChecksum, data[sumIdx], sum)
	}

	return &Frame{
		Type:    data[2],
		Payload: data[3:sumIdx],
		Raw:     base64.StdEncoding.EncodeToString(data[:total]),
	}, nil
}

// Encode builds a frame of the given type around payload.
func Encode(typ byte, payload []byte) []byte {
	length := byte(len(payload) + 4)
	out := make([]byte, 0, int(length)+2)
	out = append(out, framePrefix, length, typ)
	out = append(out, payload...)

	var sum byte
	for _, b := range out {
		sum += b
	}
	return append(out, sum, frameSuffix1, frameSuffix2)
}

// Command builds a command frame with no payload.
func Command(code byte) []byte {
	sum := framePrefix + 0x01 + code
	return []byte{framePrefix, 0x01, code, sum, frameSuffix1, frameSuffix2}
}

// TypeName returns a readable name for a frame type.
func TypeName(typ byte) string {
	switch typ {
	case TypeRotation:
		return "rotation"
	case TypeState:
		return "state"
	case TypeBattery:
		return "battery"
	case TypeCubeType:
		return "cube_type"
	default:
		return fmt.Sprintf("unknown_0x%02X", typ)
	}
}
