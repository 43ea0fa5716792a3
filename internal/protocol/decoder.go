package protocol

import (
	"fmt"

	"github.com/SeamusWaldron/cubeturn/internal/cube"
)

// RotationEvent is a single quarter turn reported by the cube.
type RotationEvent struct {
	Code      byte       // raw face+direction code, 0x00-0x0B
	Center    byte       // center piece orientation
	Clockwise bool       // as seen looking at the turned face
	Color     cube.Color // center color of the turned face
}

// BatteryEvent carries the battery level in percent.
type BatteryEvent struct {
	Level int
}

// CubeTypeEvent identifies the cube model.
type CubeTypeEvent struct {
	Code byte
	Name string
}

// Face color order used by the cube's rotation codes.
var codeColors = [...]cube.Color{
	cube.Blue,
	cube.Green,
	cube.White,
	cube.Yellow,
	cube.Red,
	cube.Orange,
}

// DecodeRotation decodes a rotation payload. The payload is a sequence of
// [code, center] pairs; even codes are clockwise turns and code/2 selects
// the face color.
func DecodeRotation(payload []byte) ([]RotationEvent, error) {
	if len(payload)%2 != 0 {
		return nil, fmt.Errorf("rotation payload must have even length, got %d", len(payload))
	}

	events := make([]RotationEvent, 0, len(payload)/2)
	for i := 0; i < len(payload); i += 2 {
		code := payload[i]
		idx := int(code / 2)
		if idx >= len(codeColors) {
			return nil, fmt.Errorf("unknown face code 0x%02X", code)
		}
		events = append(events, RotationEvent{
			Code:      code,
			Center:    payload[i+1],
			Clockwise: code%2 == 0,
			Color:     codeColors[idx],
		})
	}
	return events, nil
}

// EncodeRotation is the inverse of DecodeRotation for a single turn. It is
// used to build frames for replay and tests.
func EncodeRotation(c cube.Color, clockwise bool) ([]byte, error) {
	for i, cc := range codeColors {
		if cc != c {
			continue
		}
		code := byte(i * 2)
		if !clockwise {
			code++
		}
		return Encode(TypeRotation, []byte{code, 0}), nil
	}
	return nil, fmt.Errorf("no face code for color %v", c)
}

// DecodeBattery decodes a battery payload.
func DecodeBattery(payload []byte) (*BatteryEvent, error) {
	if len(payload) < 1 {
		return nil, fmt.Errorf("battery payload too short")
	}
	return &BatteryEvent{Level: int(payload[0])}, nil
}

// DecodeCubeType decodes a cube type payload.
func DecodeCubeType(payload []byte) (*CubeTypeEvent, error) {
	if len(payload) < 1 {
		return nil, fmt.Errorf("cube type payload too short")
	}
	name := "standard"
	if payload[0] == 0x01 {
		name = "edge"
	}
	return &CubeTypeEvent{Code: payload[0], Name: name}, nil
}
