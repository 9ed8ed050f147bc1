package ws

import (
	"encoding/json"
	"fmt"
)

const (
	EventSubscribe   = "subscribe"
	EventUnsubscribe = "unsubscribe"
	EventRobotStatus = "robot:status"
)

// Frame is one message on the socket in either direction. Data carries the
// robot id (a JSON string) for subscribe/unsubscribe and a StatusUpdate for
// robot:status.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func EncodeFrame(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", event, err)
	}
	return json.Marshal(Frame{Event: event, Data: raw})
}

func DecodeFrame(message []byte) (Frame, error) {
	var frame Frame
	if err := json.Unmarshal(message, &frame); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	if frame.Event == "" {
		return Frame{}, fmt.Errorf("decode frame: missing event")
	}
	return frame, nil
}

// RobotID extracts the robot id argument of a subscribe/unsubscribe frame.
func (f Frame) RobotID() (string, error) {
	var robotID string
	if err := json.Unmarshal(f.Data, &robotID); err != nil {
		return "", fmt.Errorf("%s expects a robot id string: %w", f.Event, err)
	}
	if robotID == "" {
		return "", fmt.Errorf("%s expects a non-empty robot id", f.Event)
	}
	return robotID, nil
}
