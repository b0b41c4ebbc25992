package models

import (
	"fmt"
	"strconv"
	"strings"
)

// DeviceCommand is an outbound instruction published to the robot.
type DeviceCommand string

const (
	CommandStart  DeviceCommand = "start"  // begin descent
	CommandAscend DeviceCommand = "naik"   // begin ascent
	CommandReturn DeviceCommand = "return" // abort, return home
)

// DeviceStatusKind enumerates the closed set of messages the robot sends.
type DeviceStatusKind int

const (
	StatusReachedBottom DeviceStatusKind = iota // descent complete
	StatusStandby                               // docked, idle
	StatusDone                                  // cycle complete
	StatusProgress                              // progress update, 0-100
)

// DeviceStatus is a parsed inbound status message. Progress is only
// meaningful when Kind == StatusProgress.
type DeviceStatus struct {
	Kind     DeviceStatusKind
	Progress int
}

// Wire tokens used by the robot firmware.
const (
	wireReachedBottom  = "REACHED_BOTTOM"
	wireStandby        = "STANDBY"
	wireDone           = "SELESAI"
	wireProgressPrefix = "P:"
)

// Wire encodes the status back to its payload form. Inverse of
// ParseDeviceStatus; used by the device simulator.
func (s DeviceStatus) Wire() string {
	switch s.Kind {
	case StatusReachedBottom:
		return wireReachedBottom
	case StatusStandby:
		return wireStandby
	case StatusDone:
		return wireDone
	case StatusProgress:
		return wireProgressPrefix + strconv.Itoa(s.Progress)
	}
	return ""
}

// ParseDeviceStatus decodes a raw status payload. Unknown or malformed
// payloads return an error; callers drop them with a warning.
func ParseDeviceStatus(payload string) (DeviceStatus, error) {
	raw := strings.TrimSpace(payload)

	if strings.HasPrefix(raw, wireProgressPrefix) {
		n, err := strconv.Atoi(strings.TrimPrefix(raw, wireProgressPrefix))
		if err != nil {
			return DeviceStatus{}, fmt.Errorf("malformed progress payload %q: %w", raw, err)
		}
		if n < 0 || n > 100 {
			return DeviceStatus{}, fmt.Errorf("progress %d out of range", n)
		}
		return DeviceStatus{Kind: StatusProgress, Progress: n}, nil
	}

	switch raw {
	case wireReachedBottom:
		return DeviceStatus{Kind: StatusReachedBottom}, nil
	case wireStandby:
		return DeviceStatus{Kind: StatusStandby}, nil
	case wireDone:
		return DeviceStatus{Kind: StatusDone}, nil
	}
	return DeviceStatus{}, fmt.Errorf("unknown device status %q", raw)
}
