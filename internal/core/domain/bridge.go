package domain

import "errors"

var (
	ErrParseUnrecognized = errors.New("unrecognized command")
	ErrEncodeRejected    = errors.New("encode rejected")
	ErrSerialUnavailable = errors.New("serial unavailable")
	ErrAckTimeout        = errors.New("no ack")
	ErrMalformedRequest  = errors.New("malformed request")
	ErrDeviceRejected    = errors.New("device rejected command")
	ErrRequestTimeout    = errors.New("request timed out")
	ErrBridgeUnreachable = errors.New("bridge unreachable")
)

// BridgeRequest is one line sent by a caller to the bridge.
type BridgeRequest struct {
	Action Action `json:"action"`
}

// BridgeResult is the outcome of executing an action, on any path.
type BridgeResult struct {
	Accepted       bool   `json:"accepted"`
	DeviceLineEcho string `json:"device_line_echo,omitempty"`
	Error          string `json:"error,omitempty"`
}

func Accepted() BridgeResult {
	return BridgeResult{Accepted: true}
}

// Rejected builds a failed result from an error.
func Rejected(err error) BridgeResult {
	return BridgeResult{Accepted: false, Error: err.Error()}
}
