package domain

import "time"

// ActionAppliedEvent is published on the event stream after every executed action,
// accepted or not.
type ActionAppliedEvent struct {
	Action Action       `json:"action"`
	Result BridgeResult `json:"result"`
	Source string       `json:"source"`
	Time   time.Time    `json:"time"`
}

// BridgeStateEvent reports serial link availability changes.
type BridgeStateEvent struct {
	Online bool   `json:"online"`
	Reason string `json:"reason,omitempty"`
}
