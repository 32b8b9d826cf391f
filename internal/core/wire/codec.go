// Package wire implements the line protocol spoken by the microcontroller firmware.
//
// Outbound lines have exactly three colon separated fields, DEVICE:location:VALUE,
// terminated by a newline. Inbound status lines start with the "[arduino]" tag.
package wire

import (
	"fmt"
	"strings"

	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/core/domain"
)

const (
	ACK_PREFIX      = "[arduino]"
	ACK_READY       = "ready"
	ACK_UNKNOWN     = "UNKNOWN:"
	ACK_SEPARATOR   = " -> "
	FIELD_SEPARATOR = ":"
)

// Encode serializes an action into one protocol line, newline included.
// UNKNOWN or otherwise invalid actions are refused and nothing should be transmitted.
func Encode(action domain.Action) (string, error) {
	if action.IsUnknown() {
		return "", fmt.Errorf("%w: action is not understood", domain.ErrEncodeRejected)
	}
	if err := action.Validate(); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrEncodeRejected, err)
	}
	location, err := encodeLocation(action.LocationOrGlobal())
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%s:%s\n", action.Intent, location, action.Value), nil
}

// encodeLocation maps spaces to underscores and refuses anything that could break framing.
func encodeLocation(location string) (string, error) {
	location = strings.ReplaceAll(strings.TrimSpace(location), " ", "_")
	for _, r := range location {
		if r < 0x21 || r > 0x7e || r == ':' {
			return "", fmt.Errorf("%w: location %q cannot be framed", domain.ErrEncodeRejected, location)
		}
	}
	return location, nil
}

// AckRecord is a decoded status line. Lines that do not follow the grammar are kept
// verbatim in Raw with Recognized false.
type AckRecord struct {
	Raw        string
	Recognized bool
	// Ready marks the banner the firmware prints after a reset.
	Ready bool
	// Rejected marks an "UNKNOWN: <line>" reply; Unknown holds the echoed line.
	Rejected bool
	Unknown  string
	Device   domain.Intent
	Value    domain.Value
}

func DecodeAck(line string) AckRecord {
	raw := strings.TrimRight(line, "\r\n")
	rec := AckRecord{Raw: raw}

	body, ok := strings.CutPrefix(raw, ACK_PREFIX)
	if !ok {
		return rec
	}
	body = strings.TrimSpace(body)

	switch {
	case body == ACK_READY:
		rec.Recognized = true
		rec.Ready = true
	case strings.HasPrefix(body, ACK_UNKNOWN):
		rec.Recognized = true
		rec.Rejected = true
		rec.Unknown = strings.TrimSpace(strings.TrimPrefix(body, ACK_UNKNOWN))
	default:
		device, value, found := strings.Cut(body, ACK_SEPARATOR)
		if !found {
			return rec
		}
		intent, err := domain.ParseIntent(device)
		if err != nil || intent == domain.IntentUnknown {
			return rec
		}
		v, err := domain.ParseValue(value)
		if err != nil || v.IsAbsent() {
			return rec
		}
		rec.Recognized = true
		rec.Device = intent
		rec.Value = v
	}
	return rec
}

// IsCommandAck reports whether the record answers a command, as opposed to the ready banner.
func (r AckRecord) IsCommandAck() bool {
	return !r.Ready
}

// Matches reports whether the ack confirms the given action.
func (r AckRecord) Matches(action domain.Action) bool {
	return r.Recognized && !r.Rejected && !r.Ready && r.Device == action.Intent && r.Value == action.Value
}
