package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Intent string

const (
	IntentLight      Intent = "LIGHT"
	IntentFan        Intent = "FAN"
	IntentThermostat Intent = "THERMOSTAT"
	IntentGarage     Intent = "GARAGE"
	IntentUnknown    Intent = "UNKNOWN"
)

// GlobalLocation is used wherever an action carries no location.
const GlobalLocation = "global"

// intentSpec describes which values an intent accepts.
type intentSpec struct {
	kind   ValueKind
	states []State
}

var intentSpecs = map[Intent]intentSpec{
	IntentLight:      {kind: ValueState, states: []State{StateOn, StateOff}},
	IntentFan:        {kind: ValueState, states: []State{StateOn, StateOff}},
	IntentThermostat: {kind: ValueTemperature},
	IntentGarage:     {kind: ValueState, states: []State{StateOpen, StateClose}},
	IntentUnknown:    {kind: ValueNone},
}

// Intents lists the actionable intents in interpreter priority order.
var Intents = []Intent{IntentGarage, IntentThermostat, IntentFan, IntentLight}

func ParseIntent(s string) (Intent, error) {
	intent := Intent(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := intentSpecs[intent]; !ok {
		return IntentUnknown, fmt.Errorf("invalid intent %q", s)
	}
	return intent, nil
}

// Accepts reports whether v is a legal value for the intent.
func (i Intent) Accepts(v Value) bool {
	spec, ok := intentSpecs[i]
	if !ok || spec.kind != v.Kind {
		return false
	}
	if spec.kind != ValueState {
		return true
	}
	for _, s := range spec.states {
		if s == v.State {
			return true
		}
	}
	return false
}

// Action is the structured form of one utterance.
type Action struct {
	Intent   Intent
	Location string
	Value    Value
	RawText  string
}

func Unknown(rawText string) Action {
	return Action{Intent: IntentUnknown, RawText: rawText}
}

func (a Action) IsUnknown() bool {
	return a.Intent == IntentUnknown || a.Intent == ""
}

func (a Action) LocationOrGlobal() string {
	if a.Location == "" {
		return GlobalLocation
	}
	return a.Location
}

// Validate checks the intent/value/location invariant.
func (a Action) Validate() error {
	if _, ok := intentSpecs[a.Intent]; !ok {
		return fmt.Errorf("invalid intent %q", a.Intent)
	}
	if a.Intent == IntentUnknown {
		if !a.Value.IsAbsent() || a.Location != "" {
			return fmt.Errorf("unknown action must not carry a value or location")
		}
		return nil
	}
	if !a.Intent.Accepts(a.Value) {
		return fmt.Errorf("value %q is not valid for %s", a.Value, a.Intent)
	}
	return nil
}

func (a Action) String() string {
	if a.IsUnknown() {
		return fmt.Sprintf("UNKNOWN(%q)", a.RawText)
	}
	return fmt.Sprintf("%s@%s=%s", a.Intent, a.LocationOrGlobal(), a.Value)
}

type actionJSON struct {
	Intent   string `json:"intent"`
	Location string `json:"location,omitempty"`
	Value    string `json:"value,omitempty"`
	RawText  string `json:"raw_text,omitempty"`
}

func (a Action) MarshalJSON() ([]byte, error) {
	intent := a.Intent
	if intent == "" {
		intent = IntentUnknown
	}
	return json.Marshal(actionJSON{
		Intent:   string(intent),
		Location: a.Location,
		Value:    a.Value.String(),
		RawText:  a.RawText,
	})
}

// UnmarshalJSON decodes and validates an action. Errors wrap ErrMalformedRequest.
func (a *Action) UnmarshalJSON(data []byte) error {
	var raw actionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedRequest, err)
	}
	intent, err := ParseIntent(raw.Intent)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedRequest, err)
	}
	value, err := ParseValue(raw.Value)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedRequest, err)
	}
	decoded := Action{
		Intent:   intent,
		Location: strings.ToLower(strings.TrimSpace(raw.Location)),
		Value:    value,
		RawText:  raw.RawText,
	}
	if decoded.Location == GlobalLocation {
		decoded.Location = ""
	}
	if err := decoded.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedRequest, err)
	}
	*a = decoded
	return nil
}
