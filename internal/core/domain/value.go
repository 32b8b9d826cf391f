package domain

import (
	"fmt"
	"strconv"
	"strings"
)

type State string

const (
	StateOn    State = "ON"
	StateOff   State = "OFF"
	StateOpen  State = "OPEN"
	StateClose State = "CLOSE"
)

type ValueKind uint8

const (
	ValueNone ValueKind = iota
	ValueState
	ValueTemperature
)

// Value is either absent, a discrete State or an integer temperature.
type Value struct {
	Kind        ValueKind
	State       State
	Temperature int
}

func StateValue(s State) Value {
	return Value{Kind: ValueState, State: s}
}

func TemperatureValue(degrees int) Value {
	return Value{Kind: ValueTemperature, Temperature: degrees}
}

func (v Value) IsAbsent() bool {
	return v.Kind == ValueNone
}

func (v Value) String() string {
	switch v.Kind {
	case ValueState:
		return string(v.State)
	case ValueTemperature:
		return strconv.Itoa(v.Temperature)
	default:
		return ""
	}
}

// ParseValue is the inverse of Value.String. The empty string is the absent value.
func ParseValue(s string) (Value, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Value{}, nil
	}
	switch State(s) {
	case StateOn, StateOff, StateOpen, StateClose:
		return StateValue(State(s)), nil
	}
	degrees, err := strconv.Atoi(s)
	if err != nil {
		return Value{}, fmt.Errorf("invalid value %q", s)
	}
	return TemperatureValue(degrees), nil
}
