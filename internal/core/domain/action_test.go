package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionValidate(t *testing.T) {

	assert := assert.New(t)

	assert.NoError(Action{Intent: IntentLight, Location: "kitchen", Value: StateValue(StateOn)}.Validate())
	assert.NoError(Action{Intent: IntentThermostat, Value: TemperatureValue(72)}.Validate())
	assert.NoError(Action{Intent: IntentGarage, Value: StateValue(StateClose)}.Validate())
	assert.NoError(Unknown("sing me a song").Validate())

	assert.Error(Action{Intent: IntentLight, Value: StateValue(StateOpen)}.Validate(), "light cannot open")
	assert.Error(Action{Intent: IntentGarage, Value: StateValue(StateOn)}.Validate(), "garage cannot turn on")
	assert.Error(Action{Intent: IntentThermostat, Value: StateValue(StateOn)}.Validate(), "thermostat needs a number")
	assert.Error(Action{Intent: IntentFan}.Validate(), "fan needs a state")
	assert.Error(Action{Intent: IntentUnknown, Location: "kitchen"}.Validate(), "unknown carries no location")
	assert.Error(Action{Intent: "TOASTER", Value: StateValue(StateOn)}.Validate())
}

func TestActionJSON(t *testing.T) {

	require := require.New(t)

	in := Action{Intent: IntentThermostat, Location: "living room", Value: TemperatureValue(68), RawText: "set to 68"}
	data, err := json.Marshal(BridgeRequest{Action: in})
	require.NoError(err)
	require.JSONEq(`{"action":{"intent":"THERMOSTAT","location":"living room","value":"68","raw_text":"set to 68"}}`, string(data))

	var out BridgeRequest
	require.NoError(json.Unmarshal(data, &out))
	require.Equal(in, out.Action)
}

func TestActionJSONGlobalLocation(t *testing.T) {

	var a Action
	require.NoError(t, json.Unmarshal([]byte(`{"intent":"fan","location":"Global","value":"off"}`), &a))
	assert.Equal(t, Action{Intent: IntentFan, Value: StateValue(StateOff)}, a)
}

func TestActionJSONMalformed(t *testing.T) {

	cases := []string{
		`{"intent":"LIGHT"}`,
		`{"intent":"LIGHT","value":"72"}`,
		`{"intent":"KETTLE","value":"ON"}`,
		`{"intent":"THERMOSTAT","value":"warm"}`,
		`{"intent":"UNKNOWN","value":"ON"}`,
		`["LIGHT"]`,
	}
	for _, c := range cases {
		var a Action
		err := json.Unmarshal([]byte(c), &a)
		assert.True(t, errors.Is(err, ErrMalformedRequest), "expected malformed request for %s, got %v", c, err)
	}
}
