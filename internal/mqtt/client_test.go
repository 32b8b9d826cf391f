package mqtt

import (
	"testing"

	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/core/domain"

	"github.com/stretchr/testify/assert"
)

func TestCommandParse(t *testing.T) {

	assert := assert.New(t)

	cmd, err := parseCommand("zari", "zari/command", []byte("  turn on the kitchen light "))
	assert.NoError(err)
	assert.Equal("turn on the kitchen light", cmd.Text)
}

func TestCommandParseFail(t *testing.T) {

	assert := assert.New(t)

	_, err := parseCommand("zari", "zari/command/result", []byte("{}"))
	assert.Error(err, "result topic is not a command")

	_, err = parseCommand("zari", "other/command", []byte("turn on the fan"))
	assert.Error(err, "foreign base topic")

	_, err = parseCommand("zari", "zari/command", []byte("   "))
	assert.Error(err, "empty payload")
}

func TestDeviceStateTopic(t *testing.T) {

	assert := assert.New(t)

	assert.Equal("zari/light/living_room/state", deviceStateTopic("zari", domain.Action{
		Intent: domain.IntentLight, Location: "living room", Value: domain.StateValue(domain.StateOn),
	}))
	assert.Equal("zari/thermostat/global/state", deviceStateTopic("zari", domain.Action{
		Intent: domain.IntentThermostat, Value: domain.TemperatureValue(70),
	}))
	assert.Equal("zari/bridge/state", bridgeStateTopic("zari"))
	assert.Equal("zari/command", commandTopic("zari"))
}

func TestDeviceDiscovery(t *testing.T) {

	assert := assert.New(t)

	light := deviceDiscovery("homeassistant", "zari", domain.Action{
		Intent: domain.IntentLight, Location: "living room", Value: domain.StateValue(domain.StateOff),
	})
	assert.Equal("homeassistant/binary_sensor/zari_bridge/light_living_room/config", light.Topic)
	assert.Equal("zari/light/living_room/state", light.Config.StateTopic)
	assert.Equal("zari/bridge/state", light.Config.AvTopic)
	assert.Equal("ON", light.Config.PayloadOn)
	assert.Equal("zari_light_living_room", light.Config.UniqueId)

	garage := deviceDiscovery("homeassistant", "zari", domain.Action{
		Intent: domain.IntentGarage, Value: domain.StateValue(domain.StateOpen),
	})
	assert.Equal("garage_door", garage.Config.DeviceClass)
	assert.Equal("OPEN", garage.Config.PayloadOn)
	assert.Equal("CLOSE", garage.Config.PayloadOff)

	thermostat := deviceDiscovery("homeassistant", "zari", domain.Action{
		Intent: domain.IntentThermostat, Value: domain.TemperatureValue(70),
	})
	assert.Equal("homeassistant/sensor/zari_bridge/thermostat_global/config", thermostat.Topic)
	assert.Equal("temperature", thermostat.Config.DeviceClass)

	bridge := bridgeDiscovery("homeassistant", "zari")
	assert.Equal("online", bridge.Config.PayloadOn)
	assert.Equal("zari/bridge/state", bridge.Config.StateTopic)
}
