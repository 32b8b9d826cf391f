package mqtt

import (
	"fmt"
	"strings"

	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/core/domain"

	"github.com/carlmjohnson/versioninfo"
)

const BRIDGE_DEVICE_ID = "zari_bridge"

type HADiscoveryConfig struct {
	Device            HADiscoveryDevice `json:"device"`
	StateTopic        string            `json:"state_topic"`
	DeviceClass       string            `json:"device_class,omitempty"`
	StateClass        string            `json:"state_class,omitempty"`
	UnitOfMeasurement string            `json:"unit_of_measurement,omitempty"`
	AvTopic           string            `json:"availability_topic,omitempty"`
	EntityCategory    string            `json:"entity_category,omitempty"`
	Name              string            `json:"name"`
	UniqueId          string            `json:"unique_id"`
	Platform          string            `json:"platform"`
	PayloadOn         string            `json:"payload_on,omitempty"`
	PayloadOff        string            `json:"payload_off,omitempty"`
	Icon              string            `json:"icon,omitempty"`
}

type HADiscoveryDevice struct {
	Id           []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Version      string   `json:"sw_version,omitempty"`
	Model        string   `json:"model,omitempty"`
	Name         string   `json:"name,omitempty"`
}

// HADiscoveryMessage is one retained config message for Home Assistant.
type HADiscoveryMessage struct {
	Topic  string
	Config HADiscoveryConfig
}

func bridgeDevice() HADiscoveryDevice {
	return HADiscoveryDevice{
		Id:           []string{BRIDGE_DEVICE_ID},
		Manufacturer: "ZARI",
		Model:        "Serial bridge",
		Name:         "ZARI",
		Version:      versioninfo.Short(),
	}
}

func (c *MQTTClient) BridgeDiscovery() HADiscoveryMessage {
	return bridgeDiscovery(c.cfg.HADiscoveryTopic, c.baseTopic())
}

// DeviceDiscovery describes the read only entity that mirrors the device behind an action.
func (c *MQTTClient) DeviceDiscovery(action domain.Action) HADiscoveryMessage {
	return deviceDiscovery(c.cfg.HADiscoveryTopic, c.baseTopic(), action)
}

func bridgeDiscovery(discoveryTopic, baseTopic string) HADiscoveryMessage {
	return HADiscoveryMessage{
		Topic: fmt.Sprintf("%s/binary_sensor/%s/state/config", discoveryTopic, BRIDGE_DEVICE_ID),
		Config: HADiscoveryConfig{
			Device:         bridgeDevice(),
			StateTopic:     bridgeStateTopic(baseTopic),
			DeviceClass:    "connectivity",
			EntityCategory: "diagnostic",
			Name:           "Bridge state",
			UniqueId:       fmt.Sprintf("%s_state", BRIDGE_DEVICE_ID),
			Platform:       "mqtt",
			PayloadOn:      MQTT_PAYLOAD_ONLINE,
			PayloadOff:     MQTT_PAYLOAD_OFFLINE,
		},
	}
}

func deviceDiscovery(discoveryTopic, baseTopic string, action domain.Action) HADiscoveryMessage {
	intent := strings.ToLower(string(action.Intent))
	location := strings.ReplaceAll(action.LocationOrGlobal(), " ", "_")
	objectId := fmt.Sprintf("%s_%s", intent, location)

	disConfig := HADiscoveryConfig{
		Device:     bridgeDevice(),
		StateTopic: deviceStateTopic(baseTopic, action),
		AvTopic:    bridgeStateTopic(baseTopic),
		Name:       fmt.Sprintf("%s %s", action.LocationOrGlobal(), intent),
		UniqueId:   fmt.Sprintf("zari_%s", objectId),
		Platform:   "mqtt",
	}

	component := "binary_sensor"
	switch action.Intent {
	case domain.IntentLight:
		disConfig.DeviceClass = "light"
		disConfig.PayloadOn = string(domain.StateOn)
		disConfig.PayloadOff = string(domain.StateOff)
	case domain.IntentFan:
		disConfig.Icon = "mdi:fan"
		disConfig.PayloadOn = string(domain.StateOn)
		disConfig.PayloadOff = string(domain.StateOff)
	case domain.IntentGarage:
		disConfig.DeviceClass = "garage_door"
		disConfig.PayloadOn = string(domain.StateOpen)
		disConfig.PayloadOff = string(domain.StateClose)
	case domain.IntentThermostat:
		component = "sensor"
		disConfig.DeviceClass = "temperature"
		disConfig.StateClass = "measurement"
		disConfig.UnitOfMeasurement = "°F"
	}

	return HADiscoveryMessage{
		Topic:  fmt.Sprintf("%s/%s/%s/%s/config", discoveryTopic, component, BRIDGE_DEVICE_ID, objectId),
		Config: disConfig,
	}
}
