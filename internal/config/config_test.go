package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func validConfig() Config {
	return Config{
		Mode:        MODE_BRIDGE,
		Serial:      SerialConfig{Port: "/dev/ttyACM0", Baud: 115200, AckTimeoutMillis: 2000},
		Bridge:      BridgeConfig{Host: "127.0.0.1", Port: 8765, RequestTimeoutMillis: 30000},
		Interpreter: InterpreterConfig{ThermostatMin: 50, ThermostatMax: 90},
		MQTT:        MQTTConfig{BaseTopic: "Zari_Home"},
	}
}

func TestCheck(t *testing.T) {

	assert := assert.New(t)

	cfg := validConfig()
	assert.NoError(cfg.Check())
	assert.Equal("zari_home", cfg.MQTT.BaseTopic)
	assert.Equal("127.0.0.1:8765", cfg.Bridge.Address())

	cases := []func(*Config){
		func(c *Config) { c.Mode = "hybrid" },
		func(c *Config) { c.Serial.Baud = 0 },
		func(c *Config) { c.Serial.AckTimeoutMillis = 50 },
		func(c *Config) { c.Bridge.RequestTimeoutMillis = 1000 },
		func(c *Config) { c.Interpreter.ThermostatMin = 90 },
		func(c *Config) { c.MQTT.BaseTopic = "zari/home" },
		func(c *Config) { c.MQTT.HADiscoveryEnable = true; c.MQTT.HADiscoveryTopic = "" },
	}
	for i, mutate := range cases {
		cfg := validConfig()
		mutate(&cfg)
		assert.Error(cfg.Check(), "case %d", i)
	}
}

func TestCheckDiscoveryTopicOnlyWhenEnabled(t *testing.T) {

	cfg := validConfig()
	cfg.MQTT.HADiscoveryTopic = "not/valid"
	assert.NoError(t, cfg.Check())

	cfg.MQTT.HADiscoveryEnable = true
	cfg.MQTT.HADiscoveryTopic = "HomeAssistant"
	assert.NoError(t, cfg.Check())
	assert.Equal(t, "homeassistant", cfg.MQTT.HADiscoveryTopic)
}

func TestBridgeTimeoutsAreLayered(t *testing.T) {

	cfg := validConfig()
	assert.Equal(t, 30*time.Second, cfg.Bridge.RequestTimeout())
	assert.Greater(t, cfg.Bridge.ReplyTimeout(), cfg.Bridge.RequestTimeout())
	assert.Greater(t, cfg.Bridge.ClientTimeout(), cfg.Bridge.ReplyTimeout())
}

func TestRedacted(t *testing.T) {

	cfg := validConfig()
	cfg.MQTT.Username = "zari"
	cfg.MQTT.Password = "hunter2"

	redacted := cfg.Redacted()
	assert.Equal(t, "*redacted*", redacted.MQTT.Password)
	assert.Equal(t, "*redacted*", redacted.MQTT.Username)
	assert.Equal(t, "hunter2", cfg.MQTT.Password)
}

func TestParseLogLevel(t *testing.T) {

	assert.Equal(t, zap.DebugLevel, ParseLogLevel("trace"))
	assert.Equal(t, zap.WarnLevel, ParseLogLevel("WARN"))
	assert.Equal(t, zap.InfoLevel, ParseLogLevel("chatty"))
}
