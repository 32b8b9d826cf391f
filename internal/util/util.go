package util

import (
	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		Mode:     config.MODE_BRIDGE,
		Serial: config.SerialConfig{
			Port:              "/dev/null",
			Baud:              115200,
			ReadTimeoutMillis: 100,
			AckTimeoutMillis:  500,
		},
		Bridge: config.BridgeConfig{
			Host:                 "127.0.0.1",
			Port:                 0,
			RequestTimeoutMillis: 5000,
		},
		Interpreter: config.InterpreterConfig{
			ThermostatMin: 50,
			ThermostatMax: 90,
		},
		MQTT: config.MQTTConfig{
			Host:      "127.0.0.1",
			Port:      1883,
			BaseTopic: "zari",
		},
		Port: 8080,
	}
}
