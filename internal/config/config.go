package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	MODE_SIMULATOR = "simulator"
	MODE_BRIDGE    = "bridge"
)

// REPLY_MARGIN separates the layered request timeouts so that each layer hears the
// timeout answer of the layer below before giving up itself.
const REPLY_MARGIN = 1 * time.Second

type Config struct {
	LogLevel    zapcore.Level
	Mode        string            `mapstructure:"mode"`
	Port        uint              `mapstructure:"port"`
	HttpLog     bool              `mapstructure:"http_log"`
	Serial      SerialConfig      `mapstructure:"serial"`
	Bridge      BridgeConfig      `mapstructure:"bridge"`
	Interpreter InterpreterConfig `mapstructure:"interpreter"`
	MQTT        MQTTConfig        `mapstructure:"mqtt"`
}

type SerialConfig struct {
	Port              string
	Baud              int
	ReadTimeoutMillis uint32 `mapstructure:"read_timeout_millis"`
	AckTimeoutMillis  uint32 `mapstructure:"ack_timeout_millis"`
}

func (c SerialConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutMillis) * time.Millisecond
}

func (c SerialConfig) AckTimeout() time.Duration {
	return time.Duration(c.AckTimeoutMillis) * time.Millisecond
}

type BridgeConfig struct {
	Host                 string
	Port                 uint
	RequestTimeoutMillis uint32 `mapstructure:"request_timeout_millis"`
}

func (c BridgeConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c BridgeConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMillis) * time.Millisecond
}

// ReplyTimeout is how long the bridge server waits for the master actor.
func (c BridgeConfig) ReplyTimeout() time.Duration {
	return c.RequestTimeout() + REPLY_MARGIN
}

// ClientTimeout is how long a remote caller waits for one bridge answer.
func (c BridgeConfig) ClientTimeout() time.Duration {
	return c.ReplyTimeout() + REPLY_MARGIN
}

type InterpreterConfig struct {
	ThermostatMin int      `mapstructure:"thermostat_min"`
	ThermostatMax int      `mapstructure:"thermostat_max"`
	Rooms         []string `mapstructure:"rooms"`
}

type MQTTConfig struct {
	Enable         bool
	EmbeddedBroker bool `mapstructure:"embedded_broker"`
	Host           string
	Port           int
	Username       string
	Password       string
	BaseTopic      string `mapstructure:"base_topic"`
	// Home Assistant MQTT discovery
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`
}

// Load reads defaults, the environment (ZARI_*) and the optional CONFIG_FILE, then
// validates the result.
func Load() (*Config, error) {

	// alias PORT => ZARI_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("ZARI_PORT", port)
	}

	setDefaults()

	viper.SetEnvPrefix("zari")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			viper.SetConfigFile(cfgFile)

			err = viper.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg Config

	err := viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	cfg.LogLevel = ParseLogLevel(viper.GetString("log_level"))

	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("mode", MODE_SIMULATOR)
	viper.SetDefault("port", 8080)
	viper.SetDefault("http_log", false)
	viper.SetDefault("serial.port", "/dev/ttyACM0")
	viper.SetDefault("serial.baud", 115200)
	viper.SetDefault("serial.read_timeout_millis", 500)
	viper.SetDefault("serial.ack_timeout_millis", 2000)
	viper.SetDefault("bridge.host", "127.0.0.1")
	viper.SetDefault("bridge.port", 8765)
	viper.SetDefault("bridge.request_timeout_millis", 30000)
	viper.SetDefault("interpreter.thermostat_min", 50)
	viper.SetDefault("interpreter.thermostat_max", 90)
	viper.SetDefault("interpreter.rooms", []string{})
	viper.SetDefault("mqtt.enable", false)
	viper.SetDefault("mqtt.embedded_broker", false)
	viper.SetDefault("mqtt.host", "localhost")
	viper.SetDefault("mqtt.port", 1883)
	viper.SetDefault("mqtt.base_topic", "zari")
	viper.SetDefault("mqtt.ha_discovery_enable", false)
	viper.SetDefault("mqtt.ha_discovery_topic", "homeassistant")
}

func ParseLogLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "trace", "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "error":
		return zap.ErrorLevel
	case "warn":
		return zap.WarnLevel
	case "fatal":
		return zap.FatalLevel
	default:
		return zap.InfoLevel
	}
}

// Check validates bounds and normalizes the MQTT base topic in place.
func (cfg *Config) Check() error {
	if cfg.Mode != MODE_SIMULATOR && cfg.Mode != MODE_BRIDGE {
		return fmt.Errorf("config param mode must be %q or %q", MODE_SIMULATOR, MODE_BRIDGE)
	}
	if cfg.Serial.Baud <= 0 {
		return errors.New("config param serial.baud should be > 0")
	}
	if cfg.Serial.AckTimeoutMillis < 100 {
		return errors.New("config param serial.ack_timeout_millis should be >= 100ms")
	}
	if cfg.Bridge.RequestTimeoutMillis < cfg.Serial.AckTimeoutMillis {
		return errors.New("config param bridge.request_timeout_millis must be >= serial.ack_timeout_millis")
	}
	if cfg.Interpreter.ThermostatMin >= cfg.Interpreter.ThermostatMax {
		return errors.New("config param interpreter.thermostat_min must be < interpreter.thermostat_max")
	}

	// check and fix base topic
	baseTopic, err := CheckMQTTTopic(cfg.MQTT.BaseTopic)
	if err != nil {
		return errors.New("invalid base topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.BaseTopic = baseTopic

	if cfg.MQTT.HADiscoveryEnable {
		hadTopic, err := CheckMQTTTopic(cfg.MQTT.HADiscoveryTopic)
		if err != nil {
			return errors.New("invalid homeassistant discovery topic. can only contain letters, numbers and underscores")
		}
		cfg.MQTT.HADiscoveryTopic = hadTopic
	}
	return nil
}

// Redacted returns a copy safe to print.
func (cfg Config) Redacted() Config {
	if cfg.MQTT.Username != "" {
		cfg.MQTT.Username = "*redacted*"
	}
	if cfg.MQTT.Password != "" {
		cfg.MQTT.Password = "*redacted*"
	}
	return cfg
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}
