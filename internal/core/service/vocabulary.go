package service

import (
	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/config"
	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/core/domain"
)

const (
	DEFAULT_THERMOSTAT_MIN = 50
	DEFAULT_THERMOSTAT_MAX = 90
)

// Vocabulary holds the tunable constants of the keyword interpreter.
type Vocabulary struct {
	ThermostatMin int
	ThermostatMax int
	// Rooms are canonical room names in match priority order.
	Rooms []string
	// RoomAliases maps alternative spellings to a canonical room.
	RoomAliases map[string]string
}

func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		ThermostatMin: DEFAULT_THERMOSTAT_MIN,
		ThermostatMax: DEFAULT_THERMOSTAT_MAX,
		Rooms:         []string{"living room", "kitchen", "bedroom", "garage", "office", "hallway", "bathroom"},
		RoomAliases: map[string]string{
			"livingroom":  "living room",
			"living-room": "living room",
			"sala":        "living room",
			"cocina":      "kitchen",
			"dormitorio":  "bedroom",
			"garaje":      "garage",
			"oficina":     "office",
			"pasillo":     "hallway",
			"baño":        "bathroom",
			"bano":        "bathroom",
		},
	}
}

// VocabularyFromConfig overrides the defaults with whatever the config sets.
func VocabularyFromConfig(cfg config.InterpreterConfig) Vocabulary {
	vocab := DefaultVocabulary()
	if cfg.ThermostatMin != 0 || cfg.ThermostatMax != 0 {
		vocab.ThermostatMin = cfg.ThermostatMin
		vocab.ThermostatMax = cfg.ThermostatMax
	}
	if len(cfg.Rooms) > 0 {
		vocab.Rooms = cfg.Rooms
	}
	return vocab
}

// deviceKeywords are checked in domain.Intents order.
var deviceKeywords = map[domain.Intent][]string{
	domain.IntentGarage:     {"garage door", "garage", "garaje", "puerta del garaje", "door", "puerta"},
	domain.IntentThermostat: {"thermostat", "temperature", "ac", "air", "termostato", "temperatura", "aire"},
	domain.IntentFan:        {"fan", "fans", "ventilador", "ventiladores"},
	domain.IntentLight:      {"light", "lights", "lamp", "lamps", "luz", "luces"},
}

var stateKeywords = map[domain.State][]string{
	domain.StateOn:    {"on", "start", "encender", "enciende", "prende", "prender"},
	domain.StateOff:   {"off", "stop", "apagar", "apaga"},
	domain.StateOpen:  {"open", "up", "abrir", "abre", "subir"},
	domain.StateClose: {"close", "shut", "down", "cerrar", "cierra", "bajar"},
}

// roomPrepositions mark the following garage keyword as a place rather than the door.
var roomPrepositions = map[string]bool{
	"in":     true,
	"inside": true,
	"of":     true,
	"en":     true,
	"del":    true,
	"de":     true,
}

var articles = map[string]bool{
	"the": true,
	"el":  true,
	"la":  true,
}
