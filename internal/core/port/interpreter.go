package port

import (
	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/core/domain"
)

// CommandInterpreter turns a transcribed utterance into an action. It never fails:
// anything it cannot map comes back as an UNKNOWN action carrying the original text.
type CommandInterpreter interface {
	Interpret(text string) domain.Action
}
