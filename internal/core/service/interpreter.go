package service

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/core/domain"
	"github.com/MonqiuesTECH/Voice-Controlled-Smart-Home-Assistant/internal/core/port"
)

var digitsRegexp = regexp.MustCompile("[0-9]+")

type phrase []string

type roomPhrase struct {
	words     phrase
	canonical string
}

// KeywordInterpreter maps utterances to actions with fixed keyword tables.
// It holds no mutable state and is safe for concurrent use.
type KeywordInterpreter struct {
	vocab   Vocabulary
	devices map[domain.Intent][]phrase
	states  map[domain.State][]phrase
	rooms   []roomPhrase
}

func NewKeywordInterpreter(vocab Vocabulary) *KeywordInterpreter {
	p := &KeywordInterpreter{
		vocab:   vocab,
		devices: make(map[domain.Intent][]phrase, len(deviceKeywords)),
		states:  make(map[domain.State][]phrase, len(stateKeywords)),
	}
	for intent, words := range deviceKeywords {
		p.devices[intent] = compilePhrases(words)
	}
	for state, words := range stateKeywords {
		p.states[state] = compilePhrases(words)
	}
	for _, room := range vocab.Rooms {
		p.rooms = append(p.rooms, roomPhrase{words: tokenize(room), canonical: room})
	}
	// aliases after canonical names, in a stable order
	aliases := make([]string, 0, len(vocab.RoomAliases))
	for alias := range vocab.RoomAliases {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	for _, alias := range aliases {
		p.rooms = append(p.rooms, roomPhrase{words: tokenize(alias), canonical: vocab.RoomAliases[alias]})
	}
	return p
}

func (p *KeywordInterpreter) Interpret(text string) domain.Action {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return domain.Unknown(text)
	}

	intent, ok := p.detectIntent(tokens)
	if !ok {
		return domain.Unknown(text)
	}

	value, ok := p.extractValue(intent, text, tokens)
	if !ok {
		return domain.Unknown(text)
	}

	action := domain.Action{
		Intent:   intent,
		Location: p.extractLocation(intent, tokens),
		Value:    value,
		RawText:  text,
	}
	if err := action.Validate(); err != nil {
		return domain.Unknown(text)
	}
	return action
}

// detectIntent returns the first intent, in priority order, with a keyword hit.
func (p *KeywordInterpreter) detectIntent(tokens []string) (domain.Intent, bool) {
	for _, intent := range domain.Intents {
		for _, kw := range p.devices[intent] {
			for _, at := range findPhrase(tokens, kw) {
				if intent == domain.IntentGarage && p.isRoomUse(tokens, at, len(kw)) {
					continue
				}
				return intent, true
			}
		}
	}
	return domain.IntentUnknown, false
}

// isRoomUse tells whether the garage keyword at tokens[at:at+n] names a room:
// "garage light", "in the garage".
func (p *KeywordInterpreter) isRoomUse(tokens []string, at, n int) bool {
	if next := at + n; next < len(tokens) && p.deviceKeywordAt(tokens, next, domain.IntentGarage) {
		return true
	}
	prev := at - 1
	if prev < 0 {
		return false
	}
	if roomPrepositions[tokens[prev]] {
		return true
	}
	return articles[tokens[prev]] && prev > 0 && roomPrepositions[tokens[prev-1]]
}

func (p *KeywordInterpreter) deviceKeywordAt(tokens []string, at int, except domain.Intent) bool {
	for intent, keywords := range p.devices {
		if intent == except {
			continue
		}
		for _, kw := range keywords {
			if matchAt(tokens, at, kw) {
				return true
			}
		}
	}
	return false
}

func (p *KeywordInterpreter) extractValue(intent domain.Intent, text string, tokens []string) (domain.Value, bool) {
	switch intent {
	case domain.IntentLight, domain.IntentFan:
		return p.firstState(tokens, domain.StateOn, domain.StateOff)
	case domain.IntentGarage:
		return p.firstState(tokens, domain.StateOpen, domain.StateClose)
	case domain.IntentThermostat:
		return p.temperature(text)
	default:
		return domain.Value{}, false
	}
}

// firstState picks whichever candidate state keyword occurs earliest.
func (p *KeywordInterpreter) firstState(tokens []string, candidates ...domain.State) (domain.Value, bool) {
	best, bestAt := domain.State(""), len(tokens)
	for _, state := range candidates {
		for _, kw := range p.states[state] {
			if hits := findPhrase(tokens, kw); len(hits) > 0 && hits[0] < bestAt {
				best, bestAt = state, hits[0]
			}
		}
	}
	if best == "" {
		return domain.Value{}, false
	}
	return domain.StateValue(best), true
}

// temperature reads the first run of decimal digits, negative when a standalone minus
// sign precedes it. Out of range values are rejected, not clamped.
func (p *KeywordInterpreter) temperature(text string) (domain.Value, bool) {
	loc := digitsRegexp.FindStringIndex(text)
	if loc == nil {
		return domain.Value{}, false
	}
	digits := text[loc[0]:loc[1]]
	if isNegativeSign(text, loc[0]) {
		digits = "-" + digits
	}
	degrees, err := strconv.Atoi(digits)
	if err != nil {
		return domain.Value{}, false
	}
	if degrees < p.vocab.ThermostatMin || degrees > p.vocab.ThermostatMax {
		return domain.Value{}, false
	}
	return domain.TemperatureValue(degrees), true
}

// isNegativeSign tells whether the digits at text[at:] carry a minus sign. A dash
// glued to a word ("living-room72", "68-70") is punctuation, not a sign.
func isNegativeSign(text string, at int) bool {
	if at == 0 || text[at-1] != '-' {
		return false
	}
	if at == 1 {
		return true
	}
	prev, _ := utf8.DecodeLastRuneInString(text[:at-1])
	return !unicode.IsLetter(prev) && !unicode.IsDigit(prev)
}

func (p *KeywordInterpreter) extractLocation(intent domain.Intent, tokens []string) string {
	for _, room := range p.rooms {
		// the garage door is the device itself, not a room
		if intent == domain.IntentGarage && room.canonical == "garage" {
			continue
		}
		if len(findPhrase(tokens, room.words)) > 0 {
			return room.canonical
		}
	}
	return ""
}

// tokenize lowercases, drops every rune that is not a letter or a digit and splits on the gaps.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func compilePhrases(words []string) []phrase {
	out := make([]phrase, 0, len(words))
	for _, w := range words {
		out = append(out, tokenize(w))
	}
	return out
}

func findPhrase(tokens []string, kw phrase) []int {
	var hits []int
	for i := 0; i+len(kw) <= len(tokens); i++ {
		if matchAt(tokens, i, kw) {
			hits = append(hits, i)
		}
	}
	return hits
}

func matchAt(tokens []string, at int, kw phrase) bool {
	if len(kw) == 0 || at+len(kw) > len(tokens) {
		return false
	}
	for j, w := range kw {
		if tokens[at+j] != w {
			return false
		}
	}
	return true
}

// ensure interface compliance
var _ port.CommandInterpreter = (*KeywordInterpreter)(nil)
