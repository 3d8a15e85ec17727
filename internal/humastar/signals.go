package humastar

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// Signals is the flat JSON object Datastar posts with every action.
// Signal names arrive lower cased.
type Signals map[string]any

// ParseSignals decodes a raw request body.
func ParseSignals(body []byte) (Signals, error) {
	var signals Signals
	if err := json.Unmarshal(body, &signals); err != nil {
		return nil, err
	}
	return signals, nil
}

// String returns a string signal, or "" when missing or not a string.
func (s Signals) String(key string) string {
	str, _ := s[key].(string)
	return str
}

// Int returns a numeric signal truncated to int, or 0. Number inputs bound
// with data-bind post strings, so numeric strings count.
func (s Signals) Int(key string) int {
	switch n := s[key].(type) {
	case float64:
		return int(n)
	case int:
		return n
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return int(f)
		}
	}
	return 0
}

// Float returns a numeric signal, or 0. Numeric strings count.
func (s Signals) Float(key string) float64 {
	switch n := s[key].(type) {
	case float64:
		return n
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f
		}
	}
	return 0
}

// Bool returns a boolean signal, or false.
func (s Signals) Bool(key string) bool {
	b, _ := s[key].(bool)
	return b
}

// Has reports whether the signal was posted, even with a zero value.
func (s Signals) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// SignalsInput receives the raw Datastar body. Embed it next to path
// parameters to combine both.
type SignalsInput struct {
	RawBody []byte
}

// Decode parses the body, or returns a Huma 400 for malformed JSON.
func (i *SignalsInput) Decode() (Signals, error) {
	signals, err := ParseSignals(i.RawBody)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid request data: " + err.Error())
	}
	return signals, nil
}
