package protocol

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/otpgate/activation-service/internal/domain"
)

// Assignment is the canonical outcome of a "give me a number" call.
type Assignment struct {
	ActivationID string
	PhoneNumber  string
}

var noNumberTokens = []string{
	"NO_NUMBER",
	"NO_NUMBERS",
	"WRONG_SERVICE",
	"WRONG_COUNTRY",
	"NO_BALANCE",
}

// IsNoNumber reports whether the provider explicitly said "nothing to sell",
// as opposed to answering something we cannot parse at all.
func IsNoNumber(raw string) bool {
	if strings.HasPrefix(raw, "ACCESS_NUMBER:") {
		return false
	}
	for _, token := range noNumberTokens {
		if strings.Contains(raw, token) {
			return true
		}
	}
	return false
}

// ParseAssignment extracts an activation id and phone number from a raw
// number-assignment reply. Trailing garbage after the number is tolerated.
func ParseAssignment(raw string, format domain.ResponseFormat) (*Assignment, bool) {
	if strings.HasPrefix(raw, "ACCESS_NUMBER:") {
		parts := strings.Split(raw, ":")
		if len(parts) < 3 {
			return nil, false
		}
		id := strings.TrimSpace(parts[1])
		number := strings.Fields(parts[2])
		if id == "" || len(number) == 0 {
			return nil, false
		}
		return &Assignment{ActivationID: id, PhoneNumber: number[0]}, true
	}

	if format == domain.FormatJSON {
		return parseJSONAssignment(raw)
	}

	return nil, false
}

func parseJSONAssignment(raw string) (*Assignment, bool) {
	var body map[string]any
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		return nil, false
	}

	id := stringField(body, "id", "activation_id")
	number := stringField(body, "number", "phone")
	if id == "" || number == "" {
		return nil, false
	}
	return &Assignment{ActivationID: id, PhoneNumber: number}, true
}

// stringField returns the first present field as a string. Providers are
// inconsistent about numeric vs string ids, both are accepted.
func stringField(body map[string]any, keys ...string) string {
	for _, key := range keys {
		v, ok := body[key]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case string:
			return val
		case float64:
			return strconv.FormatFloat(val, 'f', -1, 64)
		}
	}
	return ""
}
