package chef

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// listKeys are the wrapper keys models commonly use around a result array,
// in lookup order.
var listKeys = []string{"dishes", "meals", "menu", "items", "data"}

// item is one element of a generated array. Both structuring and menu
// generation answers share this shape.
type item struct {
	Date         string     `json:"date"`
	DishName     string     `json:"dish_name"`
	Name         string     `json:"name"`
	Category     string     `json:"category"`
	Status       string     `json:"status"`
	ShoppingList stringList `json:"shopping_list"`
}

func (i item) dishName() string {
	if name := strings.TrimSpace(i.DishName); name != "" {
		return name
	}
	return strings.TrimSpace(i.Name)
}

// stringList accepts either a delimited string or an array of strings.
type stringList string

func (s *stringList) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = stringList(str)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*s = stringList(strings.Join(list, ", "))
	return nil
}

// decodeItems extracts the array of items from a model answer. It accepts a
// bare array, an object wrapping the array under a well-known key, or an
// object whose first array-valued key holds it. Elements that are not objects
// are skipped.
func decodeItems(content string) ([]item, error) {
	payload := sanitizeJSONPayload(content)
	if payload == "" {
		return nil, errors.New("empty payload")
	}

	raw, err := extractArray([]byte(payload))
	if err != nil {
		return nil, fmt.Errorf("%w (payload snippet: %s)", err, snippet(payload))
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("failed to decode item array: %w", err)
	}

	items := make([]item, 0, len(elems))
	for _, elem := range elems {
		var it item
		if err := json.Unmarshal(elem, &it); err != nil {
			continue
		}
		items = append(items, it)
	}
	return items, nil
}

func extractArray(payload []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, errors.New("empty payload")
	}

	switch trimmed[0] {
	case '[':
		return trimmed, nil
	case '{':
	default:
		return nil, errors.New("payload is neither an object nor an array")
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, err
	}
	for _, key := range listKeys {
		if v, ok := obj[key]; ok && isNonEmptyArray(v) {
			return v, nil
		}
	}

	// First array-valued key in document order.
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		if isArray(v) {
			return v, nil
		}
	}
	return json.RawMessage("[]"), nil
}

func isArray(v json.RawMessage) bool {
	t := bytes.TrimSpace(v)
	return len(t) > 0 && t[0] == '['
}

func isNonEmptyArray(v json.RawMessage) bool {
	if !isArray(v) {
		return false
	}
	var elems []json.RawMessage
	return json.Unmarshal(v, &elems) == nil && len(elems) > 0
}

func sanitizeJSONPayload(content string) string {
	trimmed := strings.TrimSpace(stripCodeFenceBlock(content))
	if trimmed == "" {
		return ""
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return trimmed
	}
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	if start := strings.Index(trimmed, "["); start >= 0 {
		if end := strings.LastIndex(trimmed, "]"); end > start {
			return strings.TrimSpace(trimmed[start : end+1])
		}
	}
	return trimmed
}

func stripCodeFenceBlock(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := strings.TrimLeft(trimmed[3:], " \t\r\n")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = strings.TrimLeft(body[4:], " \t\r\n")
	}
	if end := strings.LastIndex(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

func snippet(s string) string {
	const limit = 120
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
