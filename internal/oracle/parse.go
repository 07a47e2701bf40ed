package oracle

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

var jsonSpan = regexp.MustCompile(`\{[\s\S]*\}|\[[\s\S]*\]`)

// ExtractJSON returns the outermost JSON object or array found in a model
// response, which may be wrapped in prose or a markdown fence. Without one
// it returns the trimmed text, and "{}" for an empty response.
func ExtractJSON(text string) string {
	if text == "" {
		return "{}"
	}
	if m := jsonSpan.FindString(text); m != "" {
		return m
	}
	return strings.TrimSpace(text)
}

// candidate is one restaurant as listed by the model. Models are loose about
// types, so price and rating are decoded from either strings or numbers.
type candidate struct {
	Name   string          `json:"name"`
	Price  json.RawMessage `json:"price"`
	Rating json.RawMessage `json:"rating"`
}

func parseCandidates(text string) []candidate {
	var out []candidate
	if err := json.Unmarshal([]byte(ExtractJSON(text)), &out); err != nil {
		return nil
	}
	return out
}

func rawString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

func rawFloat(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	s := rawString(raw)
	// "4.5/5", "4.5 stars"
	if i := strings.IndexFunc(s, func(r rune) bool { return r != '.' && (r < '0' || r > '9') }); i >= 0 {
		s = s[:i]
	}
	f, _ = strconv.ParseFloat(s, 64)
	return f
}
