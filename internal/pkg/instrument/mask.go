package instrument

import (
	"encoding/json"
	"net/http"
	"strings"
)

const masked = "***"

// Masker replaces the values of sensitive keys before they reach a log sink.
// Keys are matched case-insensitively.
type Masker map[string]struct{}

// NewMasker builds a Masker from a list of field names; blanks are ignored.
func NewMasker(fields []string) Masker {
	m := make(Masker, len(fields))
	for _, f := range fields {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			m[f] = struct{}{}
		}
	}
	return m
}

// Has reports whether key is sensitive.
func (m Masker) Has(key string) bool {
	_, ok := m[strings.ToLower(key)]
	return ok
}

// Data masks nested maps and slices as produced by encoding/json.
func (m Masker) Data(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if m.Has(k) {
				out[k] = masked
				continue
			}
			out[k] = m.Data(inner)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if m.Has(k) {
				out[k] = masked
				continue
			}
			out[k] = inner
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = m.Data(inner)
		}
		return out
	default:
		return v
	}
}

// JSON decodes payload, masks it and returns the decoded value. ok is false
// when payload is not a JSON object or array.
func (m Masker) JSON(payload []byte) (v any, ok bool) {
	if len(payload) == 0 || (payload[0] != '{' && payload[0] != '[') {
		return nil, false
	}
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, false
	}
	return m.Data(v), true
}

// Header returns a copy of h with sensitive header values masked.
func (m Masker) Header(h http.Header) http.Header {
	if len(m) == 0 {
		return h
	}
	out := h.Clone()
	for k := range out {
		if m.Has(k) {
			out.Set(k, masked)
		}
	}
	return out
}
