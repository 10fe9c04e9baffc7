// Package envelope holds the JSON response wrapper shared by the API and its
// clients: {"message": ..., "data": ...}.
package envelope

import (
	"encoding/json"
	"log"
	"net/http"
	"sort"
	"strings"
)

// Response is the server side envelope. Message is a string, or a
// map[string][]string of field errors on validation failures.
type Response struct {
	Message any `json:"message"`
	Data    any `json:"data,omitempty"`
	Meta    any `json:"meta,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[ERROR] encode response: %v", err)
	}
}

func Success(w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Response{Message: message, Data: data})
}

func SuccessWithMeta(w http.ResponseWriter, status int, message string, data, meta any) {
	WriteJSON(w, status, Response{Message: message, Data: data, Meta: meta})
}

func Error(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{Message: message})
}

func FieldErrors(w http.ResponseWriter, status int, fields map[string][]string) {
	WriteJSON(w, status, Response{Message: fields})
}

// Raw is the client side view of an envelope with undecoded parts.
type Raw struct {
	Message json.RawMessage `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
	Meta    json.RawMessage `json:"meta,omitempty"`
}

// Text returns the message when it is a plain string.
func (r *Raw) Text() (string, bool) {
	var s string
	if err := json.Unmarshal(r.Message, &s); err != nil {
		return "", false
	}
	return s, true
}

// Fields returns field errors when the message is a field mapping. A field
// holding a single string instead of a list is accepted too.
func (r *Raw) Fields() (map[string][]string, bool) {
	var generic map[string]json.RawMessage
	if err := json.Unmarshal(r.Message, &generic); err != nil {
		return nil, false
	}
	fields := make(map[string][]string, len(generic))
	for k, v := range generic {
		var list []string
		if err := json.Unmarshal(v, &list); err == nil {
			fields[k] = list
			continue
		}
		var one string
		if err := json.Unmarshal(v, &one); err == nil {
			fields[k] = []string{one}
		}
	}
	return fields, true
}

// Messages flattens the envelope message into display lines: one line for a
// string message, one line per field (sorted by field name) otherwise.
func (r *Raw) Messages() []string {
	if s, ok := r.Text(); ok {
		return []string{s}
	}
	fields, ok := r.Fields()
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, strings.Join(fields[k], " "))
	}
	return lines
}

// DecodeData unmarshals the data part into v.
func (r *Raw) DecodeData(v any) error {
	if len(r.Data) == 0 || string(r.Data) == "null" {
		return nil
	}
	return json.Unmarshal(r.Data, v)
}
