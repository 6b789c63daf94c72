package normalize

import (
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"resume-ingest/internal/candidates"
)

var (
	fencedBlock  = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	bracketSpan  = regexp.MustCompile(`(?s)(\[.*\]|\{.*\})`)
	recordsShape = jsonschema.MustCompileString("records.json", `{
  "oneOf": [
    {"type": "object"},
    {"type": "array", "items": {"type": "object"}}
  ]
}`)
)

// ParseOutput extracts records from a model reply. It tries the whole body,
// then a fenced code block, then the widest bracket or brace span. Only an
// object or an array of objects is accepted. When nothing parses the reply is
// kept as a raw Result.
func ParseOutput(text string) Result {
	for _, candidate := range jsonCandidates(text) {
		objects, ok := decodeObjects(candidate)
		if !ok {
			continue
		}
		records := make([]candidates.Record, 0, len(objects))
		for _, obj := range objects {
			records = append(records, ToRecord(obj))
		}
		return Result{Records: records}
	}
	return Result{Raw: text}
}

func jsonCandidates(text string) []string {
	out := []string{strings.TrimSpace(text)}
	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		out = append(out, m[1])
	}
	if m := bracketSpan.FindString(text); m != "" {
		out = append(out, m)
	}
	return out
}

func decodeObjects(s string) ([]map[string]any, bool) {
	if s == "" {
		return nil, false
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, false
	}
	if err := recordsShape.Validate(v); err != nil {
		return nil, false
	}

	switch t := v.(type) {
	case map[string]any:
		return []map[string]any{t}, true
	case []any:
		objects := make([]map[string]any, 0, len(t))
		for _, item := range t {
			objects = append(objects, item.(map[string]any))
		}
		return objects, true
	}
	return nil, false
}

// ToRecord fits a decoded object to the fixed columns. A column takes the
// value of the key spelled exactly like it. When no such key exists, a key
// equal to the column under case folding is accepted instead, so "name" or
// "EMAILS" fill Name and Emails. The fallback intentionally widens
// exact-name matching. Unknown keys are dropped and missing columns stay empty.
func ToRecord(obj map[string]any) candidates.Record {
	var rec candidates.Record
	var folded map[string]string
	for _, col := range candidates.Columns {
		v, ok := obj[col]
		if !ok {
			if folded == nil {
				folded = foldKeys(obj)
			}
			key, found := folded[strings.ToLower(col)]
			if !found {
				continue
			}
			v = obj[key]
		}
		*rec.Field(col) = Value(v)
	}
	return rec
}

// foldKeys maps lowercased keys to the first original key in sorted order.
func foldKeys(obj map[string]any) map[string]string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		lk := strings.ToLower(k)
		if _, dup := out[lk]; !dup {
			out[lk] = k
		}
	}
	return out
}

// Value coerces a decoded JSON value to its column text. Arrays are joined
// with ", " after their elements are coerced; null becomes "".
func Value(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, Value(item))
		}
		return strings.Join(parts, ", ")
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
