package normalize

import (
	"encoding/json"

	"resume-ingest/internal/candidates"
)

// RawOutputKey is the field written when the model reply could not be parsed.
const RawOutputKey = "raw_llm_output"

// Result is either parsed records or the raw reply text.
type Result struct {
	// Records is non-nil when the reply parsed.
	Records []candidates.Record
	Raw     string
}

// IsRaw reports whether the reply could not be parsed into records.
func (r Result) IsRaw() bool {
	return r.Records == nil
}

// MarshalJSON writes a record array, or {"raw_llm_output": text}.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.IsRaw() {
		return json.Marshal(map[string]string{RawOutputKey: r.Raw})
	}
	return json.Marshal(r.Records)
}

// Recover reads a previously written output back into a Result. Raw outputs
// are parsed again, so replies that only fail the strict first pass still
// yield records.
func Recover(data []byte) Result {
	var wrapper map[string]any
	if err := json.Unmarshal(data, &wrapper); err == nil {
		if raw, ok := wrapper[RawOutputKey].(string); ok {
			return ParseOutput(raw)
		}
	}
	return ParseOutput(string(data))
}
