package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestWriteEmitsJSONLine(t *testing.T) {
	var buf bytes.Buffer
	prev := SetOutput(&buf)
	defer SetOutput(prev)

	Info("batch.completed", map[string]any{"documents": 3, "msg": "ignored"})

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if got["msg"] != "batch.completed" {
		t.Fatalf("expected msg to win over fields, got %v", got["msg"])
	}
	if got["level"] != "info" {
		t.Fatalf("unexpected level %v", got["level"])
	}
	if got["documents"] != float64(3) {
		t.Fatalf("unexpected documents %v", got["documents"])
	}
}

func TestWriteRedactsSecretFields(t *testing.T) {
	var buf bytes.Buffer
	prev := SetOutput(&buf)
	defer SetOutput(prev)

	Warn("llm.key.rejected", map[string]any{"api_key": "gsk_secret", "key_suffix": "cret"})

	if bytes.Contains(buf.Bytes(), []byte("gsk_secret")) {
		t.Fatalf("secret leaked: %s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"key_suffix":"cret"`)) {
		t.Fatalf("expected suffix field, got %s", buf.String())
	}
}

func TestErr(t *testing.T) {
	if Err(nil) != "" {
		t.Fatal("expected empty string for nil")
	}
	if Err(errors.New("boom")) != "boom" {
		t.Fatal("expected error text")
	}
}
