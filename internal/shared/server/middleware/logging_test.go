package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"resume-ingest/internal/shared/telemetry"
)

func TestLoggingIncludesRequiredFields(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestID(), Auth("secret-token"), Logging())
	router.GET("/test", func(c *gin.Context) {
		c.Set("batchFile", "resumes.zip")
		c.Set("recordCount", 3)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	var buf bytes.Buffer
	prev := telemetry.SetOutput(&buf)
	defer telemetry.SetOutput(prev)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	req.Header.Set("X-Request-Id", "req-1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) == 0 || lines[0] == "" {
		t.Fatalf("expected log output")
	}
	last := lines[len(lines)-1]
	var payload map[string]any
	if err := json.Unmarshal([]byte(last), &payload); err != nil {
		t.Fatalf("decode log json: %v", err)
	}

	required := []string{"request_id", "principal", "batch_file", "record_count", "duration_ms", "status"}
	for _, key := range required {
		if _, ok := payload[key]; !ok {
			t.Fatalf("missing log field: %s", key)
		}
	}
	if payload["request_id"] != "req-1" {
		t.Fatalf("unexpected request_id: %v", payload["request_id"])
	}
	if payload["principal"] != "token:oken" {
		t.Fatalf("unexpected principal: %v", payload["principal"])
	}
	if payload["batch_file"] != "resumes.zip" {
		t.Fatalf("unexpected batch_file: %v", payload["batch_file"])
	}
	if payload["record_count"] != float64(3) {
		t.Fatalf("unexpected record_count: %v", payload["record_count"])
	}
	if strings.Contains(last, "secret-token") {
		t.Fatalf("token leaked into log line")
	}
}
