package batch

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"resume-ingest/internal/candidates"
)

func newBatchRouter(t *testing.T, norm Normalizer) (*gin.Engine, *Pipeline) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	pipe := &Pipeline{
		Processor:  &Processor{Extract: fakeExtract, Normalizer: norm},
		Candidates: candidates.NewService(candidates.NewMemoryRepo()),
	}
	h := NewHandler(pipe)
	h.TempDir = t.TempDir()
	r := gin.New()
	h.RegisterRoutes(r.Group("/api/v1"))
	return r, pipe
}

func uploadRequest(t *testing.T, name string, body io.Reader) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := io.Copy(fw, body); err != nil {
		t.Fatalf("copy upload: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/batches", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestCreateBatchProcessesUpload(t *testing.T) {
	router, _ := newBatchRouter(t, &scriptNormalizer{replies: map[string]string{
		"a": `[{"Name":"A","Emails":"a@x.com","Mobile":"1"}]`,
	}})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, uploadRequest(t, "batch.zip", buildZip(t, entry{"a.pdf", "a"})))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]float64{"processed": 1, "inserted": 1, "total": 1, "duplicates": 0}
	for field, n := range want {
		if body[field] != n {
			t.Fatalf("%s = %v, want %v", field, body[field], n)
		}
	}
}

func TestCreateBatchRejectsNonZip(t *testing.T) {
	router, _ := newBatchRouter(t, &scriptNormalizer{})

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, uploadRequest(t, "batch.zip", bytes.NewReader([]byte("plain text"))))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestCreateBatchRequiresFile(t *testing.T) {
	router, _ := newBatchRouter(t, &scriptNormalizer{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/batches", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestCreateBatchConflictsWhileRunning(t *testing.T) {
	router, pipe := newBatchRouter(t, &scriptNormalizer{})
	pipe.running.Lock()
	defer pipe.running.Unlock()

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, uploadRequest(t, "batch.zip", buildZip(t, entry{"a.pdf", "a"})))
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
}
