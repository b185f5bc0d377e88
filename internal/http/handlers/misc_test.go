package handlers

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"impacthub/internal/impactgate"
	"impacthub/internal/providers/impact"
	"impacthub/internal/storage"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t, impactgate.Policy{})
	rec := httptest.NewRecorder()
	env.app.Health(rec, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz = %d", rec.Code)
	}

	env.app.DB = stubPinger{err: errors.New("connection refused")}
	rec = httptest.NewRecorder()
	env.app.Ready(rec, httptest.NewRequest(http.MethodGet, "/v1/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz with failing db = %d", rec.Code)
	}

	env.app.DB = stubPinger{}
	rec = httptest.NewRecorder()
	env.app.Ready(rec, httptest.NewRequest(http.MethodGet, "/v1/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("readyz = %d", rec.Code)
	}
}

func TestPredictImpact(t *testing.T) {
	env := newTestEnv(t, impactgate.Policy{})
	env.classifier.verdict = impact.Verdict{Result: impact.Unknown, Error: "no API key configured", Provider: impact.ProviderGemini}

	rec := httptest.NewRecorder()
	env.app.PredictImpact(rec, request(t, http.MethodPost, "/predict_impact", map[string]string{"title": "Wells", "area": "Water"}, "", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	want := `{"result":null,"error":"no API key configured","provider":"gemini"}` + "\n"
	if rec.Body.String() != want {
		t.Fatalf("body = %s, want %s", rec.Body.String(), want)
	}

	rec = httptest.NewRecorder()
	env.app.PredictImpact(rec, request(t, http.MethodPost, "/predict_impact", map[string]string{}, "", ""))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty input status = %d", rec.Code)
	}
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func multipartImage(t *testing.T, field string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, "photo.png")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	_, _ = part.Write(data)
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/projects/images", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadImage(t *testing.T) {
	store, err := storage.NewFileStore(t.TempDir(), "http://localhost:8080/static")
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	env := newTestEnv(t, impactgate.Policy{})
	env.app.Images = store

	tests := []struct {
		name  string
		field string
		data  []byte
		want  int
	}{
		{name: "png", field: "image", data: pngHeader, want: http.StatusCreated},
		{name: "text file", field: "image", data: []byte("hello world"), want: http.StatusBadRequest},
		{name: "wrong field", field: "file", data: pngHeader, want: http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			env.app.UploadImage(rec, multipartImage(t, tc.field, tc.data))
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d body=%s", rec.Code, tc.want, rec.Body.String())
			}
			if tc.want == http.StatusCreated {
				var out map[string]string
				decodeBody(t, rec, &out)
				if out["url"] != store.URL(out["key"]) {
					t.Fatalf("url = %q, key = %q", out["url"], out["key"])
				}
			}
		})
	}
}

func TestOpenAPIJSONConditional(t *testing.T) {
	app := &App{}
	rec := httptest.NewRecorder()
	app.OpenAPIJSON(rec, httptest.NewRequest(http.MethodGet, "/v1/openapi.json", nil))
	etag := rec.Header().Get("ETag")
	if rec.Code != http.StatusOK || etag == "" || !bytes.Contains(rec.Body.Bytes(), []byte(`"/predict_impact"`)) {
		t.Fatalf("status=%d etag=%q", rec.Code, etag)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/openapi.json", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	app.OpenAPIJSON(rec, req)
	if rec.Code != http.StatusNotModified || rec.Body.Len() != 0 {
		t.Fatalf("conditional status = %d", rec.Code)
	}
}
