package server

import (
	"bytes"
	"encoding/json"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cioplenu/pdf-lib/internal/config"
	"github.com/cioplenu/pdf-lib/internal/pdftest"
)

func newTestServer(t *testing.T) (*Server, *config.Config) {
	t.Helper()
	cfg := &config.Config{
		ListenAddr:      ":0",
		DataDir:         t.TempDir(),
		MaxUploadMB:     1,
		ObjectCacheSize: 16,
	}
	return New(cfg, nil), cfg
}

func sampleDocument() []byte {
	return pdftest.Document(
		pdftest.Page{
			Content: pdftest.TextAt(72, 720, 12, "Figure 1") +
				pdftest.ImageAt("Im1", 72, 560, 120, 120) +
				pdftest.TextAt(72, 540, 12, "A caption"),
			Images: map[string]pdftest.Image{"Im1": pdftest.RGB(3, 3, 0, 128, 255)},
		},
		pdftest.Page{Content: pdftest.TextAt(72, 720, 12, "Second page")},
	)
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("Content-Type"))
}

func TestMetrics(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pdflib_document_duration_seconds")
}

func TestText_RawBody(t *testing.T) {
	s, cfg := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/text", bytes.NewReader(sampleDocument()))
	req.Header.Set("Content-Type", "application/pdf")

	rec := do(t, s, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"pages":["Figure 1A caption","Second page"]}`, rec.Body.String())

	entries, err := os.ReadDir(cfg.DataDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "upload left behind")
}

func TestText_Multipart(t *testing.T) {
	s, _ := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "doc.pdf")
	require.NoError(t, err)
	_, err = part.Write(sampleDocument())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/text", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := do(t, s, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp textResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"Figure 1A caption", "Second page"}, resp.Pages)
}

func TestText_MultipartWithoutFile(t *testing.T) {
	s, _ := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/text", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := do(t, s, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExtract_AndFetchImage(t *testing.T) {
	s, cfg := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/extract", bytes.NewReader(sampleDocument()))

	rec := do(t, s, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp extractResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	_, err := uuid.Parse(resp.Job)
	require.NoError(t, err)
	require.Len(t, resp.Pages, 2)
	assert.Equal(t, []string{"Figure 1", "A caption"}, resp.Pages[0].PageTextLines)
	require.Len(t, resp.Pages[0].PageImages, 1)
	img := resp.Pages[0].PageImages[0]
	assert.Equal(t, "image-1.png", img.Filename)
	assert.Equal(t, []string{"Figure 1", "A caption"}, img.RelatedText)
	assert.FileExists(t, filepath.Join(cfg.DataDir, resp.Job, "image-1.png"))

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/v1/jobs/"+resp.Job+"/image-1.png", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, img.FileSizeBytes, int64(rec.Body.Len()))
	decoded, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 3, decoded.Bounds().Dx())
}

func TestExtract_NotPDF(t *testing.T) {
	s, cfg := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/extract", bytes.NewReader([]byte("hello, world")))

	rec := do(t, s, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	entries, err := os.ReadDir(cfg.DataDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed job left behind")
}

func TestUploadErrors(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/v1/text", bytes.NewReader(nil)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	big := bytes.Repeat([]byte("x"), 2<<20)
	rec = do(t, s, httptest.NewRequest(http.MethodPost, "/v1/text", bytes.NewReader(big)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestJobFile_NotFound(t *testing.T) {
	s, cfg := newTestServer(t)
	job := uuid.NewString()
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.DataDir, job), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.DataDir, job, "notes.txt"), []byte("x"), 0o644))

	tests := []struct {
		name string
		path string
	}{
		{"job not a uuid", "/v1/jobs/abc/image-1.png"},
		{"file name not an image", "/v1/jobs/" + job + "/notes.txt"},
		{"zero identifier", "/v1/jobs/" + job + "/image-0.png"},
		{"missing image", "/v1/jobs/" + job + "/image-7.png"},
		{"unknown job", "/v1/jobs/" + uuid.NewString() + "/image-1.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, http.StatusNotFound, rec.Code)
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/v1/text", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
