package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	pdflib "github.com/cioplenu/pdf-lib"
)

// uploadField is the multipart field carrying the document
const uploadField = "file"

var imageName = regexp.MustCompile(`^image-[1-9][0-9]*\.png$`)

var errNoDocument = errors.New("request carries no document")

type textResponse struct {
	Pages []string `json:"pages"`
}

type extractResponse struct {
	Job         string              `json:"job"`
	Pages       []pdflib.PageResult `json:"pages"`
	Diagnostics []pdflib.Diagnostic `json:"diagnostics,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	path, cleanup, err := s.saveUpload(w, r)
	if err != nil {
		s.respondWithUploadError(w, r, err)
		return
	}
	defer cleanup()

	texts, err := pdflib.ExtractText(r.Context(), path, s.options(r)...)
	if err != nil {
		s.respondWithExtractError(w, r, err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, textResponse{Pages: texts})
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	path, cleanup, err := s.saveUpload(w, r)
	if err != nil {
		s.respondWithUploadError(w, r, err)
		return
	}
	defer cleanup()

	job := uuid.NewString()
	dir := filepath.Join(s.config.DataDir, job)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.logger.Error("create job directory", zap.String("job", job), zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "could not create job")
		return
	}

	result, err := pdflib.ExtractTextAndImages(r.Context(), path, dir,
		append(s.options(r), pdflib.WithLogger(s.requestLog(r).With(zap.String("job", job))))...)
	if err != nil {
		os.RemoveAll(dir)
		s.respondWithExtractError(w, r, err)
		return
	}

	s.respondWithJSON(w, http.StatusOK, extractResponse{
		Job:         job,
		Pages:       result.Pages,
		Diagnostics: result.Diagnostics,
	})
}

func (s *Server) handleJobFile(w http.ResponseWriter, r *http.Request) {
	job := chi.URLParam(r, "job")
	name := chi.URLParam(r, "filename")

	if _, err := uuid.Parse(job); err != nil {
		s.respondWithError(w, http.StatusNotFound, "unknown job")
		return
	}
	if !imageName.MatchString(name) {
		s.respondWithError(w, http.StatusNotFound, "unknown file")
		return
	}

	f, err := os.Open(filepath.Join(s.config.DataDir, job, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.respondWithError(w, http.StatusNotFound, "unknown file")
			return
		}
		s.requestLog(r).Error("open job file", zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "could not read file")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.respondWithError(w, http.StatusInternalServerError, "could not read file")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// options returns the extraction options for one request
func (s *Server) options(r *http.Request) []pdflib.Option {
	opts := make([]pdflib.Option, 0, len(s.extract)+1)
	opts = append(opts, pdflib.WithLogger(s.requestLog(r)))
	return append(opts, s.extract...)
}

func (s *Server) requestLog(r *http.Request) *zap.Logger {
	return s.logger.With(zap.String("request_id", middleware.GetReqID(r.Context())))
}

// saveUpload copies the uploaded document into a temporary file. The body
// is either the raw PDF or a multipart form with the document in field
// "file".
func (s *Server) saveUpload(w http.ResponseWriter, r *http.Request) (string, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes())

	var src io.Reader = r.Body
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		file, _, err := r.FormFile(uploadField)
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) {
				return "", nil, errNoDocument
			}
			return "", nil, err
		}
		defer file.Close()
		src = file
	}

	tmp, err := os.CreateTemp(s.config.DataDir, "upload-*.pdf")
	if err != nil {
		return "", nil, fmt.Errorf("create upload file: %w", err)
	}
	cleanup := func() { os.Remove(tmp.Name()) }

	n, err := io.Copy(tmp, src)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil && n == 0 {
		err = errNoDocument
	}
	if err != nil {
		cleanup()
		return "", nil, err
	}
	return tmp.Name(), cleanup, nil
}

// --- Helper Functions ---

func (s *Server) respondWithUploadError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		s.respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("document exceeds %d bytes", tooLarge.Limit))
	case errors.Is(err, errNoDocument):
		s.respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		s.requestLog(r).Error("read upload", zap.Error(err))
		s.respondWithError(w, http.StatusBadRequest, "could not read upload")
	}
}

func (s *Server) respondWithExtractError(w http.ResponseWriter, r *http.Request, err error) {
	var openErr *pdflib.DocumentOpenError
	switch {
	case errors.As(err, &openErr):
		s.respondWithError(w, http.StatusUnprocessableEntity, openErr.Err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.respondWithError(w, http.StatusServiceUnavailable, "request canceled")
	default:
		s.requestLog(r).Error("extraction failed", zap.Error(err))
		s.respondWithError(w, http.StatusInternalServerError, "extraction failed")
	}
}

func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]string{"error": message})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("encode response", zap.Error(err))
		code = http.StatusInternalServerError
		response = []byte(`{"error":"could not encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
