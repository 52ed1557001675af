package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/chatnote/internal/processor"
	"github.com/MikeSquared-Agency/chatnote/internal/store"
)

type importBody struct {
	Content  string   `json:"content"`
	Filename string   `json:"filename"`
	Title    string   `json:"title"`
	Tags     []string `json:"tags"`
	DryRun   bool     `json:"dry_run"`
}

func (s *Server) createImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	req, err := s.parseImport(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.proc.Import(r.Context(), req)
	switch {
	case errors.Is(err, processor.ErrEmptyContent):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, processor.ErrStorageDisabled):
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		s.logger.Error("import failed", "filename", req.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, "import failed")
		return
	}

	status := http.StatusCreated
	if res.DryRun {
		status = http.StatusOK
	}
	writeJSON(w, status, res)
}

func (s *Server) parseImport(r *http.Request) (processor.Request, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return s.parseMultipartImport(r)
	}

	var body importBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return processor.Request{}, err
		}
		return processor.Request{}, errors.New("invalid JSON body")
	}
	return processor.Request{
		Content:  body.Content,
		Filename: body.Filename,
		Title:    body.Title,
		Tags:     body.Tags,
		DryRun:   body.DryRun,
	}, nil
}

// parseMultipartImport reads the "file" part, falling back to a "content"
// form field for pasted text.
func (s *Server) parseMultipartImport(r *http.Request) (processor.Request, error) {
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return processor.Request{}, err
		}
		return processor.Request{}, errors.New("invalid multipart body")
	}

	req := processor.Request{
		Title: r.FormValue("title"),
		Tags:  processor.SplitTags(r.FormValue("tags")),
	}
	if v := r.FormValue("dry_run"); v != "" {
		dry, err := strconv.ParseBool(v)
		if err != nil {
			return processor.Request{}, errors.New("invalid dry_run value")
		}
		req.DryRun = dry
	}

	file, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		req.Content = r.FormValue("content")
		return req, nil
	case err != nil:
		return processor.Request{}, errors.New("invalid file part")
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return processor.Request{}, errors.New("read file part")
	}
	text, err := processor.DecodeText(raw)
	if err != nil {
		return processor.Request{}, err
	}
	req.Content = text
	req.Filename = header.Filename
	return req, nil
}

func (s *Server) getConversation(w http.ResponseWriter, r *http.Request) {
	if s.reader == nil {
		writeError(w, http.StatusServiceUnavailable, processor.ErrStorageDisabled.Error())
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid conversation id")
		return
	}

	conv, err := s.reader.GetConversation(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	if err != nil {
		s.logger.Error("get conversation failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "get conversation failed")
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) listConversations(w http.ResponseWriter, r *http.Request) {
	if s.reader == nil {
		writeError(w, http.StatusServiceUnavailable, processor.ErrStorageDisabled.Error())
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	convs, err := s.reader.ListConversations(r.Context(), limit)
	if err != nil {
		s.logger.Error("list conversations failed", "error", err)
		writeError(w, http.StatusInternalServerError, "list conversations failed")
		return
	}
	if convs == nil {
		convs = []store.Conversation{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversations": convs})
}
