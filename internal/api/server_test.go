package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/chatnote/internal/importer"
	"github.com/MikeSquared-Agency/chatnote/internal/processor"
	"github.com/MikeSquared-Agency/chatnote/internal/store"
)

type memStore struct {
	convs []store.Conversation
	err   error
}

func (m *memStore) SaveConversation(_ context.Context, c importer.Conversation, tags []string) (*store.Conversation, error) {
	if m.err != nil {
		return nil, m.err
	}
	saved := store.Conversation{
		ID:        uuid.New(),
		Title:     c.Title,
		Content:   c.Content,
		Source:    c.Source,
		Tags:      tags,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.convs = append(m.convs, saved)
	return &saved, nil
}

func (m *memStore) GetConversation(_ context.Context, id uuid.UUID) (*store.Conversation, error) {
	for i := range m.convs {
		if m.convs[i].ID == id {
			return &m.convs[i], nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) ListConversations(_ context.Context, limit int) ([]store.Conversation, error) {
	if limit > 0 && limit < len(m.convs) {
		return m.convs[:limit], nil
	}
	return m.convs, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, token string, st *memStore) *Server {
	t.Helper()
	logger := discardLogger()
	var saver processor.Saver
	var reader ConversationReader
	if st != nil {
		saver = st
		reader = st
	}
	proc := processor.New(importer.New(), saver, nil, logger)
	return NewServer(8760, token, "en", proc, reader, 1<<20, logger)
}

func serve(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	return w
}

func decodeResult(t *testing.T, w *httptest.ResponseRecorder) processor.Result {
	t.Helper()
	var res processor.Result
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return res
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, "", nil)

	w := serve(srv, httptest.NewRequest("GET", "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv := newTestServer(t, "", &memStore{})

	w := serve(srv, httptest.NewRequest("GET", "/api/v1/chatnote/status", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["service"] != "chatnote" {
		t.Errorf("expected service chatnote, got %v", body["service"])
	}
	if body["locale"] != "en" {
		t.Errorf("expected locale en, got %v", body["locale"])
	}
	if body["storage"] != true {
		t.Errorf("expected storage true, got %v", body["storage"])
	}
}

func TestNotFoundEndpoint(t *testing.T) {
	srv := newTestServer(t, "", nil)

	w := serve(srv, httptest.NewRequest("GET", "/nonexistent", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestImport_JSONDryRun(t *testing.T) {
	srv := newTestServer(t, "", nil)

	body := `{"content":"# Notes\nsome text","filename":"notes.md","tags":["a"," a ","b"],"dry_run":true}`
	w := serve(srv, httptest.NewRequest("POST", "/api/v1/imports", strings.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	res := decodeResult(t, w)
	if !res.DryRun || res.Count != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	got := res.Conversations[0]
	if got.Title != "Notes" {
		t.Errorf("expected title Notes, got %q", got.Title)
	}
	if got.Source != importer.SourceManual {
		t.Errorf("expected manual source, got %q", got.Source)
	}
	if len(got.Tags) != 2 {
		t.Errorf("expected 2 tags, got %v", got.Tags)
	}
	if got.ID != "" {
		t.Errorf("dry run should not assign an id, got %q", got.ID)
	}
}

func TestImport_JSONStoresConversations(t *testing.T) {
	st := &memStore{}
	srv := newTestServer(t, "", st)

	content := `[{"title":"A","mapping":{"r":{"children":["m"]},"m":{"parent":"r","message":{"author":{"role":"user"},"content":{"parts":["hi"]}}}}},{"name":"B","chat_messages":[{"sender":"human","text":"yo"}]}]`
	payload, _ := json.Marshal(map[string]any{"content": content})

	w := serve(srv, httptest.NewRequest("POST", "/api/v1/imports", bytes.NewReader(payload)))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	res := decodeResult(t, w)
	if res.Count != 2 || len(st.convs) != 2 {
		t.Fatalf("expected 2 stored conversations, got count=%d stored=%d", res.Count, len(st.convs))
	}
	if res.Conversations[0].Source != importer.SourceChatGPT || res.Conversations[1].Source != importer.SourceClaude {
		t.Errorf("unexpected sources: %q, %q", res.Conversations[0].Source, res.Conversations[1].Source)
	}
	if res.Conversations[0].ID == "" {
		t.Error("stored conversation should carry an id")
	}
}

func TestImport_Multipart(t *testing.T) {
	st := &memStore{}
	srv := newTestServer(t, "", st)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("title", "Override")
	_ = mw.WriteField("tags", "work, ideas")
	part, err := mw.CreateFormFile("file", "export.json")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = part.Write([]byte("\xef\xbb\xbf" + `{"messages":[{"role":"user","content":"hello"}]}`))
	_ = mw.Close()

	req := httptest.NewRequest("POST", "/api/v1/imports", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := serve(srv, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	res := decodeResult(t, w)
	if res.Count != 1 {
		t.Fatalf("expected 1 conversation, got %d", res.Count)
	}
	got := res.Conversations[0]
	if got.Title != "Override" {
		t.Errorf("expected title override, got %q", got.Title)
	}
	if got.Content != "**User:**\nhello" {
		t.Errorf("unexpected content %q", got.Content)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "work" || got.Tags[1] != "ideas" {
		t.Errorf("unexpected tags %v", got.Tags)
	}
}

func TestImport_EmptyContent(t *testing.T) {
	srv := newTestServer(t, "", &memStore{})

	w := serve(srv, httptest.NewRequest("POST", "/api/v1/imports", strings.NewReader(`{"content":"   "}`)))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestImport_InvalidBody(t *testing.T) {
	srv := newTestServer(t, "", &memStore{})

	w := serve(srv, httptest.NewRequest("POST", "/api/v1/imports", strings.NewReader(`not json`)))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestImport_TooLarge(t *testing.T) {
	logger := discardLogger()
	proc := processor.New(importer.New(), nil, nil, logger)
	srv := NewServer(8760, "", "en", proc, nil, 16, logger)

	body := `{"content":"` + strings.Repeat("x", 64) + `","dry_run":true}`
	w := serve(srv, httptest.NewRequest("POST", "/api/v1/imports", strings.NewReader(body)))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", w.Code)
	}
}

func TestImport_StorageDisabled(t *testing.T) {
	srv := newTestServer(t, "", nil)

	w := serve(srv, httptest.NewRequest("POST", "/api/v1/imports", strings.NewReader(`{"content":"hello"}`)))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}

func TestImport_StoreFailure(t *testing.T) {
	srv := newTestServer(t, "", &memStore{err: errors.New("db down")})

	w := serve(srv, httptest.NewRequest("POST", "/api/v1/imports", strings.NewReader(`{"content":"hello"}`)))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}

func TestBearerAuth(t *testing.T) {
	srv := newTestServer(t, "secret", &memStore{})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "Bearer nope", http.StatusUnauthorized},
		{"wrong scheme", "Basic secret", http.StatusUnauthorized},
		{"valid", "Bearer secret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/v1/conversations", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := serve(srv, req)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}

	// health and status stay open
	w := serve(srv, httptest.NewRequest("GET", "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("health should not require auth, got %d", w.Code)
	}
}

func TestGetConversation(t *testing.T) {
	st := &memStore{}
	saved, _ := st.SaveConversation(context.Background(), importer.Conversation{
		Title: "Stored", Content: "body", Source: importer.SourceManual,
	}, []string{"x"})
	srv := newTestServer(t, "", st)

	w := serve(srv, httptest.NewRequest("GET", "/api/v1/conversations/"+saved.ID.String(), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got store.Conversation
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.ID != saved.ID || got.Title != "Stored" {
		t.Errorf("unexpected conversation %+v", got)
	}

	w = serve(srv, httptest.NewRequest("GET", "/api/v1/conversations/"+uuid.NewString(), nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown id, got %d", w.Code)
	}

	w = serve(srv, httptest.NewRequest("GET", "/api/v1/conversations/not-a-uuid", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed id, got %d", w.Code)
	}
}

func TestListConversations(t *testing.T) {
	st := &memStore{}
	for _, title := range []string{"one", "two", "three"} {
		_, _ = st.SaveConversation(context.Background(), importer.Conversation{Title: title, Content: "c"}, nil)
	}
	srv := newTestServer(t, "", st)

	w := serve(srv, httptest.NewRequest("GET", "/api/v1/conversations?limit=2", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Conversations []store.Conversation `json:"conversations"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Conversations) != 2 {
		t.Errorf("expected 2 conversations, got %d", len(body.Conversations))
	}

	w = serve(srv, httptest.NewRequest("GET", "/api/v1/conversations?limit=abc", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad limit, got %d", w.Code)
	}
}

func TestConversationsWithoutStorage(t *testing.T) {
	srv := newTestServer(t, "", nil)

	w := serve(srv, httptest.NewRequest("GET", "/api/v1/conversations", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}
