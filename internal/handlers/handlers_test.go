package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/haven-chat/haven/internal/models"
	"github.com/haven-chat/haven/internal/relay"
	"github.com/haven-chat/haven/internal/store"
)

func newTestServer(t *testing.T) (*chi.Mux, store.MessageStore, string) {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	uploadDir := t.TempDir()
	rt := relay.NewRouter(st, zerolog.Nop())
	h := NewHandler(st, rt, nil, UploadConfig{Dir: uploadDir, MaxBytes: 10 << 20}, zerolog.Nop())

	r := chi.NewRouter()
	r.Get("/api/health", h.Health)
	r.Get("/api/channels/{id}/messages", h.GetChannelMessages)
	r.Post("/api/channels/{id}/messages", h.PostChannelMessage)
	r.Post("/api/upload", h.Upload)
	r.Get("/api/files/{name}", h.ServeFile)
	return r, st, uploadDir
}

func TestGetChannelMessages(t *testing.T) {
	r, st, _ := newTestServer(t)

	msg := models.NewMessage(&models.User{ID: "u1", Username: "alice"}, "general", "hi", models.MessageText, nil)
	if err := st.Append(context.Background(), msg); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/channels/general/messages", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var msgs []models.Message
	if err := json.Unmarshal(rec.Body.Bytes(), &msgs); err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].ID != msg.ID {
		t.Errorf("history = %v", msgs)
	}
}

func TestGetChannelMessagesUnknownChannel(t *testing.T) {
	r, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/channels/never-used/messages", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("unknown channel body = %q, want []", got)
	}
}

func TestGetChannelMessagesInvalidID(t *testing.T) {
	r, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/channels/bad%20id/messages", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestPostChannelMessage(t *testing.T) {
	r, st, _ := newTestServer(t)

	body := `{"user":{"id":"u1","username":"alice"},"message":{"content":"via http","type":"text"}}`
	req := httptest.NewRequest("POST", "/api/channels/general/messages", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var resp PostMessageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.Message == nil || resp.Message.Content != "via http" {
		t.Errorf("response = %+v", resp)
	}

	msgs, err := st.Load(context.Background(), "general")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].ID != resp.Message.ID {
		t.Errorf("message not persisted: %v", msgs)
	}
}

func TestPostChannelMessageMissingUser(t *testing.T) {
	r, st, _ := newTestServer(t)

	body := `{"message":{"content":"anonymous","type":"text"}}`
	req := httptest.NewRequest("POST", "/api/channels/general/messages", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if msgs, _ := st.Load(context.Background(), "general"); len(msgs) != 0 {
		t.Error("rejected post mutated the log")
	}
}

func multipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatal(err)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 640, 480))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestUploadImageWithThumbnail(t *testing.T) {
	r, _, uploadDir := newTestServer(t)

	body, contentType := multipartUpload(t, "photo.png", pngBytes(t))
	req := httptest.NewRequest("POST", "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var ref models.FileRef
	if err := json.Unmarshal(rec.Body.Bytes(), &ref); err != nil {
		t.Fatal(err)
	}
	if ref.Filename != "photo.png" {
		t.Errorf("filename = %q", ref.Filename)
	}
	if !strings.HasSuffix(ref.UniqueFilename, "_photo.png") {
		t.Errorf("unique filename = %q", ref.UniqueFilename)
	}
	if ref.Type != "image/png" {
		t.Errorf("sniffed type = %q", ref.Type)
	}
	if ref.ThumbnailURL == nil {
		t.Fatal("image upload should produce a thumbnail")
	}
	if _, err := os.Stat(filepath.Join(uploadDir, "thumb_"+ref.UniqueFilename)); err != nil {
		t.Errorf("thumbnail missing on disk: %v", err)
	}

	// The stored file is retrievable through the files endpoint.
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/files/"+ref.UniqueFilename, nil))
	if rec.Code != http.StatusOK {
		t.Errorf("serve stored file: status %d", rec.Code)
	}
}

func TestUploadTextFileNoThumbnail(t *testing.T) {
	r, _, _ := newTestServer(t)

	body, contentType := multipartUpload(t, "notes.txt", []byte("plain text"))
	req := httptest.NewRequest("POST", "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var ref models.FileRef
	if err := json.Unmarshal(rec.Body.Bytes(), &ref); err != nil {
		t.Fatal(err)
	}
	if ref.ThumbnailURL != nil {
		t.Errorf("text upload grew a thumbnail: %v", *ref.ThumbnailURL)
	}
	if ref.Size != int64(len("plain text")) {
		t.Errorf("size = %d", ref.Size)
	}
}

func TestUploadRejectsDisallowedExtension(t *testing.T) {
	r, _, uploadDir := newTestServer(t)

	body, contentType := multipartUpload(t, "malware.exe", []byte{0x4d, 0x5a})
	req := httptest.NewRequest("POST", "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	entries, _ := os.ReadDir(uploadDir)
	if len(entries) != 0 {
		t.Errorf("rejected upload left files behind: %v", entries)
	}
}

func TestUploadMissingFilePart(t *testing.T) {
	r, _, _ := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("note", "no file here")
	mw.Close()

	req := httptest.NewRequest("POST", "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestServeFileRejectsTraversal(t *testing.T) {
	r, _, _ := newTestServer(t)

	for _, name := range []string{"..%2F..%2Fetc%2Fpasswd", ".hidden", "has%20space"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/files/"+name, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", name, rec.Code)
		}
	}
}

func TestHealth(t *testing.T) {
	r, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "healthy" {
		t.Errorf("status = %q", resp.Status)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"report.pdf":             "report.pdf",
		"../../etc/passwd":       "passwd",
		`C:\Users\x\doc.docx`:    "doc.docx",
		".env":                   "env",
		"  spaced.txt":           "spaced.txt",
		"with\x00control.txt":    "withcontrol.txt",
		strings.Repeat("a", 150): strings.Repeat("a", 100),
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
