package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/sangar-bot/sangar/internal/ai"
)

type fakeImageResponder struct {
	fakeResponder
	imageReply string
	imageErr   error
}

func (f *fakeImageResponder) AnalyzeImage(_ context.Context, _ []byte, _ string, _ *ai.UserInfo) (string, error) {
	return f.imageReply, f.imageErr
}

func TestAnalyzeImageEndpoint(t *testing.T) {
	responder := &fakeImageResponder{imageReply: "Ada kucing."}
	s, _ := newTestServer(t, responder)

	body := map[string]any{
		"caption":      "apa ini?",
		"image_base64": base64.StdEncoding.EncodeToString([]byte{0xff, 0xd8, 0xff}),
	}
	w := postJSON(t, s, "/analyzeimage", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Response string `json:"response"`
		Source   string `json:"source"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Response != "Ada kucing." || resp.Source != "ai" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestAnalyzeImageInvalidImage(t *testing.T) {
	responder := &fakeImageResponder{imageErr: ai.ErrInvalidImage}
	s, _ := newTestServer(t, responder)

	body := map[string]any{
		"image_base64": base64.StdEncoding.EncodeToString([]byte("garbage")),
	}
	w := postJSON(t, s, "/analyzeimage", body)
	var resp struct {
		Response string `json:"response"`
		Source   string `json:"source"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Source != "error" || !strings.Contains(resp.Response, "gambar") {
		t.Errorf("resp = %+v", resp)
	}
}

func TestAnalyzeImageValidation(t *testing.T) {
	s, _ := newTestServer(t, &fakeImageResponder{})

	if w := postJSON(t, s, "/analyzeimage", map[string]any{}); w.Code != http.StatusBadRequest {
		t.Errorf("missing image status = %d, want 400", w.Code)
	}
	if w := postJSON(t, s, "/analyzeimage", map[string]any{"image_base64": "!!!not-base64!!!"}); w.Code != http.StatusBadRequest {
		t.Errorf("bad base64 status = %d, want 400", w.Code)
	}
}

func TestAnalyzeImageUnsupportedResponder(t *testing.T) {
	// Plain responder without the vision interface.
	s, _ := newTestServer(t, &fakeResponder{})

	w := postJSON(t, s, "/analyzeimage", map[string]any{"image_base64": "aGk="})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}
