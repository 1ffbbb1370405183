package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sangar-bot/sangar/internal/ai"
	"github.com/sangar-bot/sangar/internal/store"
)

type fakeResponder struct {
	reply     string
	err       error
	available bool
	lastUser  *ai.UserInfo
	calls     int
}

func (f *fakeResponder) GenerateReply(_ context.Context, _ string, user *ai.UserInfo, _ []ai.ConversationTurn) (string, error) {
	f.calls++
	f.lastUser = user
	return f.reply, f.err
}

func (f *fakeResponder) Available() bool { return f.available }

func newTestServer(t *testing.T, responder Responder) (*Server, *store.Store) {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return New(st, responder, "gemini-2.5-flash", nil), st
}

func postJSON(t *testing.T, s *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func get(s *Server, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func TestChatKeywordFirst(t *testing.T) {
	responder := &fakeResponder{reply: "model answer"}
	s, st := newTestServer(t, responder)

	if err := st.AddKeyword("jadwal", "Jadwal ada di papan", 1); err != nil {
		t.Fatal(err)
	}

	w := postJSON(t, s, "/chat", map[string]any{"message": "jadwal"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Response string `json:"response"`
		Source   string `json:"source"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Response != "Jadwal ada di papan" || resp.Source != "keyword" {
		t.Errorf("resp = %+v", resp)
	}
	if responder.calls != 0 {
		t.Error("model called despite keyword match")
	}
}

func TestChatModelPath(t *testing.T) {
	responder := &fakeResponder{reply: "Halo juga!"}
	s, st := newTestServer(t, responder)

	st.UpsertUser(3, "sari", "Sari", "")
	st.SetAdmin(3, true)

	w := postJSON(t, s, "/chat", map[string]any{"message": "apa kabar bot", "user_id": 3})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Response string `json:"response"`
		Source   string `json:"source"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Response != "Halo juga!" || resp.Source != "ai" {
		t.Errorf("resp = %+v", resp)
	}
	if responder.lastUser == nil || responder.lastUser.FirstName != "Sari" || !responder.lastUser.IsAdmin {
		t.Errorf("user context = %+v", responder.lastUser)
	}

	// The exchange lands in history and conversation context.
	hist, _ := st.UserHistory(3, 10)
	if len(hist) != 1 || hist[0].MessageType != "ai" {
		t.Errorf("history = %+v", hist)
	}
	turns, _ := st.ConversationContext(3, 0)
	if len(turns) != 1 {
		t.Errorf("context turns = %d, want 1", len(turns))
	}
}

func TestChatGenerationFailureApologizes(t *testing.T) {
	responder := &fakeResponder{err: errors.New("model down")}
	s, _ := newTestServer(t, responder)

	w := postJSON(t, s, "/chat", map[string]any{"message": "tolong bantu"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Response string `json:"response"`
		Source   string `json:"source"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Source != "error" || !strings.Contains(resp.Response, "Maaf") {
		t.Errorf("resp = %+v", resp)
	}
}

func TestChatValidation(t *testing.T) {
	s, _ := newTestServer(t, &fakeResponder{})

	w := postJSON(t, s, "/chat", map[string]any{"message": ""})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty message status = %d, want 400", w.Code)
	}
}

func TestKeywordEndpoints(t *testing.T) {
	s, _ := newTestServer(t, &fakeResponder{})

	w := postJSON(t, s, "/addkeyword", map[string]any{"keyword": "Info", "response": "ini info", "user_id": 1})
	if w.Code != http.StatusOK {
		t.Fatalf("add status = %d", w.Code)
	}

	w = get(s, "/listkeyword")
	var kws []struct {
		Keyword string `json:"keyword"`
	}
	json.Unmarshal(w.Body.Bytes(), &kws)
	if len(kws) != 1 || kws[0].Keyword != "info" {
		t.Errorf("keywords = %+v", kws)
	}

	w = postJSON(t, s, "/delkeyword", map[string]any{"keyword": "info"})
	var del struct {
		Success bool `json:"success"`
	}
	json.Unmarshal(w.Body.Bytes(), &del)
	if !del.Success {
		t.Error("delete failed")
	}

	w = postJSON(t, s, "/delkeyword", map[string]any{"keyword": "info"})
	json.Unmarshal(w.Body.Bytes(), &del)
	if del.Success {
		t.Error("double delete reported success")
	}
}

func TestStatsEndpoint(t *testing.T) {
	s, st := newTestServer(t, &fakeResponder{available: true})
	st.UpsertUser(1, "a", "A", "")

	w := get(s, "/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["total_users"].(float64) != 1 {
		t.Errorf("total_users = %v", resp["total_users"])
	}
	if _, ok := resp["system_stats"]; !ok {
		t.Error("system_stats missing")
	}
}

func TestAIStatus(t *testing.T) {
	s, _ := newTestServer(t, &fakeResponder{available: true})

	w := get(s, "/aistatus")
	var resp map[string]string
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !strings.Contains(resp["status"], "Aktif") {
		t.Errorf("status = %q", resp["status"])
	}
	if resp["model_name"] != "gemini-2.5-flash" {
		t.Errorf("model_name = %q", resp["model_name"])
	}
}

func TestConversationSettingsFlow(t *testing.T) {
	s, st := newTestServer(t, &fakeResponder{})
	st.UpsertUser(7, "x", "X", "")

	// Default view.
	w := get(s, "/conversation?user_id=7")
	var view struct {
		Enabled bool `json:"enabled"`
		Limit   int  `json:"limit"`
	}
	json.Unmarshal(w.Body.Bytes(), &view)
	if !view.Enabled || view.Limit != store.DefaultContextLimit {
		t.Errorf("view = %+v", view)
	}

	// Turn off, set limit, verify.
	get(s, "/conversation?user_id=7&arg=off")
	if st.ContextEnabled(7) {
		t.Error("context still enabled")
	}

	w = get(s, "/conversation?user_id=7&arg=limit&arg=15")
	var set struct {
		Success bool `json:"success"`
	}
	json.Unmarshal(w.Body.Bytes(), &set)
	if !set.Success || st.ContextLimit(7) != 15 {
		t.Errorf("limit = %d, success = %v", st.ContextLimit(7), set.Success)
	}

	// Out-of-range limit rejected.
	w = get(s, "/conversation?user_id=7&arg=limit&arg=99")
	json.Unmarshal(w.Body.Bytes(), &set)
	if set.Success {
		t.Error("out-of-range limit accepted")
	}
}

func TestClearConversationEndpoint(t *testing.T) {
	s, st := newTestServer(t, &fakeResponder{})
	st.AppendConversation(4, "halo", "hai")

	w := postJSON(t, s, "/clearconversation", map[string]any{"user_id": 4})
	var resp struct {
		Success bool `json:"success"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Success {
		t.Error("clear failed")
	}
	turns, _ := st.ConversationContext(4, 0)
	if len(turns) != 0 {
		t.Errorf("%d turns remain", len(turns))
	}
}

func TestAddAdminEndpoint(t *testing.T) {
	s, st := newTestServer(t, &fakeResponder{})
	st.UpsertUser(11, "b", "B", "")

	postJSON(t, s, "/addadmin", map[string]any{"user_id": 11})
	admin, _ := st.IsAdmin(11)
	if !admin {
		t.Error("user not promoted")
	}
}

func TestHistoryEndpoints(t *testing.T) {
	s, st := newTestServer(t, &fakeResponder{})
	st.LogMessage(1, "a", "b", "")
	st.LogMessage(2, "c", "d", "")

	w := get(s, "/history")
	var all []struct {
		UserID int64 `json:"user_id"`
	}
	json.Unmarshal(w.Body.Bytes(), &all)
	if len(all) != 2 {
		t.Errorf("global history = %d entries, want 2", len(all))
	}

	w = get(s, "/myhistory?user_id=1")
	var mine []struct {
		UserID int64 `json:"user_id"`
	}
	json.Unmarshal(w.Body.Bytes(), &mine)
	if len(mine) != 1 || mine[0].UserID != 1 {
		t.Errorf("my history = %+v", mine)
	}

	if w := get(s, "/myhistory"); w.Code != http.StatusBadRequest {
		t.Errorf("missing user_id status = %d, want 400", w.Code)
	}
}
