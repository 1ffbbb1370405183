// Package api exposes the bot's admin and chat operations over HTTP JSON.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/sangar-bot/sangar/internal/ai"
	"github.com/sangar-bot/sangar/internal/conversation"
	"github.com/sangar-bot/sangar/internal/store"
)

// apologyReply is what chat clients see when generation fails; the real error
// only goes to the log.
const apologyReply = "😔 Maaf, terjadi kesalahan saat memproses pesan Anda. Silakan coba lagi."

// Responder is the slice of ai.Core the server needs.
type Responder interface {
	GenerateReply(ctx context.Context, message string, user *ai.UserInfo, history []ai.ConversationTurn) (string, error)
	Available() bool
}

// Server routes HTTP requests to the store and the response pipeline.
type Server struct {
	store     *store.Store
	responder Responder
	modelName string
	log       *zap.SugaredLogger
	mux       *http.ServeMux
	started   time.Time
}

// New assembles the server and its routes.
func New(st *store.Store, responder Responder, modelName string, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Server{
		store:     st,
		responder: responder,
		modelName: modelName,
		log:       log,
		mux:       http.NewServeMux(),
		started:   time.Now(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /chat", s.handleChat)
	s.mux.HandleFunc("POST /analyzeimage", s.handleAnalyzeImage)
	s.mux.HandleFunc("GET /stats", s.handleStats)
	s.mux.HandleFunc("GET /listmembers", s.handleListMembers)
	s.mux.HandleFunc("GET /listkeyword", s.handleListKeywords)
	s.mux.HandleFunc("POST /addkeyword", s.handleAddKeyword)
	s.mux.HandleFunc("POST /delkeyword", s.handleDelKeyword)
	s.mux.HandleFunc("GET /history", s.handleHistory)
	s.mux.HandleFunc("GET /myhistory", s.handleMyHistory)
	s.mux.HandleFunc("GET /aistatus", s.handleAIStatus)
	s.mux.HandleFunc("GET /conversation", s.handleConversation)
	s.mux.HandleFunc("POST /clearconversation", s.handleClearConversation)
	s.mux.HandleFunc("POST /addadmin", s.handleAddAdmin)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe runs the server until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Infow("http server listening", "addr", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type chatRequest struct {
	Message string `json:"message"`
	UserID  int64  `json:"user_id"`
}

type chatResponse struct {
	Response string `json:"response"`
	Source   string `json:"source"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "no message provided")
		return
	}

	// Keyword replies win over the model.
	if reply, err := s.store.KeywordResponse(req.Message); err == nil {
		s.logExchange(req.UserID, req.Message, reply, "keyword")
		writeJSON(w, http.StatusOK, chatResponse{Response: reply, Source: "keyword"})
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		s.log.Errorw("keyword lookup failed", "error", err)
	}

	user := s.userInfo(req.UserID)
	history := s.contextFor(req.UserID, req.Message)

	reply, err := s.responder.GenerateReply(r.Context(), req.Message, user, history)
	if err != nil {
		s.log.Errorw("generation failed", "user_id", req.UserID, "error", err)
		s.logExchange(req.UserID, req.Message, "", "ai_error")
		writeJSON(w, http.StatusOK, chatResponse{Response: apologyReply, Source: "error"})
		return
	}

	s.logExchange(req.UserID, req.Message, reply, "ai")
	if req.UserID != 0 && s.store.ContextEnabled(req.UserID) {
		if err := s.store.AppendConversation(req.UserID, req.Message, reply); err != nil {
			s.log.Errorw("append conversation failed", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, chatResponse{Response: reply, Source: "ai"})
}

func (s *Server) userInfo(userID int64) *ai.UserInfo {
	if userID == 0 {
		return nil
	}
	u, err := s.store.GetUser(userID)
	if err != nil {
		return &ai.UserInfo{ID: userID}
	}
	return &ai.UserInfo{ID: u.ID, FirstName: u.FirstName, IsAdmin: u.IsAdmin}
}

// contextFor pulls stored turns, filters them for relevance and returns them
// oldest first, ready for the prompt.
func (s *Server) contextFor(userID int64, message string) []ai.ConversationTurn {
	if userID == 0 || !s.store.ContextEnabled(userID) {
		return nil
	}
	if !conversation.ShouldIncludeContext(message) {
		return nil
	}

	turns, err := s.store.ConversationContext(userID, 0)
	if err != nil {
		s.log.Errorw("load conversation context failed", "error", err)
		return nil
	}

	relevant := conversation.RelevantContext(turns, message, s.store.ContextLimit(userID))
	sort.Slice(relevant, func(i, j int) bool {
		return relevant[i].Timestamp.Before(relevant[j].Timestamp)
	})

	out := make([]ai.ConversationTurn, 0, len(relevant))
	for _, t := range relevant {
		out = append(out, ai.ConversationTurn{MessageText: t.MessageText, ResponseText: t.ResponseText})
	}
	return out
}

func (s *Server) logExchange(userID int64, message, response, kind string) {
	if userID == 0 {
		return
	}
	if err := s.store.LogMessage(userID, message, response, kind); err != nil {
		s.log.Errorw("log message failed", "error", err)
	}
	if err := s.store.IncrementMessageCount(userID); err != nil {
		s.log.Errorw("increment message count failed", "error", err)
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Stats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_users":      st.TotalUsers,
		"registered_users": st.RegisteredUsers,
		"total_messages":   st.TotalMessages,
		"total_keywords":   st.TotalKeywords,
		"system_stats":     runtimeStats(s.started),
	})
}

type userJSON struct {
	UserID       int64  `json:"user_id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsRegistered bool   `json:"is_registered"`
	IsAdmin      bool   `json:"is_admin"`
	MessageCount int    `json:"message_count"`
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.AllUsers()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]userJSON, 0, len(users))
	for _, u := range users {
		out = append(out, userJSON{
			UserID: u.ID, Username: u.Username, FirstName: u.FirstName,
			LastName: u.LastName, IsRegistered: u.IsRegistered,
			IsAdmin: u.IsAdmin, MessageCount: u.MessageCount,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type keywordJSON struct {
	Keyword    string `json:"keyword"`
	Response   string `json:"response"`
	UsageCount int    `json:"usage_count"`
	IsActive   bool   `json:"is_active"`
}

func (s *Server) handleListKeywords(w http.ResponseWriter, r *http.Request) {
	kws, err := s.store.AllKeywords()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]keywordJSON, 0, len(kws))
	for _, k := range kws {
		out = append(out, keywordJSON{Keyword: k.Keyword, Response: k.Response, UsageCount: k.UsageCount, IsActive: k.IsActive})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddKeyword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Keyword  string `json:"keyword"`
		Response string `json:"response"`
		UserID   int64  `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Keyword == "" || req.Response == "" {
		writeError(w, http.StatusBadRequest, "keyword and response required")
		return
	}
	if err := s.store.AddKeyword(req.Keyword, req.Response, req.UserID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleDelKeyword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Keyword string `json:"keyword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Keyword == "" {
		writeError(w, http.StatusBadRequest, "no keyword provided")
		return
	}
	err := s.store.DeleteKeyword(req.Keyword)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false})
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

type historyJSON struct {
	UserID       int64  `json:"user_id"`
	MessageText  string `json:"message_text"`
	ResponseText string `json:"response_text"`
	MessageType  string `json:"message_type"`
	Timestamp    string `json:"timestamp"`
}

func historyOut(entries []store.HistoryEntry) []historyJSON {
	out := make([]historyJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyJSON{
			UserID: e.UserID, MessageText: e.MessageText, ResponseText: e.ResponseText,
			MessageType: e.MessageType, Timestamp: e.Timestamp.Format(time.RFC3339),
		})
	}
	return out
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	userID := queryInt64(r, "user_id")
	var (
		entries []store.HistoryEntry
		err     error
	)
	if userID != 0 {
		entries, err = s.store.UserHistory(userID, 20)
	} else {
		entries, err = s.store.GlobalHistory(20)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, historyOut(entries))
}

func (s *Server) handleMyHistory(w http.ResponseWriter, r *http.Request) {
	userID := queryInt64(r, "user_id")
	if userID == 0 {
		writeError(w, http.StatusBadRequest, "user_id required")
		return
	}
	entries, err := s.store.UserHistory(userID, 20)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, historyOut(entries))
}

func (s *Server) handleAIStatus(w http.ResponseWriter, r *http.Request) {
	status := "❌ AI Core: Nonaktif"
	if s.responder != nil && s.responder.Available() {
		status = "✅ AI Core: Aktif"
	}
	model := s.modelName
	if model == "" {
		model = "Tidak diketahui"
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":     status,
		"model_name": model,
	})
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	userID := queryInt64(r, "user_id")
	if userID == 0 {
		writeError(w, http.StatusBadRequest, "user_id required")
		return
	}

	args := r.URL.Query()["arg"]
	if len(args) == 0 {
		enabled := s.store.ContextEnabled(userID)
		limit := s.store.ContextLimit(userID)
		turns, _ := s.store.ConversationContext(userID, 0)
		writeJSON(w, http.StatusOK, map[string]any{
			"enabled":       enabled,
			"limit":         limit,
			"history_count": len(turns),
		})
		return
	}

	switch args[0] {
	case "on":
		s.store.SetContextSettings(userID, true, s.store.ContextLimit(userID))
		writeJSON(w, http.StatusOK, map[string]any{"success": true,
			"message": "✅ Memori percakapan diaktifkan! Bot akan mengingat percakapan sebelumnya."})
	case "off":
		s.store.SetContextSettings(userID, false, s.store.ContextLimit(userID))
		writeJSON(w, http.StatusOK, map[string]any{"success": true,
			"message": "❌ Memori percakapan dinonaktifkan. Bot tidak akan mengingat percakapan sebelumnya."})
	case "limit":
		if len(args) < 2 {
			writeJSON(w, http.StatusOK, map[string]any{"success": false,
				"message": "❌ Format: limit <angka>. Contoh: limit 15"})
			return
		}
		var limit int
		if _, err := fmt.Sscanf(args[1], "%d", &limit); err != nil {
			writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "❌ Angka tidak valid."})
			return
		}
		if limit < store.MinContextLimit || limit > store.MaxContextLimit {
			writeJSON(w, http.StatusOK, map[string]any{"success": false,
				"message": "❌ Batas pesan harus antara 1-50."})
			return
		}
		s.store.SetContextSettings(userID, s.store.ContextEnabled(userID), limit)
		writeJSON(w, http.StatusOK, map[string]any{"success": true,
			"message": fmt.Sprintf("✅ Batas pesan percakapan diatur ke %d pesan.", limit)})
	default:
		writeJSON(w, http.StatusOK, map[string]any{"success": false,
			"message": "❌ Perintah tidak dikenal. Gunakan: on, off, atau limit <angka>."})
	}
}

func (s *Server) handleClearConversation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID int64 `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == 0 {
		writeError(w, http.StatusBadRequest, "user_id required")
		return
	}
	if err := s.store.ClearConversation(req.UserID); err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"success": false,
			"message": "❌ Gagal menghapus riwayat percakapan."})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true,
		"message": "🗑️ Riwayat percakapan Anda telah dihapus."})
}

func (s *Server) handleAddAdmin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID int64 `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == 0 {
		writeError(w, http.StatusBadRequest, "no user_id provided")
		return
	}
	if err := s.store.SetAdmin(req.UserID, true); err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"success": false,
			"message": fmt.Sprintf("Gagal menambah admin: %v", err)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true,
		"message": fmt.Sprintf("User %d sekarang adalah admin.", req.UserID)})
}

func queryInt64(r *http.Request, key string) int64 {
	var v int64
	fmt.Sscanf(r.URL.Query().Get(key), "%d", &v)
	return v
}
