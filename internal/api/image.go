package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sangar-bot/sangar/internal/ai"
)

const badImageReply = "😔 Maaf, gambar tidak dapat diproses. Pastikan formatnya JPEG, PNG atau GIF."

// ImageResponder is implemented by ai.Core for the vision path.
type ImageResponder interface {
	AnalyzeImage(ctx context.Context, imageData []byte, caption string, user *ai.UserInfo) (string, error)
}

type imageRequest struct {
	UserID      int64  `json:"user_id"`
	Caption     string `json:"caption"`
	ImageBase64 string `json:"image_base64"`
}

func (s *Server) handleAnalyzeImage(w http.ResponseWriter, r *http.Request) {
	vision, ok := s.responder.(ImageResponder)
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "image analysis not available")
		return
	}

	var req imageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ImageBase64 == "" {
		writeError(w, http.StatusBadRequest, "no image provided")
		return
	}
	data, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid base64 image")
		return
	}

	reply, err := vision.AnalyzeImage(r.Context(), data, req.Caption, s.userInfo(req.UserID))
	if errors.Is(err, ai.ErrInvalidImage) {
		writeJSON(w, http.StatusOK, chatResponse{Response: badImageReply, Source: "error"})
		return
	}
	if err != nil {
		s.log.Errorw("image analysis failed", "user_id", req.UserID, "error", err)
		s.logExchange(req.UserID, req.Caption, "", "image_error")
		writeJSON(w, http.StatusOK, chatResponse{Response: apologyReply, Source: "error"})
		return
	}

	s.logExchange(req.UserID, req.Caption, reply, "image")
	writeJSON(w, http.StatusOK, chatResponse{Response: reply, Source: "ai"})
}
