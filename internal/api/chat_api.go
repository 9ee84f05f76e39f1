package api

import (
	"net/http"

	"acadease/internal/metrics"
)

type ChatRequest struct {
	Text string `json:"text"`
}

// GET /api/chat
func (s *HTTPServer) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("chat_history")

	u, _, ok := s.current(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.assistant.History(r.Context(), u))
}

// POST /api/chat returns the assistant's reply.
func (s *HTTPServer) handleChatSend(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("chat_send")

	u, _, ok := s.current(w)
	if !ok {
		return
	}

	var req ChatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reply, err := s.assistant.Send(r.Context(), u, req.Text)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}
