package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/anirudhbannikoppa/elderwell/internal/log"
	"github.com/anirudhbannikoppa/elderwell/internal/rag"
)

// maxRequestBody bounds chat request bodies. Questions are short; anything
// near this limit is abuse, not usage.
const maxRequestBody = 1 << 20 // 1 MiB

// Answerer runs a query through the answering pipeline.
type Answerer interface {
	Answer(ctx context.Context, query string) (*rag.Answer, error)
}

// chatRequest is the POST /api/chat request body.
type chatRequest struct {
	Message string `json:"message"`
}

// chatResponse is the POST /api/chat response body.
type chatResponse struct {
	Reply   string       `json:"reply"`
	Sources []rag.Source `json:"sources"`
}

// chatHandler serves the question answering endpoint.
type chatHandler struct {
	pipeline Answerer
	logger   log.Logger
}

// send handles POST /api/chat.
func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request_too_large", "Request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "no_message", "No message provided")
		return
	}

	answer, err := h.pipeline.Answer(r.Context(), req.Message)
	if err != nil {
		// Whitespace-only messages surface here as an empty query
		if errors.Is(err, rag.ErrEmptyQuery) {
			writeError(w, http.StatusBadRequest, "no_message", "No message provided")
			return
		}

		// Log the real cause with its stage; the client gets a generic
		// message, never provider error text.
		var pe *rag.PipelineError
		if errors.As(err, &pe) {
			h.logger.Error("pipeline failed", "stage", pe.Stage.String(), "error", pe.Err)
		} else {
			h.logger.Error("pipeline failed", "error", err)
		}
		writeError(w, http.StatusInternalServerError, "pipeline_error", "Failed to generate a reply")
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Reply:   answer.Text,
		Sources: answer.Sources,
	})
}
