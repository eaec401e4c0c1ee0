package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/haven-chat/haven/internal/models"
	"github.com/haven-chat/haven/internal/relay"
	"github.com/haven-chat/haven/internal/store"
)

// PostMessageRequest mirrors the websocket send_message payload for clients
// without a live connection.
type PostMessageRequest struct {
	Message struct {
		Content string             `json:"content"`
		Kind    models.MessageKind `json:"type"`
		File    *models.FileRef    `json:"file"`
	} `json:"message"`
	User models.User `json:"user"`
}

// PostMessageResponse represents the history POST response.
type PostMessageResponse struct {
	Success bool            `json:"success"`
	Message *models.Message `json:"message"`
}

// GetChannelMessages returns a channel's full persisted log as a JSON
// array. An unknown channel is an empty array, never an error.
func (h *Handler) GetChannelMessages(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "id")
	if !models.ValidChannelID(channelID) {
		h.Error(w, http.StatusBadRequest, "invalid channel id")
		return
	}

	msgs, err := h.store.Load(r.Context(), channelID)
	if err != nil {
		h.logger.Error().Err(err).Str("channel", channelID).Msg("load channel history")
		h.Error(w, http.StatusInternalServerError, "failed to load messages")
		return
	}

	h.JSON(w, http.StatusOK, msgs)
}

// PostChannelMessage appends a message via HTTP. It performs the same
// validation and append as the websocket path and broadcasts to the live
// room, because both routes share relay.SendMessage and its per-channel
// lock.
func (h *Handler) PostChannelMessage(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "id")
	if !models.ValidChannelID(channelID) {
		h.Error(w, http.StatusBadRequest, "invalid channel id")
		return
	}

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "no data provided")
		return
	}
	if req.User.ID == "" || req.User.Username == "" {
		h.Error(w, http.StatusBadRequest, "user information required")
		return
	}

	msg, err := h.relay.SendMessage(r.Context(), &req.User, channelID, req.Message.Content, req.Message.Kind, req.Message.File)
	if err != nil {
		if errors.Is(err, relay.ErrBadPayload) || errors.Is(err, store.ErrInvalidChannel) {
			h.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error().Err(err).Str("channel", channelID).Msg("post message")
		h.Error(w, http.StatusInternalServerError, "failed to post message")
		return
	}

	h.JSON(w, http.StatusOK, PostMessageResponse{Success: true, Message: msg})
}
