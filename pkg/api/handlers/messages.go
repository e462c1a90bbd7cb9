package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"github.com/gorilla/mux"

	"chatline/pkg/auth"
	"chatline/pkg/pipeline"
	"chatline/pkg/store"
	"chatline/pkg/utils"
)

// RegisterMessages registers HTTP handlers for message-related endpoints.
func RegisterMessages(r *mux.Router, p *pipeline.Pipeline) {
	// the fixed paths are registered before the {peerID} catch-all
	r.HandleFunc("/messages/users", listUsers).Methods(http.MethodGet)
	r.HandleFunc("/messages/send/{peerID}", sendMessage(p)).Methods(http.MethodPost)
	r.HandleFunc("/messages/forward", forwardMessage(p)).Methods(http.MethodPost)
	r.HandleFunc("/messages/{peerID}", listConversation).Methods(http.MethodGet)
	r.HandleFunc("/messages/{id}", deleteMessage(p)).Methods(http.MethodDelete)
}

func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		utils.JSONError(w, http.StatusUnauthorized, "missing verified identity")
		return "", false
	}
	return userID, true
}

// listUsers returns every other known user as a display projection, never
// credentials.
func listUsers(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	users, err := store.ListUsers(userID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrClosed) {
			status = http.StatusServiceUnavailable
		}
		utils.JSONError(w, status, "failed to get users")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, users)
}

// listConversation returns the creation-ordered messages between the caller
// and the peer.
func listConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	peerID := mux.Vars(r)["peerID"]
	msgs, err := store.ListConversation(userID, peerID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrClosed) {
			status = http.StatusServiceUnavailable
		}
		utils.JSONError(w, status, "failed to get messages")
		return
	}
	slog.Info("conversation_list", "user", userID, "peer", peerID, "count", len(msgs))
	_ = utils.JSONWrite(w, http.StatusOK, msgs)
}

func sendMessage(p *pipeline.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(w, r)
		if !ok {
			return
		}
		peerID := mux.Vars(r)["peerID"]
		var in pipeline.SendInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			utils.JSONError(w, http.StatusBadRequest, "invalid json")
			return
		}
		msg, err := p.Send(r.Context(), userID, peerID, in)
		if err != nil {
			utils.JSONError(w, pipeline.HTTPStatus(err), err.Error())
			return
		}
		slog.Info("message_created", "id", msg.ID, "sender", userID, "receiver", peerID)
		_ = utils.JSONWrite(w, http.StatusCreated, msg)
	}
}

func deleteMessage(p *pipeline.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(w, r)
		if !ok {
			return
		}
		id := mux.Vars(r)["id"]
		deleted, err := p.Delete(r.Context(), userID, id)
		if err != nil {
			utils.JSONError(w, pipeline.HTTPStatus(err), err.Error())
			return
		}
		_ = utils.JSONWrite(w, http.StatusOK, map[string]string{
			"message":   "Message deleted successfully",
			"messageId": deleted,
		})
	}
}

func forwardMessage(p *pipeline.Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(w, r)
		if !ok {
			return
		}
		var body struct {
			MessageID   string   `json:"messageId"`
			ReceiverIDs []string `json:"receiverIds"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			utils.JSONError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if body.MessageID == "" {
			utils.JSONError(w, http.StatusBadRequest, "messageId is required")
			return
		}
		copies, err := p.Forward(r.Context(), userID, body.MessageID, body.ReceiverIDs)
		if err != nil {
			utils.JSONError(w, pipeline.HTTPStatus(err), err.Error())
			return
		}
		slog.Info("message_forwarded", "source", body.MessageID, "copies", len(copies))
		_ = utils.JSONWrite(w, http.StatusCreated, map[string]any{
			"message":           "Message forwarded successfully",
			"forwardedMessages": copies,
		})
	}
}
