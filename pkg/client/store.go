package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"chatline/pkg/logger"
	"chatline/pkg/models"
	"chatline/pkg/pipeline"
	"chatline/pkg/socket"
)

// Store is the client-side mirror of one active conversation. It dials the
// live channel, subscribes to pushed events, and keeps local optimistic
// state (reply draft, pending attachment) next to the fetched history.
// Messages for conversations other than the selected one are dropped; they
// are fetched fresh when that conversation is selected.
type Store struct {
	baseURL   string
	userID    string
	signature string
	apiKey    string
	httpc     *http.Client
	ws        *websocket.Conn

	mu       sync.Mutex
	selected string
	messages []models.Message
	online   []string

	// optimistic local state
	ReplyTo           *models.Message
	DraftText         string
	PendingAttachment *models.AttachmentUpload

	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects the live channel and starts the event loop. baseURL is the
// HTTP endpoint of the server; the websocket URL is derived from it.
func Dial(ctx context.Context, baseURL, userID, signature, apiKey string) (*Store, error) {
	s := &Store{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userID:    userID,
		signature: signature,
		apiKey:    apiKey,
		httpc:     &http.Client{},
		done:      make(chan struct{}),
	}
	wsURL, err := s.wsURL()
	if err != nil {
		return nil, err
	}
	hdr := http.Header{}
	if apiKey != "" {
		hdr.Set("X-API-Key", apiKey)
	}
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, hdr)
	if err != nil {
		return nil, fmt.Errorf("dial live channel: %w", err)
	}
	s.ws = ws
	go s.readLoop()
	return s, nil
}

func (s *Store) wsURL() (string, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	q := url.Values{}
	q.Set("user_id", s.userID)
	q.Set("signature", s.signature)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Close tears down the live channel. Closing more than once is safe.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.ws.Close()
	})
	return err
}

func (s *Store) readLoop() {
	for {
		var f struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := s.ws.ReadJSON(&f); err != nil {
			select {
			case <-s.done:
			default:
				logger.Warn("live_channel_closed", "user", s.userID, "error", err)
			}
			return
		}
		switch f.Event {
		case socket.EventNewMessage:
			var m models.Message
			if json.Unmarshal(f.Data, &m) == nil {
				s.onNewMessage(m)
			}
		case socket.EventMessageDeleted:
			var id string
			if json.Unmarshal(f.Data, &id) == nil {
				s.onMessageDeleted(id)
			}
		case socket.EventOnlineUsers:
			var ids []string
			if json.Unmarshal(f.Data, &ids) == nil {
				s.mu.Lock()
				s.online = ids
				s.mu.Unlock()
			}
		}
	}
}

func (s *Store) onNewMessage(m models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// only messages from the selected peer belong in the visible history
	if s.selected == "" || m.SenderID != s.selected {
		return
	}
	s.messages = append(s.messages, m)
}

func (s *Store) onMessageDeleted(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.messages {
		if m.ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return
		}
	}
}

// SelectConversation fetches the history with peerID and makes it the
// active conversation for pushed events.
func (s *Store) SelectConversation(ctx context.Context, peerID string) error {
	var msgs []models.Message
	if err := s.doJSON(ctx, http.MethodGet, "/v1/messages/"+peerID, nil, &msgs); err != nil {
		return err
	}
	s.mu.Lock()
	s.selected = peerID
	s.messages = msgs
	s.mu.Unlock()
	return nil
}

// Send posts a message to the selected peer and appends the server's echo
// to the local history. A pending reply draft is consumed by the send.
func (s *Store) Send(ctx context.Context, in pipeline.SendInput) (models.Message, error) {
	s.mu.Lock()
	peer := s.selected
	s.mu.Unlock()
	var m models.Message
	if peer == "" {
		return m, fmt.Errorf("no conversation selected")
	}
	if err := s.doJSON(ctx, http.MethodPost, "/v1/messages/send/"+peer, in, &m); err != nil {
		return m, err
	}
	s.mu.Lock()
	s.messages = append(s.messages, m)
	s.ReplyTo = nil
	s.PendingAttachment = nil
	s.DraftText = ""
	s.mu.Unlock()
	return m, nil
}

// Delete removes one of the caller's own messages and drops it locally.
func (s *Store) Delete(ctx context.Context, messageID string) error {
	if err := s.doJSON(ctx, http.MethodDelete, "/v1/messages/"+messageID, nil, nil); err != nil {
		return err
	}
	s.onMessageDeleted(messageID)
	return nil
}

// Users fetches the contact list.
func (s *Store) Users(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.doJSON(ctx, http.MethodGet, "/v1/messages/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Messages returns a copy of the visible history.
func (s *Store) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Message(nil), s.messages...)
}

// Online returns the last pushed online-user list.
func (s *Store) Online() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.online...)
}

func (s *Store) doJSON(ctx context.Context, method, path string, body, out any) error {
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", s.userID)
	req.Header.Set("X-User-Signature", s.signature)
	if s.apiKey != "" {
		req.Header.Set("X-API-Key", s.apiKey)
	}
	resp, err := s.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error != "" {
			return fmt.Errorf("%s %s: %s (status %d)", method, path, e.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
