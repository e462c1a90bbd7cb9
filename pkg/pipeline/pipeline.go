package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"chatline/pkg/logger"
	"chatline/pkg/media"
	"chatline/pkg/models"
	"chatline/pkg/presence"
	"chatline/pkg/socket"
	"chatline/pkg/store"
	"chatline/pkg/validation"
)

// Pipeline orchestrates message mutations: validate, drive the attachment
// upload, write the ledger, and push to the recipient's live connection if
// one exists. Push delivery is fire-and-forget relative to the caller's
// response; an offline recipient is an expected, silent outcome.
type Pipeline struct {
	Media    media.Store
	Presence *presence.Registry

	// save is the ledger write. Tests substitute it to exercise partial
	// fan-out failures.
	save func(models.Message) error
}

func New(m media.Store, reg *presence.Registry) *Pipeline {
	return &Pipeline{Media: m, Presence: reg, save: store.SaveMessage}
}

// SendInput is the client-submitted body for a new message.
type SendInput struct {
	Text       string                   `json:"text"`
	Attachment *models.AttachmentUpload `json:"attachment"`
}

// Send validates the request, uploads the attachment when present, persists
// the message, and pushes it to the receiver if connected. The persisted
// message is returned regardless of receiver connectivity.
func (p *Pipeline) Send(ctx context.Context, senderID, receiverID string, in SendInput) (models.Message, error) {
	var zero models.Message
	if !store.Ready() {
		return zero, &UnavailableError{Reason: "message ledger unavailable"}
	}
	if err := validation.ValidateSend(in.Text, in.Attachment); err != nil {
		return zero, &ValidationError{Reason: err.Error()}
	}
	if _, err := store.GetUser(receiverID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return zero, &ValidationError{Reason: "recipient does not exist"}
		}
		return zero, &UnavailableError{Reason: "message ledger unavailable", Err: err}
	}

	var att *models.Attachment
	if in.Attachment != nil {
		// A caller that hangs up must not abort the upload or suppress the
		// ledger write; the media client's own timeout still bounds the call.
		uploaded, err := p.uploadAttachment(context.WithoutCancel(ctx), in.Attachment)
		if err != nil {
			return zero, err
		}
		att = uploaded
	}

	now := time.Now().UTC().UnixNano()
	msg := models.Message{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       strings.TrimSpace(in.Text),
		Attachment: att,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := p.save(msg); err != nil {
		return zero, &UnavailableError{Reason: "failed to save message", Err: err}
	}
	p.push(receiverID, socket.NewMessageFrame(msg))
	return msg, nil
}

// Delete removes a message owned by the requester, best-effort cleans up
// its attachment, and notifies the original receiver if connected.
func (p *Pipeline) Delete(ctx context.Context, requesterID, messageID string) (string, error) {
	if !store.Ready() {
		return "", &UnavailableError{Reason: "message ledger unavailable"}
	}
	m, err := store.GetMessage(messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", &NotFoundError{Reason: "message not found"}
		}
		return "", &UnavailableError{Reason: "message ledger unavailable", Err: err}
	}
	if m.SenderID != requesterID {
		return "", &AuthorizationError{Reason: "you can only delete your own messages"}
	}
	if err := store.DeleteMessage(messageID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// lost the race with a concurrent delete
			return "", &NotFoundError{Reason: "message not found"}
		}
		return "", &UnavailableError{Reason: "failed to delete message", Err: err}
	}

	if m.Attachment != nil && m.Attachment.URL != "" {
		// Cleanup must never block or roll back the delete.
		att := *m.Attachment
		go func() {
			if err := p.Media.Destroy(context.Background(), att.URL, att.Kind); err != nil {
				logger.Warn("attachment_cleanup_failed", "id", messageID, "url", att.URL, "error", err)
			}
		}()
	}

	p.push(m.ReceiverID, socket.MessageDeletedFrame(messageID))
	return messageID, nil
}

// Forward copies an existing message to each target, referencing the same
// attachment without re-uploading it. Fan-out is sequential and best-effort:
// one failed copy does not abort the rest, and the returned slice contains
// only the copies that were persisted.
func (p *Pipeline) Forward(ctx context.Context, senderID, messageID string, receiverIDs []string) ([]models.Message, error) {
	if !store.Ready() {
		return nil, &UnavailableError{Reason: "message ledger unavailable"}
	}
	if len(receiverIDs) == 0 {
		return nil, &ValidationError{Reason: "receiverIds must not be empty"}
	}
	orig, err := store.GetMessage(messageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{Reason: "original message not found"}
		}
		return nil, &UnavailableError{Reason: "message ledger unavailable", Err: err}
	}

	copies := make([]models.Message, 0, len(receiverIDs))
	var lastErr error
	for _, receiverID := range receiverIDs {
		now := time.Now().UTC().UnixNano()
		cp := models.Message{
			ID:          uuid.NewString(),
			SenderID:    senderID,
			ReceiverID:  receiverID,
			Text:        orig.Text,
			IsForwarded: true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if orig.Attachment != nil {
			att := *orig.Attachment
			cp.Attachment = &att
		}
		if err := p.save(cp); err != nil {
			logger.Warn("forward_copy_failed", "source", messageID, "receiver", receiverID, "error", err)
			lastErr = err
			continue
		}
		copies = append(copies, cp)
		p.push(receiverID, socket.NewMessageFrame(cp))
	}
	if len(copies) == 0 && lastErr != nil {
		return nil, &UnavailableError{Reason: "failed to forward message", Err: lastErr}
	}
	return copies, nil
}

// push delivers a frame to the recipient's live connection, or silently
// drops it. Errors never propagate to the caller.
func (p *Pipeline) push(receiverID string, frame socket.Frame) {
	conn := p.Presence.Get(receiverID)
	if conn == nil {
		pushesSkipped.Inc()
		return
	}
	if err := conn.Send(frame); err != nil {
		pushesFailed.Inc()
		logger.Warn("push_failed", "receiver", receiverID, "event", frame.Event, "error", err)
		return
	}
	pushesDelivered.Inc()
}

// uploadAttachment decodes the submitted payload and drives the media store
// upload, translating failures into user-facing rejections.
func (p *Pipeline) uploadAttachment(ctx context.Context, in *models.AttachmentUpload) (*models.Attachment, error) {
	kind := models.AttachmentKind(in.Type)
	data, err := decodePayload(in.Data)
	if err != nil {
		return nil, &ValidationError{Reason: "invalid attachment encoding"}
	}
	url, err := p.Media.Upload(ctx, kind, in.Filename, data)
	if err != nil {
		uploadsFailed.Inc()
		return nil, p.uploadError(kind, err)
	}
	uploadsSucceeded.Inc()
	filename := in.Filename
	if filename == "" {
		filename = "file"
	}
	return &models.Attachment{URL: url, Kind: kind, Filename: filename}, nil
}

func (p *Pipeline) uploadError(kind models.AttachmentKind, err error) error {
	logger.Warn("upload_failed", "kind", kind, "error", err)
	switch {
	case errors.Is(err, media.ErrTooLarge):
		return &UploadError{Kind: kind, Reason: fmt.Sprintf("%s file is too large. Maximum size allowed is %s.", kind, p.sizeLimitLabel(kind))}
	case errors.Is(err, media.ErrBadFormat):
		return &UploadError{Kind: kind, Reason: fmt.Sprintf("Invalid %s file format. Please try a different file.", kind)}
	case errors.Is(err, media.ErrTimeout):
		return &UploadError{Kind: kind, Reason: fmt.Sprintf("Upload timeout. Please try again with a smaller %s file.", kind)}
	default:
		return &UploadError{Kind: kind, Reason: fmt.Sprintf("Failed to upload %s. Please try again.", kind)}
	}
}

func (p *Pipeline) sizeLimitLabel(kind models.AttachmentKind) string {
	if s, ok := p.Media.(interface {
		SizeLimit(models.AttachmentKind) int64
	}); ok {
		if lim := s.SizeLimit(kind); lim > 0 {
			return humanize.Bytes(uint64(lim))
		}
	}
	return "100MB"
}

// decodePayload accepts raw base64 or a data: URL and returns the binary
// payload.
func decodePayload(data string) ([]byte, error) {
	if strings.HasPrefix(data, "data:") {
		i := strings.Index(data, ",")
		if i < 0 {
			return nil, fmt.Errorf("malformed data url")
		}
		data = data[i+1:]
	}
	return base64.StdEncoding.DecodeString(data)
}
