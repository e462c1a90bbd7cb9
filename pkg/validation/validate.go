package validation

import (
	"errors"
	"fmt"
	"strings"

	"chatline/pkg/models"
)

// ValidateSend checks a client-submitted send request before any side
// effect runs. Text is considered after trimming; a message must carry
// non-empty text or an attachment payload.
func ValidateSend(text string, att *models.AttachmentUpload) error {
	var errs []string
	if strings.TrimSpace(text) == "" && att == nil {
		errs = append(errs, "message cannot be empty")
	}
	if att != nil {
		if strings.TrimSpace(att.Data) == "" {
			errs = append(errs, "attachment data is required")
		}
		if !models.ValidKind(models.AttachmentKind(att.Type)) {
			errs = append(errs, fmt.Sprintf("unsupported attachment type: %q", att.Type))
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// ValidateMessage checks the ledger-side invariant on a persisted message:
// both participants present and non-empty text or a non-nil attachment.
func ValidateMessage(m models.Message) error {
	var errs []string
	if m.SenderID == "" {
		errs = append(errs, "senderId is required")
	}
	if m.ReceiverID == "" {
		errs = append(errs, "receiverId is required")
	}
	if strings.TrimSpace(m.Text) == "" && m.Attachment == nil {
		errs = append(errs, "message must have text or an attachment")
	}
	if m.Attachment != nil {
		if m.Attachment.URL == "" {
			errs = append(errs, "attachment url is required")
		}
		if !models.ValidKind(m.Attachment.Kind) {
			errs = append(errs, fmt.Sprintf("unsupported attachment kind: %q", m.Attachment.Kind))
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
