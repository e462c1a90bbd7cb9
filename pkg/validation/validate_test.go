package validation

import (
	"strings"
	"testing"

	"chatline/pkg/models"
)

func TestValidateSend(t *testing.T) {
	cases := []struct {
		name    string
		text    string
		att     *models.AttachmentUpload
		wantErr string
	}{
		{"text only", "hello", nil, ""},
		{"attachment only", "", &models.AttachmentUpload{Data: "aGk=", Type: "image"}, ""},
		{"both", "look", &models.AttachmentUpload{Data: "aGk=", Type: "document"}, ""},
		{"empty", "", nil, "message cannot be empty"},
		{"whitespace only", "   \n\t ", nil, "message cannot be empty"},
		{"attachment without data", "", &models.AttachmentUpload{Type: "image"}, "attachment data is required"},
		{"bad kind", "", &models.AttachmentUpload{Data: "aGk=", Type: "gif"}, "unsupported attachment type"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateSend(tc.text, tc.att)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("expected ok; got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q; got %v", tc.wantErr, err)
			}
		})
	}
}

func TestValidateMessage(t *testing.T) {
	good := models.Message{SenderID: "a", ReceiverID: "b", Text: "hi"}
	if err := ValidateMessage(good); err != nil {
		t.Fatalf("expected valid; got %v", err)
	}

	withAtt := models.Message{
		SenderID:   "a",
		ReceiverID: "b",
		Attachment: &models.Attachment{URL: "https://cdn.test/chat_images/x.png", Kind: models.AttachmentImage},
	}
	if err := ValidateMessage(withAtt); err != nil {
		t.Fatalf("expected valid attachment message; got %v", err)
	}

	bad := models.Message{SenderID: "a"}
	err := ValidateMessage(bad)
	if err == nil {
		t.Fatalf("expected error for missing receiver and content")
	}
	for _, want := range []string{"receiverId is required", "text or an attachment"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}

	noURL := models.Message{SenderID: "a", ReceiverID: "b", Attachment: &models.Attachment{Kind: models.AttachmentImage}}
	if err := ValidateMessage(noURL); err == nil || !strings.Contains(err.Error(), "attachment url is required") {
		t.Fatalf("expected url error; got %v", err)
	}
}
