package models

// AttachmentKind classifies the media carried by a message.
type AttachmentKind string

const (
	AttachmentImage    AttachmentKind = "image"
	AttachmentVideo    AttachmentKind = "video"
	AttachmentAudio    AttachmentKind = "audio"
	AttachmentDocument AttachmentKind = "document"
)

// ValidKind reports whether k is one of the supported attachment kinds.
func ValidKind(k AttachmentKind) bool {
	switch k {
	case AttachmentImage, AttachmentVideo, AttachmentAudio, AttachmentDocument:
		return true
	}
	return false
}

// Attachment describes a binary object stored remotely. It is owned by
// exactly one message and never mutated once set.
type Attachment struct {
	URL      string         `json:"url"`
	Kind     AttachmentKind `json:"kind"`
	Filename string         `json:"filename"`
}

// AttachmentUpload is the client-submitted payload for a new attachment.
// Data is raw base64 or a data: URL; Type names the attachment kind.
type AttachmentUpload struct {
	Data     string `json:"data"`
	Type     string `json:"type"`
	Filename string `json:"filename"`
}

type Message struct {
	ID         string `json:"id"`
	SenderID   string `json:"senderId"`
	ReceiverID string `json:"receiverId"`
	Text       string `json:"text,omitempty"`
	// Attachment is nil for plain text messages.
	Attachment  *Attachment `json:"attachment,omitempty"`
	IsForwarded bool        `json:"isForwarded,omitempty"`
	// Created/updated timestamps (ns)
	CreatedAt int64 `json:"createdAt"`
	UpdatedAt int64 `json:"updatedAt"`
}
