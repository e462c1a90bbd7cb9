package config

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"chatline/pkg/models"
)

// Default per-kind upload ceilings. Documents and images stay small; audio
// and video get more headroom.
const (
	defaultImageLimit    = 20 * humanize.MByte
	defaultDocumentLimit = 20 * humanize.MByte
	defaultAudioLimit    = 50 * humanize.MByte
	defaultVideoLimit    = 100 * humanize.MByte
)

// SizeLimit returns the upload ceiling in bytes for the given attachment
// kind, parsing the configured human-readable value ("20MB") when present.
func (m MediaConfig) SizeLimit(kind models.AttachmentKind) (int64, error) {
	var raw string
	var def uint64
	switch kind {
	case models.AttachmentImage:
		raw, def = m.MaxImageSize, defaultImageLimit
	case models.AttachmentVideo:
		raw, def = m.MaxVideoSize, defaultVideoLimit
	case models.AttachmentAudio:
		raw, def = m.MaxAudioSize, defaultAudioLimit
	case models.AttachmentDocument:
		raw, def = m.MaxDocumentSize, defaultDocumentLimit
	default:
		return 0, fmt.Errorf("unknown attachment kind: %s", kind)
	}
	if raw == "" {
		return int64(def), nil
	}
	n, err := humanize.ParseBytes(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q for %s: %w", raw, kind, err)
	}
	return int64(n), nil
}

// SizeLimits resolves ceilings for every kind, failing on the first invalid
// configured value.
func (m MediaConfig) SizeLimits() (map[models.AttachmentKind]int64, error) {
	out := map[models.AttachmentKind]int64{}
	for _, k := range []models.AttachmentKind{
		models.AttachmentImage, models.AttachmentVideo,
		models.AttachmentAudio, models.AttachmentDocument,
	} {
		n, err := m.SizeLimit(k)
		if err != nil {
			return nil, err
		}
		out[k] = n
	}
	return out, nil
}

// Timeout returns the configured upload timeout, defaulting to five minutes.
func (m MediaConfig) Timeout() time.Duration {
	if m.UploadTimeout == "" {
		return 5 * time.Minute
	}
	d, err := time.ParseDuration(m.UploadTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}
