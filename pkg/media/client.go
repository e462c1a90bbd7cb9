package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"chatline/pkg/logger"
	"chatline/pkg/models"
)

// Upload failure classes. Callers turn these into user-facing rejections.
var (
	ErrTooLarge  = errors.New("payload exceeds size limit")
	ErrBadFormat = errors.New("payload rejected by store")
	ErrTimeout   = errors.New("upload timed out")
)

// Store uploads binary payloads to a remote object store and removes them
// again. Implementations are stateless; every call is independent I/O.
type Store interface {
	Upload(ctx context.Context, kind models.AttachmentKind, filename string, data []byte) (string, error)
	Destroy(ctx context.Context, rawURL string, kind models.AttachmentKind) error
}

// Client talks to an object-store gateway over HTTP.
type Client struct {
	base    string
	httpc   *http.Client
	timeout time.Duration
	limits  map[models.AttachmentKind]int64
}

// NewClient returns a client bound to the gateway endpoint. timeout bounds a
// single upload; limits are the per-kind size ceilings in bytes.
func NewClient(endpoint string, timeout time.Duration, limits map[models.AttachmentKind]int64) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Client{
		base:    strings.TrimRight(endpoint, "/"),
		httpc:   &http.Client{},
		timeout: timeout,
		limits:  limits,
	}
}

// Folder returns the store folder for an attachment kind ("chat_images").
func Folder(kind models.AttachmentKind) string {
	return "chat_" + string(kind) + "s"
}

// resourceType maps an attachment kind to the store's resource
// classification. Audio is handled under the video resource type.
func resourceType(kind models.AttachmentKind) string {
	switch kind {
	case models.AttachmentVideo, models.AttachmentAudio:
		return "video"
	case models.AttachmentDocument:
		return "raw"
	default:
		return "image"
	}
}

// SizeLimit returns the configured ceiling for kind, or 0 when unknown.
func (c *Client) SizeLimit(kind models.AttachmentKind) int64 {
	return c.limits[kind]
}

// Upload pushes a decoded payload to the store and returns the stable URL.
// The payload is checked against the per-kind ceiling before any network
// I/O. The request is bounded by the client timeout.
func (c *Client) Upload(ctx context.Context, kind models.AttachmentKind, filename string, data []byte) (string, error) {
	if lim := c.limits[kind]; lim > 0 && int64(len(data)) > lim {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, len(data), lim)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("folder", Folder(kind))
	q.Set("resource_type", resourceType(kind))
	if filename != "" {
		q.Set("filename", filename)
	}
	u := c.base + "/upload?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	logger.Info("media_upload_start", "kind", kind, "bytes", len(data), "folder", Folder(kind))
	resp, err := c.httpc.Do(req)
	if err != nil {
		// Only deadline expiry counts as a timeout. A cancelled context is
		// not a timeout and must not be reported as one.
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return "", err
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusRequestEntityTooLarge:
		return "", fmt.Errorf("%w: store returned 413", ErrTooLarge)
	case resp.StatusCode == http.StatusBadRequest:
		return "", fmt.Errorf("%w: store returned 400", ErrBadFormat)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", fmt.Errorf("upload failed: status %d", resp.StatusCode)
	}
	var out struct {
		SecureURL string `json:"secure_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("invalid store response: %w", err)
	}
	if out.SecureURL == "" {
		return "", fmt.Errorf("store response missing secure_url")
	}
	logger.Info("media_upload_done", "kind", kind, "url", out.SecureURL)
	return out.SecureURL, nil
}

// Destroy removes a previously uploaded object. The public id is recovered
// from the URL the way it was assigned at upload time: folder plus filename
// without extension.
func (c *Client) Destroy(ctx context.Context, rawURL string, kind models.AttachmentKind) error {
	publicID, err := PublicID(rawURL)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	u := c.base + "/destroy/" + url.PathEscape(publicID) + "?resource_type=" + resourceType(kind)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("destroy failed: status %d", resp.StatusCode)
	}
	return nil
}

// PublicID extracts the store public id (folder/name) from an object URL.
func PublicID(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid object url: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 {
		return "", fmt.Errorf("object url has no folder segment: %s", rawURL)
	}
	name := parts[len(parts)-1]
	if ext := path.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	return parts[len(parts)-2] + "/" + name, nil
}
