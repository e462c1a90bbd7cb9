package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/pebble"

	"chatline/pkg/logger"
	"chatline/pkg/models"
	"chatline/pkg/validation"
)

var db *pebble.DB

// ErrNotFound is returned when a message or user does not exist.
var ErrNotFound = errors.New("not found")

// ErrClosed is returned when the ledger has not been opened.
var ErrClosed = errors.New("ledger not opened; call store.Open first")

// seq reduces key collisions when multiple messages share the same
// nanosecond timestamp.
var seq uint64

// Open opens (or creates) a Pebble database at the given path and keeps a
// global handle for simple usage in this package.
func Open(path string) error {
	var err error
	logger.Info("opening_ledger", "path", path)
	db, err = pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("ledger_open_failed", "path", path, "error", err)
		return err
	}
	return nil
}

// Close closes the opened pebble DB if present.
func Close() error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return err
	}
	db = nil
	logger.Info("ledger_closed")
	return nil
}

// Ready reports whether the store is opened and ready.
func Ready() bool {
	return db != nil
}

// conversationPrefix returns the shared key prefix for the message stream
// between two users. The pair is ordered so both directions land in the
// same stream.
func conversationPrefix(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return "convo:" + a + "|" + b + ":msg:"
}

// SaveMessage inserts a message into its conversation stream under a
// sortable timestamp key and indexes it by id. Messages are ordered by
// creation time.
func SaveMessage(msg models.Message) error {
	if db == nil {
		return ErrClosed
	}
	if msg.ID == "" {
		return fmt.Errorf("message id required")
	}
	if err := validation.ValidateMessage(msg); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}
	ts := msg.CreatedAt
	if ts == 0 {
		ts = time.Now().UTC().UnixNano()
	}
	s := atomic.AddUint64(&seq, 1)
	key := fmt.Sprintf("%s%020d-%06d", conversationPrefix(msg.SenderID, msg.ReceiverID), ts, s)

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	// The stream entry and the id index must land together or not at all;
	// an entry without its index could never be deleted or forwarded.
	idxKey := "msg:" + msg.ID
	batch := db.NewBatch()
	_ = batch.Set([]byte(key), data, nil)
	_ = batch.Set([]byte(idxKey), []byte(key), nil)
	if err := batch.Commit(pebble.Sync); err != nil {
		logger.Error("save_message_failed", "id", msg.ID, "key", key, "error", err)
		return err
	}
	messagesSaved.Inc()
	logger.Info("message_saved", "id", msg.ID, "sender", msg.SenderID, "receiver", msg.ReceiverID)
	return nil
}

// GetMessage looks a message up by id.
func GetMessage(id string) (models.Message, error) {
	var m models.Message
	if db == nil {
		return m, ErrClosed
	}
	key, closer, err := db.Get([]byte("msg:" + id))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return m, ErrNotFound
		}
		return m, err
	}
	entryKey := append([]byte(nil), key...)
	_ = closer.Close()

	v, closer2, err := db.Get(entryKey)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return m, ErrNotFound
		}
		return m, err
	}
	defer closer2.Close()
	if err := json.Unmarshal(v, &m); err != nil {
		return m, fmt.Errorf("invalid stored message: %w", err)
	}
	return m, nil
}

// DeleteMessage permanently removes a message and its id index. Deleting an
// id that is already gone returns ErrNotFound.
func DeleteMessage(id string) error {
	if db == nil {
		return ErrClosed
	}
	idxKey := []byte("msg:" + id)
	key, closer, err := db.Get(idxKey)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	entryKey := append([]byte(nil), key...)
	_ = closer.Close()

	batch := db.NewBatch()
	_ = batch.Delete(entryKey, nil)
	_ = batch.Delete(idxKey, nil)
	if err := batch.Commit(pebble.Sync); err != nil {
		logger.Error("delete_message_failed", "id", id, "error", err)
		return err
	}
	messagesDeleted.Inc()
	logger.Info("message_deleted", "id", id)
	return nil
}

// ListConversation returns every message between a and b in creation order.
func ListConversation(a, b string, limit ...int) ([]models.Message, error) {
	if db == nil {
		return nil, ErrClosed
	}
	prefix := []byte(conversationPrefix(a, b))
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	max := -1
	if len(limit) > 0 {
		max = limit[0]
	}
	out := []models.Message{}
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		var m models.Message
		if err := json.Unmarshal(iter.Value(), &m); err != nil {
			logger.Warn("conversation_entry_invalid", "key", string(iter.Key()), "error", err)
			continue
		}
		out = append(out, m)
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out, iter.Error()
}

// PurgeMessagesBefore hard-deletes every message created before cutoff (ns),
// in batches. Returns the number of messages removed (or that would be
// removed when dryRun is set).
func PurgeMessagesBefore(cutoff int64, batchSize int, sleep time.Duration, dryRun bool) (int, error) {
	if db == nil {
		return 0, ErrClosed
	}
	if batchSize <= 0 {
		batchSize = 500
	}
	prefix := []byte("convo:")
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return 0, err
	}
	var stale []string
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		var m models.Message
		if err := json.Unmarshal(iter.Value(), &m); err != nil {
			continue
		}
		if m.CreatedAt != 0 && m.CreatedAt < cutoff {
			stale = append(stale, m.ID)
		}
	}
	if err := iter.Close(); err != nil {
		return 0, err
	}
	if dryRun {
		return len(stale), nil
	}
	purged := 0
	for i, id := range stale {
		if err := DeleteMessage(id); err != nil && !errors.Is(err, ErrNotFound) {
			return purged, err
		}
		purged++
		if sleep > 0 && i > 0 && i%batchSize == 0 {
			time.Sleep(sleep)
		}
	}
	if purged > 0 {
		messagesPurged.Add(float64(purged))
	}
	return purged, nil
}

// SaveUser writes a user directory record.
func SaveUser(u models.User) error {
	if db == nil {
		return ErrClosed
	}
	if u.ID == "" {
		return fmt.Errorf("user id required")
	}
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	return db.Set([]byte("user:"+u.ID), data, pebble.Sync)
}

// GetUser looks a user up by id.
func GetUser(id string) (models.User, error) {
	var u models.User
	if db == nil {
		return u, ErrClosed
	}
	v, closer, err := db.Get([]byte("user:" + id))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return u, ErrNotFound
		}
		return u, err
	}
	defer closer.Close()
	if err := json.Unmarshal(v, &u); err != nil {
		return u, fmt.Errorf("invalid stored user: %w", err)
	}
	return u, nil
}

// ListUsers returns every known user except the excluded id, sorted by name.
func ListUsers(exclude string) ([]models.User, error) {
	if db == nil {
		return nil, ErrClosed
	}
	prefix := []byte("user:")
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	out := []models.User{}
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		var u models.User
		if err := json.Unmarshal(iter.Value(), &u); err != nil {
			continue
		}
		if exclude != "" && u.ID == exclude {
			continue
		}
		out = append(out, u)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].FullName) < strings.ToLower(out[j].FullName)
	})
	return out, nil
}
