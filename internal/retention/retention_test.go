package retention

import (
	"context"
	"errors"
	"testing"
	"time"

	"chatline/pkg/config"
	"chatline/pkg/models"
	"chatline/pkg/store"
)

func TestParsePeriod(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Duration
		ok   bool
	}{
		{"30d", 30 * 24 * time.Hour, true},
		{"1d", 24 * time.Hour, true},
		{"72h", 72 * time.Hour, true},
		{"90m", 90 * time.Minute, true},
		{"", 0, false},
		{"0d", 0, false},
		{"-5h", 0, false},
		{"monthly", 0, false},
	}
	for _, tc := range cases {
		got, err := ParsePeriod(tc.raw)
		if tc.ok != (err == nil) {
			t.Fatalf("%q: unexpected err %v", tc.raw, err)
		}
		if tc.ok && got != tc.want {
			t.Fatalf("%q: expected %v; got %v", tc.raw, tc.want, got)
		}
	}
}

func TestStartDisabledIsNoop(t *testing.T) {
	cancel, err := Start(context.Background(), config.RetentionConfig{})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()
}

func TestStartValidation(t *testing.T) {
	_, err := Start(context.Background(), config.RetentionConfig{Enabled: true})
	if err == nil {
		t.Fatalf("expected error for missing period")
	}
	_, err = Start(context.Background(), config.RetentionConfig{Enabled: true, Period: "30d", Cron: "not a cron"})
	if err == nil {
		t.Fatalf("expected error for invalid cron")
	}
	cancel, err := Start(context.Background(), config.RetentionConfig{Enabled: true, Period: "30d"})
	if err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	cancel()
}

func TestRunOncePurgesOldMessages(t *testing.T) {
	if err := store.Open(t.TempDir()); err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer store.Close()

	now := time.Now().UTC()
	old := models.Message{ID: "old", SenderID: "a", ReceiverID: "b", Text: "ancient", CreatedAt: now.Add(-40 * 24 * time.Hour).UnixNano()}
	fresh := models.Message{ID: "new", SenderID: "a", ReceiverID: "b", Text: "recent", CreatedAt: now.UnixNano()}
	for _, m := range []models.Message{old, fresh} {
		if err := store.SaveMessage(m); err != nil {
			t.Fatalf("SaveMessage: %v", err)
		}
	}

	period, _ := ParsePeriod("30d")
	if err := RunOnce(config.RetentionConfig{Enabled: true, Period: "30d"}, period); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if _, err := store.GetMessage("old"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected old message purged; got %v", err)
	}
	if _, err := store.GetMessage("new"); err != nil {
		t.Fatalf("recent message must survive: %v", err)
	}
}
