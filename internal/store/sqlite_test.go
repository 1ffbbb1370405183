package store

import (
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUserLifecycle(t *testing.T) {
	s := newTestStore(t)

	if err := s.UpsertUser(42, "budi", "Budi", "Santoso"); err != nil {
		t.Fatal(err)
	}

	registered, err := s.IsRegistered(42)
	if err != nil {
		t.Fatal(err)
	}
	if registered {
		t.Error("new user should not be registered")
	}

	if err := s.RegisterUser(42); err != nil {
		t.Fatal(err)
	}
	registered, _ = s.IsRegistered(42)
	if !registered {
		t.Error("registration did not stick")
	}

	admin, _ := s.IsAdmin(42)
	if admin {
		t.Error("new user should not be admin")
	}
	if err := s.SetAdmin(42, true); err != nil {
		t.Fatal(err)
	}
	admin, _ = s.IsAdmin(42)
	if !admin {
		t.Error("admin flag did not stick")
	}

	u, err := s.GetUser(42)
	if err != nil {
		t.Fatal(err)
	}
	if u.FirstName != "Budi" || !u.IsAdmin || !u.IsRegistered {
		t.Errorf("unexpected user: %+v", u)
	}
}

func TestUserUnknownOperations(t *testing.T) {
	s := newTestStore(t)

	if registered, err := s.IsRegistered(999); err != nil || registered {
		t.Errorf("unknown user = %v/%v, want false/nil", registered, err)
	}
	if err := s.RegisterUser(999); !errors.Is(err, ErrNotFound) {
		t.Errorf("register unknown = %v, want ErrNotFound", err)
	}
	if _, err := s.GetUser(999); !errors.Is(err, ErrNotFound) {
		t.Errorf("get unknown = %v, want ErrNotFound", err)
	}
}

func TestUpsertUserRefreshes(t *testing.T) {
	s := newTestStore(t)

	if err := s.UpsertUser(1, "old", "Old", ""); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertUser(1, "new", "New", ""); err != nil {
		t.Fatal(err)
	}

	u, err := s.GetUser(1)
	if err != nil {
		t.Fatal(err)
	}
	if u.Username != "new" || u.FirstName != "New" {
		t.Errorf("upsert did not refresh names: %+v", u)
	}

	users, _ := s.AllUsers()
	if len(users) != 1 {
		t.Errorf("got %d users, want 1", len(users))
	}
}

func TestKeywords(t *testing.T) {
	s := newTestStore(t)

	if err := s.AddKeyword("  Jadwal  ", "Jadwal ada di papan pengumuman", 1); err != nil {
		t.Fatal(err)
	}

	// Lookup is case-insensitive and bumps usage.
	resp, err := s.KeywordResponse("JADWAL")
	if err != nil {
		t.Fatal(err)
	}
	if resp != "Jadwal ada di papan pengumuman" {
		t.Errorf("response = %q", resp)
	}

	kws, err := s.AllKeywords()
	if err != nil {
		t.Fatal(err)
	}
	if len(kws) != 1 || kws[0].Keyword != "jadwal" || kws[0].UsageCount != 1 {
		t.Errorf("unexpected keywords: %+v", kws)
	}

	if _, err := s.KeywordResponse("nonexistent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing keyword err = %v, want ErrNotFound", err)
	}

	if err := s.DeleteKeyword("jadwal"); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteKeyword("jadwal"); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete err = %v, want ErrNotFound", err)
	}
}

func TestMessageHistory(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 3; i++ {
		if err := s.LogMessage(7, "pertanyaan", "jawaban", ""); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.LogMessage(8, "lain", "lain", "image"); err != nil {
		t.Fatal(err)
	}

	mine, err := s.UserHistory(7, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 3 {
		t.Errorf("user history len = %d, want 3", len(mine))
	}
	for _, e := range mine {
		if e.UserID != 7 || e.MessageType != "text" {
			t.Errorf("unexpected entry: %+v", e)
		}
	}

	all, err := s.GlobalHistory(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Errorf("global history len = %d, want 4", len(all))
	}
}

func TestConversationContextRetention(t *testing.T) {
	s := newTestStore(t)

	if err := s.SetContextSettings(5, true, 3); err != nil {
		t.Fatal(err)
	}

	for _, msg := range []string{"satu", "dua", "tiga", "empat", "lima"} {
		if err := s.AppendConversation(5, msg, "balasan "+msg); err != nil {
			t.Fatal(err)
		}
	}

	turns, err := s.ConversationContext(5, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 3 {
		t.Fatalf("retained %d turns, want 3", len(turns))
	}
	// Oldest first, and only the newest three survive the prune.
	want := []string{"tiga", "empat", "lima"}
	for i, turn := range turns {
		if turn.MessageText != want[i] {
			t.Errorf("turn %d = %q, want %q", i, turn.MessageText, want[i])
		}
	}
}

func TestClearConversation(t *testing.T) {
	s := newTestStore(t)

	if err := s.AppendConversation(9, "halo", "hai"); err != nil {
		t.Fatal(err)
	}
	if err := s.ClearConversation(9); err != nil {
		t.Fatal(err)
	}

	turns, err := s.ConversationContext(9, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(turns) != 0 {
		t.Errorf("context not cleared: %d turns remain", len(turns))
	}
}

func TestContextSettings(t *testing.T) {
	s := newTestStore(t)

	// Defaults for a user who never configured anything.
	if got := s.ContextLimit(1); got != DefaultContextLimit {
		t.Errorf("default limit = %d, want %d", got, DefaultContextLimit)
	}
	if !s.ContextEnabled(1) {
		t.Error("context should default to enabled")
	}

	if err := s.SetContextSettings(1, false, 200); err != nil {
		t.Fatal(err)
	}
	if got := s.ContextLimit(1); got != MaxContextLimit {
		t.Errorf("limit = %d, want clamped to %d", got, MaxContextLimit)
	}
	if s.ContextEnabled(1) {
		t.Error("context should be disabled")
	}

	if err := s.SetContextSettings(1, true, 0); err != nil {
		t.Fatal(err)
	}
	if got := s.ContextLimit(1); got != MinContextLimit {
		t.Errorf("limit = %d, want clamped to %d", got, MinContextLimit)
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)

	s.UpsertUser(1, "a", "A", "")
	s.UpsertUser(2, "b", "B", "")
	s.RegisterUser(1)
	s.AddKeyword("info", "ini info", 1)
	s.LogMessage(1, "m", "r", "")

	st, err := s.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalUsers != 2 || st.RegisteredUsers != 1 || st.TotalMessages != 1 || st.TotalKeywords != 1 {
		t.Errorf("unexpected stats: %+v", st)
	}
}
