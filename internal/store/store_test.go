package store

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/saarthi/companion/backend/internal/model/chat"
)

var ctx = context.Background()

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	return store
}

func TestFileStore_CreateSession(t *testing.T) {
	store := newTestStore(t)

	sess, err := store.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if !strings.HasPrefix(sess.ID, "chat_") {
		t.Errorf("expected chat_ prefix, got %q", sess.ID)
	}
	if sess.Title != DefaultTitle {
		t.Errorf("expected title %q, got %q", DefaultTitle, sess.Title)
	}
	if sess.LastPersona != "empathizer" {
		t.Errorf("expected default persona, got %q", sess.LastPersona)
	}
	if sess.Timestamp == 0 {
		t.Error("expected non-zero timestamp")
	}

	history, err := store.GetHistory(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("expected empty history, got %d messages", len(history))
	}
	if _, err := os.Stat(store.transcriptPath(sess.ID)); err != nil {
		t.Errorf("expected transcript file: %v", err)
	}
}

func TestFileStore_CreateSessionUniqueIDs(t *testing.T) {
	store := newTestStore(t)
	fixed := time.Unix(1700000000, 0)
	store.now = func() time.Time { return fixed }

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		sess, err := store.CreateSession(ctx)
		if err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}
		if seen[sess.ID] {
			t.Fatalf("duplicate id %s", sess.ID)
		}
		seen[sess.ID] = true
	}
	if got := len(store.ListSessions()); got != 10 {
		t.Fatalf("expected 10 sessions, got %d", got)
	}
}

func TestFileStore_ListSessionsNewestFirst(t *testing.T) {
	store := newTestStore(t)

	if got := store.ListSessions(); len(got) != 0 {
		t.Fatalf("expected empty list, got %d", len(got))
	}

	clock := time.Unix(1700000000, 0)
	store.now = func() time.Time { return clock }
	first, _ := store.CreateSession(ctx)
	clock = clock.Add(time.Second)
	second, _ := store.CreateSession(ctx)
	third, _ := store.CreateSession(ctx) // same second as second

	sessions := store.ListSessions()
	if len(sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(sessions))
	}
	want := []string{third.ID, second.ID, first.ID}
	for i, id := range want {
		if sessions[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, sessions[i].ID)
		}
	}
}

func TestFileStore_ListSessionsSortsScrambledIndex(t *testing.T) {
	store := newTestStore(t)
	scrambled := []chat.Session{
		{ID: "a", Timestamp: 10},
		{ID: "b", Timestamp: 30},
		{ID: "c", Timestamp: 20},
	}
	if err := store.writeIndex(scrambled); err != nil {
		t.Fatalf("writeIndex failed: %v", err)
	}

	sessions := store.ListSessions()
	if sessions[0].ID != "b" || sessions[1].ID != "c" || sessions[2].ID != "a" {
		t.Fatalf("unexpected order: %+v", sessions)
	}
}

func TestFileStore_CorruptIndexTreatedAsEmpty(t *testing.T) {
	store := newTestStore(t)
	if err := os.WriteFile(store.indexPath(), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if got := store.ListSessions(); len(got) != 0 {
		t.Fatalf("expected empty list for corrupt index, got %d", len(got))
	}

	sess, err := store.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession on corrupt index failed: %v", err)
	}
	if got := store.ListSessions(); len(got) != 1 || got[0].ID != sess.ID {
		t.Fatalf("expected index rebuilt with new session, got %+v", got)
	}
}

func TestFileStore_GetHistoryUnknownChat(t *testing.T) {
	store := newTestStore(t)

	history, err := store.GetHistory(ctx, "chat_missing")
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if history == nil || len(history) != 0 {
		t.Fatalf("expected empty non-nil history, got %#v", history)
	}
}

func TestFileStore_InvalidChatID(t *testing.T) {
	store := newTestStore(t)

	for _, id := range []string{"", "../metadata", "a/b", "x.json", "metadata"} {
		if _, err := store.GetHistory(ctx, id); !errors.Is(err, ErrInvalidChatID) {
			t.Errorf("GetHistory(%q): expected ErrInvalidChatID, got %v", id, err)
		}
		if _, err := store.AppendMessage(ctx, id, chat.RoleUser, "hi", ""); !errors.Is(err, ErrInvalidChatID) {
			t.Errorf("AppendMessage(%q): expected ErrInvalidChatID, got %v", id, err)
		}
		if res := store.DeleteSession(ctx, id); res.OK() {
			t.Errorf("DeleteSession(%q): expected failure", id)
		}
	}
}

func TestFileStore_IndexNameIsNotAChatID(t *testing.T) {
	store := newTestStore(t)
	for i := 0; i < 2; i++ {
		if _, err := store.CreateSession(ctx); err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
	}
	indexBefore, err := os.ReadFile(filepath.Join(store.dir, indexFileName))
	if err != nil {
		t.Fatalf("read index: %v", err)
	}

	if _, err := store.GetHistory(ctx, "metadata"); !errors.Is(err, ErrInvalidChatID) {
		t.Fatalf("GetHistory(metadata): expected ErrInvalidChatID, got %v", err)
	}
	if res := store.DeleteSession(ctx, "metadata"); res.OK() {
		t.Fatalf("DeleteSession(metadata): expected failure, got %+v", res)
	}

	if got := len(store.ListSessions()); got != 2 {
		t.Fatalf("expected 2 sessions to survive, got %d", got)
	}
	indexAfter, err := os.ReadFile(filepath.Join(store.dir, indexFileName))
	if err != nil {
		t.Fatalf("index removed: %v", err)
	}
	if string(indexBefore) != string(indexAfter) {
		t.Fatal("index changed")
	}
}

func TestFileStore_AppendRoundTrip(t *testing.T) {
	store := newTestStore(t)
	sess, _ := store.CreateSession(ctx)

	if _, err := store.AppendMessage(ctx, sess.ID, chat.RoleUser, "Hello", "motivator"); err != nil {
		t.Fatalf("append user: %v", err)
	}
	if _, err := store.AppendMessage(ctx, sess.ID, chat.RoleAssistant, "Hi there", "motivator"); err != nil {
		t.Fatalf("append assistant: %v", err)
	}

	history, err := store.GetHistory(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	want := []chat.Message{
		{Role: chat.RoleUser, Content: "Hello"},
		{Role: chat.RoleAssistant, Content: "Hi there", Persona: "motivator"},
	}
	if len(history) != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), len(history))
	}
	for i := range want {
		if history[i] != want[i] {
			t.Errorf("message %d: expected %+v, got %+v", i, want[i], history[i])
		}
	}

	raw, _ := os.ReadFile(store.transcriptPath(sess.ID))
	if bytes.Count(raw, []byte(`"persona"`)) != 1 {
		t.Errorf("persona must only be stored for assistant messages: %s", raw)
	}
}

func TestFileStore_TitleFromFirstUserMessage(t *testing.T) {
	store := newTestStore(t)
	sess, _ := store.CreateSession(ctx)

	_, _ = store.AppendMessage(ctx, sess.ID, chat.RoleUser, "Hello", "empathizer")
	_, _ = store.AppendMessage(ctx, sess.ID, chat.RoleAssistant, "Hey", "empathizer")
	_, _ = store.AppendMessage(ctx, sess.ID, chat.RoleUser, "Something else entirely", "empathizer")

	sessions := store.ListSessions()
	if sessions[0].Title != "Hello" {
		t.Fatalf("expected title 'Hello', got %q", sessions[0].Title)
	}
}

func TestFileStore_TitleTruncated(t *testing.T) {
	store := newTestStore(t)
	sess, _ := store.CreateSession(ctx)
	content := strings.Repeat("abcdefghij", 5) // 50 chars

	_, _ = store.AppendMessage(ctx, sess.ID, chat.RoleUser, content, "")

	got := store.ListSessions()[0].Title
	want := content[:35] + "..."
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestFileStore_TitleTruncationCountsRunes(t *testing.T) {
	if got := truncateTitle(strings.Repeat("é", 35)); got != strings.Repeat("é", 35) {
		t.Fatalf("35 runes must not be truncated, got %q", got)
	}
	if got := truncateTitle(strings.Repeat("é", 36)); got != strings.Repeat("é", 35)+"..." {
		t.Fatalf("unexpected truncation %q", got)
	}
}

func TestFileStore_LastPersonaFromAssistantOnly(t *testing.T) {
	store := newTestStore(t)
	sess, _ := store.CreateSession(ctx)

	_, _ = store.AppendMessage(ctx, sess.ID, chat.RoleUser, "hi", "motivator")
	if got := store.ListSessions()[0].LastPersona; got != "empathizer" {
		t.Fatalf("user message must not change last_persona, got %q", got)
	}

	_, _ = store.AppendMessage(ctx, sess.ID, chat.RoleAssistant, "yo", "wise_elder")
	_, _ = store.AppendMessage(ctx, sess.ID, chat.RoleUser, "again", "motivator")
	if got := store.ListSessions()[0].LastPersona; got != "wise_elder" {
		t.Fatalf("expected wise_elder, got %q", got)
	}
}

func TestFileStore_AppendUnknownSession(t *testing.T) {
	store := newTestStore(t)

	_, err := store.AppendMessage(ctx, "chat_ghost", chat.RoleUser, "hi", "")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := os.Stat(store.transcriptPath("chat_ghost")); !os.IsNotExist(err) {
		t.Fatalf("no transcript may be written for unknown sessions")
	}
}

func TestFileStore_AppendInvalidRole(t *testing.T) {
	store := newTestStore(t)
	sess, _ := store.CreateSession(ctx)

	if _, err := store.AppendMessage(ctx, sess.ID, chat.Role("system"), "x", ""); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestFileStore_Delete(t *testing.T) {
	store := newTestStore(t)
	keep, _ := store.CreateSession(ctx)
	gone, _ := store.CreateSession(ctx)

	res := store.DeleteSession(ctx, gone.ID)
	if !res.OK() {
		t.Fatalf("DeleteSession failed: %+v", res)
	}
	if res.Message != "Chat "+gone.ID+" deleted." {
		t.Errorf("unexpected message %q", res.Message)
	}

	sessions := store.ListSessions()
	if len(sessions) != 1 || sessions[0].ID != keep.ID {
		t.Fatalf("expected only %s left, got %+v", keep.ID, sessions)
	}
	if _, err := os.Stat(store.transcriptPath(gone.ID)); !os.IsNotExist(err) {
		t.Fatalf("expected transcript removed, stat err=%v", err)
	}
}

func TestFileStore_DeleteNonExistentLeavesIndexUnchanged(t *testing.T) {
	store := newTestStore(t)
	_, _ = store.CreateSession(ctx)
	before, _ := os.ReadFile(store.indexPath())

	res := store.DeleteSession(ctx, "chat_never_existed")
	if !res.OK() {
		t.Fatalf("expected success, got %+v", res)
	}

	after, _ := os.ReadFile(store.indexPath())
	if !bytes.Equal(before, after) {
		t.Fatalf("index changed:\nbefore=%s\nafter=%s", before, after)
	}
}

func TestFileStore_DeleteReportsStorageFailure(t *testing.T) {
	store := newTestStore(t)
	sess, _ := store.CreateSession(ctx)

	// A non-empty directory where the transcript should be cannot be read or removed.
	path := store.transcriptPath(sess.ID)
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(path, "blocker"), 0o755); err != nil {
		t.Fatal(err)
	}

	res := store.DeleteSession(ctx, sess.ID)
	if res.OK() || res.Status != "error" {
		t.Fatalf("expected error result, got %+v", res)
	}
	if got := store.ListSessions(); len(got) != 1 {
		t.Fatalf("index must be untouched on failure, got %d sessions", len(got))
	}
}

func TestFileStore_ConcurrentAppendsAreSerialized(t *testing.T) {
	store := newTestStore(t)
	sess, _ := store.CreateSession(ctx)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.AppendMessage(ctx, sess.ID, chat.RoleUser, "msg", ""); err != nil {
				t.Errorf("append: %v", err)
			}
		}()
	}
	wg.Wait()

	history, _ := store.GetHistory(ctx, sess.ID)
	if len(history) != writers {
		t.Fatalf("expected %d messages, got %d (lost update)", writers, len(history))
	}
}

func TestFileStore_CanceledContext(t *testing.T) {
	store := newTestStore(t)
	canceled, cancel := context.WithCancel(ctx)
	cancel()

	if _, err := store.CreateSession(canceled); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
