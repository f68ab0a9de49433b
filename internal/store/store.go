package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saarthi/companion/backend/internal/model/chat"
	"github.com/saarthi/companion/backend/internal/model/persona"
	"github.com/saarthi/companion/backend/pkg/utils"
)

const (
	// DefaultTitle is the title of a session before its first user message.
	DefaultTitle = "New Chat"
	// TitleLimit is the number of characters kept from the first user message.
	TitleLimit = 35

	indexFileName = "metadata.json"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidChatID   = errors.New("invalid chat id")
	ErrInvalidRole     = errors.New("invalid message role")
)

var chatIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Store is the persistence boundary used by the chat orchestrator.
type Store interface {
	ListSessions() []chat.Session
	GetHistory(ctx context.Context, chatID string) ([]chat.Message, error)
	CreateSession(ctx context.Context) (chat.Session, error)
	AppendMessage(ctx context.Context, chatID string, role chat.Role, content, personaID string) (chat.Message, error)
	DeleteSession(ctx context.Context, chatID string) DeleteResult
}

// DeleteResult reports the outcome of DeleteSession. Storage failures are
// reported here instead of being returned as errors.
type DeleteResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// OK reports whether the deletion succeeded.
func (r DeleteResult) OK() bool {
	return r.Status == "success"
}

// FileStore keeps one JSON transcript per chat plus a metadata index in dir.
//
// Transcript read-modify-write spans are serialized per chat id and index
// rewrites are serialized store-wide; locks are always taken chat first, then
// index. FileStore is NOT safe for multiple instances sharing the same dir.
type FileStore struct {
	dir     string
	chats   *keyedMutex
	indexMu sync.Mutex
	now     func() time.Time
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chat sessions dir: %w", err)
	}
	return &FileStore{
		dir:   dir,
		chats: newKeyedMutex(),
		now:   time.Now,
	}, nil
}

// ValidateChatID rejects ids that cannot safely be used as a transcript file
// name, including the one that would alias the session index.
func ValidateChatID(chatID string) error {
	if !chatIDPattern.MatchString(chatID) || chatID+".json" == indexFileName {
		return fmt.Errorf("%w: %q", ErrInvalidChatID, chatID)
	}
	return nil
}

func (s *FileStore) transcriptPath(chatID string) string {
	return filepath.Join(s.dir, chatID+".json")
}

// ListSessions returns all sessions, newest first. A missing or unreadable
// index yields an empty list.
func (s *FileStore) ListSessions() []chat.Session {
	s.indexMu.Lock()
	sessions := s.loadIndex()
	s.indexMu.Unlock()

	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].Timestamp > sessions[j].Timestamp
	})
	return sessions
}

// GetHistory returns the transcript of chatID, or an empty slice when none exists.
func (s *FileStore) GetHistory(ctx context.Context, chatID string) ([]chat.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateChatID(chatID); err != nil {
		return nil, err
	}

	unlock := s.chats.Lock(chatID)
	defer unlock()

	return s.readTranscript(chatID)
}

// CreateSession writes an empty transcript and prepends a new entry to the index.
func (s *FileStore) CreateSession(ctx context.Context) (chat.Session, error) {
	if err := ctx.Err(); err != nil {
		return chat.Session{}, err
	}

	now := s.now()
	session := chat.Session{
		ID:          newChatID(now),
		Title:       DefaultTitle,
		Timestamp:   now.Unix(),
		LastPersona: string(persona.Default),
	}

	unlock := s.chats.Lock(session.ID)
	defer unlock()

	path := s.transcriptPath(session.ID)
	if err := utils.WriteJSONFileAtomic(path, []chat.Message{}); err != nil {
		return chat.Session{}, fmt.Errorf("write transcript: %w", err)
	}

	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	sessions := append([]chat.Session{session}, s.loadIndex()...)
	if err := s.writeIndex(sessions); err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			log.Printf("[store] failed to roll back transcript %s: %v", session.ID, rmErr)
		}
		return chat.Session{}, err
	}

	log.Printf("[store] created session %s", session.ID)
	return session, nil
}

// AppendMessage appends one message to the transcript of chatID and updates the
// session's title (first user message only) and last persona (assistant only).
func (s *FileStore) AppendMessage(ctx context.Context, chatID string, role chat.Role, content, personaID string) (chat.Message, error) {
	if err := ctx.Err(); err != nil {
		return chat.Message{}, err
	}
	if err := ValidateChatID(chatID); err != nil {
		return chat.Message{}, err
	}
	if !role.Valid() {
		return chat.Message{}, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	unlock := s.chats.Lock(chatID)
	defer unlock()

	if !s.hasSession(chatID) {
		return chat.Message{}, ErrSessionNotFound
	}

	history, err := s.readTranscript(chatID)
	if err != nil {
		return chat.Message{}, err
	}

	firstUserMessage := role == chat.RoleUser && !hasUserMessage(history)

	message := chat.Message{Role: role, Content: content}
	if role == chat.RoleAssistant {
		message.Persona = personaID
	}
	history = append(history, message)

	if err := utils.WriteJSONFileAtomic(s.transcriptPath(chatID), history); err != nil {
		return chat.Message{}, fmt.Errorf("write transcript: %w", err)
	}

	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	sessions := s.loadIndex()
	for i := range sessions {
		if sessions[i].ID != chatID {
			continue
		}
		if role == chat.RoleAssistant {
			sessions[i].LastPersona = personaID
		}
		if firstUserMessage {
			sessions[i].Title = truncateTitle(content)
		}
		break
	}

	if err := s.writeIndex(sessions); err != nil {
		return chat.Message{}, err
	}
	return message, nil
}

// DeleteSession removes the transcript and index entry of chatID. Deleting an
// unknown session succeeds and leaves the index untouched.
func (s *FileStore) DeleteSession(ctx context.Context, chatID string) DeleteResult {
	if err := ctx.Err(); err != nil {
		return deleteFailure(chatID, err)
	}
	if err := ValidateChatID(chatID); err != nil {
		return deleteFailure(chatID, err)
	}

	unlock := s.chats.Lock(chatID)
	defer unlock()

	path := s.transcriptPath(chatID)
	backup, err := os.ReadFile(path)
	hadTranscript := err == nil
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return deleteFailure(chatID, err)
	}
	if hadTranscript {
		if err := os.Remove(path); err != nil {
			return deleteFailure(chatID, err)
		}
	}

	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	sessions := s.loadIndex()
	kept := make([]chat.Session, 0, len(sessions))
	for _, sess := range sessions {
		if sess.ID != chatID {
			kept = append(kept, sess)
		}
	}

	if len(kept) != len(sessions) {
		if err := s.writeIndex(kept); err != nil {
			if hadTranscript {
				if restoreErr := utils.WriteFileAtomic(path, backup, 0o644); restoreErr != nil {
					log.Printf("[store] failed to restore transcript %s: %v", chatID, restoreErr)
				}
			}
			return deleteFailure(chatID, err)
		}
	}

	log.Printf("[store] deleted session %s", chatID)
	return DeleteResult{Status: "success", Message: fmt.Sprintf("Chat %s deleted.", chatID)}
}

func deleteFailure(chatID string, err error) DeleteResult {
	log.Printf("[store] error deleting chat %s: %v", chatID, err)
	return DeleteResult{Status: "error", Message: "Could not delete chat files. Check server permissions."}
}

func (s *FileStore) readTranscript(chatID string) ([]chat.Message, error) {
	data, err := os.ReadFile(s.transcriptPath(chatID))
	if errors.Is(err, os.ErrNotExist) {
		return []chat.Message{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}

	var messages []chat.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("decode transcript %s: %w", chatID, err)
	}
	if messages == nil {
		messages = []chat.Message{}
	}
	return messages, nil
}

func (s *FileStore) hasSession(chatID string) bool {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()

	for _, sess := range s.loadIndex() {
		if sess.ID == chatID {
			return true
		}
	}
	return false
}

func hasUserMessage(history []chat.Message) bool {
	for _, m := range history {
		if m.Role == chat.RoleUser {
			return true
		}
	}
	return false
}

func truncateTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= TitleLimit {
		return content
	}
	return string(runes[:TitleLimit]) + "..."
}

func newChatID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("chat_%d_%s", now.Unix(), suffix)
}
