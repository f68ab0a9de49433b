package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/saarthi/companion/backend/internal/model/chat"
	"github.com/saarthi/companion/backend/pkg/utils"
)

func (s *FileStore) indexPath() string {
	return filepath.Join(s.dir, indexFileName)
}

// loadIndex reads the session index in file order. Callers hold indexMu.
// Unreadable or corrupt indexes are treated as empty.
func (s *FileStore) loadIndex() []chat.Session {
	data, err := os.ReadFile(s.indexPath())
	if errors.Is(err, os.ErrNotExist) {
		return []chat.Session{}
	}
	if err != nil {
		log.Printf("[store] cannot read session index, treating as empty: %v", err)
		return []chat.Session{}
	}

	var sessions []chat.Session
	if err := json.Unmarshal(data, &sessions); err != nil {
		log.Printf("[store] corrupt session index, treating as empty: %v", err)
		return []chat.Session{}
	}
	if sessions == nil {
		sessions = []chat.Session{}
	}
	return sessions
}

// writeIndex replaces the index file. Callers hold indexMu.
func (s *FileStore) writeIndex(sessions []chat.Session) error {
	if err := utils.WriteJSONFileAtomic(s.indexPath(), sessions); err != nil {
		return fmt.Errorf("write session index: %w", err)
	}
	return nil
}
