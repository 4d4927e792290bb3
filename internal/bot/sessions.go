package bot

import (
	"encoding/json"
	"fmt"
	"sync"
)

// SessionStore keeps one marshalled Session per handle.
type SessionStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewSessionStore() *SessionStore {
	return &SessionStore{data: make(map[string][]byte)}
}

// Load returns the stored session or a fresh one.
func (s *SessionStore) Load(handle string) (Session, error) {
	const op = "bot.SessionStore.Load"

	s.mu.Lock()
	raw, ok := s.data[handle]
	s.mu.Unlock()

	if !ok {
		return NewSession(), nil
	}

	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return NewSession(), fmt.Errorf("%s: %w", op, err)
	}

	return sess, nil
}

func (s *SessionStore) Save(handle string, sess Session) error {
	const op = "bot.SessionStore.Save"

	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	s.data[handle] = raw
	s.mu.Unlock()

	return nil
}

func (s *SessionStore) Delete(handle string) {
	s.mu.Lock()
	delete(s.data, handle)
	s.mu.Unlock()
}
