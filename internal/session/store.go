package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Errors
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session has expired")
	ErrStoreClosed     = errors.New("session store is closed")
)

// Message is one turn of the conversation held against an upload.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session holds the text extracted from one upload and the chat history
// built on top of it.
type Session struct {
	ID        string    `json:"sessionId"`
	FileText  string    `json:"-"`
	Filename  string    `json:"filename"`
	Format    string    `json:"format"`
	History   []Message `json:"history"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Store keeps upload sessions in memory and drops them once their TTL has
// passed.
type Store struct {
	ttl       time.Duration
	sessions  map[string]*Session
	lock      sync.RWMutex
	closeChan chan struct{}
	closed    bool
	logger    *zap.Logger
	now       func() time.Time
}

// NewStore creates a session store whose entries live for ttl and starts
// the cleanup goroutine. Call Close to stop it.
func NewStore(ttl time.Duration, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		ttl:       ttl,
		sessions:  make(map[string]*Session),
		closeChan: make(chan struct{}),
		logger:    logger,
		now:       time.Now,
	}

	interval := ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	if interval > time.Minute {
		interval = time.Minute
	}
	go s.cleanupRoutine(interval)

	return s
}

// Create stores a new session for the extracted text of filename.
func (s *Store) Create(fileText, filename, format string) (Session, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		return Session{}, ErrStoreClosed
	}

	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		FileText:  fileText,
		Filename:  filename,
		Format:    format,
		History:   []Message{},
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.sessions[sess.ID] = sess

	return sess.copy(), nil
}

// Get returns a copy of the session with the given id.
func (s *Store) Get(id string) (Session, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	sess, err := s.lookup(id)
	if err != nil {
		return Session{}, err
	}
	return sess.copy(), nil
}

// AppendMessage adds msg to the session history and extends its lifetime.
func (s *Store) AppendMessage(id string, msg Message) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	sess, err := s.lookup(id)
	if err != nil {
		return err
	}
	sess.History = append(sess.History, msg)
	sess.ExpiresAt = s.now().Add(s.ttl)
	return nil
}

// Delete removes a session. Deleting an unknown id is not an error.
func (s *Store) Delete(id string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	delete(s.sessions, id)
	return nil
}

// Len returns the number of sessions currently held, expired or not.
func (s *Store) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.sessions)
}

// Close stops the cleanup goroutine and drops every session.
func (s *Store) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	close(s.closeChan)
	s.sessions = nil

	return nil
}

// lookup must be called with the lock held.
func (s *Store) lookup(id string) (*Session, error) {
	if s.closed {
		return nil, ErrStoreClosed
	}
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.now().After(sess.ExpiresAt) {
		return nil, ErrSessionExpired
	}
	return sess, nil
}

func (s *Store) cleanupRoutine(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanupExpired()
		case <-s.closeChan:
			return
		}
	}
}

func (s *Store) cleanupExpired() {
	s.lock.Lock()
	defer s.lock.Unlock()

	now := s.now()
	removed := 0
	for id, sess := range s.sessions {
		if now.After(sess.ExpiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Debug("expired upload sessions removed", zap.Int("count", removed))
	}
}

func (sess *Session) copy() Session {
	out := *sess
	out.History = append([]Message(nil), sess.History...)
	if out.History == nil {
		out.History = []Message{}
	}
	return out
}
