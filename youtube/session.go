package youtube

import (
	"sync"

	"github.com/google/uuid"
)

// Session holds the id of the last video processed by one handler. A new
// Session starts with no history.
type Session struct {
	id string

	mu          sync.Mutex
	lastVideoID string
}

// NewSession creates an empty Session.
func NewSession() *Session {
	return &Session{id: uuid.New().String()}
}

// ID identifies the session in logs and webhook payloads.
func (s *Session) ID() string { return s.id }

// LastVideoID returns the id most recently claimed.
func (s *Session) LastVideoID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastVideoID
}

// Claim records videoID as the last processed video. It returns false, and
// changes nothing, when videoID is already the last one.
func (s *Session) Claim(videoID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if videoID == s.lastVideoID {
		return false
	}
	s.lastVideoID = videoID
	return true
}
