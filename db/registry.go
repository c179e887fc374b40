package db

import (
	"strings"
	"sync"
	"time"

	"github.com/Merka34/pocket-scrum-bk/models"
)

// Registry is the in-memory collection of live rooms, keyed by code.
type Registry struct {
	rooms map[string]*models.Room
	mutex sync.RWMutex
}

// NewRegistry creates an empty room registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*models.Room),
	}
}

// Create generates a fresh code and constructs a room with the given
// participant as creator, host and first member.
func (s *Registry) Create(host *models.Participant) (*models.Room, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	code, err := generateCode(s.rooms)
	if err != nil {
		return nil, err
	}
	room := models.NewRoom(code, host)
	s.rooms[code] = room
	return room, nil
}

// Get returns a room by code. Lookup is case-insensitive.
func (s *Registry) Get(code string) (*models.Room, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	room, exists := s.rooms[strings.ToUpper(code)]
	return room, exists
}

// Delete removes a room from the registry.
func (s *Registry) Delete(code string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	code = strings.ToUpper(code)
	if _, exists := s.rooms[code]; !exists {
		return false
	}
	delete(s.rooms, code)
	return true
}

// Sweep removes rooms that have no members and are older than the
// retention window. Rooms with members are never touched, so the sweep
// is safe to run alongside foreground event handling.
func (s *Registry) Sweep(now time.Time, retention time.Duration) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	count := 0
	for code, room := range s.rooms {
		if room.MemberCount() == 0 && now.Sub(room.CreatedAt) > retention {
			delete(s.rooms, code)
			count++
		}
	}
	return count
}

// Stats returns the live room and participant counts.
func (s *Registry) Stats() (rooms, participants int) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, room := range s.rooms {
		participants += room.MemberCount()
	}
	return len(s.rooms), participants
}
