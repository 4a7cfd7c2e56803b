package session

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notice — закрываемое уведомление для пользователя.
type Notice struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

const maxNotices = 20

func (s *Session) addNoticeLocked(level Level, message string) Notice {
	n := Notice{ID: uuid.NewString(), Level: level, Message: message, CreatedAt: time.Now().UTC()}
	s.notices = append(s.notices, n)
	if len(s.notices) > maxNotices {
		s.notices = slices.Clone(s.notices[len(s.notices)-maxNotices:])
	}
	return n
}

func (s *Session) Notices() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.notices)
}

// Dismiss убирает уведомление; false, если такого нет.
func (s *Session) Dismiss(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.notices, func(n Notice) bool { return n.ID == id })
	if i < 0 {
		return false
	}
	s.notices = slices.Delete(s.notices, i, i+1)
	return true
}
