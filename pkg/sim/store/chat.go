package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clinix-health/mobile-core/pkg/apierr"
	"github.com/clinix-health/mobile-core/pkg/models"
	"github.com/clinix-health/mobile-core/pkg/token"
)

// ChatStore holds conversation threads and their messages. A thread
// with no messages is a normal state, not an error: Messages returns
// an empty slice for it.
type ChatStore struct {
	mu       sync.RWMutex
	threads  []models.ChatThread
	messages map[string][]models.ChatMessage // thread id -> messages, oldest first
}

// NewChatStore creates an empty chat store.
func NewChatStore() *ChatStore {
	return &ChatStore{messages: make(map[string][]models.ChatMessage)}
}

// ThreadsFor returns the threads visible to the caller.
func (s *ChatStore) ThreadsFor(id token.Identity) []models.ChatThread {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ChatThread, 0, len(s.threads))
	for _, t := range s.threads {
		if visibleTo(id, t.PatientID) {
			out = append(out, t)
		}
	}
	return out
}

// CreateThread opens a new conversation for the calling patient.
func (s *ChatStore) CreateThread(id token.Identity, req models.CreateThreadRequest) (models.ChatThread, error) {
	if err := req.Validate(); err != nil {
		return models.ChatThread{}, apierr.Validation("store.chat", err.Error())
	}

	t := models.ChatThread{
		ID:         uuid.NewString(),
		PatientID:  id.UserID,
		DoctorName: req.DoctorName,
		Subject:    req.Subject,
		CreatedAt:  time.Now(),
	}

	s.mu.Lock()
	s.threads = append([]models.ChatThread{t}, s.threads...)
	s.messages[t.ID] = []models.ChatMessage{}
	s.mu.Unlock()

	return t, nil
}

// Messages returns a thread's messages, oldest first. An unknown
// thread id is NotFound; a known thread with no messages is an empty
// successful list.
func (s *ChatStore) Messages(threadID string) ([]models.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs, ok := s.messages[threadID]
	if !ok {
		return nil, apierr.NotFound("store.chat", "no thread with id "+threadID)
	}
	out := make([]models.ChatMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}

// Append adds a message to a thread and stamps the thread's
// LastMessageAt.
func (s *ChatStore) Append(threadID string, sender token.Identity, body string) (models.ChatMessage, error) {
	if body == "" {
		return models.ChatMessage{}, apierr.Validation("store.chat", "message body is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[threadID]; !ok {
		return models.ChatMessage{}, apierr.NotFound("store.chat", "no thread with id "+threadID)
	}

	m := models.ChatMessage{
		ID:         uuid.NewString(),
		ThreadID:   threadID,
		SenderID:   sender.UserID,
		SenderRole: sender.Role,
		Body:       body,
		SentAt:     time.Now(),
	}
	s.messages[threadID] = append(s.messages[threadID], m)

	for i := range s.threads {
		if s.threads[i].ID == threadID {
			s.threads[i].LastMessageAt = m.SentAt
			break
		}
	}
	return m, nil
}

func (s *ChatStore) seed(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := models.ChatThread{
		ID:            "thread-001",
		PatientID:     "patient-001",
		DoctorName:    "Dr. Kareem Adel",
		Subject:       "Medication side effects",
		CreatedAt:     now.AddDate(0, 0, -5),
		LastMessageAt: now.AddDate(0, 0, -4),
	}
	s.threads = []models.ChatThread{t}
	s.messages[t.ID] = []models.ChatMessage{
		{
			ID:         uuid.NewString(),
			ThreadID:   t.ID,
			SenderID:   "patient-001",
			SenderRole: token.RolePatient,
			Body:       "I've been feeling dizzy since starting the new medication.",
			SentAt:     now.AddDate(0, 0, -5),
		},
		{
			ID:         uuid.NewString(),
			ThreadID:   t.ID,
			SenderID:   "doctor-001",
			SenderRole: token.RoleDoctor,
			Body:       "That can happen in the first week. Take it before bed and let's check your blood pressure at the follow-up.",
			SentAt:     now.AddDate(0, 0, -4),
		},
	}
}
