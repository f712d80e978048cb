package store

import (
	"strings"
	"sync"
)

// AIStore holds the canned assistant responses. Lookup is by keyword
// match against the user's message, falling back to a default reply.
// Grounded guidance only; the assistant always defers to the care
// team for anything clinical.
type AIStore struct {
	mu        sync.RWMutex
	responses []cannedResponse
	fallback  string
}

type cannedResponse struct {
	keywords []string
	reply    string
}

// NewAIStore creates an AI store with only the default reply.
func NewAIStore() *AIStore {
	return &AIStore{
		fallback: "I can help with appointments, prescriptions, lab results and general clinic questions. For medical advice, please message your care team directly.",
	}
}

// Reply returns the canned response whose keywords match the message,
// or the default reply. Matching is case-insensitive substring.
func (s *AIStore) Reply(message string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lower := strings.ToLower(message)
	for _, r := range s.responses {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.reply
			}
		}
	}
	return s.fallback
}

// Register adds a canned response for the given keywords.
func (s *AIStore) Register(keywords []string, reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}
	s.responses = append(s.responses, cannedResponse{keywords: lowered, reply: reply})
}

func (s *AIStore) seed() {
	s.Register(
		[]string{"appointment", "book", "reschedule"},
		"You can book or reschedule appointments from the Appointments tab. Cancellations are free up to 24 hours before the visit.",
	)
	s.Register(
		[]string{"prescription", "medication", "refill"},
		"Your active prescriptions are listed under Records. For refills, send a message to the prescribing doctor.",
	)
	s.Register(
		[]string{"lab", "result", "blood"},
		"Lab results appear under Records as soon as the laboratory releases them, usually within 48 hours of collection.",
	)
	s.Register(
		[]string{"hours", "open", "location"},
		"Clinix branches are open 8 AM to 10 PM daily. You can find the nearest branch from the profile screen.",
	)
}
