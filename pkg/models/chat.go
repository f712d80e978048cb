package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/clinix-health/mobile-core/pkg/token"
)

// ChatThread is a conversation between a patient and a care provider.
type ChatThread struct {
	ID            string    `json:"id" mapstructure:"id"`
	PatientID     string    `json:"patientId" mapstructure:"patientId"`
	DoctorName    string    `json:"doctorName" mapstructure:"doctorName"`
	Subject       string    `json:"subject" mapstructure:"subject"`
	CreatedAt     time.Time `json:"createdAt" mapstructure:"createdAt"`
	LastMessageAt time.Time `json:"lastMessageAt,omitempty" mapstructure:"lastMessageAt"`
}

// ChatMessage is a single message within a thread.
type ChatMessage struct {
	ID         string     `json:"id" mapstructure:"id"`
	ThreadID   string     `json:"threadId" mapstructure:"threadId"`
	SenderID   string     `json:"senderId" mapstructure:"senderId"`
	SenderRole token.Role `json:"senderRole" mapstructure:"senderRole"`
	Body       string     `json:"body" mapstructure:"body"`
	SentAt     time.Time  `json:"sentAt" mapstructure:"sentAt"`
}

// CreateThreadRequest is the body of POST /threads.
type CreateThreadRequest struct {
	DoctorName string `json:"doctorName"`
	Subject    string `json:"subject"`
}

// Validate checks the thread creation fields.
func (r CreateThreadRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.DoctorName, validation.Required),
		validation.Field(&r.Subject, validation.Required),
	)
}

// SendMessageRequest is the body of POST /threads/:id/messages.
type SendMessageRequest struct {
	Body string `json:"body"`
}

// Validate checks the message body is present.
func (r SendMessageRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Body, validation.Required),
	)
}
