package models

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationTypeEmail NotificationType = "email"
)

type NotificationStatus string

const (
	StatusPending NotificationStatus = "pending"
	StatusSent    NotificationStatus = "sent"
	StatusFailed  NotificationStatus = "failed"
)

type Notification struct {
	ID        uuid.UUID          `json:"id"`
	Type      NotificationType   `json:"type"`
	Recipient string             `json:"recipient"`
	Subject   string             `json:"subject,omitempty"`
	Content   string             `json:"content"`
	Status    NotificationStatus `json:"status"`
	Error     string             `json:"error,omitempty"`
	Metadata  map[string]string  `json:"metadata,omitempty"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
	SentAt    *time.Time         `json:"sentAt,omitempty"`
}

type EmailNotificationRequest struct {
	Subject     string            `json:"subject" validate:"required"`
	Content     string            `json:"content" validate:"required"`
	HTMLContent string            `json:"htmlContent,omitempty"`
	Recipient   string            `json:"recipient" validate:"required,email"`
	CC          []string          `json:"cc,omitempty" validate:"omitempty,dive,email"`
	BCC         []string          `json:"bcc,omitempty" validate:"omitempty,dive,email"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type NotificationResponse struct {
	ID        uuid.UUID          `json:"id"`
	Type      NotificationType   `json:"type"`
	Status    NotificationStatus `json:"status"`
	Recipient string             `json:"recipient"`
	CreatedAt time.Time          `json:"createdAt"`
	SentAt    *time.Time         `json:"sentAt,omitempty"`
}
