// internal/models/notification.go
package models

// Notification records a confirmation sent to a user.
type Notification struct {
	ID          string `json:"id"`
	RecipientID string `json:"recipientId"`
	Type        string `json:"type"`    // "booking_requested"
	Channel     string `json:"channel"` // "email", "sms"
	Status      string `json:"status"`  // "sent", "failed", "skipped"
	Reference   string `json:"reference"`
	SentAt      string `json:"sentAt,omitempty"`
}
