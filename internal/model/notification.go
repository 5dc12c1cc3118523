package model

import "time"

type NotificationStatus string

const (
	NotificationNew      NotificationStatus = "NEW"
	NotificationSent     NotificationStatus = "SENT"
	NotificationError    NotificationStatus = "ERROR"
	NotificationRetrying NotificationStatus = "RETRYING" // declared, never persisted
)

type Notification struct {
	ID            string             `json:"id" firestore:"id"`
	To            string             `json:"to" firestore:"to"`
	Subject       string             `json:"subject" firestore:"subject"`
	Body          string             `json:"body" firestore:"body"`
	Status        NotificationStatus `json:"status" firestore:"status"`
	Attempts      int                `json:"attempts" firestore:"attempts"`
	LastAttemptAt *time.Time         `json:"lastAttemptAt,omitempty" firestore:"lastAttemptAt"`
	LastError     *string            `json:"lastError,omitempty" firestore:"lastError"`
}
