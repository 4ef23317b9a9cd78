package model

import "time"

// QueueEnvelope is the JSON body of a queued post.
type QueueEnvelope struct {
	Post     RawPost   `json:"post"`
	QueuedAt time.Time `json:"queuedAt"`
}

// Dead-letter attribute keys.
const (
	AttrOriginalQueue = "originalQueue"
	AttrFailureReason = "failureReason"
	AttrFailedAt      = "failedAt"
)
