package outbox

import (
	"context"
	"time"
)

type Status string

type Kind int

const (
	KindSessionOpened   Kind = 1
	KindSessionsRevoked Kind = 2
	KindAccountDeleted  Kind = 3
)

func (k Kind) String() string {
	switch k {
	case KindSessionOpened:
		return "session.opened"
	case KindSessionsRevoked:
		return "sessions.revoked"
	case KindAccountDeleted:
		return "account.deleted"
	default:
		return "unknown"
	}
}

type Message struct {
	IdempotencyKey string
	Kind           Kind
	Data           []byte
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Tracestate     string
	Traceparent    string
	Baggage        string
}

type Repository interface {
	Enqueue(ctx context.Context, m Message) error

	PickBatch(ctx context.Context, batch int, inProgressTTL time.Duration) ([]Message, error)

	MarkSuccess(ctx context.Context, keys []string) error
}

type KindHandler func(ctx context.Context, data []byte) error

type GlobalHandler func(kind Kind) (KindHandler, error)

// Payloads stored in Message.Data as JSON.

type SessionOpened struct {
	UserID         string    `json:"user_id"`
	ClientIdentity string    `json:"client_identity"`
	ExpiresAt      time.Time `json:"expires_at"`
	At             time.Time `json:"at"`
}

type SessionsRevoked struct {
	UserID string    `json:"user_id"`
	Count  int64     `json:"count"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

type AccountDeleted struct {
	UserID    string    `json:"user_id"`
	DeletedBy string    `json:"deleted_by"`
	At        time.Time `json:"at"`
}
