package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/NordCoder/Tasker/internal/domain/outbox"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// AuthEvents publishes session and account events as google.protobuf.Struct
// messages keyed by user id.
type AuthEvents struct {
	p publisher
}

type publisher interface {
	PublishProto(ctx context.Context, key []byte, m proto.Message) error
}

func NewAuthEvents(p publisher) *AuthEvents { return &AuthEvents{p: p} }

func (e *AuthEvents) PublishSessionOpened(ctx context.Context, ev outbox.SessionOpened) error {
	return e.publish(ctx, outbox.KindSessionOpened, ev.UserID, map[string]any{
		"client_identity": ev.ClientIdentity,
		"expires_at":      timestamp(ev.ExpiresAt),
		"at":              timestamp(ev.At),
	})
}

func (e *AuthEvents) PublishSessionsRevoked(ctx context.Context, ev outbox.SessionsRevoked) error {
	return e.publish(ctx, outbox.KindSessionsRevoked, ev.UserID, map[string]any{
		"count":  float64(ev.Count),
		"reason": ev.Reason,
		"at":     timestamp(ev.At),
	})
}

func (e *AuthEvents) PublishAccountDeleted(ctx context.Context, ev outbox.AccountDeleted) error {
	return e.publish(ctx, outbox.KindAccountDeleted, ev.UserID, map[string]any{
		"deleted_by": ev.DeletedBy,
		"at":         timestamp(ev.At),
	})
}

func (e *AuthEvents) publish(ctx context.Context, kind outbox.Kind, userID string, fields map[string]any) error {
	fields["type"] = kind.String()
	fields["user_id"] = userID
	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}
	return e.p.PublishProto(ctx, []byte(userID), msg)
}

// timestamp renders t in the protobuf JSON form of google.protobuf.Timestamp.
func timestamp(t time.Time) string {
	return timestamppb.New(t).AsTime().Format(time.RFC3339Nano)
}
