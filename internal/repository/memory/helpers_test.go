package memory

import "github.com/NordCoder/Tasker/internal/domain/outbox"

func outboxMsg(key string) outbox.Message {
	return outbox.Message{IdempotencyKey: key, Kind: outbox.KindSessionOpened, Data: []byte(`{}`)}
}
