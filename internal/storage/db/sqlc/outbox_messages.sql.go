// source: outbox_messages.sql

package sqlc

import (
	"context"
	"encoding/json"
	"time"
)

const outboxMsgCreate = `-- name: OutboxMsgCreate :exec
INSERT INTO outbox_messages (topic, headers, payload, partition_key, created_at, processed_at, error)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`

type OutboxMsgCreateParams struct {
	Topic        string           `json:"topic"`
	Headers      *json.RawMessage `json:"headers"`
	Payload      json.RawMessage  `json:"payload"`
	PartitionKey *string          `json:"partition_key"`
	CreatedAt    time.Time        `json:"created_at"`
	ProcessedAt  *time.Time       `json:"processed_at"`
	Error        *string          `json:"error"`
}

func (q *Queries) OutboxMsgCreate(ctx context.Context, db DBTX, arg OutboxMsgCreateParams) error {
	_, err := db.Exec(ctx, outboxMsgCreate,
		arg.Topic,
		arg.Headers,
		arg.Payload,
		arg.PartitionKey,
		arg.CreatedAt,
		arg.ProcessedAt,
		arg.Error,
	)
	return err
}

const outboxMsgListUnprocessed = `-- name: OutboxMsgListUnprocessed :many
SELECT id, topic, headers, payload, partition_key, created_at, processed_at, error FROM outbox_messages
WHERE processed_at IS NULL
ORDER BY created_at
LIMIT $1
FOR UPDATE SKIP LOCKED
`

func (q *Queries) OutboxMsgListUnprocessed(ctx context.Context, db DBTX, limit int32) ([]OutboxMessage, error) {
	rows, err := db.Query(ctx, outboxMsgListUnprocessed, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OutboxMessage
	for rows.Next() {
		var i OutboxMessage
		if err := rows.Scan(
			&i.ID,
			&i.Topic,
			&i.Headers,
			&i.Payload,
			&i.PartitionKey,
			&i.CreatedAt,
			&i.ProcessedAt,
			&i.Error,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const outboxMsgDeleteProcessedBefore = `-- name: OutboxMsgDeleteProcessedBefore :execrows
DELETE FROM outbox_messages
WHERE processed_at IS NOT NULL AND processed_at < $1
`

func (q *Queries) OutboxMsgDeleteProcessedBefore(ctx context.Context, db DBTX, processedAt *time.Time) (int64, error) {
	result, err := db.Exec(ctx, outboxMsgDeleteProcessedBefore, processedAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
