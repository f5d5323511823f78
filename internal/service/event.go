package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tuanvumaihuynh/product-catalog/internal/repository"
	"github.com/tuanvumaihuynh/product-catalog/pkg/outbox"
	"github.com/tuanvumaihuynh/product-catalog/pkg/ptr"
)

// eventSource is stamped on every event this service emits.
const eventSource = "product-catalog"

// publishEvent stores ev in the outbox through repo, so it commits or rolls back
// with whatever transaction repo is bound to.
func publishEvent(ctx context.Context, repo repository.OutboxMsgRepository, topic, productID string, ev any) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	if err := repo.CreateOutboxMsg(ctx, repository.CreateOutboxMsgParams{
		Topic:        topic,
		Headers:      outbox.BuildHeaders(ctx, eventSource),
		Payload:      payload,
		PartitionKey: ptr.New(productID),
	}); err != nil {
		return fmt.Errorf("outbox msg repository create outbox msg: %w", err)
	}

	return nil
}
