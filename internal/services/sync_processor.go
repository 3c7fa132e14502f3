package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/docstore"
)

// SyncProcessor mirrors changed documents from the authoritative store into
// a local replica so that snapshot subscriptions held against the replica
// observe writes made by other processes.
type SyncProcessor struct {
	source  docstore.Store
	replica docstore.Store
}

func NewSyncProcessor(source, replica docstore.Store) *SyncProcessor {
	return &SyncProcessor{
		source:  source,
		replica: replica,
	}
}

// HandleChange fetches the changed document from the source store and
// rewrites it into the replica, fanning it out to local subscribers.
func (p *SyncProcessor) HandleChange(ctx context.Context, msg *amqp.DocumentChangedMessage) error {
	exists, doc, err := p.source.Get(ctx, msg.Collection, msg.ID)
	if err != nil {
		return fmt.Errorf("load changed document %s/%s: %w", msg.Collection, msg.ID, err)
	}
	if !exists {
		// A change message for a document the source no longer has; nothing
		// to replicate.
		slog.WarnContext(ctx, "Change message for missing document",
			"collection", msg.Collection,
			"id", msg.ID)
		return nil
	}

	if err := p.replica.Set(ctx, msg.Collection, msg.ID, doc, false); err != nil {
		return fmt.Errorf("replicate document %s/%s: %w", msg.Collection, msg.ID, err)
	}

	slog.InfoContext(ctx, "Replicated document change",
		"collection", msg.Collection,
		"id", msg.ID,
		"fields", len(doc))

	return nil
}

// ReplayAll copies every document of the known collections from the source
// into the replica. Run at startup so the replica covers changes that
// happened while the consumer was down. Collections are replayed
// concurrently.
func (p *SyncProcessor) ReplayAll(ctx context.Context) error {
	collections := []string{
		CollectionTransactions,
		CollectionBanks,
		CollectionCategories,
		CollectionRecurring,
		CollectionBusiness,
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, collection := range collections {
		g.Go(func() error {
			ids, err := p.source.List(ctx, collection)
			if err != nil {
				return fmt.Errorf("list %s: %w", collection, err)
			}
			for _, id := range ids {
				exists, doc, err := p.source.Get(ctx, collection, id)
				if err != nil {
					return fmt.Errorf("load %s/%s: %w", collection, id, err)
				}
				if !exists {
					continue
				}
				if err := p.replica.Set(ctx, collection, id, doc, false); err != nil {
					return fmt.Errorf("replicate %s/%s: %w", collection, id, err)
				}
			}
			if len(ids) > 0 {
				slog.InfoContext(ctx, "Replayed collection", "collection", collection, "documents", len(ids))
			}
			return nil
		})
	}
	return g.Wait()
}
