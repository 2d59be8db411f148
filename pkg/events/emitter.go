// Package events emits ledger change events after a batch commits. Emission
// is best effort: a broker outage never fails an import that already
// committed.
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Publisher is the producer surface the emitter needs
type Publisher interface {
	PublishRecordEvents(ctx context.Context, events []*kafka.RecordEvent) error
}

// Emitter handles record lifecycle event emission
type Emitter struct {
	producer Publisher
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter. A nil producer disables emission.
func NewEmitter(producer Publisher, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// Change pairs a committed record with whether it was newly inserted
type Change struct {
	Record *models.CommissionRecord
	IsNew  bool
}

// EmitChanges publishes one event per committed ledger change
func (e *Emitter) EmitChanges(ctx context.Context, tenantID string, changes []Change) {
	if e.producer == nil || len(changes) == 0 {
		return
	}

	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitChanges")
	defer span.End()

	batch := make([]*kafka.RecordEvent, 0, len(changes))
	for _, change := range changes {
		eventType := "record.updated"
		if change.IsNew {
			eventType = "record.created"
		}

		data, err := json.Marshal(change.Record)
		if err != nil {
			e.logger.WithContext(ctx).WithError(err).Warn("Failed to marshal record for event")
			continue
		}

		batch = append(batch, &kafka.RecordEvent{
			EventType: eventType,
			TenantID:  tenantID,
			RecordID:  change.Record.ID,
			DedupKey:  change.Record.DedupKey,
			Source:    string(change.Record.Source),
			Data:      data,
		})
	}

	if err := e.producer.PublishRecordEvents(ctx, batch); err != nil {
		e.logger.WithContext(ctx).WithError(err).Warn("Failed to emit record events, ledger change already committed")
	}
}
