// Package worker consumes entry events and mirrors them into secondary stores.
package worker

import (
	"context"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

// EntryWriter appends one entry to a mirror. eventID lets writers that can
// deduplicate ignore redeliveries.
type EntryWriter interface {
	AppendEntry(ctx context.Context, eventID string, e core.Entry) (string, error)
}

// Target is a named mirror.
type Target struct {
	Name   string
	Writer EntryWriter
}

// MirrorWorker writes every recorded entry to its targets in order.
type MirrorWorker struct {
	targets []Target
	logger  *log.Logger
}

func NewMirrorWorker(logger *log.Logger, targets ...Target) *MirrorWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &MirrorWorker{
		targets: targets,
		logger:  logger.WithComponent(log.ComponentWorker),
	}
}

// Targets returns the configured mirror names.
func (w *MirrorWorker) Targets() []string {
	names := make([]string, len(w.targets))
	for i, t := range w.targets {
		names[i] = t.Name
	}
	return names
}

// HandleEntryRecorded mirrors one event. Entries that fail validation are
// reported as amqp.ErrUnprocessable so the consumer drops them; a writer
// failure is returned as is and the message is redelivered.
func (w *MirrorWorker) HandleEntryRecorded(ctx context.Context, msg *amqp.EntryRecordedMessage) error {
	w.logger.InfoContext(ctx, "Processing entry recorded message",
		log.FieldEventID, msg.ID,
		log.FieldEntryKind, msg.Kind,
		log.FieldDate, msg.Date)

	e, err := msg.Entry()
	if err != nil {
		return fmt.Errorf("%w: event %s: %v", amqp.ErrUnprocessable, msg.ID, err)
	}

	for _, t := range w.targets {
		ref, err := t.Writer.AppendEntry(ctx, msg.ID, e)
		if err != nil {
			w.logger.ErrorContext(ctx, "Failed to mirror entry",
				"target", t.Name,
				log.FieldEventID, msg.ID,
				log.FieldError, err)
			return fmt.Errorf("mirror to %s: %w", t.Name, err)
		}
		w.logger.InfoContext(ctx, "Entry mirrored",
			"target", t.Name,
			log.FieldEventID, msg.ID,
			log.FieldRef, ref)
	}
	return nil
}
