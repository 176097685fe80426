package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/document"
	"github.com/meridian-erp/meridian-erp/internal/reconcile"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeReconcileRetry re-runs reconciliation for a dependent document
	// whose source-document sync failed.
	TaskTypeReconcileRetry = "reconcile:retry"
)

// ReconcileRetryPayload identifies the saved dependent document to re-sync.
type ReconcileRetryPayload struct {
	DocumentID string `json:"document_id"`
}

// NewReconcileRetryTask constructs an Asynq task.
func NewReconcileRetryTask(payload ReconcileRetryPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeReconcileRetry, data), nil
}

// Reconciler is the slice of the reconciliation service the handler needs.
type Reconciler interface {
	Reconcile(ctx context.Context, dependent *document.Document) (*document.Document, error)
}

// NewReconcileRetryHandler returns the handler for TaskTypeReconcileRetry.
// The dependent document is loaded from the store by id; a corrupt payload
// skips retrying, a sync failure returns the error so Asynq retries later.
func NewReconcileRetryHandler(store reconcile.DocumentStore, rec Reconciler, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ReconcileRetryPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		dependent, err := store.Get(ctx, payload.DocumentID)
		if err != nil {
			return fmt.Errorf("load dependent document %s: %w", payload.DocumentID, err)
		}
		if _, err := rec.Reconcile(ctx, dependent); err != nil {
			logger.Warn("reconcile retry failed",
				slog.String("document_id", payload.DocumentID),
				slog.Any("error", err))
			return err
		}
		logger.Info("reconcile retry succeeded", slog.String("document_id", payload.DocumentID))
		return nil
	}
}

// EnqueueReconcileRetry queues a retry for the given dependent document.
func EnqueueReconcileRetry(client *asynq.Client, documentID string) error {
	task, err := NewReconcileRetryTask(ReconcileRetryPayload{DocumentID: documentID})
	if err != nil {
		return err
	}
	if _, err := client.Enqueue(task, asynq.Queue(QueueDefault)); err != nil {
		return fmt.Errorf("enqueue reconcile retry: %w", err)
	}
	return nil
}
