// Package reconcile merges a dependent document's credited quantities back
// into its source document and keeps the source's lifecycle status in sync
// with every credit ever issued against it.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/meridian-erp/meridian-erp/internal/document"
)

// DocumentStore is the external source-document store. The reconciler issues
// one read and one write against it per reconciliation; retry policy belongs
// to the caller.
type DocumentStore interface {
	Get(ctx context.Context, id string) (*document.Document, error)
	Update(ctx context.Context, id string, doc *document.Document) error
}

// ErrNoSourceRef indicates the dependent document does not reference a source.
var ErrNoSourceRef = errors.New("reconcile: dependent document has no source reference")

// ErrSyncFailed marks a reconciliation whose source-document write failed.
// The dependent document's own save already succeeded by the time
// reconciliation runs, so this degrades to "saved but not synced" rather
// than unwinding the save.
var ErrSyncFailed = errors.New("reconcile: source document sync failed")

// SyncError carries the source document id whose update could not be
// persisted, so callers can retry reconciliation without re-saving the
// dependent document.
type SyncError struct {
	SourceDocumentID string
	Cause            error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrSyncFailed, e.SourceDocumentID, e.Cause)
}

func (e *SyncError) Unwrap() error { return ErrSyncFailed }

// Service reconciles dependent documents against their sources.
type Service struct {
	store  DocumentStore
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sourceLock
}

// sourceLock serializes reconciliation per source document id. Without it two
// concurrent credit memos against the same invoice race on the
// read-modify-write and one set of credits is lost. Entries are refcounted
// and dropped once the last holder releases, so the map stays bounded by the
// number of in-flight reconciliations, not by document history.
type sourceLock struct {
	mu   sync.Mutex
	refs int
}

// NewService constructs a reconciliation service.
func NewService(store DocumentStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		logger: logger,
		locks:  make(map[string]*sourceLock),
	}
}

func (s *Service) acquireSource(id string) *sourceLock {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sourceLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()
	l.mu.Lock()
	return l
}

func (s *Service) releaseSource(id string, l *sourceLock) {
	l.mu.Unlock()
	s.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, id)
	}
	s.mu.Unlock()
}

// Reconcile merges the dependent document's per-item credited quantities into
// the current state of its source document, recomputes the source's derived
// fields, re-derives its status from the aggregate totals, and persists it.
//
// On a store write failure the merged source document is still returned
// together with a SyncError, since the in-memory result is correct and only
// the sync is outstanding.
func (s *Service) Reconcile(ctx context.Context, dependent *document.Document) (*document.Document, error) {
	if dependent.SourceDocumentID == "" {
		return nil, ErrNoSourceRef
	}

	lock := s.acquireSource(dependent.SourceDocumentID)
	defer s.releaseSource(dependent.SourceDocumentID, lock)

	// Fetched fresh, never from a cached copy: a previous credit memo may
	// have updated the source since this dependent document was drafted.
	source, err := s.store.Get(ctx, dependent.SourceDocumentID)
	if err != nil {
		return nil, fmt.Errorf("reconcile: get source document %s: %w", dependent.SourceDocumentID, err)
	}

	credits := creditsByItem(dependent)
	applyCredits(source, credits)
	document.RecalculateDocument(source)
	source.Status = DeriveStatus(source.TotalOrdered(), source.TotalCredited())

	if err := s.store.Update(ctx, source.ID, source); err != nil {
		s.logger.Warn("source document saved but not synced",
			slog.String("source_document_id", source.ID),
			slog.String("dependent_document_id", dependent.ID),
			slog.Any("error", err))
		return source, &SyncError{SourceDocumentID: source.ID, Cause: err}
	}

	s.logger.Info("reconciled dependent document",
		slog.String("source_document_id", source.ID),
		slog.String("dependent_document_id", dependent.ID),
		slog.String("source_status", string(source.Status)))
	return source, nil
}

// creditsByItem aggregates the dependent document's credited quantities per
// item reference. A dependent document may carry the same item on several
// lines; all of them count.
func creditsByItem(dependent *document.Document) map[string]float64 {
	credits := make(map[string]float64, len(dependent.Lines))
	for i := range dependent.Lines {
		line := &dependent.Lines[i]
		credits[line.ItemRef] += line.CreditedQuantity
	}
	return credits
}

// applyCredits adds the aggregated credits onto the source lines' running
// totals. Addition, not replacement: earlier memos' credits must survive.
// Price and quantity inputs are left untouched.
func applyCredits(source *document.Document, credits map[string]float64) {
	for i := range source.Lines {
		line := &source.Lines[i]
		line.CreditedQuantity += credits[line.ItemRef]
	}
}

// DeriveStatus maps the aggregate ordered and credited quantities to the
// source document's lifecycle status. It is a pure function of the two
// totals, independent of the previous status, so it is safe to recompute
// from scratch on every reconciliation.
func DeriveStatus(totalOrdered, totalCredited float64) document.Status {
	switch {
	case totalOrdered > 0 && totalCredited >= totalOrdered:
		return document.StatusFullyCredited
	case totalCredited > 0 && totalCredited < totalOrdered:
		return document.StatusPartiallyCredited
	default:
		return document.StatusIssued
	}
}
