// Package triage owns the screen's state: the active subject, the last
// fetched row snapshot, its classification and the set of row ids with an
// upload in flight. All mutation goes through the transitions defined here;
// the presentation layer only reads snapshots.
package triage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leca/image-triage/internal/classify"
	"github.com/leca/image-triage/internal/filesrc"
	"github.com/leca/image-triage/internal/model"
	"github.com/leca/image-triage/internal/picker"
)

// RowSource fetches the full row list for a subject. Every call is a
// wholesale replace of the previous snapshot.
type RowSource interface {
	FetchRows(ctx context.Context, subject string) ([]model.ImageRow, error)
}

// UploadSink submits a replacement image for a row.
type UploadSink interface {
	Upload(ctx context.Context, rowID string, f filesrc.File) (model.UploadResult, error)
}

// Notifier surfaces operator-facing alerts. Failures are reported with a
// generic message; nothing is retried.
type Notifier interface {
	Alert(msg string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(msg string)

func (f NotifierFunc) Alert(msg string) { f(msg) }

// ResolverProbe picks the filesrc resolver for a selection reference.
// Defaults to filesrc.Detect.
type ResolverProbe func(ref string) filesrc.Resolver

// Controller drives the fetch → classify → upload → re-fetch cycle.
//
// The row list and the in-flight set are guarded by one mutex. Uploads for
// distinct rows may run concurrently; a row whose id is already in flight
// cannot be re-triggered until its upload settles.
type Controller struct {
	source RowSource
	sink   UploadSink
	pick   picker.Picker
	probe  ResolverProbe
	notify Notifier
	log    *slog.Logger

	mu       sync.Mutex
	subject  string
	rows     []model.ImageRow
	buckets  classify.Buckets
	inflight map[string]struct{}
}

// New creates a Controller. notify and logger may be nil; alerts then go to
// the logger, and the logger falls back to slog.Default().
func New(source RowSource, sink UploadSink, pick picker.Picker, notify Notifier, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		source:   source,
		sink:     sink,
		pick:     pick,
		probe:    filesrc.Detect,
		notify:   notify,
		log:      logger,
		inflight: make(map[string]struct{}),
	}
	if c.notify == nil {
		c.notify = NotifierFunc(func(msg string) { logger.Warn("alert", "message", msg) })
	}
	return c
}

// SetResolverProbe overrides the capability probe used to resolve selected
// file references. Intended for environments with a custom blob transport.
func (c *Controller) SetResolverProbe(p ResolverProbe) {
	if p != nil {
		c.probe = p
	}
}

// SelectSubject fetches rows for subject and replaces the current snapshot.
// On fetch failure the operator is alerted with the backend message and the
// row list is cleared.
func (c *Controller) SelectSubject(ctx context.Context, subject string) error {
	rows, err := c.source.FetchRows(ctx, subject)
	if err != nil {
		c.notify.Alert(err.Error())
		c.mu.Lock()
		c.subject = subject
		c.rows = nil
		c.buckets = classify.Buckets{}
		c.mu.Unlock()
		return fmt.Errorf("selecting subject %q: %w", subject, err)
	}

	if dropped := classify.Dropped(rows); dropped > 0 {
		// Stored-only rows are hidden from every tab. Flagged for product
		// review; the count keeps the gap observable.
		c.log.Debug("rows hidden from all buckets", "subject", subject, "count", dropped)
	}

	c.mu.Lock()
	c.subject = subject
	c.rows = rows
	c.buckets = classify.Partition(rows)
	c.mu.Unlock()
	return nil
}

// UploadForRow runs the full upload cycle for rowID: file selection, content
// resolution, multipart submission and, on success, one re-fetch of the
// active subject. A cancelled selection returns nil without touching any
// state. The row id joins the in-flight set before the network call is
// issued and leaves it unconditionally when the call settles.
func (c *Controller) UploadForRow(ctx context.Context, rowID string) error {
	c.mu.Lock()
	if _, exists := c.findRow(rowID); !exists {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrRowNotFound, rowID)
	}
	if _, busy := c.inflight[rowID]; busy {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUploadInFlight, rowID)
	}
	c.mu.Unlock()

	sel, err := c.pick.Pick(ctx)
	if err != nil {
		if errors.Is(err, picker.ErrSelectionCancelled) {
			// Operator dismissed the picker; back to idle, not an error.
			return nil
		}
		c.notify.Alert("image upload failed")
		return fmt.Errorf("selecting file for row %s: %w", rowID, err)
	}

	f, err := c.probe(sel.Ref).Resolve(ctx, sel.Ref)
	if err != nil {
		c.notify.Alert("image upload failed")
		return fmt.Errorf("resolving file for row %s: %w", rowID, err)
	}
	if sel.Name != "" {
		f.Name = sel.Name
	}
	if sel.MIME != "" {
		f.MIME = sel.MIME
	}

	c.mu.Lock()
	if _, busy := c.inflight[rowID]; busy {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUploadInFlight, rowID)
	}
	c.inflight[rowID] = struct{}{}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.inflight, rowID)
		c.mu.Unlock()
	}()

	if _, err := c.sink.Upload(ctx, rowID, f); err != nil {
		c.notify.Alert("image upload failed")
		return fmt.Errorf("uploading for row %s: %w", rowID, err)
	}

	// Re-fetch the subject selected now, not the one at trigger time; the
	// operator may have switched tabs while the upload was in flight.
	c.mu.Lock()
	subject := c.subject
	c.mu.Unlock()
	return c.SelectSubject(ctx, subject)
}

// Buckets returns the current classification snapshot.
func (c *Controller) Buckets() classify.Buckets {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buckets
}

// Subject returns the active subject.
func (c *Controller) Subject() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subject
}

// InFlight reports whether rowID has an upload in flight; the presentation
// layer disables the row's action while this is true.
func (c *Controller) InFlight(rowID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inflight[rowID]
	return ok
}

// InFlightCount returns the number of uploads currently in flight.
func (c *Controller) InFlightCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inflight)
}

// ExternalImageURL returns the external image URL for rowID when the row
// exists and has one. Opening it is the presentation layer's concern.
func (c *Controller) ExternalImageURL(rowID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	row, ok := c.findRow(rowID)
	if !ok || row.ExternalImageURL == nil {
		return "", false
	}
	return *row.ExternalImageURL, true
}

// findRow looks rowID up in the current snapshot. Callers hold c.mu.
func (c *Controller) findRow(rowID string) (model.ImageRow, bool) {
	for _, r := range c.rows {
		if r.ID == rowID {
			return r, true
		}
	}
	return model.ImageRow{}, false
}
