// Package editor owns the state of one open diagram and keeps the document
// store in sync with it.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/erdsync/erd-sync/internal/diagram/domain"
	"github.com/erdsync/erd-sync/internal/diagram/patch"
	"github.com/erdsync/erd-sync/internal/diagram/transport"
)

var ErrClosed = errors.New("editor is closed")

// Remote is the document store as the editor sees it. *transport.Client implements it.
type Remote interface {
	GetDocument(ctx context.Context, id string) (transport.RemoteDocument, error)
	UpdateTitle(ctx context.Context, id, title string) error
	SendPatches(ctx context.Context, id string, ops []patch.Operation, baseRevision *int64) (transport.Ack, error)
	Commit(ctx context.Context, id string, items domain.Items, image, label string) (domain.Version, error)
	ListVersions(ctx context.Context, id string) ([]domain.Version, error)
	SwitchVersion(ctx context.Context, id, versionID string) (transport.Snapshot, error)
}

// Editor applies every mutation to its document immediately and queues the
// matching patches for a single dispatcher goroutine. Mutations never wait
// on the network, and a failed send never rolls the document back.
type Editor struct {
	docID  string
	remote Remote
	notify Notifier
	log    zerolog.Logger

	mu            sync.Mutex
	doc           *domain.Document
	closed        bool
	synced        bool
	diverged      bool
	checkRevision bool
	state         SendState

	qmu     sync.Mutex
	queue   []batch
	wake    chan struct{}
	stopped chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
}

type Option func(*Editor)

func WithNotifier(n Notifier) Option {
	return func(e *Editor) { e.notify = n }
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Editor) { e.log = l }
}

// WithoutRevisionCheck sends batches without a base revision, so the store
// applies them last-write-wins.
func WithoutRevisionCheck() Option {
	return func(e *Editor) { e.checkRevision = false }
}

// New starts an editor for docID. Call Load to pull the current document and Close when done.
func New(docID string, remote Remote, opts ...Option) *Editor {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Editor{
		docID:         docID,
		remote:        remote,
		log:           zerolog.Nop(),
		doc:           &domain.Document{ID: docID},
		checkRevision: true,
		wake:          make(chan struct{}, 1),
		stopped:       make(chan struct{}),
		ctx:           ctx,
		cancel:        cancel,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.notify == nil {
		e.notify = LogNotifier{Log: e.log}
	}
	go e.run()
	return e
}

// Snapshot returns a deep copy of the current document.
func (e *Editor) Snapshot() *domain.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Clone()
}

// SendState reports how the most recent patch batch fared.
func (e *Editor) SendState() SendState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Diverged reports whether a batch was lost since the last Load or
// SwitchVersion. While it holds, queued batches are dropped instead of sent,
// since their indices no longer match the store.
func (e *Editor) Diverged() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.diverged
}

// Load replaces the local document with the store's copy. Queued patches are sent first.
func (e *Editor) Load(ctx context.Context) error {
	if err := e.Flush(ctx); err != nil {
		return err
	}
	remote, err := e.remote.GetDocument(ctx, e.docID)
	if err != nil {
		e.report(err)
		return fmt.Errorf("load document %s: %w", e.docID, err)
	}
	if err := remote.Data.Items.CheckUniqueIDs(); err != nil {
		return fmt.Errorf("load document %s: %w", e.docID, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.doc.Title = remote.Title
	e.doc.Items = remote.Data.Items
	e.doc.Revision = remote.Revision
	e.doc.Selected = ""
	e.doc.Drawing = nil
	e.synced = true
	e.diverged = false
	e.log.Debug().Str("document_id", e.docID).Int("items", len(remote.Data.Items)).Msg("document loaded")
	return nil
}

// commit applies ops locally and queues them. Callers hold e.mu.
func (e *Editor) commit(ops []patch.Operation) error {
	if len(ops) == 0 {
		return nil
	}
	items, err := patch.ApplyItems(e.doc.Items, ops)
	if err != nil {
		return err
	}
	e.doc.Items = items
	e.enqueue(batch{ops: ops})
	return nil
}

func (e *Editor) lock() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	return nil
}

// AddItem appends item, assigning a fresh id when it has none. It returns the id used.
func (e *Editor) AddItem(item domain.Item) (string, error) {
	if item.Shape == nil {
		return "", fmt.Errorf("%w: empty item", domain.ErrUnknownKind)
	}
	if item.ItemID() == "" {
		item = item.WithID(domain.NewID())
	}
	if err := e.lock(); err != nil {
		return "", err
	}
	defer e.mu.Unlock()

	ops, err := patch.DiffAdd(e.doc.Items, item)
	if err != nil {
		return "", err
	}
	return item.ItemID(), e.commit(ops)
}

// DropTemplate adds the item a palette entry creates at (x, y).
func (e *Editor) DropTemplate(tpl domain.Template, x, y float64) (string, error) {
	item, err := domain.NewFromTemplate(tpl, domain.NewID(), x, y)
	if err != nil {
		return "", err
	}
	return e.AddItem(item)
}

// AddText places a free text label at (x, y).
func (e *Editor) AddText(x, y float64, text string) (string, error) {
	return e.AddItem(domain.NewItem(domain.NewText(domain.NewID(), x, y, text)))
}

// UpdateItem sets the given fields on item id. Nothing is sent when no field changes.
func (e *Editor) UpdateItem(id string, updates patch.Updates) error {
	if err := e.lock(); err != nil {
		return err
	}
	defer e.mu.Unlock()

	if _, ok := updates["points"]; ok && e.doc.Drawing != nil && e.doc.Drawing.ConnectorID == id {
		return fmt.Errorf("%w: connector %s is still being drawn", domain.ErrInvalidState, id)
	}
	ops, err := patch.DiffUpdate(e.doc.Items, id, updates)
	if err != nil {
		return err
	}
	return e.commit(ops)
}

// RemoveItem deletes item id. A missing id is not an error.
func (e *Editor) RemoveItem(id string) error {
	if err := e.lock(); err != nil {
		return err
	}
	defer e.mu.Unlock()
	return e.remove(id)
}

func (e *Editor) remove(id string) error {
	if err := e.commit(patch.DiffRemove(e.doc.Items, id)); err != nil {
		return err
	}
	if e.doc.Selected == id {
		e.doc.Selected = ""
	}
	if e.doc.Drawing != nil && e.doc.Drawing.ConnectorID == id {
		e.doc.Drawing = nil
	}
	return nil
}

// RemoveSelected deletes the selected item, if any.
func (e *Editor) RemoveSelected() error {
	if err := e.lock(); err != nil {
		return err
	}
	defer e.mu.Unlock()
	if e.doc.Selected == "" {
		return nil
	}
	return e.remove(e.doc.Selected)
}

func (e *Editor) Select(id string) error {
	if err := e.lock(); err != nil {
		return err
	}
	defer e.mu.Unlock()
	if e.doc.Items.IndexOf(id) < 0 {
		return fmt.Errorf("%w: %s", domain.ErrItemNotFound, id)
	}
	e.doc.Selected = id
	return nil
}

func (e *Editor) ClearSelection() {
	e.mu.Lock()
	e.doc.Selected = ""
	e.mu.Unlock()
}

// StartDrawing adds a connector anchored at (x, y) and opens a drawing session on it.
func (e *Editor) StartDrawing(x, y float64) (string, error) {
	if err := e.lock(); err != nil {
		return "", err
	}
	defer e.mu.Unlock()
	if e.doc.Drawing != nil {
		return "", fmt.Errorf("%w: connector %s is already being drawn", domain.ErrInvalidState, e.doc.Drawing.ConnectorID)
	}

	seed := domain.NewConnector(domain.NewID(), x, y)
	ops, err := patch.DiffStartDrawing(e.doc.Items, seed)
	if err != nil {
		return "", err
	}
	if err := e.commit(ops); err != nil {
		return "", err
	}
	e.doc.Drawing = &domain.DrawingSession{ConnectorID: seed.ID, CursorX: x, CursorY: y}
	return seed.ID, nil
}

// MoveDrawing tracks the cursor while a connector is drawn. It is local only.
func (e *Editor) MoveDrawing(x, y float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.doc.Drawing == nil {
		return fmt.Errorf("%w: no connector is being drawn", domain.ErrInvalidState)
	}
	e.doc.Drawing.CursorX = x
	e.doc.Drawing.CursorY = y
	return nil
}

// EndDrawing fixes the connector's end point at (x, y) and closes the session.
func (e *Editor) EndDrawing(x, y float64) error {
	if err := e.lock(); err != nil {
		return err
	}
	defer e.mu.Unlock()
	if e.doc.Drawing == nil {
		return fmt.Errorf("%w: no connector is being drawn", domain.ErrInvalidState)
	}

	ops, err := patch.DiffEndDrawing(e.doc.Items, e.doc.Drawing.ConnectorID, x, y)
	if err != nil {
		return err
	}
	if err := e.commit(ops); err != nil {
		return err
	}
	e.doc.Drawing = nil
	return nil
}

// CancelDrawing drops the half drawn connector.
func (e *Editor) CancelDrawing() error {
	if err := e.lock(); err != nil {
		return err
	}
	defer e.mu.Unlock()
	if e.doc.Drawing == nil {
		return nil
	}
	return e.remove(e.doc.Drawing.ConnectorID)
}

// SetTitle renames the document locally and on the store.
func (e *Editor) SetTitle(ctx context.Context, title string) error {
	if err := e.lock(); err != nil {
		return err
	}
	e.doc.Title = title
	e.mu.Unlock()

	if err := e.remote.UpdateTitle(ctx, e.docID, title); err != nil {
		e.report(err)
		return fmt.Errorf("update title: %w", err)
	}
	return nil
}

// Commit stores the current items as a new version once queued patches are sent.
func (e *Editor) Commit(ctx context.Context, image, label string) (domain.Version, error) {
	if err := e.Flush(ctx); err != nil {
		return domain.Version{}, err
	}
	e.mu.Lock()
	items := e.doc.Items.Clone()
	e.mu.Unlock()

	v, err := e.remote.Commit(ctx, e.docID, items, image, label)
	if err != nil {
		e.report(err)
		return domain.Version{}, fmt.Errorf("commit: %w", err)
	}

	e.mu.Lock()
	e.doc.Versions = append(e.doc.Versions, v)
	e.mu.Unlock()
	return v, nil
}

func (e *Editor) LoadVersions(ctx context.Context) ([]domain.Version, error) {
	versions, err := e.remote.ListVersions(ctx, e.docID)
	if err != nil {
		e.report(err)
		return nil, fmt.Errorf("load versions: %w", err)
	}

	e.mu.Lock()
	e.doc.Versions = versions
	e.mu.Unlock()
	return append([]domain.Version(nil), versions...), nil
}

// SwitchVersion overwrites the items with a stored version. Selection and any
// drawing session are dropped. No patches are produced.
func (e *Editor) SwitchVersion(ctx context.Context, versionID string) error {
	if err := e.Flush(ctx); err != nil {
		return err
	}
	snap, err := e.remote.SwitchVersion(ctx, e.docID, versionID)
	if err != nil {
		e.report(err)
		return fmt.Errorf("switch to version %s: %w", versionID, err)
	}
	if err := snap.Data.Items.CheckUniqueIDs(); err != nil {
		return fmt.Errorf("switch to version %s: %w", versionID, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.doc.Items = snap.Data.Items
	e.doc.Selected = ""
	e.doc.Drawing = nil
	e.doc.Revision = snap.Revision
	e.synced = true
	e.diverged = false
	return nil
}

// Flush waits until every patch queued so far has been sent.
func (e *Editor) Flush(ctx context.Context) error {
	done := make(chan struct{})
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.enqueue(batch{done: done})
	e.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close sends what is queued and stops the dispatcher.
func (e *Editor) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.enqueue(batch{stop: true})
	<-e.stopped
	e.cancel()
	return nil
}
