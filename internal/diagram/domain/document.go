package domain

import (
	"fmt"
	"time"
)

// DrawingSession tracks a connector between its start and end gestures.
// The cursor is a local preview only and never leaves the editor.
type DrawingSession struct {
	ConnectorID string  `json:"connectorId"`
	CursorX     float64 `json:"cursorX"`
	CursorY     float64 `json:"cursorY"`
}

// Data is the patchable part of a document. Patch paths resolve against it.
type Data struct {
	Items Items `json:"items"`
}

// Version is an immutable snapshot created by an explicit commit.
type Version struct {
	ID        string    `json:"id"`
	Image     string    `json:"image"`
	Label     string    `json:"label,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DocumentSummary is a dashboard row.
type DocumentSummary struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	URL            string    `json:"url"`
	LastAccessedAt time.Time `json:"lastAccessedAt"`
}

// Document is the full editor state for one diagram.
type Document struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Items    Items           `json:"items"`
	Selected string          `json:"selected,omitempty"`
	Drawing  *DrawingSession `json:"drawing,omitempty"`
	Versions []Version       `json:"versions,omitempty"`
	Revision int64           `json:"revision"`
}

func (d *Document) Clone() *Document {
	c := *d
	c.Items = d.Items.Clone()
	if d.Drawing != nil {
		dr := *d.Drawing
		c.Drawing = &dr
	}
	if d.Versions != nil {
		c.Versions = append([]Version(nil), d.Versions...)
	}
	return &c
}

// Validate checks the cross-field invariants of the document.
func (d *Document) Validate() error {
	if err := d.Items.CheckUniqueIDs(); err != nil {
		return err
	}
	if d.Selected != "" && d.Items.IndexOf(d.Selected) < 0 {
		return fmt.Errorf("%w: selection %s is not in items", ErrInvalidState, d.Selected)
	}
	if d.Drawing != nil {
		it, ok := d.Items.Find(d.Drawing.ConnectorID)
		if !ok {
			return fmt.Errorf("%w: drawing connector %s is not in items", ErrInvalidState, d.Drawing.ConnectorID)
		}
		c, ok := it.Shape.(*Connector)
		if !ok {
			return fmt.Errorf("%w: drawing item %s is a %s", ErrInvalidState, it.ItemID(), it.Kind())
		}
		if !c.Anchored() {
			return fmt.Errorf("%w: drawing connector %s already has an end point", ErrInvalidState, c.ID)
		}
	}
	return nil
}
