package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocument_Validate(t *testing.T) {
	base := func() *Document {
		return &Document{
			Items: Items{
				NewItem(NewEntity("e1", 0, 0)),
				NewItem(NewConnector("c1", 5, 5)),
			},
		}
	}

	t.Run("valid", func(t *testing.T) {
		d := base()
		d.Selected = "e1"
		d.Drawing = &DrawingSession{ConnectorID: "c1"}
		assert.NoError(t, d.Validate())
	})

	t.Run("duplicate ids", func(t *testing.T) {
		d := base()
		d.Items = append(d.Items, NewItem(NewText("e1", 0, 0, "dup")))
		assert.ErrorIs(t, d.Validate(), ErrDuplicateID)
	})

	t.Run("dangling selection", func(t *testing.T) {
		d := base()
		d.Selected = "gone"
		assert.ErrorIs(t, d.Validate(), ErrInvalidState)
	})

	t.Run("drawing on a non connector", func(t *testing.T) {
		d := base()
		d.Drawing = &DrawingSession{ConnectorID: "e1"}
		assert.ErrorIs(t, d.Validate(), ErrInvalidState)
	})

	t.Run("drawing on a finished connector", func(t *testing.T) {
		d := base()
		d.Items[1].Shape.(*Connector).Points = []float64{5, 5, 9, 9}
		d.Drawing = &DrawingSession{ConnectorID: "c1"}
		assert.ErrorIs(t, d.Validate(), ErrInvalidState)
	})
}

func TestDocument_CloneDoesNotShareItems(t *testing.T) {
	d := &Document{Items: Items{NewItem(NewEntity("e1", 0, 0))}, Drawing: &DrawingSession{ConnectorID: "x"}}
	c := d.Clone()

	c.Items[0].Shape.(*Entity).X = 42
	c.Drawing.CursorX = 3

	assert.Equal(t, 0.0, d.Items[0].Shape.(*Entity).X)
	assert.Equal(t, 0.0, d.Drawing.CursorX)
}
