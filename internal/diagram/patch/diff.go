package patch

import (
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/erdsync/erd-sync/internal/diagram/domain"
)

// Updates maps wire field names to new values for one item.
type Updates map[string]any

// DiffAdd appends item to the end of items.
func DiffAdd(items domain.Items, item domain.Item) ([]Operation, error) {
	if item.Shape == nil {
		return nil, fmt.Errorf("%w: empty item", domain.ErrUnknownKind)
	}
	if items.IndexOf(item.ItemID()) >= 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateID, item.ItemID())
	}
	return []Operation{{Op: OpAdd, Path: itemPath(len(items)), Value: item.Clone()}}, nil
}

// DiffUpdate emits one replace per field whose value changes. Every field is
// validated first; a single bad field fails the whole call.
func DiffUpdate(items domain.Items, id string, updates Updates) ([]Operation, error) {
	idx := items.IndexOf(id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrItemNotFound, id)
	}
	cur := items[idx].Shape
	next := cur.Clone()
	for _, field := range slices.Sorted(maps.Keys(updates)) {
		if err := next.Set(field, updates[field]); err != nil {
			return nil, err
		}
	}

	var ops []Operation
	for _, field := range next.Fields() {
		if _, ok := updates[field]; !ok {
			continue
		}
		before, _ := cur.Get(field)
		after, _ := next.Get(field)
		if reflect.DeepEqual(before, after) {
			continue
		}
		ops = append(ops, Operation{Op: OpReplace, Path: fieldPath(idx, field), Value: after})
	}
	return ops, nil
}

// DiffRemove removes the item with id. A missing id yields no operations.
func DiffRemove(items domain.Items, id string) []Operation {
	idx := items.IndexOf(id)
	if idx < 0 {
		return nil
	}
	return []Operation{{Op: OpRemove, Path: itemPath(idx)}}
}

// DiffStartDrawing appends a connector seeded at its anchor.
func DiffStartDrawing(items domain.Items, seed *domain.Connector) ([]Operation, error) {
	if seed == nil || !seed.Anchored() {
		return nil, fmt.Errorf("%w: connector seed must hold only its anchor", domain.ErrFieldType)
	}
	return DiffAdd(items, domain.NewItem(seed))
}

// DiffEndDrawing keeps the connector's anchor and sets (endX, endY) as its second point.
func DiffEndDrawing(items domain.Items, id string, endX, endY float64) ([]Operation, error) {
	idx := items.IndexOf(id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrItemNotFound, id)
	}
	c, ok := items[idx].Shape.(*domain.Connector)
	if !ok {
		return nil, fmt.Errorf("%w: %s is a %s", domain.ErrNotConnector, id, items[idx].Kind())
	}
	if len(c.Points) < 2 {
		return nil, fmt.Errorf("%w: connector %s has no anchor", domain.ErrInvalidState, id)
	}
	points := []float64{c.Points[0], c.Points[1], endX, endY}
	return []Operation{{Op: OpReplace, Path: fieldPath(idx, "points"), Value: points}}, nil
}
