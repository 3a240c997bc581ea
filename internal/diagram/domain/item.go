package domain

import (
	"encoding/json"
	"fmt"
)

// Kind tags the variant of a diagram item.
type Kind string

const (
	KindEntity    Kind = "entity"
	KindRelation  Kind = "relation"
	KindAttribute Kind = "attribute"
	KindConnector Kind = "connector"
	KindText      Kind = "text"
)

func (k Kind) Valid() bool {
	switch k {
	case KindEntity, KindRelation, KindAttribute, KindConnector, KindText:
		return true
	}
	return false
}

// Shape is the closed set of item variants. Only the types in this package implement it.
//
// Get and Set accept the wire field names of the variant and nothing else; the
// id field can be read but never written.
type Shape interface {
	ItemID() string
	Kind() Kind
	// Fields lists the wire field names in canonical order.
	Fields() []string
	Get(field string) (any, error)
	Set(field string, value any) error
	Clone() Shape
	shape()
}

// newShape returns a default-filled variant for kind, used when decoding items.
func newShape(kind Kind) (Shape, error) {
	switch kind {
	case KindEntity:
		return NewEntity("", 0, 0), nil
	case KindRelation:
		return NewRelation("", 0, 0), nil
	case KindAttribute:
		return NewAttribute("", 0, 0), nil
	case KindConnector:
		return &Connector{Stroke: DefaultStroke, StrokeWidth: DefaultStrokeWidth}, nil
	case KindText:
		return NewText("", 0, 0, ""), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// Item is one element of the diagram. On the wire it is {"type": kind, "item": {...}}.
type Item struct {
	Shape
}

func NewItem(s Shape) Item {
	return Item{Shape: s}
}

// Clone returns a deep copy of the item.
func (it Item) Clone() Item {
	if it.Shape == nil {
		return Item{}
	}
	return Item{Shape: it.Shape.Clone()}
}

type itemWire struct {
	Type Kind            `json:"type"`
	Item json.RawMessage `json:"item"`
}

func (it Item) MarshalJSON() ([]byte, error) {
	if it.Shape == nil {
		return nil, fmt.Errorf("%w: empty item", ErrUnknownKind)
	}
	body, err := json.Marshal(it.Shape)
	if err != nil {
		return nil, err
	}
	return json.Marshal(itemWire{Type: it.Kind(), Item: body})
}

func (it *Item) UnmarshalJSON(b []byte) error {
	var w itemWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	s, err := newShape(w.Type)
	if err != nil {
		return err
	}
	if len(w.Item) > 0 {
		if err := json.Unmarshal(w.Item, s); err != nil {
			return fmt.Errorf("decode %s item: %w", w.Type, err)
		}
	}
	switch v := s.(type) {
	case *Connector:
		if v.Points != nil {
			if _, ok := toPoints(v.Points); !ok {
				return fieldTypeError(KindConnector, "points", "even list of numbers", v.Points)
			}
		}
	case *Attribute:
		if v.Type == "" {
			v.Type = AttributeNormal
		}
		if !v.Type.Valid() {
			return fieldTypeError(KindAttribute, "type", "normal, multivalued or derived", string(v.Type))
		}
	}
	it.Shape = s
	return nil
}

// Items is the ordered item sequence. Order is paint order.
type Items []Item

func (s Items) IndexOf(id string) int {
	for i, it := range s {
		if it.Shape != nil && it.ItemID() == id {
			return i
		}
	}
	return -1
}

func (s Items) Find(id string) (Item, bool) {
	i := s.IndexOf(id)
	if i < 0 {
		return Item{}, false
	}
	return s[i], true
}

func (s Items) Clone() Items {
	if s == nil {
		return nil
	}
	out := make(Items, len(s))
	for i, it := range s {
		out[i] = it.Clone()
	}
	return out
}

func (s Items) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Item(s))
}

// CheckUniqueIDs reports the first id that appears twice.
func (s Items) CheckUniqueIDs() error {
	seen := make(map[string]struct{}, len(s))
	for _, it := range s {
		id := it.ItemID()
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// WithID returns a copy of the item carrying id.
func (it Item) WithID(id string) Item {
	c := it.Clone()
	switch s := c.Shape.(type) {
	case *Entity:
		s.ID = id
	case *Relation:
		s.ID = id
	case *Attribute:
		s.ID = id
	case *Connector:
		s.ID = id
	case *Text:
		s.ID = id
	}
	return c
}
