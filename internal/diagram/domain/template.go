package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Template is a palette entry dropped onto the canvas.
type Template string

const (
	TemplateEntity               Template = "entity"
	TemplateWeakEntity           Template = "weak entity"
	TemplateRelation             Template = "relation"
	TemplateWeakRelation         Template = "weak relation"
	TemplateAttribute            Template = "attribute"
	TemplateMultivaluedAttribute Template = "multivalued attribute"
	TemplateDerivedAttribute     Template = "derived attribute"
)

// NewID returns a collision-resistant item id.
func NewID() string {
	return uuid.NewString()
}

// NewFromTemplate builds the item a palette drop creates at (x, y).
func NewFromTemplate(tpl Template, id string, x, y float64) (Item, error) {
	switch tpl {
	case TemplateEntity:
		return NewItem(NewEntity(id, x, y)), nil
	case TemplateWeakEntity:
		e := NewEntity(id, x, y)
		e.WeakEntity = true
		return NewItem(e), nil
	case TemplateRelation:
		return NewItem(NewRelation(id, x, y)), nil
	case TemplateWeakRelation:
		r := NewRelation(id, x, y)
		r.Identifying = true
		return NewItem(r), nil
	case TemplateAttribute:
		return NewItem(NewAttribute(id, x, y)), nil
	case TemplateMultivaluedAttribute:
		a := NewAttribute(id, x, y)
		a.Type = AttributeMultivalued
		return NewItem(a), nil
	case TemplateDerivedAttribute:
		a := NewAttribute(id, x, y)
		a.Type = AttributeDerived
		return NewItem(a), nil
	}
	return Item{}, fmt.Errorf("%w: template %q", ErrUnknownKind, tpl)
}
