package domain

import "errors"

var (
	ErrItemNotFound   = errors.New("item not found")
	ErrDuplicateID    = errors.New("item id already present")
	ErrNotConnector   = errors.New("item is not a connector")
	ErrUnknownKind    = errors.New("unknown item kind")
	ErrUnknownField   = errors.New("unknown item field")
	ErrFieldType      = errors.New("invalid value for item field")
	ErrImmutableField = errors.New("item field is immutable")
	ErrMissingID      = errors.New("item has no id")
	ErrInvalidState   = errors.New("inconsistent document state")
)
