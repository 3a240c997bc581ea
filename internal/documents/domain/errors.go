package domain

import "errors"

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrVersionNotFound  = errors.New("version not found")
	ErrRevisionConflict = errors.New("document revision is stale")
	ErrInvalidPatch     = errors.New("invalid patch")
	ErrInvalidTitle     = errors.New("title is required")
	ErrInvalidData      = errors.New("invalid document data")
)
