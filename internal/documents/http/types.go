package http

import (
	"encoding/json"

	"github.com/erdsync/erd-sync/internal/diagram/patch"
)

type titleRequest struct {
	Title string `json:"title"`
}

type patchRequest struct {
	Patch        []patch.Operation `json:"patch"`
	BaseRevision *int64            `json:"baseRevision,omitempty"`
}

type commitRequest struct {
	Data  json.RawMessage `json:"data"`
	Image string          `json:"image"`
	Label string          `json:"label,omitempty"`
}
