package domain

import (
	"encoding/json"
	"time"
)

// EmptyData is the data column of a fresh document.
var EmptyData = json.RawMessage(`{"items":[]}`)

// Document is a stored diagram. Data holds {"items": [...]} exactly as
// patches address it.
type Document struct {
	ID             string          `json:"id"`
	OwnerID        string          `json:"-"`
	Title          string          `json:"title"`
	Data           json.RawMessage `json:"data"`
	Revision       int64           `json:"revision"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	LastAccessedAt time.Time       `json:"lastAccessedAt"`
}

// Summary is one row of a user's document list. URL is the preview image of
// the latest version, empty before the first commit.
type Summary struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	URL            string    `json:"url"`
	LastAccessedAt time.Time `json:"lastAccessedAt"`
}

type Version struct {
	ID         string          `json:"id"`
	DocumentID string          `json:"-"`
	Data       json.RawMessage `json:"-"`
	Image      string          `json:"image"`
	Label      string          `json:"label,omitempty"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}
