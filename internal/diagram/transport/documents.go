package transport

import (
	"context"
	"net/http"
	"net/url"

	"github.com/erdsync/erd-sync/internal/diagram/domain"
	"github.com/erdsync/erd-sync/internal/diagram/patch"
)

// RemoteDocument is the server copy of a document.
type RemoteDocument struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	Data     domain.Data `json:"data"`
	Revision int64       `json:"revision"`
}

// Ack confirms an applied patch batch.
type Ack struct {
	Revision int64 `json:"revision"`
}

// Snapshot is the result of switching to a version.
type Snapshot struct {
	Data     domain.Data `json:"data"`
	Revision int64       `json:"revision"`
}

func docPath(id string, rest ...string) string {
	p := "/document/" + url.PathEscape(id)
	for _, r := range rest {
		p += "/" + url.PathEscape(r)
	}
	return p
}

func (c *Client) ListDocuments(ctx context.Context) ([]domain.DocumentSummary, error) {
	var out struct {
		Documents []domain.DocumentSummary `json:"documents"`
	}
	if err := c.do(ctx, http.MethodGet, "/document", nil, &out); err != nil {
		return nil, err
	}
	return out.Documents, nil
}

func (c *Client) CreateDocument(ctx context.Context, title string) (domain.DocumentSummary, error) {
	var out struct {
		Document domain.DocumentSummary `json:"document"`
	}
	err := c.do(ctx, http.MethodPost, "/document/new", map[string]string{"title": title}, &out)
	return out.Document, err
}

func (c *Client) GetDocument(ctx context.Context, id string) (RemoteDocument, error) {
	var out struct {
		Document RemoteDocument `json:"document"`
	}
	err := c.do(ctx, http.MethodGet, docPath(id), nil, &out)
	return out.Document, err
}

func (c *Client) UpdateTitle(ctx context.Context, id, title string) error {
	return c.do(ctx, http.MethodPut, docPath(id), map[string]string{"title": title}, nil)
}

type patchRequest struct {
	Patch        []patch.Operation `json:"patch"`
	BaseRevision *int64            `json:"baseRevision,omitempty"`
}

// SendPatches ships one batch. A nil baseRevision skips the server's
// revision check and the batch is applied last-write-wins.
func (c *Client) SendPatches(ctx context.Context, id string, ops []patch.Operation, baseRevision *int64) (Ack, error) {
	if ops == nil {
		ops = []patch.Operation{}
	}
	var ack Ack
	err := c.do(ctx, http.MethodPatch, docPath(id), patchRequest{Patch: ops, BaseRevision: baseRevision}, &ack)
	return ack, err
}

type commitRequest struct {
	Data  domain.Data `json:"data"`
	Image string      `json:"image"`
	Label string      `json:"label,omitempty"`
}

func (c *Client) Commit(ctx context.Context, id string, items domain.Items, image, label string) (domain.Version, error) {
	var out struct {
		Version domain.Version `json:"version"`
	}
	req := commitRequest{Data: domain.Data{Items: items}, Image: image, Label: label}
	err := c.do(ctx, http.MethodPost, docPath(id, "commit"), req, &out)
	return out.Version, err
}

func (c *Client) ListVersions(ctx context.Context, id string) ([]domain.Version, error) {
	var out struct {
		Versions []domain.Version `json:"versions"`
	}
	if err := c.do(ctx, http.MethodGet, docPath(id, "versions"), nil, &out); err != nil {
		return nil, err
	}
	return out.Versions, nil
}

func (c *Client) SwitchVersion(ctx context.Context, id, versionID string) (Snapshot, error) {
	var out Snapshot
	err := c.do(ctx, http.MethodPost, docPath(id, "versions", versionID, "switch"), nil, &out)
	return out, err
}
