package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erdsync/erd-sync/internal/diagram/domain"
	"github.com/erdsync/erd-sync/internal/diagram/patch"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *MemoryTokenStore) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	tokens := NewMemoryTokenStore("tok")
	return NewClient(srv.URL, tokens), tokens
}

func TestSendPatches_WireFormat(t *testing.T) {
	var gotBody map[string]any
	var gotAuth, gotMethod, gotPath string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotMethod = r.Method
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &gotBody)
		_, _ = w.Write([]byte(`{"revision":8}`))
	})

	base := int64(7)
	ops := []patch.Operation{
		{Op: patch.OpReplace, Path: "/items/0/item/bold", Value: false},
		{Op: patch.OpRemove, Path: "/items/1"},
	}
	ack, err := c.SendPatches(context.Background(), "doc-1", ops, &base)
	require.NoError(t, err)
	assert.Equal(t, int64(8), ack.Revision)

	assert.Equal(t, "Bearer tok", gotAuth)
	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/document/doc-1", gotPath)
	assert.Equal(t, 7.0, gotBody["baseRevision"])
	assert.Equal(t, []any{
		map[string]any{"op": "replace", "path": "/items/0/item/bold", "value": false},
		map[string]any{"op": "remove", "path": "/items/1"},
	}, gotBody["patch"])
}

func TestSendPatches_OmitsMissingBaseRevision(t *testing.T) {
	var gotBody map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"revision":1}`))
	})

	_, err := c.SendPatches(context.Background(), "d", nil, nil)
	require.NoError(t, err)
	_, present := gotBody["baseRevision"]
	assert.False(t, present)
	assert.Equal(t, []any{}, gotBody["patch"])
}

func TestClient_UnauthorizedClearsToken(t *testing.T) {
	c, tokens := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"jwt expired"}`))
	})

	_, err := c.GetDocument(context.Background(), "d")
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, "", tokens.Token())
}

func TestClient_ConflictMapsToRemoteConflict(t *testing.T) {
	c, tokens := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"revision 3 is stale"}`))
	})

	base := int64(3)
	_, err := c.SendPatches(context.Background(), "d", nil, &base)
	assert.ErrorIs(t, err, ErrRemoteConflict)
	assert.Contains(t, err.Error(), "revision 3 is stale")
	assert.Equal(t, "tok", tokens.Token())
}

func TestClient_OtherStatusIsTransportError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"document not found"}`))
	})

	_, err := c.ListVersions(context.Background(), "d")
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusNotFound, te.StatusCode)
	assert.Equal(t, "document not found", te.Message)
}

func TestClient_NetworkFailureIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, nil)
	_, err := c.ListDocuments(context.Background())
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Zero(t, te.StatusCode)
	assert.Contains(t, err.Error(), "unable to communicate with the server")
}

func TestGetDocument_DecodesItems(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"document":{"id":"d","title":"Library","revision":4,
			"data":{"items":[{"type":"entity","item":{"id":"e1","x":100,"y":200}}]}}}`))
	})

	doc, err := c.GetDocument(context.Background(), "d")
	require.NoError(t, err)
	assert.Equal(t, "Library", doc.Title)
	assert.Equal(t, int64(4), doc.Revision)
	require.Len(t, doc.Data.Items, 1)
	assert.Equal(t, domain.KindEntity, doc.Data.Items[0].Kind())
}

func TestCommitAndSwitchVersion(t *testing.T) {
	var commitBody map[string]any
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/document/d/commit":
			_ = json.NewDecoder(r.Body).Decode(&commitBody)
			_, _ = w.Write([]byte(`{"version":{"id":"v1","image":"data:png","label":"first","updatedAt":"2024-01-02T03:04:05Z"}}`))
		case "/document/d/versions/v1/switch":
			assert.Equal(t, http.MethodPost, r.Method)
			_, _ = w.Write([]byte(`{"data":{"items":[]},"revision":9}`))
		default:
			http.NotFound(w, r)
		}
	})

	items := domain.Items{domain.NewItem(domain.NewText("t", 1, 1, "hi"))}
	v, err := c.Commit(context.Background(), "d", items, "data:png", "first")
	require.NoError(t, err)
	assert.Equal(t, "v1", v.ID)
	assert.Equal(t, "first", v.Label)
	assert.Equal(t, "data:png", commitBody["image"])
	assert.Len(t, commitBody["data"].(map[string]any)["items"], 1)

	snap, err := c.SwitchVersion(context.Background(), "d", "v1")
	require.NoError(t, err)
	assert.Equal(t, int64(9), snap.Revision)
	assert.Empty(t, snap.Data.Items)
}

func TestSignin_StoresToken(t *testing.T) {
	c, tokens := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		_, _ = w.Write([]byte(`{"user":{"id":"u1","firstName":"Ada"},"token":"fresh"}`))
	})

	u, err := c.Signin(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.FirstName)
	assert.Equal(t, "fresh", tokens.Token())
}

func TestVerify_WithoutTokenSendsBareBearer(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, NewMemoryTokenStore(""))
	_, err := c.Verify(context.Background())
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, "Bearer", auth)
}

func TestFileTokenStore(t *testing.T) {
	s := NewFileTokenStore(filepath.Join(t.TempDir(), "session", "token"))
	assert.Equal(t, "", s.Token())

	require.NoError(t, s.SetToken("abc"))
	assert.Equal(t, "abc", s.Token())

	require.NoError(t, s.Clear())
	assert.Equal(t, "", s.Token())
	require.NoError(t, s.Clear())
}
