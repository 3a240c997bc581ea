package bootstrap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authdomain "github.com/erdsync/erd-sync/internal/auth/domain"
	authservice "github.com/erdsync/erd-sync/internal/auth/service"
	"github.com/erdsync/erd-sync/internal/diagram/patch"
	"github.com/erdsync/erd-sync/internal/diagram/transport"
	"github.com/erdsync/erd-sync/internal/documents/domain"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]*authdomain.User
}

func (m *memUsers) Create(_ context.Context, u *authdomain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return authdomain.ErrEmailTaken
		}
	}
	u.ID = "user-" + u.FirstName
	u.Email = strings.ToLower(u.Email)
	m.users[u.ID] = u
	return nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*authdomain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, authdomain.ErrUserNotFound
}

func (m *memUsers) GetByID(_ context.Context, id string) (*authdomain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, authdomain.ErrUserNotFound
}

func (m *memUsers) RecordLogin(context.Context, string) error { return nil }

// stubDocuments accepts patches against a single in-memory revision counter.
type stubDocuments struct {
	mu       sync.Mutex
	owner    string
	revision int64
}

func (s *stubDocuments) Create(_ context.Context, ownerID, title string) (*domain.Document, error) {
	return &domain.Document{ID: "d1", OwnerID: ownerID, Title: title, Data: domain.EmptyData}, nil
}
func (s *stubDocuments) List(context.Context, string) ([]domain.Summary, error) {
	return []domain.Summary{}, nil
}
func (s *stubDocuments) Get(context.Context, string, string) (*domain.Document, error) {
	return nil, domain.ErrDocumentNotFound
}
func (s *stubDocuments) UpdateTitle(context.Context, string, string, string) error { return nil }
func (s *stubDocuments) ApplyPatch(_ context.Context, ownerID, _ string, _ []patch.Operation, base *int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owner = ownerID
	if base != nil && *base != s.revision {
		return 0, domain.ErrRevisionConflict
	}
	s.revision++
	return s.revision, nil
}
func (s *stubDocuments) Commit(context.Context, string, string, json.RawMessage, string, string) (*domain.Version, error) {
	return &domain.Version{ID: "v1"}, nil
}
func (s *stubDocuments) ListVersions(context.Context, string, string) ([]domain.Version, error) {
	return []domain.Version{}, nil
}
func (s *stubDocuments) SwitchVersion(context.Context, string, string, string) (json.RawMessage, int64, error) {
	return domain.EmptyData, 1, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *stubDocuments) {
	SetGinMode("test")
	authSvc := authservice.NewAuthService(&memUsers{users: map[string]*authdomain.User{}}, "test-secret", time.Hour)
	docs := &stubDocuments{}

	r := BuildRouter(RouterDeps{
		ServiceName: "erd-sync",
		Version:     "test",
		CORSOrigins: []string{"http://localhost:3000"},
		Log:         zerolog.Nop(),
		Auth:        authSvc,
		Tokens:      authSvc,
		Documents:   docs,
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, docs
}

func TestRouter_ClientSession(t *testing.T) {
	srv, docs := newTestServer(t)
	ctx := context.Background()
	client := transport.NewClient(srv.URL, transport.NewMemoryTokenStore(""))

	user, err := client.Signup(ctx, transport.SignupDetails{
		FirstName: "Ada", LastName: "Lovelace", Email: "Ada@Example.com", Password: "correct horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.NotEmpty(t, client.Tokens().Token())

	name, err := client.Verify(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ada", name)

	ops := []patch.Operation{{Op: patch.OpRemove, Path: "/items/0"}}
	ack, err := client.SendPatches(ctx, "d1", ops, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ack.Revision)
	assert.Equal(t, user.ID, docs.owner)

	stale := int64(0)
	_, err = client.SendPatches(ctx, "d1", ops, &stale)
	assert.ErrorIs(t, err, transport.ErrRemoteConflict)
	assert.NotEmpty(t, client.Tokens().Token(), "a conflict keeps the session")
}

func TestRouter_ExpiredSession(t *testing.T) {
	srv, _ := newTestServer(t)
	tokens := transport.NewMemoryTokenStore("forged.token.value")
	client := transport.NewClient(srv.URL, tokens)

	_, err := client.ListDocuments(context.Background())
	assert.ErrorIs(t, err, transport.ErrSessionExpired)
	assert.Empty(t, tokens.Token())
}

func TestRouter_HealthAndCORS(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/document/d1", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestSetGinMode(t *testing.T) {
	defer gin.SetMode(gin.TestMode)
	SetGinMode("production")
	assert.Equal(t, gin.ReleaseMode, gin.Mode())
}
