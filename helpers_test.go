package authplane

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/kestrelsec/authplane/internal/audit"
	"github.com/kestrelsec/authplane/session"
	"github.com/kestrelsec/authplane/token"
)

// memSessionStore is an in-memory session.Store with a switchable
// outage mode.
type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]session.Session
	down     bool
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[string]session.Session)}
}

func (s *memSessionStore) setDown(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = down
}

func (s *memSessionStore) Create(_ context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return session.ErrStoreUnavailable
	}
	s.sessions[sess.SessionID] = *sess
	return nil
}

func (s *memSessionStore) FindByID(_ context.Context, id string) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return nil, session.ErrStoreUnavailable
	}
	sess, ok := s.sessions[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	return &sess, nil
}

func (s *memSessionStore) MarkInactive(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return session.ErrStoreUnavailable
	}
	sess, ok := s.sessions[id]
	if !ok {
		return session.ErrNotFound
	}
	sess.Active = false
	s.sessions[id] = sess
	return nil
}

func (s *memSessionStore) ActiveIDsForUser(_ context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return nil, session.ErrStoreUnavailable
	}
	var ids []string
	for id, sess := range s.sessions {
		if sess.UserID == userID && sess.Active {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *memSessionStore) MarkAllInactiveForUser(_ context.Context, userID, exceptID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return 0, session.ErrStoreUnavailable
	}
	var n int64
	for id, sess := range s.sessions {
		if sess.UserID == userID && sess.Active && id != exceptID {
			sess.Active = false
			s.sessions[id] = sess
			n++
		}
	}
	return n, nil
}

// memRefreshStore is an in-memory token.RefreshStore.
type memRefreshStore struct {
	mu      sync.Mutex
	records map[string]token.RefreshRecord
	down    bool
}

func newMemRefreshStore() *memRefreshStore {
	return &memRefreshStore{records: make(map[string]token.RefreshRecord)}
}

func (s *memRefreshStore) setDown(down bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.down = down
}

func (s *memRefreshStore) Create(_ context.Context, rec *token.RefreshRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return token.ErrRefreshStoreUnavailable
	}
	s.records[rec.TokenID] = *rec
	return nil
}

func (s *memRefreshStore) FindByTokenID(_ context.Context, id string) (*token.RefreshRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return nil, token.ErrRefreshStoreUnavailable
	}
	rec, ok := s.records[id]
	if !ok {
		return nil, token.ErrRecordNotFound
	}
	return &rec, nil
}

func (s *memRefreshStore) Revoke(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return false, token.ErrRefreshStoreUnavailable
	}
	rec, ok := s.records[id]
	if !ok || rec.Revoked {
		return false, nil
	}
	rec.Revoked = true
	s.records[id] = rec
	return true, nil
}

func (s *memRefreshStore) RevokeAllForUser(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return 0, token.ErrRefreshStoreUnavailable
	}
	var n int64
	for id, rec := range s.records {
		if rec.UserID == userID && !rec.Revoked {
			rec.Revoked = true
			s.records[id] = rec
			n++
		}
	}
	return n, nil
}

// memPrincipals is an in-memory PrincipalDirectory.
type memPrincipals struct {
	mu   sync.Mutex
	byID map[string]Principal
	down bool
}

func newMemPrincipals(principals ...Principal) *memPrincipals {
	m := &memPrincipals{byID: make(map[string]Principal)}
	for _, p := range principals {
		m.byID[p.ID] = p
	}
	return m
}

func (m *memPrincipals) setDown(down bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.down = down
}

func (m *memPrincipals) setActive(id string, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.byID[id]
	p.Active = active
	m.byID[id] = p
}

func (m *memPrincipals) FindByID(_ context.Context, id string) (Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return Principal{}, errors.New("directory down")
	}
	p, ok := m.byID[id]
	if !ok {
		return Principal{}, ErrPrincipalNotFound
	}
	return p, nil
}

func (m *memPrincipals) FindByIdentifier(_ context.Context, identifier string) (Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return Principal{}, errors.New("directory down")
	}
	for _, p := range m.byID {
		if p.Email == identifier || p.Username == identifier {
			return p, nil
		}
	}
	return Principal{}, ErrPrincipalNotFound
}

// plainVerifier matches hashes of the form "pw:<plaintext>". An empty
// hash never matches, mirroring the production dummy-compare contract.
type plainVerifier struct{}

func (plainVerifier) Compare(hash, plaintext string) (bool, error) {
	if hash == "" {
		return false, nil
	}
	return strings.TrimPrefix(hash, "pw:") == plaintext, nil
}

type testFixture struct {
	engine     *Engine
	mr         *miniredis.Miniredis
	sessions   *memSessionStore
	refreshes  *memRefreshStore
	principals *memPrincipals
	sink       *audit.ChannelSink
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Token.AccessSecret = []byte(strings.Repeat("a", 32))
	cfg.Token.RefreshSecret = []byte(strings.Repeat("r", 32))
	cfg.Token.Issuer = "authplane-test"
	cfg.Token.Leeway = 0
	return cfg
}

func newTestEngine(t *testing.T, cfg Config) *testFixture {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	f := &testFixture{
		mr:        mr,
		sessions:  newMemSessionStore(),
		refreshes: newMemRefreshStore(),
		principals: newMemPrincipals(
			Principal{ID: "user-1", Email: "alice@example.com", Username: "alice", PasswordHash: "pw:hunter2", Active: true},
			Principal{ID: "user-2", Email: "bob@example.com", Username: "bob", PasswordHash: "pw:swordfish", Active: false},
		),
		sink: audit.NewChannelSink(64),
	}

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithSessionStore(f.sessions).
		WithRefreshStore(f.refreshes).
		WithPrincipals(f.principals).
		WithPasswordVerifier(plainVerifier{}).
		WithAuditSink(f.sink).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	f.engine = engine
	return f
}

func mustLogin(t *testing.T, f *testFixture) *TokenPair {
	t.Helper()
	pair, err := f.engine.Login(context.Background(), "alice@example.com", "hunter2")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	return pair
}

// waitForAudit drains the sink until an event with the given action
// arrives or the deadline passes.
func waitForAudit(t *testing.T, sink *audit.ChannelSink, action string) audit.Event {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case ev := <-sink.Events():
			if ev.Action == action {
				return ev
			}
		case <-deadline:
			t.Fatalf("no %q audit event", action)
		}
	}
}
