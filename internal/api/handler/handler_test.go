package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"msgboard/internal/api"
	"msgboard/internal/app/service"
	"msgboard/internal/common"
	"msgboard/internal/common/security"
	"msgboard/internal/domain/model"
	"msgboard/internal/platform/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	config.Load()
	security.InitCSRF()
	m.Run()
}

// --- fakes ---

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]model.User{}}
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.users[user.Username]; exists {
		return fmt.Errorf("user already exists: %w", common.ErrConflict)
	}
	f.users[user.Username] = *user
	return nil
}

func (f *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[username]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &user, nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []model.Message
}

func (f *fakeMessageRepo) GetAll(ctx context.Context) ([]model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Message, len(f.messages))
	copy(out, f.messages)
	return out, nil
}

func (f *fakeMessageRepo) Create(ctx context.Context, m *model.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m.Seq = int64(len(f.messages) + 1)
	f.messages = append(f.messages, *m)
	return nil
}

func (f *fakeMessageRepo) FindByKey(ctx context.Context, key string) (*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.Key == key {
			found := m
			return &found, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *fakeMessageRepo) DeleteByKey(ctx context.Context, key, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, m := range f.messages {
		if m.Key == key && m.Username == username {
			f.messages = append(f.messages[:i], f.messages[i+1:]...)
			return nil
		}
	}
	return common.ErrNotFound
}

type memSessionStore struct {
	mu       sync.Mutex
	sessions map[string]model.CurrentUser
	next     int
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: map[string]model.CurrentUser{}}
}

func (s *memSessionStore) Create(ctx context.Context, user model.CurrentUser) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	id := fmt.Sprintf("sess-%d", s.next)
	s.sessions[id] = user
	return id, nil
}

func (s *memSessionStore) Get(ctx context.Context, id string) (*model.CurrentUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.sessions[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &user, nil
}

func (s *memSessionStore) Destroy(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// --- harness ---

type env struct {
	router   http.Handler
	users    *fakeUserRepo
	messages *fakeMessageRepo
	sessions *memSessionStore
}

func newEnv(t *testing.T, enforceCSRF bool) *env {
	t.Helper()
	users := newFakeUserRepo()
	messages := &fakeMessageRepo{}
	sessions := newMemSessionStore()

	router := api.NewRouter(
		service.NewAuthService(users),
		service.NewBoardService(messages),
		sessions,
		time.Hour,
		enforceCSRF,
	)
	return &env{router: router, users: users, messages: messages, sessions: sessions}
}

func (e *env) postForm(t *testing.T, path string, form url.Values, sessionID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: "session_id", Value: sessionID})
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *env) get(t *testing.T, path, sessionID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if sessionID != "" {
		req.AddCookie(&http.Cookie{Name: "session_id", Value: sessionID})
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *env) loginAs(t *testing.T, username, password string) string {
	t.Helper()
	rec := e.postForm(t, "/login", url.Values{"username": {username}, "password": {password}}, "")
	require.Equal(t, http.StatusFound, rec.Code)
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "session_id" {
			return cookie.Value
		}
	}
	t.Fatal("login did not set a session cookie")
	return ""
}

func (e *env) signupAndLogin(t *testing.T, username, password string) string {
	t.Helper()
	rec := e.postForm(t, "/signup", url.Values{"username": {username}, "password": {password}}, "")
	require.Equal(t, http.StatusFound, rec.Code)
	return e.loginAs(t, username, password)
}

// --- tests ---

func TestSignup(t *testing.T) {
	e := newEnv(t, false)

	rec := e.postForm(t, "/signup", url.Values{"username": {"alice"}, "password": {"Secret123"}}, "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	stored, ok := e.users.users["alice"]
	require.True(t, ok)
	assert.NotEqual(t, "Secret123", stored.HashedPassword)
}

func TestSignup_ShortUsernameRejected(t *testing.T) {
	e := newEnv(t, false)

	rec := e.postForm(t, "/signup", url.Values{"username": {"a"}, "password": {"Secret123"}}, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "invalid credentials", rec.Body.String())
	assert.Empty(t, e.users.users, "user store must be unchanged")
}

func TestSignup_DuplicateRejected(t *testing.T) {
	e := newEnv(t, false)

	rec := e.postForm(t, "/signup", url.Values{"username": {"alice"}, "password": {"Secret123"}}, "")
	require.Equal(t, http.StatusFound, rec.Code)
	originalHash := e.users.users["alice"].HashedPassword

	rec = e.postForm(t, "/signup", url.Values{"username": {"alice"}, "password": {"Another456"}}, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "invalid credentials", rec.Body.String())
	assert.Equal(t, originalHash, e.users.users["alice"].HashedPassword)
}

func TestLogin(t *testing.T) {
	e := newEnv(t, false)

	sessionID := e.signupAndLogin(t, "alice", "Secret123")

	current, err := e.sessions.Get(context.Background(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, "alice", current.Username)
}

func TestLogin_WrongPassword(t *testing.T) {
	e := newEnv(t, false)

	rec := e.postForm(t, "/signup", url.Values{"username": {"alice"}, "password": {"Secret123"}}, "")
	require.Equal(t, http.StatusFound, rec.Code)

	rec = e.postForm(t, "/login", url.Values{"username": {"alice"}, "password": {"Wrong1234"}}, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "invalid credentials", rec.Body.String())
	assert.Empty(t, e.sessions.sessions)
}

func TestLogin_UnknownUser(t *testing.T) {
	e := newEnv(t, false)

	rec := e.postForm(t, "/login", url.Values{"username": {"nobody"}, "password": {"Secret123"}}, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "invalid credentials", rec.Body.String())
}

func TestLogout(t *testing.T) {
	e := newEnv(t, false)
	sessionID := e.signupAndLogin(t, "alice", "Secret123")

	rec := e.postForm(t, "/logout", url.Values{}, sessionID)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Empty(t, e.sessions.sessions, "session must be destroyed")

	// The stale cookie no longer authenticates.
	rec = e.postForm(t, "/messages", url.Values{"message": {"hello"}}, sessionID)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Empty(t, e.messages.messages)
}

func TestPostMessage(t *testing.T) {
	e := newEnv(t, false)
	sessionID := e.signupAndLogin(t, "alice", "Secret123")

	rec := e.postForm(t, "/messages", url.Values{"message": {"hello"}}, sessionID)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	require.Len(t, e.messages.messages, 1)
	assert.Equal(t, "alice", e.messages.messages[0].Username)
	assert.Equal(t, "hello", e.messages.messages[0].Value)
}

func TestPostMessage_Anonymous(t *testing.T) {
	e := newEnv(t, false)

	rec := e.postForm(t, "/messages", url.Values{"message": {"hello"}}, "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Empty(t, e.messages.messages)
}

func TestPostMessage_TooShort(t *testing.T) {
	e := newEnv(t, false)
	sessionID := e.signupAndLogin(t, "alice", "Secret123")

	rec := e.postForm(t, "/messages", url.Values{"message": {"a"}}, sessionID)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "invalid message", rec.Body.String())
	assert.Empty(t, e.messages.messages)
}

func TestListMessages(t *testing.T) {
	e := newEnv(t, false)
	sessionID := e.signupAndLogin(t, "alice", "Secret123")

	rec := e.postForm(t, "/messages", url.Values{"message": {"hello"}}, sessionID)
	require.Equal(t, http.StatusFound, rec.Code)

	rec = e.get(t, "/messages/list", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Messages []model.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "alice", resp.Messages[0].Username)
	assert.Equal(t, "hello", resp.Messages[0].Value)
	assert.NotEmpty(t, resp.Messages[0].Key)

	// The password hash never appears anywhere in the payload.
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestDeleteMessage(t *testing.T) {
	e := newEnv(t, false)
	sessionID := e.signupAndLogin(t, "alice", "Secret123")

	rec := e.postForm(t, "/messages", url.Values{"message": {"hello"}}, sessionID)
	require.Equal(t, http.StatusFound, rec.Code)
	key := e.messages.messages[0].Key

	rec = e.postForm(t, "/messages/delete", url.Values{"key": {key}}, sessionID)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Empty(t, e.messages.messages)
}

func TestDeleteMessage_OtherUserDenied(t *testing.T) {
	e := newEnv(t, false)
	aliceSession := e.signupAndLogin(t, "alice", "Secret123")
	bobSession := e.signupAndLogin(t, "bob", "Secret456")

	rec := e.postForm(t, "/messages", url.Values{"message": {"hello"}}, aliceSession)
	require.Equal(t, http.StatusFound, rec.Code)
	key := e.messages.messages[0].Key

	rec = e.postForm(t, "/messages/delete", url.Values{"key": {key}}, bobSession)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "wrong credentials", rec.Body.String())
	assert.Len(t, e.messages.messages, 1, "message list must be unchanged")
}

func TestDeleteMessage_UnknownKey(t *testing.T) {
	e := newEnv(t, false)
	sessionID := e.signupAndLogin(t, "alice", "Secret123")

	rec := e.postForm(t, "/messages/delete", url.Values{"key": {"no-such-key"}}, sessionID)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "error delete", rec.Body.String())
}

func TestHomePage(t *testing.T) {
	e := newEnv(t, false)
	sessionID := e.signupAndLogin(t, "alice", "Secret123")

	rec := e.postForm(t, "/messages", url.Values{"message": {"hello"}}, sessionID)
	require.Equal(t, http.StatusFound, rec.Code)

	rec = e.get(t, "/", sessionID)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "alice")
	assert.Contains(t, body, "hello")
	assert.Contains(t, body, `name="_csrf"`)
}

func TestHomePage_Anonymous(t *testing.T) {
	e := newEnv(t, false)

	rec := e.get(t, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `action="/login"`)
	assert.Contains(t, body, `action="/signup"`)
	assert.NotContains(t, body, `action="/messages"`)
}

func TestPostMessage_CSRFEnforced(t *testing.T) {
	e := newEnv(t, true)
	sessionID := e.signupAndLogin(t, "alice", "Secret123")

	// Without a token the post is denied with a generic redirect.
	rec := e.postForm(t, "/messages", url.Values{"message": {"hello"}}, sessionID)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Empty(t, e.messages.messages)

	token, err := security.GenerateCSRFToken(sessionID)
	require.NoError(t, err)

	rec = e.postForm(t, "/messages", url.Values{"message": {"hello"}, "_csrf": {token}}, sessionID)
	assert.Equal(t, http.StatusFound, rec.Code)
	require.Len(t, e.messages.messages, 1)
	assert.Equal(t, "hello", e.messages.messages[0].Value)
}

func TestPostMessage_CSRFWrongSessionRejected(t *testing.T) {
	e := newEnv(t, true)
	aliceSession := e.signupAndLogin(t, "alice", "Secret123")
	bobSession := e.signupAndLogin(t, "bob", "Secret456")

	token, err := security.GenerateCSRFToken(aliceSession)
	require.NoError(t, err)

	rec := e.postForm(t, "/messages", url.Values{"message": {"hello"}, "_csrf": {token}}, bobSession)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Empty(t, e.messages.messages)
}
