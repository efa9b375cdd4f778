package httpapi_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/eventstore/memoryengine"
	"github.com/AntonStoeckl/library-lending-go/lending/auth"
	"github.com/AntonStoeckl/library-lending-go/lending/catalog"
	"github.com/AntonStoeckl/library-lending-go/lending/circulation"
	"github.com/AntonStoeckl/library-lending-go/lending/httpapi"
	"github.com/AntonStoeckl/library-lending-go/lending/queries"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/core"
	"github.com/AntonStoeckl/library-lending-go/lending/shared/shell"
	"github.com/AntonStoeckl/library-lending-go/testutil/helper"
)

type testServer struct {
	app     *fiber.App
	tokens  auth.TokenIssuer
	users   *userDirectoryFake
	metrics *helper.MetricsCollectorSpy
}

func givenServer(t *testing.T) testServer {
	t.Helper()

	es := memoryengine.NewEventStore()
	locks := shell.NewBookLocks()
	users := newUserDirectoryFake()
	tokens := auth.NewTokenIssuer("http-test-secret", time.Hour)
	metrics := helper.NewMetricsCollectorSpy()

	app := httpapi.NewApp(httpapi.Dependencies{
		Catalog:     catalog.NewCommandHandler(es, catalog.WithLocks(locks)),
		Books:       catalog.NewStore(es, shell.Observer{}),
		Circulation: circulation.NewCommandHandler(es, circulation.WithLocks(locks)),
		Queries:     queries.NewFacade(es, users, shell.Observer{}),
		Users:       users,
		Tokens:      tokens,
		Metrics:     metrics,
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "# HELP lending_up\n")
		}),
	})

	return testServer{app: app, tokens: tokens, users: users, metrics: metrics}
}

func (s testServer) tokenFor(t *testing.T, role core.Role, username string) (string, core.User) {
	t.Helper()

	user, err := s.users.Create(context.Background(), username, "long enough", role)
	require.NoError(t, err)

	token, _, err := s.tokens.Issue(user)
	require.NoError(t, err)

	return token, user
}

type response struct {
	status int
	header http.Header
	body   map[string]any
	raw    string
}

func (s testServer) do(t *testing.T, method, path, token string, body any) response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := jsoniter.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	decoded := map[string]any{}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, jsoniter.Unmarshal(raw, &decoded))
	}

	return response{status: resp.StatusCode, header: resp.Header, body: decoded, raw: string(raw)}
}

func Test_Healthz(t *testing.T) {
	// arrange
	s := givenServer(t)

	// act
	resp := s.do(t, http.MethodGet, "/healthz", "", nil)

	// assert
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Equal(t, "ok", resp.raw)
	assert.NotEmpty(t, resp.header.Get("X-Request-ID"))
}

func Test_Metrics_ServesTheHandler(t *testing.T) {
	// arrange
	s := givenServer(t)

	// act
	resp := s.do(t, http.MethodGet, "/metrics", "", nil)

	// assert
	assert.Equal(t, http.StatusOK, resp.status)
	assert.Contains(t, resp.raw, "lending_up")
}

func Test_RequestID_IsEchoed(t *testing.T) {
	// arrange
	s := givenServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-42")

	// act
	resp, err := s.app.Test(req, -1)

	// assert
	require.NoError(t, err)
	assert.Equal(t, "req-42", resp.Header.Get("X-Request-ID"))
}

func Test_Credentials_AreCheckedBeforeAnyLendingLogic(t *testing.T) {
	s := givenServer(t)
	patronToken, _ := s.tokenFor(t, core.RolePatron, "pat")

	testCases := []struct {
		name        string
		method      string
		path        string
		token       string
		wantStatus  int
		wantMessage string
	}{
		{name: "missing_credential", method: http.MethodGet, path: "/api/books", wantStatus: 401, wantMessage: "missing credential"},
		{name: "invalid_credential", method: http.MethodGet, path: "/api/books", token: "garbage", wantStatus: 401, wantMessage: "invalid credential"},
		{name: "patron_adds_book", method: http.MethodPost, path: "/api/add-books", token: patronToken, wantStatus: 403, wantMessage: "insufficient role"},
		{name: "patron_updates_book", method: http.MethodPut, path: "/api/update-book/x", token: patronToken, wantStatus: 403, wantMessage: "insufficient role"},
		{name: "patron_deletes_book", method: http.MethodDelete, path: "/api/delete-book/x", token: patronToken, wantStatus: 403, wantMessage: "insufficient role"},
		{name: "anonymous_borrow", method: http.MethodPut, path: "/api/borrow-book/x", wantStatus: 401, wantMessage: "missing credential"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			resp := s.do(t, tc.method, tc.path, tc.token, map[string]string{"title": "T", "author": "A"})

			// assert
			assert.Equal(t, tc.wantStatus, resp.status)
			assert.Equal(t, "error", resp.body["status"])
			assert.EqualValues(t, tc.wantStatus, resp.body["code"])
			assert.Equal(t, tc.wantMessage, resp.body["message"])
		})
	}
}

func Test_LendingFlow(t *testing.T) {
	// arrange
	s := givenServer(t)
	adminToken, _ := s.tokenFor(t, core.RoleAdmin, "admin")
	patronToken, patron := s.tokenFor(t, core.RolePatron, "ada")

	// add
	added := s.do(t, http.MethodPost, "/api/add-books", adminToken, map[string]string{"title": "Dune", "author": "Herbert"})
	require.Equal(t, http.StatusCreated, added.status)
	bookID := added.body["book"].(map[string]any)["id"].(string)

	// update
	updated := s.do(t, http.MethodPut, "/api/update-book/"+bookID, adminToken, map[string]string{"title": "Dune Messiah"})
	require.Equal(t, http.StatusOK, updated.status)
	assert.Equal(t, "Dune Messiah", updated.body["book"].(map[string]any)["title"])
	assert.Equal(t, "Herbert", updated.body["book"].(map[string]any)["author"])

	// borrow
	borrowed := s.do(t, http.MethodPut, "/api/borrow-book/"+bookID, patronToken, nil)
	require.Equal(t, http.StatusOK, borrowed.status)
	transaction := borrowed.body["transaction"].(map[string]any)
	assert.Equal(t, "borrow", transaction["type"])
	assert.Equal(t, patron.ID, transaction["user"].(map[string]any)["id"])

	again := s.do(t, http.MethodPut, "/api/borrow-book/"+bookID, adminToken, nil)
	assert.Equal(t, http.StatusConflict, again.status)
	assert.Equal(t, "book is already borrowed", again.body["message"])

	available := s.do(t, http.MethodGet, "/api/books/available", patronToken, nil)
	assert.Empty(t, available.body["books"])

	mine := s.do(t, http.MethodGet, "/api/books/borrowed", patronToken, nil)
	require.Len(t, mine.body["books"], 1)
	assert.Equal(t, patron.ID, mine.body["books"].([]any)[0].(map[string]any)["borrowerId"])

	onLoan := s.do(t, http.MethodDelete, "/api/delete-book/"+bookID, adminToken, nil)
	assert.Equal(t, http.StatusConflict, onLoan.status)

	// return
	returned := s.do(t, http.MethodPut, "/api/return-book/"+bookID, patronToken, nil)
	require.Equal(t, http.StatusOK, returned.status)
	assert.Equal(t, "return", returned.body["transaction"].(map[string]any)["type"])

	history := s.do(t, http.MethodGet, "/api/transactions?order=oldest", adminToken, nil)
	require.Equal(t, http.StatusOK, history.status)
	require.Len(t, history.body["transactions"], 2)
	first := history.body["transactions"].([]any)[0].(map[string]any)
	assert.Equal(t, "borrow", first["type"])
	assert.Equal(t, "ada", first["user"].(map[string]any)["username"])

	// remove
	removed := s.do(t, http.MethodDelete, "/api/delete-book/"+bookID, adminToken, nil)
	require.Equal(t, http.StatusOK, removed.status)
	assert.Equal(t, "book removed", removed.body["message"])

	gone := s.do(t, http.MethodGet, "/api/books/"+bookID, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, gone.status)
	assert.Equal(t, "book not found", gone.body["message"])

	assert.Positive(t, s.metrics.CounterCount(httpapi.MetricHTTPRequests, map[string]string{"status": "409"}))
}

func Test_AddBook_RejectsInvalidInput(t *testing.T) {
	s := givenServer(t)
	adminToken, _ := s.tokenFor(t, core.RoleAdmin, "admin")

	testCases := []struct {
		name        string
		body        any
		wantMessage string
	}{
		{name: "missing_title", body: map[string]string{"author": "A"}, wantMessage: "title is required"},
		{name: "blank_author", body: map[string]string{"title": "T", "author": "   "}, wantMessage: "author must not be empty"},
		{name: "not_json", body: "just a string", wantMessage: "request body is not valid JSON"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			resp := s.do(t, http.MethodPost, "/api/add-books", adminToken, tc.body)

			// assert
			assert.Equal(t, http.StatusBadRequest, resp.status)
			assert.Equal(t, tc.wantMessage, resp.body["message"])
		})
	}
}

func Test_Transactions_PatronSeesOnlyOwnHistory(t *testing.T) {
	// arrange
	s := givenServer(t)
	adminToken, _ := s.tokenFor(t, core.RoleAdmin, "admin")
	adaToken, ada := s.tokenFor(t, core.RolePatron, "ada")
	graceToken, grace := s.tokenFor(t, core.RolePatron, "grace")

	for _, token := range []string{adaToken, graceToken} {
		added := s.do(t, http.MethodPost, "/api/add-books", adminToken, map[string]string{"title": "T", "author": "A"})
		require.Equal(t, http.StatusCreated, added.status)
		bookID := added.body["book"].(map[string]any)["id"].(string)
		require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, "/api/borrow-book/"+bookID, token, nil).status)
	}

	// act
	own := s.do(t, http.MethodGet, "/api/transactions", adaToken, nil)
	foreign := s.do(t, http.MethodGet, "/api/transactions?userId="+grace.ID, adaToken, nil)
	all := s.do(t, http.MethodGet, "/api/transactions", adminToken, nil)
	invalid := s.do(t, http.MethodGet, "/api/transactions?from=yesterday", adminToken, nil)
	badType := s.do(t, http.MethodGet, "/api/transactions?type=lost", adminToken, nil)

	// assert
	require.Equal(t, http.StatusOK, own.status)
	require.Len(t, own.body["transactions"], 1)
	assert.Equal(t, ada.ID, own.body["transactions"].([]any)[0].(map[string]any)["user"].(map[string]any)["id"])
	assert.Equal(t, http.StatusForbidden, foreign.status)
	assert.Len(t, all.body["transactions"], 2)
	assert.Equal(t, http.StatusBadRequest, invalid.status)
	assert.Equal(t, http.StatusBadRequest, badType.status)
}

func Test_SignupAndLogin(t *testing.T) {
	// arrange
	s := givenServer(t)

	// act
	signup := s.do(t, http.MethodPost, "/auth/signup", "", map[string]string{"username": "ada", "password": "long enough"})
	duplicate := s.do(t, http.MethodPost, "/auth/signup", "", map[string]string{"username": "ada", "password": "long enough"})
	weak := s.do(t, http.MethodPost, "/auth/signup", "", map[string]string{"username": "bob", "password": "short"})
	login := s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "ada", "password": "long enough"})
	wrong := s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "ada", "password": "wrong password"})

	// assert
	require.Equal(t, http.StatusCreated, signup.status)
	assert.Equal(t, core.RolePatron, signup.body["user"].(map[string]any)["role"])
	assert.Equal(t, http.StatusConflict, duplicate.status)
	assert.Equal(t, http.StatusBadRequest, weak.status)
	require.Equal(t, http.StatusOK, login.status)
	assert.Equal(t, core.RolePatron, login.body["role"])
	assert.Equal(t, http.StatusUnauthorized, wrong.status)

	books := s.do(t, http.MethodGet, "/api/books", login.body["token"].(string), nil)
	assert.Equal(t, http.StatusOK, books.status)
}

func Test_UnknownRoute(t *testing.T) {
	// arrange
	s := givenServer(t)

	// act
	resp := s.do(t, http.MethodGet, "/nope", "", nil)

	// assert
	assert.Equal(t, http.StatusNotFound, resp.status)
	assert.Equal(t, "error", resp.body["status"])
}

// userDirectoryFake keeps users in memory with plain text passwords.
type userDirectoryFake struct {
	mu        sync.Mutex
	users     map[string]core.User
	passwords map[string]string
}

func newUserDirectoryFake() *userDirectoryFake {
	return &userDirectoryFake{users: map[string]core.User{}, passwords: map[string]string{}}
}

func (f *userDirectoryFake) Create(_ context.Context, username string, password string, role core.Role) (core.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(password) < 8 {
		return core.User{}, core.ErrWeakPassword
	}

	if _, taken := f.users[username]; taken {
		return core.User{}, core.ErrUsernameTaken
	}

	user := core.User{ID: shell.NewID().String(), Username: username, Role: role}
	f.users[username] = user
	f.passwords[username] = password

	return user, nil
}

func (f *userDirectoryFake) Authenticate(_ context.Context, username string, password string) (core.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.passwords[username] != password || password == "" {
		return core.User{}, core.ErrInvalidCredential
	}

	return f.users[username], nil
}

func (f *userDirectoryFake) UsernamesByID(_ context.Context, userIDs []core.UserIDString) (map[core.UserIDString]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	usernames := map[core.UserIDString]string{}
	for _, user := range f.users {
		for _, id := range userIDs {
			if user.ID == id {
				usernames[id] = user.Username
			}
		}
	}

	return usernames, nil
}
