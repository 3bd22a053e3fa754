package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	domain "github.com/Rishi-0007/tm-assignment/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer accepts only requests bearing its current access token.
type fakeServer struct {
	mu       sync.Mutex
	valid    string
	status   int // status for rejected requests
	requests []string
	bodies   []string
}

func newFakeServer(valid string) *fakeServer {
	return &fakeServer{valid: valid, status: http.StatusForbidden}
}

func (f *fakeServer) Do(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		_ = req.Body.Close()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	auth := req.Header.Get("Authorization")
	f.requests = append(f.requests, auth)
	f.bodies = append(f.bodies, string(body))

	status := http.StatusOK
	if auth != "Bearer "+f.valid {
		status = f.status
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(`{}`)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

func (f *fakeServer) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

// countingRefresher hands out the given pair, or fails with err. With a gate
// it answers only once the gate is closed.
type countingRefresher struct {
	calls atomic.Int32
	pair  domain.TokenPair
	err   error
	delay time.Duration
	gate  chan struct{}
	seen  atomic.Value
}

func (r *countingRefresher) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	r.calls.Add(1)
	r.seen.Store(refreshToken)
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.gate != nil {
		select {
		case <-r.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.err != nil {
		return nil, r.err
	}
	pair := r.pair
	return &pair, nil
}

type doResult struct {
	resp *http.Response
	err  error
}

func doAsync(doer Doer, req *http.Request) <-chan doResult {
	done := make(chan doResult, 1)
	go func() {
		resp, err := doer.Do(req)
		done <- doResult{resp: resp, err: err}
	}()
	return done
}

func loggedInSession(t *testing.T, store TokenStore, opts ...SessionOption) *Session {
	t.Helper()
	s, err := NewSession(context.Background(), store, opts...)
	require.NoError(t, err)
	require.NoError(t, s.Begin(context.Background(), domain.TokenPair{AccessToken: "old-access", RefreshToken: "old-refresh"}))
	return s
}

func newGet(t *testing.T) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, "http://api.test/tasks", nil)
	require.NoError(t, err)
	return req
}

func TestAuthenticatedAttachesBearer(t *testing.T) {
	server := newFakeServer("old-access")
	refresher := &countingRefresher{}
	doer := Authenticated(server, loggedInSession(t, NewMemoryStore()), refresher)

	resp, err := doer.Do(newGet(t))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"Bearer old-access"}, server.requests)
	assert.Zero(t, refresher.calls.Load())
}

func TestAuthenticatedRefreshesAndReplays(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			store := NewMemoryStore()
			session := loggedInSession(t, store)
			server := newFakeServer("new-access")
			server.status = status
			refresher := &countingRefresher{pair: domain.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"}}
			doer := Authenticated(server, session, refresher)

			req, err := http.NewRequest(http.MethodPost, "http://api.test/tasks", bytes.NewReader([]byte(`{"title":"x"}`)))
			require.NoError(t, err)

			resp, err := doer.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, []string{"Bearer old-access", "Bearer new-access"}, server.requests)
			assert.Equal(t, []string{`{"title":"x"}`, `{"title":"x"}`}, server.bodies, "body is resent on replay")
			assert.Equal(t, int32(1), refresher.calls.Load())
			assert.Equal(t, "old-refresh", refresher.seen.Load())

			stored, err := store.Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, "new-refresh", stored.RefreshToken)
		})
	}
}

func TestAuthenticatedReplaysAtMostOnce(t *testing.T) {
	server := newFakeServer("never-valid")
	refresher := &countingRefresher{pair: domain.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"}}
	doer := Authenticated(server, loggedInSession(t, NewMemoryStore()), refresher)

	resp, err := doer.Do(newGet(t))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "replayed response is returned as is")
	assert.Equal(t, 2, server.calls())
	assert.Equal(t, int32(1), refresher.calls.Load())
}

func TestAuthenticatedRefreshFailureEndsSession(t *testing.T) {
	store := NewMemoryStore()
	logouts := 0
	session := loggedInSession(t, store, WithLogoutHook(func() { logouts++ }))
	server := newFakeServer("new-access")
	refresher := &countingRefresher{err: &APIError{Status: http.StatusForbidden, Code: "forbidden"}}
	doer := Authenticated(server, session, refresher)

	resp, err := doer.Do(newGet(t))
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, http.StatusForbidden, StatusOf(err), "cause is kept")

	assert.Equal(t, LoggedOut, session.State())
	assert.Equal(t, 1, logouts)
	stored, loadErr := store.Load(context.Background())
	require.NoError(t, loadErr)
	assert.Nil(t, stored)
	assert.Equal(t, 1, server.calls(), "nothing is replayed after a failed refresh")
}

func TestAuthenticatedWithoutSession(t *testing.T) {
	logouts := 0
	session, err := NewSession(context.Background(), NewMemoryStore(), WithLogoutHook(func() { logouts++ }))
	require.NoError(t, err)
	server := newFakeServer("anything")
	server.status = http.StatusUnauthorized
	refresher := &countingRefresher{}

	_, err = Authenticated(server, session, refresher).Do(newGet(t))
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.ErrorIs(t, err, ErrNoRefreshToken)
	assert.Equal(t, []string{""}, server.requests, "no Authorization header without a session")
	assert.Zero(t, refresher.calls.Load())
	assert.Zero(t, logouts)
}

func TestAuthenticatedDoesNotReplayOneShotBody(t *testing.T) {
	server := newFakeServer("new-access")
	refresher := &countingRefresher{pair: domain.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"}}
	doer := Authenticated(server, loggedInSession(t, NewMemoryStore()), refresher)

	req, err := http.NewRequest(http.MethodPost, "http://api.test/tasks", io.NopCloser(strings.NewReader("stream")))
	require.NoError(t, err)
	require.Nil(t, req.GetBody)

	resp, err := doer.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 1, server.calls())
	assert.Zero(t, refresher.calls.Load())
}

func TestAuthenticatedPassesTransportErrors(t *testing.T) {
	boom := errors.New("connection refused")
	failing := DoerFunc(func(*http.Request) (*http.Response, error) { return nil, boom })
	refresher := &countingRefresher{}

	_, err := Authenticated(failing, loggedInSession(t, NewMemoryStore()), refresher).Do(newGet(t))
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, refresher.calls.Load())
}

func TestAuthenticatedCancelledRefreshKeepsSession(t *testing.T) {
	session := loggedInSession(t, NewMemoryStore())
	server := newFakeServer("new-access")
	refresher := &countingRefresher{delay: time.Minute}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req := newGet(t).WithContext(ctx)

	_, err := Authenticated(server, session, refresher).Do(req)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, LoggedIn, session.State())
}

func TestAuthenticatedCoalescesConcurrentRefreshes(t *testing.T) {
	session := loggedInSession(t, NewMemoryStore())
	server := newFakeServer("new-access")
	server.status = http.StatusUnauthorized
	refresher := &countingRefresher{
		pair:  domain.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"},
		delay: 50 * time.Millisecond,
	}
	doer := Authenticated(server, session, refresher)

	const workers = 8
	var wg sync.WaitGroup
	statuses := make([]int, workers)
	errs := make([]error, workers)
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := doer.Do(newGet(t))
			if err != nil {
				errs[i] = err
				return
			}
			statuses[i] = resp.StatusCode
			resp.Body.Close()
		}()
	}
	wg.Wait()

	for i := range workers {
		require.NoError(t, errs[i])
		assert.Equal(t, http.StatusOK, statuses[i])
	}
	assert.Equal(t, int32(1), refresher.calls.Load(), "concurrent rejections share one refresh")
	assert.Equal(t, "new-refresh", session.Tokens().RefreshToken)
}

func TestAuthenticatedRejectedRefreshAfterLoginKeepsSession(t *testing.T) {
	store := NewMemoryStore()
	var logouts atomic.Int32
	session := loggedInSession(t, store, WithLogoutHook(func() { logouts.Add(1) }))
	server := newFakeServer("login-access")
	refresher := &countingRefresher{
		err:  &APIError{Status: http.StatusForbidden, Code: "forbidden"},
		gate: make(chan struct{}),
	}
	done := doAsync(Authenticated(server, session, refresher), newGet(t))

	require.Eventually(t, func() bool { return refresher.calls.Load() == 1 }, time.Second, time.Millisecond)
	login := domain.TokenPair{AccessToken: "login-access", RefreshToken: "login-refresh"}
	require.NoError(t, session.Begin(context.Background(), login))
	close(refresher.gate)

	res := <-done
	require.NoError(t, res.err)
	defer res.resp.Body.Close()

	assert.Equal(t, http.StatusOK, res.resp.StatusCode)
	assert.Equal(t, []string{"Bearer old-access", "Bearer login-access"}, server.requests, "replayed with the new login")
	assert.Equal(t, LoggedIn, session.State())
	assert.Equal(t, login, *session.Tokens())
	assert.Zero(t, logouts.Load())

	stored, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, login, *stored)
}

func TestAuthenticatedRejectedRefreshAfterLogout(t *testing.T) {
	var logouts atomic.Int32
	session := loggedInSession(t, NewMemoryStore(), WithLogoutHook(func() { logouts.Add(1) }))
	server := newFakeServer("new-access")
	refresher := &countingRefresher{
		err:  &APIError{Status: http.StatusForbidden, Code: "forbidden"},
		gate: make(chan struct{}),
	}
	done := doAsync(Authenticated(server, session, refresher), newGet(t))

	require.Eventually(t, func() bool { return refresher.calls.Load() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, session.End(context.Background()))
	close(refresher.gate)

	res := <-done
	assert.ErrorIs(t, res.err, ErrSessionExpired)
	assert.Equal(t, LoggedOut, session.State())
	assert.Equal(t, int32(1), logouts.Load(), "hook fires once, for the logout")
	assert.Equal(t, 1, server.calls())
}

func TestAuthenticatedRefreshOutlivesCancelledCaller(t *testing.T) {
	session := loggedInSession(t, NewMemoryStore())
	server := newFakeServer("new-access")
	server.status = http.StatusUnauthorized
	refresher := &countingRefresher{
		pair: domain.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"},
		gate: make(chan struct{}),
	}
	doer := Authenticated(server, session, refresher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	first := doAsync(doer, newGet(t).WithContext(ctx))
	require.Eventually(t, func() bool { return refresher.calls.Load() == 1 }, time.Second, time.Millisecond)

	second := doAsync(doer, newGet(t))
	require.Eventually(t, func() bool { return server.calls() == 2 }, time.Second, time.Millisecond)

	cancel()
	res := <-first
	assert.ErrorIs(t, res.err, context.Canceled)

	close(refresher.gate)
	res = <-second
	require.NoError(t, res.err)
	defer res.resp.Body.Close()

	assert.Equal(t, http.StatusOK, res.resp.StatusCode)
	assert.Equal(t, int32(1), refresher.calls.Load(), "the refresh is not restarted")
	assert.Equal(t, LoggedIn, session.State())
	assert.Equal(t, "new-refresh", session.Tokens().RefreshToken)
}
