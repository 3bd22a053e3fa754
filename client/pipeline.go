package client

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Doer sends an HTTP request. *http.Client implements it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// DoerFunc adapts a function to Doer.
type DoerFunc func(req *http.Request) (*http.Response, error)

func (f DoerFunc) Do(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Authenticated decorates next so that every request carries the session's
// access token. A 401 or 403 response causes one refresh through r and one
// replay of the request; the replayed response is returned whatever its status.
// If the pair changed while the request was in flight, the request is replayed
// with the current token without refreshing again.
//
// Requests with a body that cannot be rebuilt (GetBody is nil) are never
// replayed. When the refresh is rejected the session is ended and the error
// wraps ErrSessionExpired.
func Authenticated(next Doer, s *Session, r Refresher) Doer {
	return DoerFunc(func(req *http.Request) (*http.Response, error) {
		token, version := s.accessToken()
		resp, err := next.Do(withBearer(req, token))
		if err != nil || !rejected(resp.StatusCode) || !replayable(req) {
			return resp, err
		}
		discard(resp)

		if err := s.refresh(req.Context(), r, version); err != nil {
			if errors.Is(err, ErrNoRefreshToken) {
				return nil, fmt.Errorf("%w: %w", ErrSessionExpired, err)
			}
			return nil, err
		}

		retry := req.Clone(req.Context())
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("failed to rebuild request body: %w", err)
			}
			retry.Body = body
		}

		token, _ = s.accessToken()
		return next.Do(withBearer(retry, token))
	})
}

func rejected(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

func replayable(req *http.Request) bool {
	return req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
}

func withBearer(req *http.Request, token string) *http.Request {
	out := req.Clone(req.Context())
	if token == "" {
		out.Header.Del("Authorization")
	} else {
		out.Header.Set("Authorization", "Bearer "+token)
	}
	return out
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
