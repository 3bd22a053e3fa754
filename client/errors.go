package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	// ErrSessionExpired is returned when a rejected request could not be
	// recovered by refreshing the session. The session has been cleared.
	ErrSessionExpired = errors.New("session expired")
	// ErrNoRefreshToken is returned when a refresh is needed but no session is held.
	ErrNoRefreshToken = errors.New("no refresh token available")
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d %s", e.Status, e.Code)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// decodeError reads the JSON error body of resp. Bodies that are not JSON
// still produce an APIError carrying the status.
func decodeError(resp *http.Response) error {
	apiErr := &APIError{
		Status: resp.StatusCode,
		Code:   http.StatusText(resp.StatusCode),
	}

	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Error != "" {
			apiErr.Code = body.Error
		}
		apiErr.Message = body.Message
	}
	return apiErr
}

// StatusOf returns the HTTP status carried by err, or 0 if there is none.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
