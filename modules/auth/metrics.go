package auth

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var authMetrics = struct {
	Attempts     *prometheus.CounterVec
	TokensIssued prometheus.Counter
}{
	Attempts: promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "taskmanager", Subsystem: "auth", Name: "attempts_total",
		Help: "Auth operations by operation and outcome",
	}, []string{"op", "result"}),
	TokensIssued: promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "taskmanager", Subsystem: "auth", Name: "tokens_issued_total",
		Help: "Token pairs issued by login and refresh",
	}),
}

// observe records the outcome of an auth operation.
func observe(op string, err error) {
	authMetrics.Attempts.WithLabelValues(op, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	default:
		return "error"
	}
}
