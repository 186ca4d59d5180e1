package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/clinic-visit-server/internal/domain"
)

// RemoteRenderer delegates rendering to an external service over HTTP. Failures
// from the service come back as normalized errors so callers see the same error
// shape regardless of renderer mode. It implements domain.Renderer.
type RemoteRenderer struct {
	baseURL    string
	httpClient *http.Client
	rateLimit  *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     *logrus.Logger
}

// remoteErrorBody is the error shape the rendering service returns on non-2xx
// responses.
type remoteErrorBody struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable *bool  `json:"retryable,omitempty"`
}

// NewRemoteRenderer creates a renderer client for an external rendering
// service.
func NewRemoteRenderer(config domain.RendererConfig, logger *logrus.Logger) *RemoteRenderer {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	rateLimit := config.RateLimit
	if rateLimit == 0 {
		rateLimit = 10
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ReportRenderer",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &RemoteRenderer{
		baseURL:    config.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		rateLimit:  rate.NewLimiter(rate.Limit(rateLimit), 1),
		breaker:    breaker,
		logger:     logger,
	}
}

// Render posts the payload to the rendering service and returns its markup.
func (r *RemoteRenderer) Render(ctx context.Context, payload *domain.ReportPayload) (string, error) {
	if err := r.rateLimit.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait failed: %w", err)
	}

	result, err := r.breaker.Execute(func() (interface{}, error) {
		return r.post(ctx, payload)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return "", domain.Normalize(map[string]interface{}{
				"status":  http.StatusServiceUnavailable,
				"message": "rendering service unavailable",
			})
		}
		return "", err
	}

	return result.(string), nil
}

// post performs one render request. Non-2xx responses are normalized from the
// service's error body so status, code and retryable hints survive the trip.
func (r *RemoteRenderer) post(ctx context.Context, payload *domain.ReportPayload) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling render payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/render", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/html")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling rendering service: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading render response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		r.logger.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"url":    r.baseURL,
		}).Error("Rendering service returned an error")
		return "", r.normalizeFailure(resp.StatusCode, data)
	}

	return string(data), nil
}

func (r *RemoteRenderer) normalizeFailure(status int, body []byte) error {
	var remote remoteErrorBody
	if err := json.Unmarshal(body, &remote); err != nil || remote.Status == 0 {
		remote.Status = status
	}

	view := map[string]interface{}{
		"status":  remote.Status,
		"message": remote.Message,
	}
	if remote.Code != "" {
		view["code"] = remote.Code
	}
	if remote.Retryable != nil {
		view["retryable"] = *remote.Retryable
	}

	return domain.Normalize(view)
}
