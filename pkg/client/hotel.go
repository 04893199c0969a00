package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
	"staybook/pkg/model"
)

const internalTokenHeader = "X-Internal-Token"

// HotelConfig configures the outbound lock-manager client. Every attempt
// gets its own Timeout; retryable failures are retried up to MaxAttempts
// total with a fixed Backoff in between.
type HotelConfig struct {
	BaseURL       string
	InternalToken string
	Timeout       time.Duration
	MaxAttempts   int
	Backoff       time.Duration
}

// HotelClient wraps the lock manager's confirm/release/recommend RPCs.
// It fully owns retry and failure classification: callers only ever see a
// final AppError (conflict, non-retryable remote, or retryable remote).
// Duplicate delivery from retries is safe because the lock manager
// deduplicates by request_id.
type HotelClient struct {
	cfg        HotelConfig
	httpClient *http.Client
	log        *logger.Logger
}

func NewHotelClient(cfg HotelConfig, log *logger.Logger) *HotelClient {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &HotelClient{
		cfg: cfg,
		// The per-attempt deadline is applied via context; no client-wide
		// timeout so retries are not cut short.
		httpClient: &http.Client{},
		log:        log,
	}
}

func (c *HotelClient) ConfirmAvailability(ctx context.Context, roomID string, req *model.AvailabilityRequest) (*model.RoomLockResponse, error) {
	path := fmt.Sprintf("/api/v1/rooms/%s/confirm-availability", url.PathEscape(roomID))

	var out model.RoomLockResponse
	if err := c.callWithRetry(ctx, http.MethodPost, path, req, true, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HotelClient) Release(ctx context.Context, roomID string, req *model.AvailabilityRequest) (*model.RoomLockResponse, error) {
	path := fmt.Sprintf("/api/v1/rooms/%s/release", url.PathEscape(roomID))

	var out model.RoomLockResponse
	if err := c.callWithRetry(ctx, http.MethodPost, path, req, false, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HotelClient) RecommendRooms(ctx context.Context, startDate, endDate string) ([]model.RoomSummary, error) {
	q := url.Values{}
	q.Set("start_date", startDate)
	q.Set("end_date", endDate)
	path := "/api/v1/recommendations?" + q.Encode()

	var out []model.RoomSummary
	if err := c.callWithRetry(ctx, http.MethodGet, path, nil, false, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// callWithRetry runs one RPC with the configured retry budget. Conflicts and
// client-side rejections are surfaced immediately; server-side failures,
// timeouts, and transport errors are retried with a fixed backoff, and the
// last classified failure is returned once the budget is spent.
func (c *HotelClient) callWithRetry(ctx context.Context, method, path string, body any, conflictOn409 bool, out any) error {
	var lastErr *apperrors.AppError

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		err := c.call(ctx, method, path, body, conflictOn409, out)
		if err == nil {
			return nil
		}

		lastErr = apperrors.AsAppError(err)
		if !lastErr.Retryable || attempt == c.cfg.MaxAttempts {
			break
		}

		c.log.Warn("Hotel call failed, retrying",
			"method", method,
			"path", path,
			"attempt", attempt,
			"max_attempts", c.cfg.MaxAttempts,
			"error", lastErr.Message,
		)

		select {
		case <-ctx.Done():
			return apperrors.Remote("hotel service call cancelled", true)
		case <-time.After(c.cfg.Backoff):
		}
	}

	return lastErr
}

func (c *HotelClient) call(ctx context.Context, method, path string, body any, conflictOn409 bool, out any) error {
	attemptCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return apperrors.Internal("failed to marshal hotel request", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, c.cfg.BaseURL+path, reqBody)
	if err != nil {
		return apperrors.Internal("failed to build hotel request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.InternalToken != "" {
		req.Header.Set(internalTokenHeader, c.cfg.InternalToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || attemptCtx.Err() == context.DeadlineExceeded {
			return apperrors.Timeout("hotel service timed out")
		}
		return apperrors.Remote("hotel service unreachable", true)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.Remote("failed to read hotel response", true)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil {
			return nil
		}
		var wrapper struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(respBody, &wrapper); err != nil || wrapper.Data == nil {
			return apperrors.Remote("malformed hotel response", false)
		}
		if err := json.Unmarshal(wrapper.Data, out); err != nil {
			return apperrors.Remote("malformed hotel response", false)
		}
		return nil

	case resp.StatusCode == http.StatusConflict && conflictOn409:
		return apperrors.Conflict(remoteMessage(respBody, "room is already booked"))

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return apperrors.Remote(remoteMessage(respBody, "hotel service rejected request"), false)

	default:
		return apperrors.Remote(remoteMessage(respBody, "hotel service unavailable"), true)
	}
}

func remoteMessage(body []byte, fallback string) string {
	var errResp apperrors.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		return errResp.Message
	}
	return fallback
}
