package backend

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"hotel_frontdesk/internal/adapters/observability"
	"hotel_frontdesk/internal/domain"
)

// Client talks to a remote property-management API and implements
// domain.Backend. It is the single place where the remote payload shapes
// (which tolerate both snake_case and camelCase field names) are normalized
// into the canonical domain types; nothing dual-named crosses this boundary.
type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps int) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// ---- domain.Backend ----

func (c *Client) ListRoomsByFloor(ctx context.Context) (map[int][]domain.Room, error) {
	var dtos []roomDTO
	if err := c.do(ctx, http.MethodGet, "/rooms", nil, &dtos); err != nil {
		return nil, err
	}
	out := make(map[int][]domain.Room)
	for _, d := range dtos {
		r := d.toDomain()
		out[r.Floor()] = append(out[r.Floor()], r)
	}
	return out, nil
}

func (c *Client) ListSnackCategories(ctx context.Context) ([]domain.SnackCategory, error) {
	var dtos []categoryDTO
	if err := c.do(ctx, http.MethodGet, "/snacks/categories", nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]domain.SnackCategory, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (c *Client) ListSnackItems(ctx context.Context) ([]domain.SnackItem, error) {
	var dtos []snackDTO
	if err := c.do(ctx, http.MethodGet, "/snacks", nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]domain.SnackItem, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (c *Client) RoomRateForFloor(ctx context.Context, floor int) (float64, error) {
	var dto rateDTO
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/floors/%d/rate", floor), nil, &dto); err != nil {
		return 0, err
	}
	return dto.value(), nil
}

func (c *Client) SubmitCheckIn(ctx context.Context, draft domain.StayDraft, guest domain.Guest, snacks []domain.SnackLine) (domain.Stay, error) {
	body := checkInRequest{
		RoomID:     draft.RoomID,
		RoomNumber: draft.RoomNumber,
		RoomPrice:  draft.RoomPrice,
		Guest: guestPayload{
			FullName:       guest.FullName,
			DocumentType:   guest.DocumentType,
			DocumentNumber: guest.DocumentNumber,
			Phone:          guest.Phone,
			Email:          guest.Email,
		},
		Snacks: snackLinePayloads(snacks),
	}
	var dto stayDTO
	if err := c.do(ctx, http.MethodPost, "/stays", body, &dto); err != nil {
		if isConflict(err) {
			return domain.Stay{}, fmt.Errorf("%w: %s", domain.ErrRoomNotBookable, errDetail(err))
		}
		return domain.Stay{}, err
	}
	return dto.toDomain(), nil
}

func (c *Client) AddStayExtras(ctx context.Context, stayID string, snacks []domain.SnackLine) (domain.Stay, error) {
	body := map[string]any{"snacks": snackLinePayloads(snacks)}
	var dto stayDTO
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/stays/%s/snacks", stayID), body, &dto); err != nil {
		if isNotFound(err) {
			return domain.Stay{}, fmt.Errorf("%w: stay %s", domain.ErrNoActiveStay, stayID)
		}
		return domain.Stay{}, err
	}
	return dto.toDomain(), nil
}

func (c *Client) SubmitCheckOut(ctx context.Context, roomNumber int, method domain.PaymentMethod) (domain.Receipt, error) {
	body := map[string]any{"payment_method": string(method)}
	var dto receiptDTO
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/rooms/%d/checkout", roomNumber), body, &dto); err != nil {
		if isConflict(err) {
			return domain.Receipt{}, fmt.Errorf("%w: %s", domain.ErrRoomNotOccupied, errDetail(err))
		}
		return domain.Receipt{}, err
	}
	return dto.toDomain(), nil
}

func (c *Client) MarkRoomClean(ctx context.Context, roomID string) (domain.Room, error) {
	var dto roomDTO
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/rooms/%s/clean", roomID), nil, &dto); err != nil {
		return domain.Room{}, err
	}
	return dto.toDomain(), nil
}

func (c *Client) ActiveStayForRoom(ctx context.Context, roomNumber int) (domain.Stay, error) {
	var dto stayDTO
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/rooms/%d/stay", roomNumber), nil, &dto); err != nil {
		if isNotFound(err) {
			return domain.Stay{}, domain.ErrNoActiveStay
		}
		return domain.Stay{}, err
	}
	return dto.toDomain(), nil
}

// ---- transport internals ----

// apiError carries the remote status and detail so callers can distinguish
// conflicts from genuine failures and surface the message verbatim.
type apiError struct {
	Status int
	Detail string
}

func (e *apiError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("backend %d", e.Status)
}

func isNotFound(err error) bool {
	var ae *apiError
	return errors.As(err, &ae) && ae.Status == http.StatusNotFound
}

func isConflict(err error) bool {
	var ae *apiError
	return errors.As(err, &ae) && ae.Status == http.StatusConflict
}

func errDetail(err error) string {
	var ae *apiError
	if errors.As(err, &ae) && ae.Detail != "" {
		return ae.Detail
	}
	return err.Error()
}

// do performs one call with client-side rate limiting, retries on 429 and
// transient 5xx (honoring Retry-After), and JSON decode into out. 4xx other
// than 429 is returned as *apiError without retrying: mutating endpoints are
// idempotent-safe on the server, but a rejected request stays rejected.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = b
	}

	url := c.base + path
	start := time.Now()
	var lastErr error
	for i := 0; i < 4; i++ {
		var rd io.Reader
		if payload != nil {
			rd = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, rd)
		if err != nil {
			return err
		}
		if c.key != "" {
			req.Header.Set("X-API-Key", c.key)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("User-Agent", "hotel-frontdesk/1.0")

		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated, http.StatusAccepted:
			observability.ObserveBackend(path, resp.StatusCode, time.Since(start))
			if out == nil {
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				return nil
			}
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusNoContent:
			observability.ObserveBackend(path, resp.StatusCode, time.Since(start))
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			observability.ObserveBackend(path, resp.StatusCode, time.Since(start))
			return lastErr

		default:
			detail := readDetail(resp.Body)
			resp.Body.Close()
			observability.ObserveBackend(path, resp.StatusCode, time.Since(start))
			return &apiError{Status: resp.StatusCode, Detail: detail}
		}
	}

	return lastErr
}

// readDetail extracts a human-readable message from a problem+json or plain
// body, capped small.
func readDetail(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 4096))
	var p struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(b, &p); err == nil {
		if p.Detail != "" {
			return p.Detail
		}
		if p.Title != "" {
			return p.Title
		}
	}
	return strings.TrimSpace(string(b))
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). Returns 0 if absent.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential delay (200ms, 400ms, 800ms...) with up to
// +50% jitter from crypto/rand so concurrent retries spread out.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	j := time.Duration(0.5 * f * float64(base))
	return base + j
}
