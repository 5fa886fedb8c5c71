// Package bookingapi is a typed client for the /api/<kind> REST surface.
package bookingapi

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"travel_booking/internal/adapters/observability"
	"travel_booking/internal/domain"
)

type Client struct {
	base string
	hc   *http.Client
	rl   *rate.Limiter
}

func New(base string, rps int, timeout time.Duration) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("API base URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: timeout},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// APIError is any non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
	Detail  string
	Fields  []domain.FieldError
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "api %d", e.Status)
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	if e.Detail != "" {
		b.WriteString(" (" + e.Detail + ")")
	}
	for _, f := range e.Fields {
		b.WriteString("; " + f.Field + ": " + f.Message)
	}
	return b.String()
}

// Image is a file to upload with a create or update.
type Image struct {
	Filename string
	Body     io.Reader
}

// ---- Public API ----

func (c *Client) List(ctx context.Context, k *domain.Kind) ([]domain.Entity, error) {
	var raws []json.RawMessage
	if err := c.get(ctx, c.url(k, ""), &raws); err != nil {
		return nil, err
	}
	out := make([]domain.Entity, 0, len(raws))
	for _, raw := range raws {
		e, err := decodeEntity(k, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (c *Client) Create(ctx context.Context, k *domain.Kind, vals map[string]string, img *Image) (domain.Entity, error) {
	raw, err := c.send(ctx, http.MethodPost, c.url(k, ""), vals, img)
	if err != nil {
		return nil, err
	}
	return decodeEntity(k, raw)
}

// Update returns nil (and no error) when the server matched no record.
func (c *Client) Update(ctx context.Context, k *domain.Kind, id string, vals map[string]string, img *Image) (domain.Entity, error) {
	raw, err := c.send(ctx, http.MethodPut, c.url(k, id), vals, img)
	if err != nil {
		return nil, err
	}
	return decodeEntity(k, raw)
}

// Delete returns the server's confirmation message.
func (c *Client) Delete(ctx context.Context, k *domain.Kind, id string) (string, error) {
	raw, err := c.send(ctx, http.MethodDelete, c.url(k, id), nil, nil)
	if err != nil {
		return "", err
	}
	var out struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode delete response: %w", err)
	}
	return out.Message, nil
}

// ---- Internals ----

func (c *Client) url(k *domain.Kind, id string) string {
	u := c.base + "/api/" + k.Path
	if id != "" {
		u += "/" + id
	}
	return u
}

func decodeEntity(k *domain.Kind, raw json.RawMessage) (domain.Entity, error) {
	if len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null" {
		return nil, nil
	}
	e := k.New()
	if err := json.Unmarshal(raw, e); err != nil {
		return nil, fmt.Errorf("decode %s: %w", k.Singular, err)
	}
	return e, nil
}

// send issues one non-idempotent request; it is never retried.
func (c *Client) send(ctx context.Context, method, url string, vals map[string]string, img *Image) (json.RawMessage, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	var body io.Reader
	ctype := ""
	if vals != nil || img != nil {
		buf, ct, err := encodeForm(vals, img)
		if err != nil {
			return nil, err
		}
		body, ctype = buf, ct
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if ctype != "" {
		req.Header.Set("Content-Type", ctype)
	}
	setHeaders(req)

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("booking_api", method, 0, time.Since(start))
		return nil, err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("booking_api", method, resp.StatusCode, time.Since(start))

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apiError(resp.StatusCode, b)
	}
	return b, nil
}

func encodeForm(vals map[string]string, img *Image) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range vals {
		if err := mw.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if img != nil {
		fw, err := mw.CreateFormFile("image", filepath.Base(img.Filename))
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(fw, img.Body); err != nil {
			return nil, "", fmt.Errorf("read image: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

func setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "travel-booking/1.0")
}

func apiError(status int, body []byte) *APIError {
	e := &APIError{Status: status}
	var b struct {
		Message string              `json:"message"`
		Error   string              `json:"error"`
		Errors  []domain.FieldError `json:"errors"`
	}
	if err := json.Unmarshal(body, &b); err == nil {
		e.Message, e.Detail, e.Fields = b.Message, b.Error, b.Errors
	} else {
		e.Message = strings.TrimSpace(string(body))
		if len(e.Message) > 4096 {
			e.Message = e.Message[:4096]
		}
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

// get performs a GET with client-side rate limiting, retries, and JSON decode into out.
// Retries on 429 and transient 5xx, honoring Retry-After when provided.
func (c *Client) get(ctx context.Context, url string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		setHeaders(req)

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("booking_api", http.MethodGet, 0, time.Since(start))
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
		observability.ObserveExternal("booking_api", http.MethodGet, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			// Prefer server-provided Retry-After; otherwise exponential backoff.
			wait := retryAfter(resp)
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = apiError(resp.StatusCode, b)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return apiError(resp.StatusCode, b)
		}
	}

	return lastErr
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

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
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

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}

// IsValidation reports whether err is a 400 carrying field errors.
func IsValidation(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == http.StatusBadRequest && len(ae.Fields) > 0
}
