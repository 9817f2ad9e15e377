package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"vitalnotes/internal/domain"
	"vitalnotes/internal/infrastructure/metrics"
	"vitalnotes/internal/ports"
)

const maxErrorBody = 1 << 20

// Client talks to the remote patient-record API. Every request carries the
// bearer token of the session, when there is one.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  ports.TokenSource
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.http.Timeout = timeout }
}

func New(baseURL string, tokens ports.TokenSource, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("api base url is required")
	}
	c := &Client{baseURL: baseURL, http: &http.Client{}, tokens: tokens}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Login(ctx context.Context, creds domain.Credentials) (domain.LoginResponse, error) {
	var out domain.LoginResponse
	err := c.do(ctx, "login", http.MethodPost, "/auth/login", creds, &out)
	return out, err
}

func (c *Client) ListPatients(ctx context.Context) ([]domain.Patient, error) {
	var out []domain.Patient
	if err := c.do(ctx, "list_patients", http.MethodGet, "/patients", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreatePatient(ctx context.Context, patient domain.Patient) (domain.Patient, error) {
	var out domain.Patient
	if err := c.do(ctx, "create_patient", http.MethodPost, "/patients", patient, &out); err != nil {
		return domain.Patient{}, err
	}
	return savedRecord("create_patient", out)
}

func (c *Client) UpdatePatient(ctx context.Context, id int64, patient domain.Patient) (domain.Patient, error) {
	var out domain.Patient
	if err := c.do(ctx, "update_patient", http.MethodPut, patientPath(id), patient, &out); err != nil {
		return domain.Patient{}, err
	}
	return savedRecord("update_patient", out)
}

func (c *Client) DeletePatient(ctx context.Context, id int64) error {
	return c.do(ctx, "delete_patient", http.MethodDelete, patientPath(id), nil, nil)
}

// savedRecord rejects replies that do not carry the stored record. An empty
// body decodes to a record without an id.
func savedRecord(op string, p domain.Patient) (domain.Patient, error) {
	if !p.HasID() {
		return domain.Patient{}, fmt.Errorf("%w: %s response has no record id", domain.ErrInvalidServerResponse, op)
	}
	return p, nil
}

func patientPath(id int64) string {
	return "/patients/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	started := time.Now()
	defer func() {
		metrics.RemoteRequestDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
	}()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RemoteRequestsTotal.WithLabelValues(op, "transport_error").Inc()
		return fmt.Errorf("%s request: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RemoteRequestsTotal.WithLabelValues(op, "http_error").Inc()
		return apiError(resp)
	}
	metrics.RemoteRequestsTotal.WithLabelValues(op, "success").Inc()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", op, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", domain.ErrInvalidServerResponse, op, err)
	}
	return nil
}

// apiError keeps the server's human-readable message when the body has one.
func apiError(resp *http.Response) error {
	apiErr := &domain.APIError{StatusCode: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return apiErr
	}
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		apiErr.Message = strings.TrimSpace(payload.Message)
	}
	return apiErr
}
