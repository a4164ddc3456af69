// Package sdk is a small client for the LifeSaver reports API.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:4000"
	}
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: http.DefaultClient}
}

// Answers are the triage questions asked on the report form
type Answers struct {
	Breathing  bool `json:"breathing"`
	Bleeding   bool `json:"bleeding"`
	Trapped    bool `json:"trapped"`
	Water      bool `json:"water"`
	Fire       bool `json:"fire"`
	Vulnerable bool `json:"vulnerable"`
	Alone      bool `json:"alone"`
}

type Report struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	Geohash     string    `json:"geohash"`
	Categories  []string  `json:"categories"`
	Answers     Answers   `json:"answers"`
	Text        string    `json:"text"`
	Contact     *string   `json:"contact"`
	PhotoURL    *string   `json:"photoUrl"`
	Score       int       `json:"score"`
	Urgency     string    `json:"urgency"`
	Status      string    `json:"status"`
	AssignedTo  *string   `json:"assignedTo"`
	DuplicateOf *string   `json:"duplicateOf"`
}

type Submission struct {
	Lat        float64  `json:"lat"`
	Lng        float64  `json:"lng"`
	Categories []string `json:"categories,omitempty"`
	Answers    Answers  `json:"answers"`
	Text       string   `json:"text,omitempty"`
	Contact    string   `json:"contact,omitempty"`
	PhotoURL   string   `json:"photoUrl,omitempty"`
}

// Update is a PATCH body. Nil fields are not sent; set ClearAssignee to
// unassign.
type Update struct {
	Status        *string
	AssignedTo    *string
	ClearAssignee bool
	Text          *string
}

func (u Update) MarshalJSON() ([]byte, error) {
	body := map[string]any{}
	if u.Status != nil {
		body["status"] = *u.Status
	}
	if u.ClearAssignee {
		body["assignedTo"] = nil
	} else if u.AssignedTo != nil {
		body["assignedTo"] = *u.AssignedTo
	}
	if u.Text != nil {
		body["text"] = *u.Text
	}
	return json.Marshal(body)
}

// ListOptions filter GET /v1/reports. Empty slices impose no constraint.
type ListOptions struct {
	Categories []string
	Urgencies  []string
	Statuses   []string
}

// APIError is a non-2xx response
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("lifesaver: %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("lifesaver: %d %s", e.StatusCode, e.Code)
}

func (c *Client) SubmitReport(ctx context.Context, s Submission) (*Report, error) {
	var out Report
	if err := c.do(ctx, http.MethodPost, "/v1/reports", s, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetReport(ctx context.Context, id string) (*Report, error) {
	var out Report
	if err := c.do(ctx, http.MethodGet, "/v1/reports/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateReport(ctx context.Context, id string, u Update) (*Report, error) {
	var out Report
	if err := c.do(ctx, http.MethodPatch, "/v1/reports/"+url.PathEscape(id), u, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListReports(ctx context.Context, opts ListOptions) ([]Report, error) {
	q := url.Values{}
	if len(opts.Categories) > 0 {
		q.Set("categories", strings.Join(opts.Categories, ","))
	}
	if len(opts.Urgencies) > 0 {
		q.Set("urgency", strings.Join(opts.Urgencies, ","))
	}
	if len(opts.Statuses) > 0 {
		q.Set("status", strings.Join(opts.Statuses, ","))
	}
	path := "/v1/reports"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out struct {
		Data []Report `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		if s, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			apiErr.RetryAfter = time.Duration(s) * time.Second
		}
		return apiErr
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
