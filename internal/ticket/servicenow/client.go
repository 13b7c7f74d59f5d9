// Package servicenow implements ticket.Source on top of the ServiceNow
// Table API.
package servicenow

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

	"github.com/sirupsen/logrus"

	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/ticket"
)

const defaultTimeout = 60 * time.Second

// Options configures a Client.
type Options struct {
	// Instance is either the instance abbreviation ("acme" ->
	// https://acme.service-now.com) or a full base URL.
	Instance string
	User     string
	Password string
	// Proxy is an optional HTTP(S) proxy URL.
	Proxy   string
	Timeout time.Duration
	Logger  *logrus.Entry
}

// Client talks to one ServiceNow instance.
type Client struct {
	base   string
	user   string
	pwd    string
	http   *http.Client
	logger *logrus.Entry
}

var _ ticket.Source = (*Client)(nil)

// New builds a Client. It does not contact the instance.
func New(opts Options) (*Client, error) {
	if opts.Instance == "" {
		return nil, fmt.Errorf("servicenow: instance is required")
	}
	base := opts.Instance
	if !strings.Contains(base, "://") {
		base = fmt.Sprintf("https://%s.service-now.com", base)
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.Proxy != "" {
		pu, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("servicenow: proxy %q: %w", opts.Proxy, err)
		}
		transport.Proxy = http.ProxyURL(pu)
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Client{
		base:   strings.TrimRight(base, "/"),
		user:   opts.User,
		pwd:    opts.Password,
		http:   &http.Client{Transport: transport, Timeout: timeout},
		logger: logger,
	}, nil
}

// EncodedQuery renders q in ServiceNow's encoded query syntax.
func EncodedQuery(q ticket.Query) string {
	parts := []string{"active=true"}
	switch len(q.IgnoreStates) {
	case 0:
	case 1:
		parts = append(parts, "state!="+q.IgnoreStates[0])
	default:
		parts = append(parts, "stateNOT IN"+strings.Join(q.IgnoreStates, ","))
	}
	if q.AssignmentGroup != "" {
		parts = append(parts, "assignment_group="+q.AssignmentGroup)
	}
	return strings.Join(parts, "^")
}

// Query fetches the eligible ticket batch.
func (c *Client) Query(ctx context.Context, q ticket.Query) ([]ticket.Ticket, error) {
	params := url.Values{}
	params.Set("sysparm_query", EncodedQuery(q))
	params.Set("sysparm_exclude_reference_link", "true")
	if q.Limit > 0 {
		params.Set("sysparm_limit", strconv.Itoa(q.Limit))
	}
	c.logger.WithField("code", "081").Debugf("Q: %s", params.Get("sysparm_query"))
	return c.list(ctx, "query", q.Table, params)
}

// Get looks up one ticket by number.
func (c *Client) Get(ctx context.Context, table, number string) (ticket.Ticket, error) {
	params := url.Values{}
	params.Set("sysparm_query", ticket.FieldNumber+"="+number)
	params.Set("sysparm_exclude_reference_link", "true")
	params.Set("sysparm_limit", "1")
	rows, err := c.list(ctx, "get", table, params)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s %s: %w", table, number, ticket.ErrNotFound)
	}
	return rows[0], nil
}

// Update patches the ticket identified by its sys_id, falling back to a
// lookup by number when the snapshot has no sys_id.
func (c *Client) Update(ctx context.Context, table string, t ticket.Ticket, fields map[string]string) (ticket.Ticket, error) {
	id := t.SysID()
	if id == "" {
		found, err := c.Get(ctx, table, t.Number())
		if err != nil {
			return nil, err
		}
		id = found.SysID()
	}
	body, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode update: %w", err)
	}
	var out struct {
		Result ticket.Ticket `json:"result"`
	}
	if err := c.do(ctx, "update", http.MethodPatch, c.tableURL(table)+"/"+url.PathEscape(id), bytes.NewReader(body), &out); err != nil {
		return nil, err
	}
	return out.Result, nil
}

func (c *Client) list(ctx context.Context, op, table string, params url.Values) ([]ticket.Ticket, error) {
	var out struct {
		Result []ticket.Ticket `json:"result"`
	}
	if err := c.do(ctx, op, http.MethodGet, c.tableURL(table)+"?"+params.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Result, nil
}

func (c *Client) tableURL(table string) string {
	return c.base + "/api/now/table/" + url.PathEscape(table)
}

func (c *Client) do(ctx context.Context, op, method, u string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.SetBasicAuth(c.user, c.pwd)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &ticket.ConnError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ticket.ConnError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ticket.ConnError{Op: op, Err: fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(data), 200))}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &ticket.ConnError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
