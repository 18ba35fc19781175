// Package remote is the REST client for the question API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/codemonkey/colab/internal/models"
	"github.com/codemonkey/colab/internal/session"
	"github.com/codemonkey/colab/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDHeader = "X-Request-ID"
	maxErrorBody    = 512
)

var _ storage.Storage = (*Client)(nil)

type Client struct {
	base      *url.URL
	http      *http.Client
	userAgent string
	logger    *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the request timeout on a copy of the current HTTP client,
// so a shared client passed to WithHTTPClient is left alone.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.http
		hc.Timeout = d
		c.http = &hc
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url: %q", baseURL)
	}

	c := &Client{
		base:   u,
		http:   &http.Client{Timeout: 10 * time.Second},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// EncodeQuery renders q as listing query parameters. Absent optional values
// are omitted; timestamps are sent as RFC 3339 in UTC.
func EncodeQuery(q models.PageQuery) url.Values {
	v := url.Values{}
	if q.GroupID != nil {
		v.Set("group_id", strconv.FormatInt(*q.GroupID, 10))
	}
	if q.NameQuery != "" {
		v.Set("name_query", q.NameQuery)
	}
	v.Set("is_logged_in", strconv.FormatBool(q.IsLoggedIn))
	v.Set("not_completed_only", strconv.FormatBool(q.NotCompletedOnly))
	v.Set("page_size", strconv.Itoa(q.PageSize))
	v.Set("take_lower", strconv.FormatBool(q.TakeLower))
	setInt64(v, "first_q_id", q.FirstQID)
	setInt64(v, "last_q_id", q.LastQID)
	setTime(v, "first_posted_time", q.FirstPostedTime)
	setTime(v, "last_posted_time", q.LastPostedTime)
	setInt64(v, "user_id", q.UserID)
	setInt64(v, "posted_by_user_id", q.PostedByUserID)
	return v
}

func setInt64(v url.Values, key string, val *int64) {
	if val != nil {
		v.Set(key, strconv.FormatInt(*val, 10))
	}
}

func setTime(v url.Values, key string, val *time.Time) {
	if val != nil {
		v.Set(key, val.UTC().Format(time.RFC3339Nano))
	}
}

func (c *Client) ListQuestions(ctx context.Context, q models.PageQuery) (*models.Page, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var page models.Page
	if err := c.do(ctx, session.Unauthenticated(), http.MethodGet, "/questions", EncodeQuery(q), nil, &page); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if page.Questions == nil {
		page.Questions = []models.Question{}
	}
	return &page, nil
}

func (c *Client) GetQuestion(ctx context.Context, sess session.Session, id int64) (*models.Question, error) {
	var q models.Question
	if err := c.do(ctx, sess, http.MethodGet, "/questions/"+strconv.FormatInt(id, 10), nil, nil, &q); err != nil {
		return nil, fmt.Errorf("get question %d: %w", id, err)
	}
	return &q, nil
}

func (c *Client) CreateQuestion(ctx context.Context, sess session.Session, nq models.NewQuestion) (*models.Question, error) {
	var q models.Question
	if err := c.do(ctx, sess, http.MethodPost, "/questions", nil, nq, &q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	return &q, nil
}

func (c *Client) MarkQuestion(ctx context.Context, sess session.Session, m models.Mark) error {
	if err := c.do(ctx, sess, http.MethodPost, "/questions/mark", nil, m, nil); err != nil {
		return fmt.Errorf("mark question %d: %w", m.QuestionID, err)
	}
	return nil
}

func (c *Client) DeleteQuestion(ctx context.Context, sess session.Session, id int64) error {
	if err := c.do(ctx, sess, http.MethodDelete, "/questions/"+strconv.FormatInt(id, 10), nil, nil, nil); err != nil {
		return fmt.Errorf("delete question %d: %w", id, err)
	}
	return nil
}

func (c *Client) CreateSolution(ctx context.Context, sess session.Session, ns models.NewSolution) (*models.Solution, error) {
	var sol models.Solution
	if err := c.do(ctx, sess, http.MethodPost, "/solutions", nil, ns, &sol); err != nil {
		return nil, fmt.Errorf("create solution: %w", err)
	}
	return &sol, nil
}

func (c *Client) ListUsers(ctx context.Context, groupID *int64) ([]models.User, error) {
	v := url.Values{}
	setInt64(v, "group_id", groupID)

	var users []models.User
	if err := c.do(ctx, session.Unauthenticated(), http.MethodGet, "/users", v, nil, &users); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (c *Client) ListLanguages(ctx context.Context) ([]models.Language, error) {
	var langs []models.Language
	if err := c.do(ctx, session.Unauthenticated(), http.MethodGet, "/languages", nil, nil, &langs); err != nil {
		return nil, fmt.Errorf("list languages: %w", err)
	}
	return langs, nil
}

func (c *Client) GroupStats(ctx context.Context, sess session.Session, groupID int64) (*models.GroupStats, error) {
	var stats models.GroupStats
	path := "/groups/" + strconv.FormatInt(groupID, 10) + "/stats"
	if err := c.do(ctx, sess, http.MethodGet, path, nil, nil, &stats); err != nil {
		return nil, fmt.Errorf("group %d stats: %w", groupID, err)
	}
	return &stats, nil
}

func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *Client) do(ctx context.Context, sess session.Session, method, path string, query url.Values, body, out any) error {
	u := *c.base
	u.Path = c.base.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	requestID := uuid.NewString()
	req.Header.Set(requestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if sess.IsAuthenticated() && sess.Token != "" {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("api request failed",
			zap.String("request_id", requestID),
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return err
	}
	defer resp.Body.Close()

	c.logger.Debug("api request",
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	msg := strings.TrimSpace(string(excerpt))

	var sentinel error
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		sentinel = storage.ErrUnauthorized
	case http.StatusForbidden:
		sentinel = storage.ErrForbidden
	case http.StatusNotFound:
		sentinel = storage.ErrNotFound
	case http.StatusBadRequest:
		sentinel = storage.ErrBadRequest
	default:
		return fmt.Errorf("api error: status %d: %s", resp.StatusCode, msg)
	}
	return fmt.Errorf("%w: %s", sentinel, msg)
}
