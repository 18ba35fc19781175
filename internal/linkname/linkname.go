// Package linkname derives a question name from its problem link.
package linkname

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

var ErrNoTitle = errors.New("page has no title")

// FromLink returns the problem slug of a link: the last non-empty path
// segment, skipping a trailing query segment and a trailing "description"
// segment.
//
//	https://leetcode.com/problems/two-sum/description/?envType=daily -> two-sum
func FromLink(link string) string {
	segments := make([]string, 0, 8)
	for _, s := range strings.Split(strings.TrimSpace(link), "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	if len(segments) == 0 {
		return ""
	}

	i := len(segments) - 1
	if strings.HasPrefix(segments[i], "?") {
		i--
	}
	if i >= 0 && segments[i] == "description" {
		i--
	}
	if i < 0 {
		return ""
	}

	slug := segments[i]
	if idx := strings.IndexAny(slug, "?#"); idx >= 0 {
		slug = slug[:idx]
	}
	return slug
}

// Resolver fills in a name for a link, fetching the page title when the link
// has no path to take a slug from.
type Resolver struct {
	http      *http.Client
	userAgent string
	logger    *zap.Logger
}

type Option func(*Resolver)

func WithHTTPClient(hc *http.Client) Option {
	return func(r *Resolver) {
		r.http = hc
	}
}

func WithUserAgent(ua string) Option {
	return func(r *Resolver) {
		r.userAgent = ua
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		http:   &http.Client{Timeout: 5 * time.Second},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) Name(ctx context.Context, link string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	if strings.Trim(u.Path, "/") != "" {
		return FromLink(link), nil
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return FromLink(link), nil
	}

	title, err := r.FetchTitle(ctx, u.String())
	if err != nil {
		r.logger.Debug("title fetch failed, using slug", zap.String("link", link), zap.Error(err))
		return FromLink(link), nil
	}
	return title, nil
}

// FetchTitle returns the og:title of the page, or its <title>.
func (r *Resolver) FetchTitle(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	if r.userAgent != "" {
		req.Header.Set("User-Agent", r.userAgent)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	title, _ := doc.Find(`meta[property="og:title"]`).First().Attr("content")
	title = strings.TrimSpace(title)
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if title == "" {
		return "", ErrNoTitle
	}
	return title, nil
}
