package scraper

import (
	"bytes"
	"context"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// DefaultUserAgent is sent with every page request
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// maxPageBytes bounds the size of a single fetched page
const maxPageBytes = 10 << 20

// config holds crawler settings
type config struct {
	userAgent      string
	requestTimeout time.Duration
	maxPages       int
	maxAttempts    int
	retryInterval  time.Duration
	minDelay       time.Duration
	maxDelay       time.Duration
	httpClient     *http.Client
}

// Option is a functional option for Scraper
type Option func(*config)

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *config) {
		c.userAgent = ua
	}
}

// WithRequestTimeout sets the timeout of one page request
func WithRequestTimeout(d time.Duration) Option {
	return func(c *config) {
		c.requestTimeout = d
	}
}

// WithMaxPages sets how many pages, base page included, are visited per site
func WithMaxPages(n int) Option {
	return func(c *config) {
		c.maxPages = n
	}
}

// WithMaxAttempts sets how many times a page request is tried
func WithMaxAttempts(n int) Option {
	return func(c *config) {
		c.maxAttempts = n
	}
}

// WithRetryInterval sets the initial wait between attempts
func WithRetryInterval(d time.Duration) Option {
	return func(c *config) {
		c.retryInterval = d
	}
}

// WithDelay sets the random pause range before each subpage request
func WithDelay(min, max time.Duration) Option {
	return func(c *config) {
		c.minDelay = min
		c.maxDelay = max
	}
}

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) {
		c.httpClient = client
	}
}

// Scraper crawls a website and its contact pages for email addresses
type Scraper struct {
	cfg config
}

// New creates a Scraper
func New(opts ...Option) *Scraper {
	cfg := config{
		userAgent:      DefaultUserAgent,
		requestTimeout: 10 * time.Second,
		maxPages:       10,
		maxAttempts:    2,
		retryInterval:  2 * time.Second,
		minDelay:       1 * time.Second,
		maxDelay:       3 * time.Second,
		httpClient:     http.DefaultClient,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxAttempts < 1 {
		cfg.maxAttempts = 1
	}
	if cfg.maxPages < 1 {
		cfg.maxPages = 1
	}

	return &Scraper{cfg: cfg}
}

// FindEmails visits rawURL, then up to maxPages-1 of the contact subpages linked from it,
// and returns the sorted unique emails. Pages that cannot be fetched contribute nothing.
func (s *Scraper) FindEmails(ctx context.Context, rawURL string) ([]string, error) {
	logger := ctxlog.From(ctx)

	base, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	visited := map[string]struct{}{}
	emails := map[string]struct{}{}

	logger.Debug("Scraping base URL", "url", base.String())
	queue := s.visit(ctx, base, visited, emails, true)

	pages := 1
	for len(queue) > 0 && pages < s.cfg.maxPages {
		next := queue[0]
		queue = queue[1:]
		if _, ok := visited[next]; ok {
			continue
		}

		if err := s.pause(ctx); err != nil {
			return nil, goerr.Wrap(err, "scraping interrupted", goerr.V("url", base.String()))
		}

		u, err := url.Parse(next)
		if err != nil {
			continue
		}
		logger.Debug("Scraping subpage", "url", next, "page", pages, "max_pages", s.cfg.maxPages)
		s.visit(ctx, u, visited, emails, false)
		pages++
	}

	result := make([]string, 0, len(emails))
	for e := range emails {
		result = append(result, e)
	}
	sort.Strings(result)

	return result, nil
}

// visit fetches one page, adds its emails and, if withLinks, returns its contact subpages
func (s *Scraper) visit(ctx context.Context, u *url.URL, visited, emails map[string]struct{}, withLinks bool) []string {
	key := u.String()
	if _, ok := visited[key]; ok {
		return nil
	}
	visited[key] = struct{}{}

	doc, err := s.fetch(ctx, key)
	if err != nil {
		ctxlog.From(ctx).Warn("Failed to retrieve page", "url", key, "error", err)
		return nil
	}

	for e := range ExtractEmails(doc) {
		emails[e] = struct{}{}
	}
	if !withLinks {
		return nil
	}
	return SubpageURLs(doc, u)
}

func (s *Scraper) fetch(ctx context.Context, target string) (*goquery.Document, error) {
	var body []byte
	attempt := 0

	op := func() error {
		attempt++
		data, err := s.get(ctx, target)
		if err != nil {
			ctxlog.From(ctx).Debug("Page request failed",
				"url", target,
				"attempt", attempt,
				"max_attempts", s.cfg.maxAttempts,
				"error", err,
			)
			return err
		}
		body = data
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.retryInterval
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.cfg.maxAttempts-1)), ctx)

	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse page", goerr.V("url", target))
	}
	return doc, nil
}

// get returns the page body regardless of the response status, like a browser would render it
func (s *Scraper) get(ctx context.Context, target string) ([]byte, error) {
	if s.cfg.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.requestTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, backoff.Permanent(goerr.Wrap(err, "failed to create page request", goerr.V("url", target)))
	}
	req.Header.Set("User-Agent", s.cfg.userAgent)

	resp, err := s.cfg.httpClient.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to request page", goerr.V("url", target))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read page", goerr.V("url", target))
	}
	return data, nil
}

func (s *Scraper) pause(ctx context.Context) error {
	d := s.cfg.minDelay
	if span := s.cfg.maxDelay - s.cfg.minDelay; span > 0 {
		d += rand.N(span)
	}
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NormalizeURL trims rawURL and prepends https:// when it has no http(s) scheme
func NormalizeURL(rawURL string) (*url.URL, error) {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return nil, goerr.New("empty URL")
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid URL", goerr.V("url", rawURL))
	}
	if u.Host == "" {
		return nil, goerr.New("URL has no host", goerr.V("url", rawURL))
	}
	return u, nil
}
