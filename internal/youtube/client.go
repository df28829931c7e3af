package youtube

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultBaseURL = "https://www.youtube.com"
	UserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"
	AcceptLanguage = "en-US"

	// StreamsPageRedirects is how many redirects the streams page fetch follows.
	StreamsPageRedirects = 5

	// DefaultMaxBodyBytes caps a fetched page. Streams pages are well under it.
	DefaultMaxBodyBytes = 8 << 20
)

type Client struct {
	// BaseURL is the scheme and host pages are requested from.
	BaseURL    string
	HTTPClient *http.Client
	Logger     zerolog.Logger
	// MaxBodyBytes rejects larger pages; zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 20 * time.Second,
		},
		Logger:       zerolog.Nop(),
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
}

// Page is a fetched document. Status is always in the 200-399 range.
type Page struct {
	URL    string
	Status int
	Header http.Header
	Body   string
}

// Fetch GETs rawURL with browser-like headers. maxRedirects of zero returns
// redirect responses as they are instead of following them. Statuses outside
// 200-399 fail with a *FetchError.
func (c *Client) Fetch(ctx context.Context, rawURL string, maxRedirects int) (*Page, error) {
	c.Logger.Debug().Str("url", rawURL).Msg("fetch: requesting page")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept-Language", AcceptLanguage)

	res, err := c.httpClient(maxRedirects).Do(req)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	defer res.Body.Close()

	limit := c.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	body, err := io.ReadAll(io.LimitReader(res.Body, limit+1))
	if err != nil {
		return nil, &FetchError{URL: rawURL, Status: res.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > limit {
		return nil, &FetchError{URL: rawURL, Status: res.StatusCode, Err: fmt.Errorf("response exceeds %d bytes", limit)}
	}
	if res.StatusCode < 200 || res.StatusCode >= 400 {
		return nil, &FetchError{URL: rawURL, Status: res.StatusCode, Body: string(body)}
	}

	return &Page{
		URL:    res.Request.URL.String(),
		Status: res.StatusCode,
		Header: res.Header,
		Body:   string(body),
	}, nil
}

// FetchStreamsPage fetches the streams tab of a canonical channel ID.
func (c *Client) FetchStreamsPage(ctx context.Context, channelID string) (*Page, error) {
	pageURL := c.StreamsURL(channelID)
	page, err := c.Fetch(ctx, pageURL, StreamsPageRedirects)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(page.Body) == "" {
		return nil, &FetchError{URL: pageURL, Status: page.Status, Err: errEmptyBody}
	}
	return page, nil
}

func (c *Client) StreamsURL(channelID string) string {
	return c.BaseURL + "/channel/" + url.PathEscape(channelID) + "/streams"
}

func (c *Client) handleURL(handle string) string {
	return c.BaseURL + "/" + url.PathEscape(handle)
}

// httpClient returns a shallow copy of the configured client with the given
// redirect policy, so concurrent calls with different policies don't race.
func (c *Client) httpClient(maxRedirects int) *http.Client {
	base := c.HTTPClient
	if base == nil {
		base = http.DefaultClient
	}
	hc := *base
	hc.CheckRedirect = func(_ *http.Request, via []*http.Request) error {
		if maxRedirects <= 0 {
			return http.ErrUseLastResponse
		}
		if len(via) > maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		return nil
	}
	return &hc
}
