package youtube

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxResolveAttempts = 3

var (
	channelIDRe  = regexp.MustCompile(`^UC[\w-]{20,}$`)
	browseIDRe   = regexp.MustCompile(`"browseId":"(UC[\w-]{20,})"`)
	bareHandleRe = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
)

// channelIDMetaSelectors are checked in order on a handle page.
var channelIDMetaSelectors = []string{
	`meta[itemprop="identifier"]`,
	`meta[itemprop="channelId"]`,
}

// ResolvedChannel is a canonical channel ID plus the handle that was looked
// up to find it. Handle is empty when the input already named the channel.
type ResolvedChannel struct {
	ChannelID string `json:"channelId"`
	Handle    string `json:"handle,omitempty"`
}

// IsChannelID reports whether s has the canonical "UC..." channel ID shape.
func IsChannelID(s string) bool {
	return channelIDRe.MatchString(s)
}

// parseAbsoluteURL accepts only inputs with a scheme, so a bare "@name" or
// "name" is never mistaken for a relative URL.
func parseAbsoluteURL(s string) (*url.URL, bool) {
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" {
		return nil, false
	}
	return u, true
}

func pathSegments(u *url.URL) []string {
	var out []string
	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}

// ChannelIDFromURL returns the ID of an absolute /channel/<id> URL.
func ChannelIDFromURL(s string) (string, bool) {
	u, ok := parseAbsoluteURL(s)
	if !ok {
		return "", false
	}
	segs := pathSegments(u)
	if len(segs) >= 2 && segs[0] == "channel" && IsChannelID(segs[1]) {
		return segs[1], true
	}
	return "", false
}

// ExtractHandle derives the "@name" handle an identifier refers to. It
// returns "" for canonical IDs, channel URLs and anything else that does not
// name a handle.
func ExtractHandle(identifier string) string {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" || IsChannelID(trimmed) {
		return ""
	}

	if u, ok := parseAbsoluteURL(trimmed); ok {
		for _, seg := range pathSegments(u) {
			if strings.HasPrefix(seg, "@") {
				return "@" + strings.TrimPrefix(seg, "@")
			}
		}
		if _, isChannelURL := ChannelIDFromURL(trimmed); isChannelURL {
			return ""
		}
	}

	if strings.HasPrefix(trimmed, "@") {
		handle, _, _ := strings.Cut(trimmed, "/")
		return handle
	}
	if bareHandleRe.MatchString(trimmed) {
		return "@" + trimmed
	}
	return ""
}

// ResolveChannel turns a channel ID, handle or channel URL into a canonical
// channel ID. Handles are looked up on their channel page, following at most
// a few redirects by hand.
func (c *Client) ResolveChannel(ctx context.Context, identifier string) (ResolvedChannel, error) {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return ResolvedChannel{}, fmt.Errorf("%w: channel identifier is required", ErrInvalidIdentifier)
	}

	if IsChannelID(trimmed) {
		return ResolvedChannel{ChannelID: trimmed}, nil
	}
	if id, ok := ChannelIDFromURL(trimmed); ok {
		return ResolvedChannel{ChannelID: id}, nil
	}

	handle := ExtractHandle(trimmed)
	if handle == "" {
		return ResolvedChannel{}, fmt.Errorf("%w: unable to interpret %q, provide a channel ID or handle", ErrInvalidIdentifier, identifier)
	}

	body, err := c.fetchHandlePage(ctx, handle)
	if err != nil {
		return ResolvedChannel{}, err
	}

	channelID := channelIDFromHTML(body)
	if !IsChannelID(channelID) {
		return ResolvedChannel{}, fmt.Errorf("%w: no channel ID found on page for handle %s", ErrResolutionFailed, handle)
	}

	c.Logger.Debug().Str("handle", handle).Str("channel_id", channelID).Msg("resolve: handle resolved")
	return ResolvedChannel{ChannelID: channelID, Handle: handle}, nil
}

// fetchHandlePage requests the handle page without automatic redirects. A
// redirect is followed on the next attempt; an empty 2xx body is requested
// again. A non-empty body ends the loop.
func (c *Client) fetchHandlePage(ctx context.Context, handle string) (string, error) {
	currentURL := c.handleURL(handle)
	c.Logger.Debug().Str("handle", handle).Str("url", currentURL).Msg("resolve: looking up handle")

	var page *Page
	for attempt := 0; attempt < maxResolveAttempts; attempt++ {
		var err error
		page, err = c.Fetch(ctx, currentURL, 0)
		if err != nil {
			return "", fmt.Errorf("%w: handle %s: %w", ErrResolutionFailed, handle, err)
		}

		location := page.Header.Get("Location")
		if page.Status >= 300 && page.Status < 400 && location != "" {
			next, err := resolveReference(currentURL, location)
			if err != nil {
				return "", fmt.Errorf("%w: handle %s: bad redirect %q: %w", ErrResolutionFailed, handle, location, err)
			}
			c.Logger.Debug().Str("handle", handle).Str("url", next).Msg("resolve: following redirect")
			currentURL = next
			continue
		}

		if strings.TrimSpace(page.Body) != "" {
			break
		}
	}

	if page == nil || strings.TrimSpace(page.Body) == "" {
		return "", fmt.Errorf("%w: handle %s: empty response from %s", ErrResolutionFailed, handle, currentURL)
	}
	return page.Body, nil
}

func resolveReference(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(r).String(), nil
}

// channelIDFromHTML reads the channel ID from the page's meta tags, falling
// back to the first browseId in the raw markup.
func channelIDFromHTML(body string) string {
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(body)); err == nil {
		for _, sel := range channelIDMetaSelectors {
			if id, ok := doc.Find(sel).First().Attr("content"); ok && id != "" {
				return id
			}
		}
	}
	if m := browseIDRe.FindStringSubmatch(body); m != nil {
		return m[1]
	}
	return ""
}
