package ytdata

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// InitialDataMarker is the script variable YouTube assigns its page data to.
const InitialDataMarker = "ytInitialData"

// ErrDataNotFound means the page carried no parseable embedded data payload.
var ErrDataNotFound = errors.New("embedded page data not found")

var initialDataRe = embeddedJSONPattern(InitialDataMarker)

// embeddedJSONPattern matches `<marker> = {...};` and captures the shortest
// object that is followed by a semicolon. A "};" inside a string value ends
// the capture early; callers rely on this boundary, so it is kept as is.
func embeddedJSONPattern(marker string) *regexp.Regexp {
	return regexp.MustCompile(`(?s)` + regexp.QuoteMeta(marker) + `\s*=\s*(\{.*?\});`)
}

// ExtractEmbeddedJSON scans the document's script blocks in order and decodes
// the first object assigned to marker.
func ExtractEmbeddedJSON(html, marker string) (any, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %w", ErrDataNotFound, err)
	}

	re := initialDataRe
	if marker != InitialDataMarker {
		re = embeddedJSONPattern(marker)
	}

	var raw string
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		content := s.Text()
		if content == "" {
			return true
		}
		m := re.FindStringSubmatch(content)
		if m == nil {
			return true
		}
		raw = m[1]
		return false
	})
	if raw == "" {
		return nil, fmt.Errorf("%w: no %s assignment in page scripts", ErrDataNotFound, marker)
	}

	var out any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrDataNotFound, marker, err)
	}
	return out, nil
}

// ExtractInitialData returns the page's ytInitialData object.
func ExtractInitialData(html string) (map[string]any, error) {
	v, err := ExtractEmbeddedJSON(html, InitialDataMarker)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an object", ErrDataNotFound, InitialDataMarker)
	}
	return obj, nil
}
