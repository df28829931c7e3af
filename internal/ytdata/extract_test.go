package ytdata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(b)
}

func TestExtractInitialData_FirstScriptWins(t *testing.T) {
	html := `<html><body>
<script>var other = {"a":1};</script>
<script>var ytInitialData = {"pick":"first"};</script>
<script>var ytInitialData = {"pick":"second"};</script>
</body></html>`

	data, err := ExtractInitialData(html)
	require.NoError(t, err)
	assert.Equal(t, "first", data["pick"])
}

func TestExtractInitialData_MultilineAssignment(t *testing.T) {
	html := "<script>\nvar ytInitialData   =\n  {\"a\": {\n\"b\": [1, 2]\n}};\n</script>"

	data, err := ExtractInitialData(html)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"b": []any{1.0, 2.0}}, data["a"])
}

func TestExtractInitialData_ShortestMatchBoundary(t *testing.T) {
	// The capture stops at the first "};", even inside a string value.
	html := `<script>var ytInitialData = {"text":"{x};","more":1};</script>`

	_, err := ExtractInitialData(html)
	require.ErrorIs(t, err, ErrDataNotFound)
}

func TestExtractInitialData_Missing(t *testing.T) {
	_, err := ExtractInitialData(`<html><script>var ytcfg = {};</script></html>`)
	require.ErrorIs(t, err, ErrDataNotFound)

	_, err = ExtractInitialData(``)
	require.ErrorIs(t, err, ErrDataNotFound)
}

func TestExtractInitialData_MarkerOutsideScript(t *testing.T) {
	html := `<div>var ytInitialData = {"a":1};</div><script>var x = 1;</script>`

	_, err := ExtractInitialData(html)
	require.ErrorIs(t, err, ErrDataNotFound)
}

func TestExtractInitialData_MalformedJSON(t *testing.T) {
	_, err := ExtractInitialData(`<script>var ytInitialData = {"a": nope};</script>`)
	require.ErrorIs(t, err, ErrDataNotFound)
}

func TestExtractEmbeddedJSON_CustomMarker(t *testing.T) {
	html := `<script>var ytInitialPlayerResponse = {"videoDetails":{"isLive":true}};</script>`

	v, err := ExtractEmbeddedJSON(html, "ytInitialPlayerResponse")
	require.NoError(t, err)
	assert.Equal(t, true, field(v, "videoDetails", "isLive"))

	_, err = ExtractEmbeddedJSON(html, InitialDataMarker)
	require.ErrorIs(t, err, ErrDataNotFound)
}

func TestExtractInitialData_Fixture(t *testing.T) {
	data, err := ExtractInitialData(readFixture(t, "streams_single_live.html"))
	require.NoError(t, err)
	assert.Equal(t, "TheSilentWatcher", stringAt(data, "metadata", "channelMetadataRenderer", "title"))
}
