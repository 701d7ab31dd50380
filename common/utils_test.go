package common

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 20, cfg.MaxVideos)
	assert.Equal(t, 1, cfg.Concurrency)
	assert.Equal(t, "youtube_data.json", cfg.OutputPath)
	assert.True(t, cfg.IncludeSegments)
	assert.True(t, cfg.Pretty)
	assert.NotZero(t, cfg.RequestDelay)
}

func TestGenerateCrawlID(t *testing.T) {
	id := GenerateCrawlID()

	assert.Len(t, id, 14)
	assert.Regexp(t, `^\d{14}$`, id)
}

func TestReadURLsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	content := `# comment line
https://www.youtube.com/watch?v=aaaaaaaaaaa

   https://www.youtube.com/watch?v=bbbbbbbbbbb
# another comment
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	urls, err := ReadURLsFromFile(path)

	require.NoError(t, err)
	require.Len(t, urls, 2)
	assert.Equal(t, "https://www.youtube.com/watch?v=aaaaaaaaaaa", urls[0])
	assert.Equal(t, "https://www.youtube.com/watch?v=bbbbbbbbbbb", urls[1])
}

func TestReadURLsFromFile_Missing(t *testing.T) {
	_, err := ReadURLsFromFile(filepath.Join(t.TempDir(), "nope.txt"))

	assert.Error(t, err)
}

func TestReadURLsFromFile_Remote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "https://www.youtube.com/watch?v=aaaaaaaaaaa\n")
	}))
	defer server.Close()

	urls, err := ReadURLsFromFile(server.URL + "/urls.txt")

	require.NoError(t, err)
	require.Len(t, urls, 1)
	assert.Equal(t, "https://www.youtube.com/watch?v=aaaaaaaaaaa", urls[0])
}

func TestDownloadURLFile_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := DownloadURLFile(server.URL + "/missing.txt")

	assert.ErrorContains(t, err, "bad status code")
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds  int64
		expected string
	}{
		{0, "unknown"},
		{-5, "unknown"},
		{45, "00:45"},
		{253, "04:13"},
		{3600, "01:00:00"},
		{3723, "01:02:03"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatDuration(tt.seconds))
		})
	}
}
