package media

import (
	"regexp"
	"strings"
)

// videoIDPattern matches the watch, embed, shortened and bare-parameter URL
// forms of the supported video host and captures the 11-character video id.
var videoIDPattern = regexp.MustCompile(`(?:https?://)?(?:www\.)?(?:youtube\.com/(?:[^/\n\s]+/\S+/|(?:v|e(?:mbed)?)/|\S*?[?&]v=)|youtu\.be/)([a-zA-Z0-9_-]{11})`)

// ExtractVideoID pulls the video id out of a source URL. The second return
// is false when the URL does not reference the supported host.
func ExtractVideoID(rawURL string) (string, bool) {
	m := videoIDPattern.FindStringSubmatch(strings.TrimSpace(rawURL))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IsSupportedURL reports whether rawURL points at the supported video host.
func IsSupportedURL(rawURL string) bool {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return false
	}
	if !strings.Contains(trimmed, "youtube.com") && !strings.Contains(trimmed, "youtu.be") {
		return false
	}
	_, ok := ExtractVideoID(trimmed)
	return ok
}

// WatchURL rebuilds the canonical watch-page URL for a video id.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
