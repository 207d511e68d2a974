package feeds

import (
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// DefaultMaxVideos caps how many entries a feed listing returns.
const DefaultMaxVideos = 15

// presets maps friendly channel names to their feed identifiers.
var presets = map[string]string{
	"go":    "UCO3LEtymiLrgvpb59cNsb8A",
	"talks": "UCVTlvUkGslCV_h-nSAId8Sw",
}

// Video is one entry of a channel feed.
type Video struct {
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Published time.Time `json:"published"`
	Author    string    `json:"author"`
}

// ResolveFeedURL turns a channel reference into a fetchable feed URL.
// Accepts a preset name, a raw channel id (UC...), or a full feed URL.
func ResolveFeedURL(channel string) (string, error) {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		return "", fmt.Errorf("channel is required")
	}
	if id, ok := presets[strings.ToLower(channel)]; ok {
		channel = id
	}
	if strings.HasPrefix(channel, "http://") || strings.HasPrefix(channel, "https://") {
		return channel, nil
	}
	if strings.HasPrefix(channel, "UC") {
		return "https://www.youtube.com/feeds/videos.xml?channel_id=" + channel, nil
	}
	return "", fmt.Errorf("unknown channel %q", channel)
}

// FetchVideos retrieves and parses a channel feed, returning up to maxCount
// recent videos.
func FetchVideos(channel string, maxCount int) ([]Video, error) {
	feedURL, err := ResolveFeedURL(channel)
	if err != nil {
		return nil, err
	}
	if maxCount <= 0 {
		maxCount = DefaultMaxVideos
	}

	parser := gofeed.NewParser()
	feed, err := parser.ParseURL(feedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	count := len(feed.Items)
	if count > maxCount {
		count = maxCount
	}

	videos := make([]Video, 0, count)
	for i := 0; i < count; i++ {
		item := feed.Items[i]

		var published time.Time
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			published = *item.UpdatedParsed
		}

		author := ""
		if item.Author != nil {
			author = item.Author.Name
		}

		videos = append(videos, Video{
			Title:     item.Title,
			URL:       item.Link,
			Published: published,
			Author:    author,
		})
	}

	return videos, nil
}
