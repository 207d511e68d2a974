package media

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

const metadataTimeout = 30 * time.Second

// Metadata is what a lookup can recover about a video without touching the
// audio itself.
type Metadata struct {
	Title    string
	Duration string
}

// MetadataLookup recovers video metadata for jobs whose resolver mirror
// did not supply a title.
type MetadataLookup interface {
	Lookup(ctx context.Context, videoID string) (Metadata, error)
}

// YouTubeMetadata queries the YouTube Data API for title and duration.
type YouTubeMetadata struct {
	service *youtube.Service
}

// NewYouTubeMetadata builds a Data API client. A non-empty apiKey wins;
// otherwise credentialsFile selects service-account auth.
func NewYouTubeMetadata(ctx context.Context, apiKey, credentialsFile string) (*YouTubeMetadata, error) {
	var opts []option.ClientOption

	switch {
	case apiKey != "":
		opts = append(opts, option.WithAPIKey(apiKey))
	case credentialsFile != "":
		data, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account file: %w", err)
		}
		config, err := google.JWTConfigFromJSON(data, youtube.YoutubeReadonlyScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account: %w", err)
		}
		opts = append(opts, option.WithHTTPClient(config.Client(ctx)))
	default:
		return nil, fmt.Errorf("no YouTube API key or credentials file configured")
	}

	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create YouTube service: %w", err)
	}
	return &YouTubeMetadata{service: service}, nil
}

// Lookup fetches snippet and duration for one video id.
func (y *YouTubeMetadata) Lookup(ctx context.Context, videoID string) (Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()

	resp, err := y.service.Videos.
		List([]string{"snippet", "contentDetails"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		return Metadata{}, fmt.Errorf("metadata query failed: %w", err)
	}
	if len(resp.Items) == 0 {
		return Metadata{}, fmt.Errorf("video %s not found", videoID)
	}

	item := resp.Items[0]
	meta := Metadata{}
	if item.Snippet != nil {
		meta.Title = item.Snippet.Title
	}
	if item.ContentDetails != nil {
		meta.Duration = formatISODuration(item.ContentDetails.Duration)
	}
	return meta, nil
}

// PageMetadata scrapes the watch page as a no-credential fallback.
type PageMetadata struct{}

// Lookup extracts the page title via readability.
func (PageMetadata) Lookup(_ context.Context, videoID string) (Metadata, error) {
	article, err := readability.FromURL(WatchURL(videoID), metadataTimeout)
	if err != nil {
		return Metadata{}, fmt.Errorf("page extraction failed: %w", err)
	}

	title := strings.TrimSuffix(strings.TrimSpace(article.Title), " - YouTube")
	if title == "" {
		return Metadata{}, fmt.Errorf("page carried no title")
	}
	return Metadata{Title: title}, nil
}

var isoDurationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// formatISODuration converts an ISO 8601 duration like PT4M13S into the
// mm:ss (or h:mm:ss) display format the transcript model uses. Unparseable
// input yields the empty string.
func formatISODuration(iso string) string {
	m := isoDurationPattern.FindStringSubmatch(iso)
	if m == nil {
		return ""
	}

	hours, _ := strconv.Atoi(zeroIfEmpty(m[1]))
	minutes, _ := strconv.Atoi(zeroIfEmpty(m[2]))
	seconds, _ := strconv.Atoi(zeroIfEmpty(m[3]))

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

func zeroIfEmpty(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
