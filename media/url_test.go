package media

import "testing"

func TestExtractVideoID(t *testing.T) {
	cases := []struct {
		name string
		url  string
		id   string
		ok   bool
	}{
		{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"watch url no scheme", "youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"short url", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"embed url", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"extra params", "https://www.youtube.com/watch?t=42&v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"surrounding whitespace", "  https://youtu.be/dQw4w9WgXcQ  ", "dQw4w9WgXcQ", true},
		{"wrong host", "https://vimeo.com/123456", "", false},
		{"short id", "https://youtu.be/abc", "", false},
		{"empty", "", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, ok := ExtractVideoID(tc.url)
			if ok != tc.ok || id != tc.id {
				t.Fatalf("ExtractVideoID(%q) = (%q, %v), want (%q, %v)", tc.url, id, ok, tc.id, tc.ok)
			}
		})
	}
}

func TestIsSupportedURL(t *testing.T) {
	if !IsSupportedURL("https://www.youtube.com/watch?v=dQw4w9WgXcQ") {
		t.Fatal("watch url should be supported")
	}
	if IsSupportedURL("https://example.com/watch?v=dQw4w9WgXcQ") {
		t.Fatal("foreign host should not be supported")
	}
	if IsSupportedURL("   ") {
		t.Fatal("blank url should not be supported")
	}
}
