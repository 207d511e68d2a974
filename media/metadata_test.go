package media

import "testing"

func TestFormatISODuration(t *testing.T) {
	cases := []struct {
		iso  string
		want string
	}{
		{"PT4M13S", "04:13"},
		{"PT13S", "00:13"},
		{"PT1H2M3S", "1:02:03"},
		{"PT2H", "2:00:00"},
		{"PT0S", "00:00"},
		{"garbage", ""},
		{"", ""},
	}

	for _, tc := range cases {
		if got := formatISODuration(tc.iso); got != tc.want {
			t.Errorf("formatISODuration(%q) = %q, want %q", tc.iso, got, tc.want)
		}
	}
}
