package health

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestFormatTimestamp(t *testing.T) {
	amsterdam, err := time.LoadLocation("Europe/Amsterdam")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}

	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{
			name: "utc",
			in:   time.Date(2024, 3, 1, 10, 15, 30, 0, time.UTC),
			want: "2024-03-01T10:15:30Z[UTC]",
		},
		{
			name: "named zone with fraction",
			in:   time.Date(2024, 3, 1, 10, 15, 30, 123_000_000, amsterdam),
			want: "2024-03-01T10:15:30.123+01:00[Europe/Amsterdam]",
		},
		{
			name: "fixed offset",
			in:   time.Date(2024, 3, 1, 10, 15, 30, 0, time.FixedZone("", 2*3600)),
			want: "2024-03-01T10:15:30+02:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatTimestamp(tt.in); got != tt.want {
				t.Errorf("FormatTimestamp() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatTimestamp_LocalCarriesZoneName(t *testing.T) {
	orig := localZoneName
	t.Cleanup(func() { localZoneName = orig })

	localZoneName = func() string { return "Europe/Amsterdam" }
	got := FormatTimestamp(time.Date(2024, 3, 1, 10, 15, 30, 0, time.Local))
	if !strings.HasSuffix(got, "[Europe/Amsterdam]") {
		t.Errorf("FormatTimestamp(local) = %q, want [Europe/Amsterdam] suffix", got)
	}

	localZoneName = func() string { return "" }
	got = FormatTimestamp(time.Date(2024, 3, 1, 10, 15, 30, 0, time.Local))
	if strings.Contains(got, "[") {
		t.Errorf("FormatTimestamp(local) = %q, want no zone suffix", got)
	}
}

func TestResolveLocalZone(t *testing.T) {
	noLink := func(string) (string, error) { return "", errors.New("not a symlink") }
	link := func(target string) func(string) (string, error) {
		return func(string) (string, error) { return target, nil }
	}
	env := func(v string, ok bool) func(string) (string, bool) {
		return func(string) (string, bool) { return v, ok }
	}

	tests := []struct {
		name      string
		lookupEnv func(string) (string, bool)
		readlink  func(string) (string, error)
		want      string
	}{
		{"tz name", env("America/New_York", true), noLink, "America/New_York"},
		{"tz with colon", env(":Asia/Tokyo", true), noLink, "Asia/Tokyo"},
		{"tz empty means utc", env("", true), noLink, "UTC"},
		{"tz path", env("/usr/share/zoneinfo/Europe/Paris", true), noLink, "Europe/Paris"},
		{"tz path outside zoneinfo", env("/tmp/custom", true), noLink, ""},
		{"tz wins over link", env("UTC", true), link("/usr/share/zoneinfo/Europe/Paris"), "UTC"},
		{"localtime link", env("", false), link("/usr/share/zoneinfo/Europe/Amsterdam"), "Europe/Amsterdam"},
		{"relative localtime link", env("", false), link("../usr/share/zoneinfo/Etc/UTC"), "Etc/UTC"},
		{"localtime not a link", env("", false), noLink, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveLocalZone(tt.lookupEnv, tt.readlink); got != tt.want {
				t.Errorf("resolveLocalZone() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseTimestamp_RoundTrip(t *testing.T) {
	amsterdam, err := time.LoadLocation("Europe/Amsterdam")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}
	in := time.Date(2024, 7, 1, 8, 0, 0, 42, amsterdam)

	got, err := ParseTimestamp(FormatTimestamp(in))
	if err != nil {
		t.Fatalf("ParseTimestamp() error = %v", err)
	}
	if !got.Equal(in) {
		t.Errorf("ParseTimestamp() = %v, want %v", got, in)
	}
	if got.Location().String() != "Europe/Amsterdam" {
		t.Errorf("Location() = %v, want Europe/Amsterdam", got.Location())
	}
}

func TestParseTimestamp_Errors(t *testing.T) {
	for _, in := range []string{"yesterday", "2024-03-01T10:15:30Z[Nowhere/Special]"} {
		if _, err := ParseTimestamp(in); err == nil {
			t.Errorf("ParseTimestamp(%q) expected error", in)
		}
	}
}
