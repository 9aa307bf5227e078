package health

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// TimestampLayout is the ISO-8601 offset part of a zoned timestamp.
const TimestampLayout = "2006-01-02T15:04:05.999999999Z07:00"

// FormatTimestamp renders t as an ISO-8601 zoned timestamp: the offset form
// followed by the zone name in brackets when the location has one,
// e.g. 2024-03-01T10:15:30.5+01:00[Europe/Amsterdam].
//
// Times in time.Local carry the name resolved from TZ or the /etc/localtime
// link. When neither names a tz database zone the suffix is omitted.
func FormatTimestamp(t time.Time) string {
	s := t.Format(TimestampLayout)
	name := t.Location().String()
	if t.Location() == time.Local {
		name = localZoneName()
	}
	if name != "" {
		s += "[" + name + "]"
	}
	return s
}

var localZoneName = sync.OnceValue(func() string {
	name := resolveLocalZone(os.LookupEnv, os.Readlink)
	if name == "" {
		return ""
	}
	if _, err := time.LoadLocation(name); err != nil {
		return ""
	}
	return name
})

// resolveLocalZone mirrors how the runtime picks time.Local: TZ when set,
// otherwise the /etc/localtime symlink.
func resolveLocalZone(lookupEnv func(string) (string, bool), readlink func(string) (string, error)) string {
	if tz, ok := lookupEnv("TZ"); ok {
		tz = strings.TrimPrefix(tz, ":")
		switch {
		case tz == "":
			return "UTC"
		case strings.HasPrefix(tz, "/"):
			return zoneFromPath(tz)
		default:
			return tz
		}
	}
	target, err := readlink("/etc/localtime")
	if err != nil {
		return ""
	}
	return zoneFromPath(target)
}

func zoneFromPath(path string) string {
	const dir = "zoneinfo/"
	i := strings.LastIndex(path, dir)
	if i < 0 {
		return ""
	}
	return path[i+len(dir):]
}

// ParseTimestamp parses the output of FormatTimestamp. A bracketed zone is
// loaded from the tz database and applied to the result.
func ParseTimestamp(s string) (time.Time, error) {
	var zone string
	if i := strings.IndexByte(s, '['); i >= 0 && strings.HasSuffix(s, "]") {
		zone = s[i+1 : len(s)-1]
		s = s[:i]
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("health: parse timestamp: %w", err)
	}
	if zone == "" {
		return t, nil
	}

	loc, err := time.LoadLocation(zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("health: parse timestamp zone %q: %w", zone, err)
	}
	return t.In(loc), nil
}
