package shares

import (
	"math"
	"strings"
	"time"
)

// NeverExpires is the sentinel expiry value for shares without a cutoff.
const NeverExpires = "never"

// Config is the configuration record for a single shared folder.
//
// Expires and PasswordHash are the persisted fields; Name and DaysLeft are
// derived on read. A Config with an empty PasswordHash can never be
// authenticated against.
type Config struct {
	Name         string   `json:"-"`
	Expires      string   `json:"expires"`
	PasswordHash string   `json:"password"`
	DaysLeft     *float64 `json:"-"`
}

// ExpiresAt returns the absolute expiry of the share. ok is false when the
// share never expires (or the stored value is unparsable).
func (c *Config) ExpiresAt() (time.Time, bool) {
	if c.Expires == NeverExpires {
		return time.Time{}, false
	}
	t, err := ParseExpires(c.Expires)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseExpires parses a stored expiry timestamp. Both RFC 3339 and the naive
// local-time form without an offset are accepted.
func ParseExpires(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05", s, time.Local)
}

// FormatExpires renders an absolute expiry in the stored format.
func FormatExpires(t time.Time) string {
	return t.Format("2006-01-02T15:04:05")
}

// SafeName normalizes a folder name to its safe-filename form by dropping
// every character that is not alphanumeric, '-', '.' or '_'.
func SafeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-', r == '.', r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsSafeName reports whether name already equals its safe-filename form.
// Names consisting only of dots are rejected so a share can never escape the
// static root.
func IsSafeName(name string) bool {
	if name == "" || strings.Trim(name, ".") == "" {
		return false
	}
	return name == SafeName(name)
}

// daysLeft computes the remaining share lifetime in days, rounded to one
// decimal, or nil for shares that never expire.
func daysLeft(c *Config, now time.Time) *float64 {
	expiry, ok := c.ExpiresAt()
	if !ok {
		return nil
	}
	d := math.Round(expiry.Sub(now).Hours()/24*10) / 10
	return &d
}
