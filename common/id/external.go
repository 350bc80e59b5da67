package id

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const bugIDSuffixLen = 4

// NewBugID returns the externally visible issue id: BUG-<unix millis>-<4 random chars>.
func NewBugID(now time.Time) string {
	return fmt.Sprintf("BUG-%d-%s", now.UnixMilli(), randomHex(bugIDSuffixLen))
}

// NewAPIKey builds a tenant key of the form APP_<ENV4>_<TS36>_<32 HEX>.
func NewAPIKey(environment string, now time.Time) string {
	env := strings.ToUpper(environment)
	if len(env) > 4 {
		env = env[:4]
	}
	ts := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))
	return fmt.Sprintf("APP_%s_%s_%s", env, ts, strings.ToUpper(randomHex(32)))
}

// MaskAPIKey keeps the first 8 and last 4 characters and stars up to 8 in between.
func MaskAPIKey(key string) string {
	if len(key) <= 12 {
		return key
	}
	stars := len(key) - 12
	if stars > 8 {
		stars = 8
	}
	return key[:8] + strings.Repeat("*", stars) + key[len(key)-4:]
}

func randomHex(n int) string {
	var b strings.Builder
	for b.Len() < n {
		b.WriteString(strings.ReplaceAll(uuid.NewString(), "-", ""))
	}
	return b.String()[:n]
}
