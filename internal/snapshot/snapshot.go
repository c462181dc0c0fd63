// internal/snapshot/snapshot.go
package snapshot

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// MaxKeyLen is the store's limit on key length.
const MaxKeyLen = 64

// Store persists campaign content snapshots under an opaque key. The same key
// doubles as the campaign's external schedule name.
type Store interface {
	Put(ctx context.Context, key string, blob []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

var (
	disallowedRe = regexp.MustCompile(`[^A-Za-z0-9._\s-]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// SanitizeKey derives a storage key from a campaign subject: disallowed
// characters removed, whitespace folded to underscores, a millisecond
// timestamp suffix for collision resistance, capped at MaxKeyLen. Generated
// once when a campaign is created and never regenerated on update.
func SanitizeKey(subject string, t time.Time) string {
	base := disallowedRe.ReplaceAllString(subject, "")
	base = whitespaceRe.ReplaceAllString(strings.TrimSpace(base), "_")

	suffix := "_" + strconv.FormatInt(t.UnixMilli(), 10)
	if max := MaxKeyLen - len(suffix); len(base) > max {
		base = base[:max]
	}
	return base + suffix
}
