// Package platform holds the static publishing limits for social destinations.
package platform

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"reelforge/internal/services"
)

const (
	Twitter  = "twitter"
	LinkedIn = "linkedin"

	mib = 1 << 20
	gib = 1 << 30
)

// Limit describes what a destination accepts. Duration and size are checked
// independently of each other.
type Limit struct {
	Name         string  `json:"name"`
	Label        string  `json:"label"`
	MaxDuration  float64 `json:"max_duration"`
	MaxSizeBytes int64   `json:"max_size_bytes"`
	Suffix       string  `json:"suffix"`
}

var limits = map[string]Limit{
	Twitter: {
		Name:         Twitter,
		Label:        "X (Twitter)",
		MaxDuration:  599,
		MaxSizeBytes: 512 * mib,
		Suffix:       "X",
	},
	LinkedIn: {
		Name:         LinkedIn,
		Label:        "LinkedIn",
		MaxDuration:  899,
		MaxSizeBytes: 5 * gib,
		Suffix:       "LinkedIn",
	},
}

var aliases = map[string]string{
	"x": Twitter,
}

// Lookup resolves a platform name case-insensitively.
func Lookup(name string) (Limit, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := aliases[key]; ok {
		key = alias
	}
	limit, ok := limits[key]
	if !ok {
		msg := fmt.Sprintf("unsupported platform %q (supported: %s)", name, strings.Join(Names(), ", "))
		return Limit{}, services.Wrap(services.ErrInvalidPlatform, "platform", "lookup", msg, nil)
	}
	return limit, nil
}

// All returns every limit ordered by name.
func All() []Limit {
	out := make([]Limit, 0, len(limits))
	for _, limit := range limits {
		out = append(out, limit)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names lists the canonical platform names.
func Names() []string {
	all := All()
	names := make([]string, len(all))
	for i, limit := range all {
		names[i] = limit.Name
	}
	return names
}

// Suffixes lists the output name suffixes of every platform.
func Suffixes() []string {
	all := All()
	out := make([]string, len(all))
	for i, limit := range all {
		out[i] = limit.Suffix
	}
	return out
}

// Exceeds reports whether duration is over the limit.
func (l Limit) Exceeds(duration float64) bool {
	return duration > l.MaxDuration
}

// ExceedsSize reports whether size is over the limit.
func (l Limit) ExceedsSize(size int64) bool {
	return l.MaxSizeBytes > 0 && size > l.MaxSizeBytes
}

// ClipName is the re-encoded clip written for source: clip.mkv becomes clip_X.mp4.
func (l Limit) ClipName(source string) string {
	return stem(source) + "_" + l.Suffix + ".mp4"
}

// CutName is the publishing cut for source, keeping its container: clip.mp4 becomes clip_X_cut.mp4.
func (l Limit) CutName(source string) string {
	return stem(source) + "_" + l.Suffix + "_cut" + filepath.Ext(source)
}

// MaxDurationLabel renders the duration limit as m:ss.
func (l Limit) MaxDurationLabel() string {
	return FormatClock(l.MaxDuration)
}

// FormatClock renders seconds as m:ss, truncating fractions.
func FormatClock(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// SizeMB renders bytes as megabytes with two decimals.
func SizeMB(size int64) string {
	return fmt.Sprintf("%.2f", float64(size)/float64(mib))
}

func stem(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
