package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"reelforge/internal/platform"
	"reelforge/internal/services"
	"reelforge/internal/textutil"
)

// Category classifies a listed file.
type Category string

const (
	CategorySegment      Category = "segment"
	CategoryConcatenated Category = "concatenated-output"
	CategoryConverted    Category = "converted-output"
	CategoryRenamed      Category = "renamed-output"
	CategoryPlatformClip Category = "platform-clip"
	CategoryVideo        Category = "video"
	CategoryTranscript   Category = "transcript"
	CategoryThumbnail    Category = "thumbnail"
	// CategoryOther is only returned by Stat for names List would skip.
	CategoryOther Category = "other"
)

// Role names a well-known output slot.
type Role string

const (
	RoleConcatenated Role = "concatenated"
	RoleConverted    Role = "converted"
)

const (
	TierOutput        = 1
	TierVideo         = 2
	TierTranscript    = 3
	TierThumbnail     = 4
	TierSegment       = 5
	transcriptSuffix  = "_transcript.txt"
	thumbnailPrefix   = "thumbnail-"
	thumbnailExt      = ".png"
	DefaultPattern    = `(?i)^(\d|segment)`
	defaultOutputBase = "output"
)

var videoExtensions = map[string]struct{}{
	".mkv": {}, ".mp4": {}, ".avi": {}, ".mov": {}, ".wmv": {},
}

// MediaFile is one classified entry of the working directory.
type MediaFile struct {
	Name     string    `json:"name"`
	Category Category  `json:"category"`
	Tier     int       `json:"tier"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"modified"`
}

// Options controls naming and classification.
type Options struct {
	OutputBasename     string
	SegmentExtension   string
	ConvertedExtension string
	SegmentPattern     string
	// ClipSuffixes are the platform suffixes recognized in clip names; nil means every known platform.
	ClipSuffixes []string
}

// Catalog lists and classifies files in a single working directory.
type Catalog struct {
	dir       string
	fsys      fs.FS
	output    string
	segment   string
	converted string
	pattern   *regexp.Regexp
	suffixes  []string
}

// New returns a catalog over dir on the local filesystem.
func New(dir string, opts Options) (*Catalog, error) {
	return NewFS(os.DirFS(dir), dir, opts)
}

// NewFS returns a catalog reading from fsys. dir is the on-disk location used
// for mutations and absolute paths; it may be empty for read-only use.
func NewFS(fsys fs.FS, dir string, opts Options) (*Catalog, error) {
	if fsys == nil {
		return nil, errors.New("catalog: filesystem is required")
	}
	pattern := strings.TrimSpace(opts.SegmentPattern)
	if pattern == "" {
		pattern = DefaultPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "catalog", "segment pattern", pattern, err)
	}
	c := &Catalog{
		dir:       dir,
		fsys:      fsys,
		output:    fallback(opts.OutputBasename, defaultOutputBase),
		segment:   strings.ToLower(fallback(opts.SegmentExtension, ".mkv")),
		converted: strings.ToLower(fallback(opts.ConvertedExtension, ".mp4")),
		pattern:   re,
		suffixes:  opts.ClipSuffixes,
	}
	if c.suffixes == nil {
		c.suffixes = platform.Suffixes()
	}
	return c, nil
}

// Dir returns the on-disk working directory.
func (c *Catalog) Dir() string {
	return c.dir
}

// Path returns the absolute location of name inside the working directory.
func (c *Catalog) Path(name string) string {
	return filepath.Join(c.dir, name)
}

// RoleName returns the file name that occupies role.
func (c *Catalog) RoleName(role Role) string {
	switch role {
	case RoleConcatenated:
		return c.output + c.segment
	case RoleConverted:
		return c.output + c.converted
	default:
		return ""
	}
}

// List returns every recognized file in tier order. A directory that cannot
// be read fails the whole listing rather than returning a partial one.
func (c *Catalog) List(ctx context.Context) ([]MediaFile, error) {
	entries, err := fs.ReadDir(c.fsys, ".")
	if err != nil {
		return nil, services.Wrap(services.ErrIO, "catalog", "list", "read working directory", err)
	}

	files := make([]MediaFile, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		category, tier := c.classify(name)
		if category == CategoryOther {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, services.Wrap(services.ErrIO, "catalog", "list", "stat "+name, err)
		}
		if !info.Mode().IsRegular() {
			continue
		}
		files = append(files, MediaFile{
			Name:     name,
			Category: category,
			Tier:     tier,
			Size:     info.Size(),
			ModTime:  info.ModTime(),
		})
	}

	sortFiles(files)
	return files, nil
}

// Segments returns raw segments in List order.
func (c *Catalog) Segments(ctx context.Context) ([]MediaFile, error) {
	files, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	segments := files[:0]
	for _, f := range files {
		if f.Category == CategorySegment {
			segments = append(segments, f)
		}
	}
	return segments, nil
}

// FindByRole returns the file occupying role, or nil when the slot is empty.
func (c *Catalog) FindByRole(ctx context.Context, role Role) (*MediaFile, error) {
	name := c.RoleName(role)
	if name == "" {
		return nil, services.Wrap(services.ErrValidation, "catalog", "find role", fmt.Sprintf("unknown role %q", role), nil)
	}
	file, err := c.Stat(ctx, name)
	if errors.Is(err, services.ErrInputNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// Stat returns the classified entry for name. Names must refer to a regular
// file directly inside the working directory.
func (c *Catalog) Stat(_ context.Context, name string) (MediaFile, error) {
	if err := ValidateName(name); err != nil {
		return MediaFile{}, err
	}
	info, err := fs.Stat(c.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return MediaFile{}, services.Wrap(services.ErrInputNotFound, "catalog", "stat", name+" does not exist", nil)
		}
		return MediaFile{}, services.Wrap(services.ErrIO, "catalog", "stat", name, err)
	}
	if !info.Mode().IsRegular() {
		return MediaFile{}, services.Wrap(services.ErrInputNotFound, "catalog", "stat", name+" is not a regular file", nil)
	}
	category, tier := c.classify(name)
	return MediaFile{Name: name, Category: category, Tier: tier, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// ValidateName rejects empty names, path separators, and parent references.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return services.Wrap(services.ErrValidation, "catalog", "name", "file name is required", nil)
	case strings.ContainsAny(name, `/\`), name == ".", name == "..":
		return services.Wrap(services.ErrValidation, "catalog", "name", fmt.Sprintf("%q must be a plain file name", name), nil)
	case strings.ContainsRune(name, 0):
		return services.Wrap(services.ErrValidation, "catalog", "name", "file name contains NUL", nil)
	}
	return nil
}

// DeleteThumbnail removes a thumbnail-*.png file and nothing else.
func (c *Catalog) DeleteThumbnail(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if !isThumbnail(name) {
		return services.Wrap(services.ErrValidation, "catalog", "delete thumbnail", fmt.Sprintf("%q is not a thumbnail", name), nil)
	}
	if _, err := c.Stat(ctx, name); err != nil {
		return err
	}
	if err := os.Remove(c.Path(name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return services.Wrap(services.ErrInputNotFound, "catalog", "delete thumbnail", name+" does not exist", nil)
		}
		return services.Wrap(services.ErrIO, "catalog", "delete thumbnail", name, err)
	}
	return nil
}

// Rename records one publish rename.
type Rename struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Publish renames the canonical outputs to a sanitized title, moving them to
// the renamed-output role. Existing files with the target names are replaced.
func (c *Catalog) Publish(ctx context.Context, title string) ([]Rename, error) {
	stem := textutil.SanitizeTitle(title)
	if stem == "" {
		return nil, services.Wrap(services.ErrValidation, "catalog", "publish", "title has no usable characters", nil)
	}
	if strings.EqualFold(stem, c.output) {
		return nil, services.Wrap(services.ErrValidation, "catalog", "publish", fmt.Sprintf("title %q collides with the output name", stem), nil)
	}

	var renames []Rename
	for _, role := range []Role{RoleConcatenated, RoleConverted} {
		file, err := c.FindByRole(ctx, role)
		if err != nil {
			return renames, err
		}
		if file == nil {
			continue
		}
		target := stem + filepath.Ext(file.Name)
		if err := os.Rename(c.Path(file.Name), c.Path(target)); err != nil {
			return renames, services.Wrap(services.ErrIO, "catalog", "publish", "rename "+file.Name, err)
		}
		renames = append(renames, Rename{From: file.Name, To: target})
	}
	if len(renames) == 0 {
		msg := fmt.Sprintf("no %s or %s to publish", c.RoleName(RoleConcatenated), c.RoleName(RoleConverted))
		return nil, services.Wrap(services.ErrInputNotFound, "catalog", "publish", msg, nil)
	}
	return renames, nil
}

func (c *Catalog) classify(name string) (Category, int) {
	lower := strings.ToLower(name)
	ext := filepath.Ext(lower)
	stem := strings.TrimSuffix(name, filepath.Ext(name))

	switch {
	case isThumbnail(name):
		return CategoryThumbnail, TierThumbnail
	case strings.HasSuffix(lower, transcriptSuffix):
		return CategoryTranscript, TierTranscript
	}
	if _, ok := videoExtensions[ext]; !ok && ext != c.segment && ext != c.converted {
		return CategoryOther, 0
	}

	switch {
	case stem == c.output && ext == c.segment:
		return CategoryConcatenated, TierOutput
	case stem == c.output:
		return CategoryConverted, TierOutput
	case c.isPlatformClip(stem):
		return CategoryPlatformClip, TierOutput
	case ext == c.segment && c.pattern.MatchString(name):
		return CategorySegment, TierSegment
	case (ext == c.segment || ext == c.converted) && !c.pattern.MatchString(name):
		return CategoryRenamed, TierOutput
	default:
		return CategoryVideo, TierVideo
	}
}

func (c *Catalog) isPlatformClip(stem string) bool {
	trimmed := strings.TrimSuffix(stem, "_cut")
	for _, suffix := range c.suffixes {
		marker := "_" + suffix
		if strings.HasSuffix(trimmed, marker) && len(trimmed) > len(marker) {
			return true
		}
	}
	return false
}

func isThumbnail(name string) bool {
	return strings.HasPrefix(name, thumbnailPrefix) && strings.HasSuffix(name, thumbnailExt)
}

// sortFiles orders by tier, then English numeric collation ignoring case and
// accents, then raw bytes so the order is total.
func sortFiles(files []MediaFile) {
	col := collate.New(language.English, collate.Numeric, collate.Loose)
	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i], files[j]
		if a.Tier != b.Tier {
			return a.Tier < b.Tier
		}
		if cmp := col.CompareString(a.Name, b.Name); cmp != 0 {
			return cmp < 0
		}
		return a.Name < b.Name
	})
}

func fallback(value, def string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return def
}
