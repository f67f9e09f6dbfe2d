// Package icon resolves freedesktop icon names to files inside installed icon
// themes.
//
// A Collection indexes <root>/icons/<theme>/<size-spec>/**/<name>.{svg,png}
// for each theme and root, where <size-spec> is "scalable" or
// "<N>x<N>[@<scale>]". Lookups walk themes in priority order and return the
// first match; themes are never merged.
package icon

import (
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"xdgdesk/internal/log"
)

// FallbackTheme is always searched after the requested themes.
const FallbackTheme = "hicolor"

const maxScanDepth = 16

var sizeSpec = regexp.MustCompile(`^([0-9]+)x[0-9]+(?:@([0-9]+))?$`)

// Description is the nominal size class of an icon directory.
type Description struct {
	Scalable bool
	Size     int
	Scale    int
}

// Resolution is the effective pixel size. Scalable icons sort above every
// bitmap.
func (d Description) Resolution() int {
	if d.Scalable {
		return math.MaxInt
	}
	return d.Size * d.Scale
}

// ParseDescription classifies a theme subdirectory name.
func ParseDescription(s string) (Description, bool) {
	if s == "scalable" {
		return Description{Scalable: true}, true
	}
	m := sizeSpec.FindStringSubmatch(s)
	if m == nil {
		return Description{}, false
	}
	size, err := strconv.Atoi(m[1])
	if err != nil || size == 0 {
		return Description{}, false
	}
	scale := 1
	if m[2] != "" {
		if scale, err = strconv.Atoi(m[2]); err != nil || scale == 0 {
			return Description{}, false
		}
	}
	return Description{Size: size, Scale: scale}, true
}

// Icon is one icon file.
type Icon struct {
	Name string
	Path string
	Desc Description
}

// Ext returns the file extension of the icon, including the dot.
func (i Icon) Ext() string {
	return filepath.Ext(i.Path)
}

type bucket map[string][]Icon

type theme struct {
	name     string
	scalable bucket
	bitmap   map[int]bucket
	sizes    []int
}

func newTheme(name string) *theme {
	return &theme{
		name:     name,
		scalable: bucket{},
		bitmap:   map[int]bucket{},
	}
}

// Collection is an index of icon themes.
type Collection struct {
	themes []*theme
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{}
}

// Scan indexes themes (most specific first) below every root. The fallback
// theme is appended when missing. Unreadable directories are skipped.
func (c *Collection) Scan(themes []string, roots []string) {
	names := append([]string(nil), themes...)
	hasFallback := false
	for _, n := range names {
		if n == FallbackTheme {
			hasFallback = true
		}
	}
	if !hasFallback {
		names = append(names, FallbackTheme)
	}

	for _, name := range names {
		th := newTheme(name)
		for _, root := range roots {
			th.scanThemeDir(filepath.Join(root, "icons", name))
		}
		sort.Ints(th.sizes)
		c.themes = append(c.themes, th)
	}
}

// Themes returns the theme names in search order.
func (c *Collection) Themes() []string {
	names := make([]string, len(c.themes))
	for i, th := range c.themes {
		names[i] = th.name
	}
	return names
}

func (th *theme) scanThemeDir(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, ent := range entries {
		path := filepath.Join(dir, ent.Name())
		if !isDir(ent, path) {
			continue
		}
		desc, ok := ParseDescription(ent.Name())
		if !ok {
			log.Debugf("icon: ignoring %s: not a size directory", path)
			continue
		}
		th.scanBucket(path, desc, 0)
	}
}

func (th *theme) scanBucket(dir string, desc Description, depth int) {
	if depth > maxScanDepth {
		log.Warnf("icon: not descending into %s: too deep", dir)
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Debugf("icon: cannot read %s: %v", dir, err)
		return
	}
	for _, ent := range entries {
		name := ent.Name()
		if strings.HasSuffix(name, "-symbolic.symbolic") {
			continue
		}
		path := filepath.Join(dir, name)
		if isDir(ent, path) {
			th.scanBucket(path, desc, depth+1)
			continue
		}
		ext := filepath.Ext(name)
		if ext != ".png" && ext != ".svg" {
			continue
		}
		stem := strings.TrimSuffix(name, ext)
		if strings.HasSuffix(stem, "-symbolic.symbolic") {
			continue
		}
		th.add(Icon{Name: stem, Path: path, Desc: desc})
	}
}

func (th *theme) add(ic Icon) {
	if ic.Desc.Scalable {
		th.scalable[ic.Name] = append(th.scalable[ic.Name], ic)
		return
	}
	res := ic.Desc.Resolution()
	b, ok := th.bitmap[res]
	if !ok {
		b = bucket{}
		th.bitmap[res] = b
		th.sizes = append(th.sizes, res)
	}
	b[ic.Name] = append(b[ic.Name], ic)
}

// isDir follows symlinks.
func isDir(ent os.DirEntry, path string) bool {
	if ent.IsDir() {
		return true
	}
	if ent.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// pick returns the most recently registered icon for name, preferring svg
// over png.
func (b bucket) pick(name string, pred func(Description) bool) (Icon, bool) {
	icons := b[name]
	for _, ext := range []string{".svg", ".png"} {
		for i := len(icons) - 1; i >= 0; i-- {
			if icons[i].Ext() == ext && pred(icons[i].Desc) {
				return icons[i], true
			}
		}
	}
	return Icon{}, false
}

func (th *theme) find(name string, size int, pred func(Description) bool) (Icon, bool) {
	if ic, ok := th.scalable.pick(name, pred); ok {
		return ic, true
	}

	first := sort.SearchInts(th.sizes, size)
	for _, res := range th.sizes[first:] {
		if ic, ok := th.bitmap[res].pick(name, pred); ok {
			return ic, true
		}
	}
	// Only smaller bitmaps left: take the largest of them.
	for i := first - 1; i >= 0; i-- {
		if ic, ok := th.bitmap[th.sizes[i]].pick(name, pred); ok {
			return ic, true
		}
	}
	return Icon{}, false
}

// FindIcon returns the best icon for name at the desired pixel size.
//
// Scalable icons win when present. Otherwise the smallest bitmap at least as
// large as size is chosen, falling back to the largest smaller bitmap.
// Absolute paths are returned as they are, without consulting any theme.
func (c *Collection) FindIcon(name string, size int) (Icon, bool) {
	return c.FindIconFunc(name, size, func(Description) bool { return true })
}

// FindIconFunc is FindIcon restricted to icons whose description satisfies
// pred.
func (c *Collection) FindIconFunc(name string, size int, pred func(Description) bool) (Icon, bool) {
	if name == "" {
		return Icon{}, false
	}
	if filepath.IsAbs(name) {
		base := filepath.Base(name)
		return Icon{Name: strings.TrimSuffix(base, filepath.Ext(base)), Path: name}, true
	}
	for _, th := range c.themes {
		if ic, ok := th.find(name, size, pred); ok {
			return ic, true
		}
	}
	return Icon{}, false
}
