// Package menu builds the application menu and MIME association table from
// Desktop Entry files found under a list of data roots.
//
// All items live in one arena and are referred to by index. Index 0 is a
// hidden root directory and index 1 is the "Others" directory that collects
// entries no known category claims.
package menu

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"

	"xdgdesk/internal/errors"
	"xdgdesk/internal/log"
	"xdgdesk/pkg/entry"
)

const (
	applicationsDir = "applications"
	directoriesDir  = "desktop-directories"
	desktopExt      = ".desktop"
	directoryExt    = ".directory"
)

const (
	// RootItem is the arena index of the top level menu.
	RootItem = 0
	// OthersItem is the arena index of the catch-all menu.
	OthersItem = 1
	// OthersKey is the category key of the catch-all menu.
	OthersKey = "__other_apps"
)

// Menu is a category node. Children are arena indices in scan order.
type Menu struct {
	Item     int
	Children []int
}

// Options configure an Index.
type Options struct {
	// Locale selects Name[<Locale>] over Name when present.
	Locale string
	// LocalRoot is the user writable root whose association records are
	// kept for WriteDefaultAssoc. Defaults to the last scanned root.
	LocalRoot string
}

// Index is the menu arena with its category map and association table. It is
// not safe for concurrent use.
type Index struct {
	opts      Options
	localRoot string

	items     []Item
	menus     map[string]*Menu
	assocs    map[string]*Association
	filenames map[string]int
	local     []Assoc
	diags     *multierror.Error
}

// New returns an empty index holding only the synthetic root and Others
// items.
func New(opts Options) *Index {
	ix := &Index{opts: opts}
	ix.reset()
	return ix
}

func (ix *Index) reset() {
	ix.items = []Item{
		RootItem: {Name: "Applications", Hidden: true, Detail: Directory},
		OthersItem: {
			Name:     "Others",
			Icon:     "applications-other",
			Basename: OthersKey,
			Detail:   Directory,
		},
	}
	ix.menus = map[string]*Menu{
		"":        {Item: RootItem},
		OthersKey: {Item: OthersItem},
	}
	ix.assocs = map[string]*Association{}
	ix.filenames = map[string]int{}
	ix.local = nil
	ix.diags = nil
	ix.localRoot = ix.opts.LocalRoot
}

// Scan rebuilds the index from roots, lowest priority first. Each root
// contributes applications/*.desktop, desktop-directories/*.directory and
// applications/mimeapps.list. A file whose name was already seen under an
// earlier root replaces the earlier item in place. Unreadable files are
// skipped and reported through Diagnostics.
func (ix *Index) Scan(roots []string) {
	ix.reset()
	if ix.localRoot == "" && len(roots) > 0 {
		ix.localRoot = roots[len(roots)-1]
	}

	acc := newDesktopAccumulator(ix.opts.Locale)
	perRoot := make([][]Assoc, 0, len(roots))
	for _, root := range roots {
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			log.Debugf("menu: skipping missing root %s", root)
			continue
		}
		ix.scanDir(acc, filepath.Join(root, applicationsDir), desktopExt)
		ix.scanDir(acc, filepath.Join(root, directoriesDir), directoryExt)

		records := ix.readAssocs(filepath.Join(root, applicationsDir, AssocFile))
		if filepath.Clean(root) == filepath.Clean(ix.localRoot) {
			ix.local = append([]Assoc(nil), records...)
		}
		perRoot = append(perRoot, records)
	}

	for _, records := range perRoot {
		for _, rec := range records {
			ix.applyAssoc(rec)
		}
	}
	ix.link()
	ix.rebuildAssocs()

	log.LogWithFields(log.F("items", len(ix.items)), log.F("menus", len(ix.menus)), log.F("mime_types", len(ix.assocs))).
		Debug("menu index built")
}

func (ix *Index) scanDir(acc *desktopAccumulator, dir, ext string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			ix.skip(errors.NewFileError("cannot read directory", dir, errors.FileAccessDenied, err))
		}
		return
	}
	for _, ent := range entries {
		name := ent.Name()
		if !strings.HasSuffix(name, ext) || len(name) == len(ext) {
			continue
		}
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
			continue
		}

		f, err := entry.Open(path)
		if err != nil {
			ix.skip(err)
			continue
		}
		f.Parse(acc)
		if err := f.Close(); err != nil {
			log.LogWithError(err).Debug("menu: close failed")
		}

		it, ok := acc.finish(strings.TrimSuffix(name, ext))
		if !ok {
			log.Debugf("menu: %s has no name, skipped", path)
			continue
		}
		ix.add(name, it)
	}
}

// add appends it to the arena, or replaces the item loaded earlier from a
// file with the same name.
func (ix *Index) add(filename string, it Item) {
	idx, replace := ix.filenames[filename]
	if replace {
		ix.items[idx] = it
		log.Debugf("menu: %s overrides an earlier root", filename)
	} else {
		idx = len(ix.items)
		ix.items = append(ix.items, it)
		ix.filenames[filename] = idx
	}
	if it.Detail == Directory {
		if _, ok := ix.menus[it.Basename]; !ok {
			ix.menus[it.Basename] = &Menu{Item: idx}
		}
	}
}

func (ix *Index) readAssocs(path string) []Assoc {
	f, err := entry.Open(path)
	if err != nil {
		if !errors.IsFileNotFound(err) {
			ix.skip(err)
		}
		return nil
	}
	defer f.Close()

	acc := &assocAccumulator{}
	f.Parse(acc)
	if acc.malformed > 0 {
		ix.skip(errors.NewParseError(fmt.Sprintf("%d association lines without a MIME type", acc.malformed), path, 0, nil))
	}
	return acc.records
}

// link attaches every item to the menus named by its categories.
func (ix *Index) link() {
	root := ix.menus[""]
	others := ix.menus[OthersKey]
	for idx := range ix.items {
		if idx == RootItem {
			continue
		}
		it := &ix.items[idx]
		keys := it.CategoryKeys()
		if len(keys) == 0 && it.Detail == Directory {
			root.Children = append(root.Children, idx)
			continue
		}

		matched := false
		seen := make(map[string]bool, len(keys))
		for _, key := range keys {
			if seen[key] {
				continue
			}
			seen[key] = true
			if m, ok := ix.menus[key]; ok {
				m.Children = append(m.Children, idx)
				matched = true
			}
		}
		if !matched && idx != OthersItem {
			others.Children = append(others.Children, idx)
		}
	}
}

// rebuildAssocs collects candidates from every entry's final MIME list,
// keeping defaults set by association files.
func (ix *Index) rebuildAssocs() {
	for idx := range ix.items {
		ent := ix.items[idx].Entry
		if ent == nil {
			continue
		}
		for _, mime := range ent.MIMEs {
			if mime == "" {
				continue
			}
			a := ix.association(mime)
			a.All = append(a.All, idx)
		}
	}
}

func (ix *Index) skip(err error) {
	if errors.IsMalformed(err) {
		log.LogWithError(err).Debug("menu: skipping malformed records")
	} else {
		log.LogWithError(err).Warn("menu: skipping unreadable file")
	}
	ix.diagnose(err)
}

func (ix *Index) diagnose(err error) {
	ix.diags = multierror.Append(ix.diags, err)
}

// Diagnostics returns the problems met during the last scan, or nil.
func (ix *Index) Diagnostics() error {
	return ix.diags.ErrorOrNil()
}

// Len returns the number of arena items.
func (ix *Index) Len() int {
	return len(ix.items)
}

// Item returns the item at idx.
func (ix *Index) Item(idx int) *Item {
	return &ix.items[idx]
}

// Items returns the arena. Callers must not append to it.
func (ix *Index) Items() []Item {
	return ix.items
}

// Menu returns the category node for key. The top level menu has key "".
func (ix *Index) Menu(key string) (*Menu, bool) {
	m, ok := ix.menus[key]
	return m, ok
}

// Lookup returns the arena index for a desktop file name like "foo.desktop".
func (ix *Index) Lookup(filename string) (int, bool) {
	idx, ok := ix.filenames[filename]
	return idx, ok
}

// Association returns the applications known for mime.
func (ix *Index) Association(mime string) (*Association, bool) {
	a, ok := ix.assocs[mime]
	return a, ok
}

// MIMETypes returns every MIME type with an association, sorted.
func (ix *Index) MIMETypes() []string {
	types := make([]string, 0, len(ix.assocs))
	for mime := range ix.assocs {
		types = append(types, mime)
	}
	sort.Strings(types)
	return types
}

// LocalRoot returns the root whose associations WriteDefaultAssoc persists.
func (ix *Index) LocalRoot() string {
	return ix.localRoot
}
