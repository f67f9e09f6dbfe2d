package menu

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"xdgdesk/internal/errors"
	"xdgdesk/internal/log"
)

// AssocFile is the association file name, looked up in <root>/applications.
const AssocFile = "mimeapps.list"

// AssocKind is the mimeapps.list section a record belongs to.
type AssocKind int

const (
	AssocDefault AssocKind = iota
	AssocAdd
	AssocRemove
)

var assocSections = [...]string{
	AssocDefault: "Default Applications",
	AssocAdd:     "Added Associations",
	AssocRemove:  "Removed Associations",
}

func (k AssocKind) String() string {
	if k >= 0 && int(k) < len(assocSections) {
		return assocSections[k]
	}
	return "Unknown"
}

// parseAssocSection also accepts the "Add Associations" spelling.
func parseAssocSection(name string) (AssocKind, bool) {
	switch name {
	case "Default Applications":
		return AssocDefault, true
	case "Added Associations", "Add Associations":
		return AssocAdd, true
	case "Removed Associations":
		return AssocRemove, true
	}
	return 0, false
}

// Assoc is one mimeapps.list record. Filename is a desktop file name such as
// "foo.desktop".
type Assoc struct {
	Filename string
	MIME     string
	Kind     AssocKind
}

// NoItem marks an unset default.
const NoItem = -1

// Association lists the applications able to open one MIME type.
type Association struct {
	Default int
	All     []int
}

// HasDefault reports whether a default application is set.
func (a *Association) HasDefault() bool {
	return a.Default != NoItem
}

func (ix *Index) association(mime string) *Association {
	a, ok := ix.assocs[mime]
	if !ok {
		a = &Association{Default: NoItem}
		ix.assocs[mime] = a
	}
	return a
}

// applyAssoc applies one record against the arena.
func (ix *Index) applyAssoc(rec Assoc) {
	idx, ok := ix.filenames[rec.Filename]
	if !ok || ix.items[idx].Entry == nil {
		log.LogWithFields(log.F("file", rec.Filename), log.F("mime", rec.MIME), log.F("section", rec.Kind.String())).
			Debug("association names an unknown application")
		ix.diagnose(errors.NewKind(errors.UnknownTarget, "association for "+rec.MIME+" names unknown application "+rec.Filename, nil))
		return
	}
	ent := ix.items[idx].Entry
	switch rec.Kind {
	case AssocAdd:
		if !ent.hasMIME(rec.MIME) {
			ent.MIMEs = append(ent.MIMEs, rec.MIME)
		}
	case AssocRemove:
		ent.removeMIME(rec.MIME)
	case AssocDefault:
		ix.association(rec.MIME).Default = idx
	}
}

// ChangeDefaultAssoc makes item idx the default application for mime and
// records the change in the local association list. The first local Default
// record for mime is patched in place and any later ones are dropped, so the
// change survives a rescan. Without one, a record is appended.
func (ix *Index) ChangeDefaultAssoc(mime string, idx int) error {
	if mime == "" {
		return errors.NewKind(errors.MalformedRecord, "empty MIME type", nil)
	}
	if idx < 0 || idx >= len(ix.items) || ix.items[idx].Entry == nil {
		return errors.NewKind(errors.UnknownTarget, "not an application entry", nil)
	}
	filename, ok := ix.filenameOf(idx)
	if !ok {
		return errors.NewKind(errors.UnknownTarget, "application has no desktop file", nil)
	}

	ix.association(mime).Default = idx

	patched := false
	kept := ix.local[:0]
	for _, rec := range ix.local {
		if rec.Kind == AssocDefault && rec.MIME == mime {
			if patched {
				continue
			}
			rec.Filename = filename
			patched = true
		}
		kept = append(kept, rec)
	}
	ix.local = kept
	if !patched {
		ix.local = append(ix.local, Assoc{Filename: filename, MIME: mime, Kind: AssocDefault})
	}
	return nil
}

// filenameOf returns the file name item idx was loaded from.
func (ix *Index) filenameOf(idx int) (string, bool) {
	for name, i := range ix.filenames {
		if i == idx {
			return name, true
		}
	}
	return "", false
}

// LocalAssocs returns a copy of the records that WriteDefaultAssoc persists.
func (ix *Index) LocalAssocs() []Assoc {
	return append([]Assoc(nil), ix.local...)
}

// LocalAssocPath is the file WriteDefaultAssoc rewrites.
func (ix *Index) LocalAssocPath() string {
	return filepath.Join(ix.localRoot, applicationsDir, AssocFile)
}

// WriteDefaultAssoc rewrites the local mimeapps.list from the local records.
// The file is truncated and regenerated while holding an exclusive lock on
// a sibling .lock file.
func (ix *Index) WriteDefaultAssoc() error {
	if ix.localRoot == "" {
		return errors.NewConfigError("no local root to write associations to", "local_root", errors.InvalidConfig, nil)
	}
	path := ix.LocalAssocPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.NewFileError("cannot create applications directory", filepath.Dir(path), errors.FileOperationFailed, err)
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return errors.NewFileError("cannot lock association file", path, errors.FileAccessDenied, err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.LogWithError(err).Warn("failed to release association lock")
		}
	}()

	if err := os.WriteFile(path, FormatAssocs(ix.local), 0o644); err != nil {
		kind := errors.FileOperationFailed
		if os.IsPermission(err) {
			kind = errors.FileAccessDenied
		}
		return errors.NewFileError("cannot write association file", path, kind, err)
	}
	log.LogWithFields(log.F("path", path), log.F("records", len(ix.local))).Info("associations written")
	return nil
}

// FormatAssocs renders records as mimeapps.list content. Records are grouped
// by kind in first-seen order; records of one kind sharing a MIME type are
// joined on one line.
func FormatAssocs(records []Assoc) []byte {
	type group struct {
		kind  AssocKind
		mimes []string
		files map[string][]string
	}
	var groups []*group
	byKind := map[AssocKind]*group{}
	for _, rec := range records {
		g, ok := byKind[rec.Kind]
		if !ok {
			g = &group{kind: rec.Kind, files: map[string][]string{}}
			byKind[rec.Kind] = g
			groups = append(groups, g)
		}
		if _, seen := g.files[rec.MIME]; !seen {
			g.mimes = append(g.mimes, rec.MIME)
		}
		g.files[rec.MIME] = append(g.files[rec.MIME], rec.Filename)
	}

	var buf bytes.Buffer
	for i, g := range groups {
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString("[" + g.kind.String() + "]\n")
		for _, mime := range g.mimes {
			buf.WriteString(mime)
			buf.WriteByte('=')
			for _, f := range g.files[mime] {
				buf.WriteString(f)
				buf.WriteByte(';')
			}
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes()
}
