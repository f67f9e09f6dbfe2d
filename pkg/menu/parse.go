package menu

import (
	"bytes"
	"strings"

	"xdgdesk/pkg/entry"
)

const (
	sectionDesktopEntry  = "Desktop Entry"
	sectionDesktopAction = "Desktop Action"
)

type entryKey int

const (
	keyOther entryKey = iota
	keyType
	keyName
	keyLocalizedName
	keyIcon
	keyCategories
	keyNoDisplay
	keyExec
	keyWMClass
	keyTerminal
	keyMimeType
)

// desktopAccumulator builds one Item from a .desktop or .directory file. It
// is reset between files and owned by the scan that drives it.
type desktopAccumulator struct {
	localizedName string

	current   Item
	name      string
	localized string
	key       entryKey
	inSection bool
	inAction  bool
}

func newDesktopAccumulator(locale string) *desktopAccumulator {
	acc := &desktopAccumulator{}
	if locale != "" {
		acc.localizedName = "Name[" + locale + "]"
	}
	return acc
}

func (a *desktopAccumulator) reset() {
	a.current = Item{}
	a.name = ""
	a.localized = ""
	a.key = keyOther
	a.inSection = false
	a.inAction = false
}

func (a *desktopAccumulator) Section(name []byte) bool {
	a.key = keyOther
	switch {
	case bytes.HasPrefix(name, []byte(sectionDesktopAction)):
		a.inAction = true
		return true
	case bytes.Equal(name, []byte(sectionDesktopEntry)):
		a.inSection = true
		a.inAction = false
		if a.current.Detail == Unknown {
			a.current.Detail = Entry
			a.current.Entry = &EntryDetail{}
		}
		return true
	}
	a.inSection = false
	return false
}

func (a *desktopAccumulator) Key(name []byte) {
	if !a.inSection || a.inAction {
		a.key = keyOther
		return
	}
	switch string(name) {
	case "Type":
		a.key = keyType
	case "Name":
		a.key = keyName
	case "Icon":
		a.key = keyIcon
	case "Categories":
		a.key = keyCategories
	case "NoDisplay":
		a.key = keyNoDisplay
	case "Exec":
		a.key = keyExec
	case "StartupWMClass":
		a.key = keyWMClass
	case "Terminal":
		a.key = keyTerminal
	case "MimeType":
		a.key = keyMimeType
	default:
		a.key = keyOther
		if a.localizedName != "" && string(name) == a.localizedName {
			a.key = keyLocalizedName
		}
	}
}

func (a *desktopAccumulator) Value(value []byte) {
	if !a.inSection || a.inAction {
		return
	}
	it := &a.current
	switch a.key {
	case keyType:
		if string(value) == "Directory" {
			it.Detail = Directory
			it.Entry = nil
		}
	case keyName:
		a.name = entry.Decode(value)
	case keyLocalizedName:
		a.localized = entry.Decode(value)
	case keyIcon:
		it.Icon = entry.Decode(value)
	case keyCategories:
		it.Categories = entry.Decode(value)
	case keyNoDisplay:
		it.Hidden = isTrue(value)
	}

	if it.Detail != Entry {
		return
	}
	switch a.key {
	case keyExec:
		it.Entry.Exec = entry.Decode(value)
	case keyWMClass:
		it.Entry.WMClass = entry.Decode(value)
	case keyTerminal:
		it.Entry.Terminal = isTrue(value)
	case keyMimeType:
		it.Entry.MIMEs = it.Entry.MIMEs[:0]
		for _, m := range strings.Split(entry.Decode(value), ";") {
			if m != "" {
				it.Entry.MIMEs = append(it.Entry.MIMEs, m)
			}
		}
	}
}

// finish returns the accumulated item and resets the accumulator. The item is
// only usable when ok is true: it has a name and a known kind.
func (a *desktopAccumulator) finish(basename string) (Item, bool) {
	it := a.current
	it.Name = a.name
	if a.localized != "" {
		it.Name = a.localized
	}
	a.reset()

	if it.Name == "" || it.Detail == Unknown {
		return Item{}, false
	}
	it.Basename = basename
	if it.Entry != nil && it.Entry.WMClass == "" {
		it.Entry.WMClass = GuessWMClass(it.Entry.Exec)
	}
	return it, true
}

func isTrue(value []byte) bool {
	return strings.EqualFold(string(value), "true")
}

// assocAccumulator collects the records of one mimeapps.list.
type assocAccumulator struct {
	kind      AssocKind
	known     bool
	mime      string
	records   []Assoc
	malformed int
}

func (a *assocAccumulator) Section(name []byte) bool {
	kind, ok := parseAssocSection(string(name))
	a.kind, a.known = kind, ok
	return ok
}

func (a *assocAccumulator) Key(name []byte) {
	if a.known {
		a.mime = entry.Decode(name)
		if a.mime == "" {
			a.malformed++
		}
	}
}

func (a *assocAccumulator) Value(value []byte) {
	if !a.known || a.mime == "" {
		return
	}
	for _, filename := range bytes.Split(value, []byte{';'}) {
		if len(filename) == 0 {
			continue
		}
		a.records = append(a.records, Assoc{
			Filename: entry.Decode(filename),
			MIME:     a.mime,
			Kind:     a.kind,
		})
	}
}
