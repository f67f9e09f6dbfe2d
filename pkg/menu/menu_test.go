package menu

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"xdgdesk/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func app(t *testing.T, root, file string, lines ...string) {
	t.Helper()
	body := "[Desktop Entry]\nType=Application\n" + strings.Join(lines, "\n") + "\n"
	writeFile(t, filepath.Join(root, applicationsDir, file), body)
}

func dir(t *testing.T, root, file, name string, lines ...string) {
	t.Helper()
	body := "[Desktop Entry]\nType=Directory\nName=" + name + "\n" + strings.Join(lines, "\n") + "\n"
	writeFile(t, filepath.Join(root, directoriesDir, file), body)
}

func mimeapps(t *testing.T, root, content string) {
	t.Helper()
	writeFile(t, filepath.Join(root, applicationsDir, AssocFile), content)
}

type recordingPrinter struct {
	events []string
}

func (p *recordingPrinter) Print(it *Item)     { p.events = append(p.events, "print:"+it.Name) }
func (p *recordingPrinter) EnterMenu(it *Item) { p.events = append(p.events, "enter:"+it.Name) }
func (p *recordingPrinter) LeaveMenu(it *Item) { p.events = append(p.events, "leave:"+it.Name) }

func TestNewHasSyntheticItems(t *testing.T) {
	ix := New(Options{})
	require.Equal(t, 2, ix.Len())

	root := ix.Item(RootItem)
	assert.True(t, root.Hidden)
	assert.True(t, root.IsDirectory())

	others := ix.Item(OthersItem)
	assert.Equal(t, "Others", others.Name)
	assert.Equal(t, OthersKey, others.Basename)
	assert.False(t, others.Hidden)

	_, ok := ix.Menu("")
	assert.True(t, ok)
	_, ok = ix.Menu(OthersKey)
	assert.True(t, ok)
}

func TestScanSameBasenameAcrossRoots(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	dir(t, a, "Utility.directory", "Accessories")
	dir(t, a, "Network.directory", "Internet")
	app(t, a, "foo.desktop", "Name=Foo A", "Exec=foo-a", "Categories=Utility;")
	app(t, b, "foo.desktop", "Name=Foo B", "Exec=/usr/bin/foo-b %U", "Categories=Network;")
	mimeapps(t, b, "[Default Applications]\ntext/plain=foo.desktop\n")

	ix := New(Options{})
	ix.Scan([]string{a, b})
	require.NoError(t, ix.Diagnostics())

	idx, ok := ix.Lookup("foo.desktop")
	require.True(t, ok)

	foos := 0
	for _, it := range ix.Items() {
		if it.Basename == "foo" {
			foos++
		}
	}
	assert.Equal(t, 1, foos)

	foo := ix.Item(idx)
	assert.Equal(t, "Foo B", foo.Name)
	assert.Equal(t, "foo-b", foo.Entry.WMClass)

	network, _ := ix.Menu("Network")
	assert.Equal(t, []int{idx}, network.Children)
	utility, _ := ix.Menu("Utility")
	assert.Empty(t, utility.Children)

	assoc, ok := ix.Association("text/plain")
	require.True(t, ok)
	assert.Equal(t, idx, assoc.Default)

	assert.Equal(t, b, ix.LocalRoot())
	assert.Equal(t, []Assoc{{Filename: "foo.desktop", MIME: "text/plain", Kind: AssocDefault}}, ix.LocalAssocs())
}

func TestPrintSuppressesEmptyAndHiddenMenus(t *testing.T) {
	root := t.TempDir()
	dir(t, root, "Utility.directory", "Accessories")
	dir(t, root, "Games.directory", "Games")
	dir(t, root, "Secret.directory", "Secret", "NoDisplay=true")
	app(t, root, "calc.desktop", "Name=Calc", "Exec=calc", "Categories=Utility;")
	app(t, root, "hidden.desktop", "Name=Hidden", "Exec=hidden", "Categories=Utility;", "NoDisplay=TRUE")
	app(t, root, "spy.desktop", "Name=Spy", "Exec=spy", "Categories=Secret;")
	app(t, root, "stray.desktop", "Name=Stray", "Exec=stray", "Categories=Unknown;")

	ix := New(Options{})
	ix.Scan([]string{root})

	p := &recordingPrinter{}
	ix.Print(p)
	assert.Equal(t, []string{
		"enter:Applications",
		"print:Others",
		"enter:Others",
		"print:Stray",
		"leave:Others",
		"print:Accessories",
		"enter:Accessories",
		"print:Calc",
		"leave:Accessories",
		"leave:Applications",
	}, p.events)

	// Hidden items stay in the arena.
	idx, ok := ix.Lookup("hidden.desktop")
	require.True(t, ok)
	assert.True(t, ix.Item(idx).Hidden)
}

func TestPrintEmptyIndex(t *testing.T) {
	ix := New(Options{})
	ix.Scan(nil)

	p := &recordingPrinter{}
	ix.Print(p)
	assert.Empty(t, p.events)
}

func TestPrintCategoryLoop(t *testing.T) {
	root := t.TempDir()
	dir(t, root, "A.directory", "A", "Categories=B;Top;")
	dir(t, root, "B.directory", "B", "Categories=A;")
	dir(t, root, "Top.directory", "Top")
	app(t, root, "x.desktop", "Name=X", "Exec=x", "Categories=A;Top;")

	ix := New(Options{})
	ix.Scan([]string{root})

	p := &recordingPrinter{}
	ix.Print(p)
	assert.Equal(t, []string{
		"enter:Applications",
		"print:Top",
		"enter:Top",
		"print:X",
		"print:A",
		"enter:A",
		"print:X",
		"print:B",
		"enter:B",
		"leave:B",
		"leave:A",
		"leave:Top",
		"leave:Applications",
	}, p.events)
}

func TestAssociationOverrideChain(t *testing.T) {
	tests := []struct {
		name       string
		removeFile string
		wantInX    bool
	}{
		{name: "remove targets the same file", removeFile: "x.desktop", wantInX: false},
		{name: "remove targets another file", removeFile: "y.desktop", wantInX: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r1, r2, r3 := t.TempDir(), t.TempDir(), t.TempDir()
			app(t, r1, "x.desktop", "Name=X", "Exec=x")
			app(t, r1, "y.desktop", "Name=Y", "Exec=y", "MimeType=a/mime;")
			mimeapps(t, r1, "[Added Associations]\na/mime=x.desktop;\n")
			mimeapps(t, r2, "[Removed Associations]\na/mime="+tt.removeFile+";\n")
			mimeapps(t, r3, "[Default Applications]\na/mime=x.desktop;\n")

			ix := New(Options{})
			ix.Scan([]string{r1, r2, r3})

			x, _ := ix.Lookup("x.desktop")
			y, _ := ix.Lookup("y.desktop")
			assoc, ok := ix.Association("a/mime")
			require.True(t, ok)
			assert.Equal(t, x, assoc.Default)
			assert.Equal(t, tt.wantInX, ix.Item(x).Entry.hasMIME("a/mime"))

			if tt.wantInX {
				assert.Equal(t, []int{x}, assoc.All)
				assert.False(t, ix.Item(y).Entry.hasMIME("a/mime"))
			} else {
				assert.Equal(t, []int{y}, assoc.All)
			}
		})
	}
}

func TestAddAssociationDoesNotDuplicate(t *testing.T) {
	root := t.TempDir()
	app(t, root, "x.desktop", "Name=X", "Exec=x", "MimeType=text/plain;")
	mimeapps(t, root, "[Add Associations]\ntext/plain=x.desktop;\nimage/png=x.desktop;\n")

	ix := New(Options{})
	ix.Scan([]string{root})

	x, _ := ix.Lookup("x.desktop")
	assert.Equal(t, []string{"text/plain", "image/png"}, ix.Item(x).Entry.MIMEs)
	plain, _ := ix.Association("text/plain")
	assert.Equal(t, []int{x}, plain.All)
	assert.False(t, plain.HasDefault())
	assert.Equal(t, []string{"image/png", "text/plain"}, ix.MIMETypes())
}

func TestUnknownAssociationTarget(t *testing.T) {
	root := t.TempDir()
	app(t, root, "x.desktop", "Name=X", "Exec=x")
	mimeapps(t, root, "[Default Applications]\ntext/plain=ghost.desktop;x.desktop;\n[Unrelated]\nfoo=x.desktop\n")

	ix := New(Options{})
	ix.Scan([]string{root})

	x, _ := ix.Lookup("x.desktop")
	assoc, ok := ix.Association("text/plain")
	require.True(t, ok)
	assert.Equal(t, x, assoc.Default)

	err := ix.Diagnostics()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost.desktop")
	// Records from unrecognized sections are not kept.
	assert.Len(t, ix.LocalAssocs(), 2)
}

func TestMalformedAssociationLinesReported(t *testing.T) {
	root := t.TempDir()
	app(t, root, "foo.desktop", "Name=Foo", "Exec=foo")
	mimeapps(t, root, "[Default Applications]\n=foo.desktop\ntext/plain=foo.desktop\n")

	ix := New(Options{})
	ix.Scan([]string{root})

	err := ix.Diagnostics()
	require.Error(t, err)
	assert.True(t, errors.IsMalformed(err))
	assert.Contains(t, err.Error(), AssocFile)

	foo, _ := ix.Lookup("foo.desktop")
	plain, ok := ix.Association("text/plain")
	require.True(t, ok)
	assert.Equal(t, foo, plain.Default)
}

func TestDesktopEntryParsing(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, applicationsDir, "foo.desktop"), strings.Join([]string{
		"# comment",
		"[Desktop Entry]",
		"Type=Application",
		"Name=Foo",
		"Name[de]=Fu",
		"Icon=foo-icon",
		"Exec=/usr/bin/foo --open %F",
		"Terminal=True",
		"MimeType=text/plain;text/html;",
		"Categories=Utility;Development;",
		"[Desktop Action new-window]",
		"Name=New Window",
		"Exec=foo --new-window",
		"Icon=other",
		"[X-Vendor Extension]",
		"Name=Wrong",
		"",
	}, "\n"))
	writeFile(t, filepath.Join(root, applicationsDir, "nameless.desktop"), "[Desktop Entry]\nExec=nameless\n")
	writeFile(t, filepath.Join(root, applicationsDir, "notes.txt"), "[Desktop Entry]\nName=Notes\n")

	tests := []struct {
		locale string
		want   string
	}{
		{"", "Foo"},
		{"de", "Fu"},
		{"fr", "Foo"},
	}
	for _, tt := range tests {
		t.Run("locale "+tt.locale, func(t *testing.T) {
			ix := New(Options{Locale: tt.locale})
			ix.Scan([]string{root})
			require.Equal(t, 3, ix.Len())

			idx, ok := ix.Lookup("foo.desktop")
			require.True(t, ok)
			it := ix.Item(idx)
			assert.Equal(t, tt.want, it.Name)
			assert.Equal(t, "foo", it.Basename)
			assert.Equal(t, "foo-icon", it.Icon)
			assert.Equal(t, Entry, it.Detail)
			assert.Equal(t, []string{"Utility", "Development"}, it.CategoryKeys())
			require.NotNil(t, it.Entry)
			assert.Equal(t, "/usr/bin/foo --open %F", it.Entry.Exec)
			assert.Equal(t, "foo", it.Entry.WMClass)
			assert.True(t, it.Entry.Terminal)
			assert.Equal(t, []string{"text/plain", "text/html"}, it.Entry.MIMEs)
		})
	}
}

func TestExplicitWMClassKept(t *testing.T) {
	root := t.TempDir()
	app(t, root, "foo.desktop", "Name=Foo", "Exec=foo", "StartupWMClass=FooWindow")

	ix := New(Options{})
	ix.Scan([]string{root})

	idx, _ := ix.Lookup("foo.desktop")
	assert.Equal(t, "FooWindow", ix.Item(idx).Entry.WMClass)
}

func TestUnterminatedActionHeaderKeepsEntryFields(t *testing.T) {
	root := t.TempDir()
	app(t, root, "foo.desktop", "Name=Foo", "Exec=foo",
		"[Desktop Action new-window", "Name=New Window", "Exec=foo --new-window")

	ix := New(Options{})
	ix.Scan([]string{root})

	idx, ok := ix.Lookup("foo.desktop")
	require.True(t, ok)
	assert.Equal(t, "Foo", ix.Item(idx).Name)
	assert.Equal(t, "foo", ix.Item(idx).Entry.Exec)
}

func TestDirectoryWithoutCategoriesGoesToRoot(t *testing.T) {
	root := t.TempDir()
	dir(t, root, "Office.directory", "Office")
	app(t, root, "calc.desktop", "Name=Calc", "Exec=calc")

	ix := New(Options{})
	ix.Scan([]string{root})

	office, _ := ix.Lookup("Office.directory")
	calc, _ := ix.Lookup("calc.desktop")
	top, _ := ix.Menu("")
	assert.Equal(t, []int{OthersItem, office}, top.Children)
	others, _ := ix.Menu(OthersKey)
	assert.Equal(t, []int{calc}, others.Children)
}

func TestScanSkipsMissingRoots(t *testing.T) {
	root := t.TempDir()
	app(t, root, "foo.desktop", "Name=Foo", "Exec=foo")

	ix := New(Options{LocalRoot: root})
	ix.Scan([]string{filepath.Join(root, "missing"), root})
	require.NoError(t, ix.Diagnostics())
	assert.Equal(t, 3, ix.Len())
}

func TestSearch(t *testing.T) {
	root := t.TempDir()
	app(t, root, "firefox.desktop", "Name=Firefox", "Exec=firefox")
	app(t, root, "files.desktop", "Name=Files", "Exec=nautilus")
	app(t, root, "calc.desktop", "Name=Calculator", "Exec=calc")
	app(t, root, "secret.desktop", "Name=Fire Secret", "Exec=secret", "NoDisplay=true")

	ix := New(Options{})
	ix.Scan([]string{root})

	firefox, _ := ix.Lookup("firefox.desktop")
	assert.Equal(t, []int{firefox}, ix.Search("fire"))
	assert.Len(t, ix.Search("FI"), 2)
	assert.Empty(t, ix.Search("  "))
	assert.Empty(t, ix.Search("zzz"))
}
