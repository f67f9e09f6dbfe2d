package cli

import (
	"bytes"
	"strings"
	"testing"

	"xdgdesk/internal/config"
	"xdgdesk/pkg/menu"
	"xdgdesk/pkg/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreePrinter(t *testing.T) {
	root := t.TempDir()
	testutils.WriteFiles(t, root, map[string]string{
		"desktop-directories/Utility.directory": testutils.DesktopEntry(
			"Type", "Directory", "Name", "Accessories", "Icon", "applications-utilities"),
		"applications/calc.desktop": testutils.DesktopEntry(
			"Name", "Calc", "Exec", "calc", "Icon", "calc", "Categories", "Utility;"),
		"applications/top.desktop": testutils.DesktopEntry(
			"Name", "Top", "Exec", "top", "Terminal", "true", "Categories", "Utility;"),
	})

	ix := menu.New(menu.Options{})
	ix.Scan([]string{root})

	var buf bytes.Buffer
	icons := func(name string) (string, bool) {
		if name == "calc" {
			return "/icons/calc.svg", true
		}
		return "", false
	}
	ix.Print(NewTreePrinter(&buf, NewStyles(config.New().Style), icons))

	lines := strings.Split(strings.TrimRight(testutils.StripANSI(buf.String()), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Accessories/")
	assert.Contains(t, lines[0], "(no icon applications-utilities)")
	assert.True(t, strings.HasPrefix(lines[1], "  "), lines[1])
	assert.Contains(t, lines[1], "Calc")
	assert.Contains(t, lines[1], "/icons/calc.svg")
	assert.Contains(t, lines[2], "Top")
	assert.Contains(t, lines[2], "[terminal]")
}

func TestStylesPrint(t *testing.T) {
	var buf bytes.Buffer
	s := NewStyles(config.New().Style)

	s.PrintSuccess(&buf, "saved")
	s.PrintWarning(&buf, "careful")
	s.PrintHeader(&buf, "Title")
	s.PrintField(&buf, "mime", "text/plain")

	out := testutils.StripANSI(buf.String())
	assert.Contains(t, out, "saved")
	assert.Contains(t, out, "careful")
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "mime:")
	assert.Contains(t, out, "text/plain")
}
