package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFiles(t *testing.T) {
	root := t.TempDir()
	WriteFiles(t, root, map[string]string{
		"applications/a.desktop": "x",
		"mime/globs2":            "50:text/plain:*.txt\n",
	})

	data, err := os.ReadFile(filepath.Join(root, "applications", "a.desktop"))
	require.NoError(t, err)
	assert.Equal(t, "x", string(data))
	assert.FileExists(t, filepath.Join(root, "mime", "globs2"))
}

func TestDesktopEntry(t *testing.T) {
	assert.Equal(t, "[Desktop Entry]\nName=Foo\nExec=foo %f\n", DesktopEntry("Name", "Foo", "Exec", "foo %f"))
	assert.Equal(t, "[Desktop Entry]\n", DesktopEntry())
}

func TestStripANSI(t *testing.T) {
	assert.Equal(t, "plain", StripANSI("\x1b[1;38;5;62mplain\x1b[0m"))
	assert.Equal(t, "plain", StripANSI("plain"))
}
