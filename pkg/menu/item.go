package menu

import (
	"strings"

	"al.essio.dev/pkg/shellescape"
	"github.com/google/shlex"
)

// DetailKind tells launchable entries from submenu markers.
type DetailKind int

const (
	// Unknown items are incomplete and never enter the arena.
	Unknown DetailKind = iota
	// Entry is a launchable application.
	Entry
	// Directory is a submenu.
	Directory
)

func (k DetailKind) String() string {
	switch k {
	case Entry:
		return "entry"
	case Directory:
		return "directory"
	}
	return "unknown"
}

// EntryDetail holds the fields only applications carry.
type EntryDetail struct {
	Exec     string
	WMClass  string
	Terminal bool
	MIMEs    []string
}

// Item is one element of the menu arena. Items are addressed by their index.
type Item struct {
	Name       string
	Icon       string
	Categories string
	Basename   string
	Hidden     bool
	Detail     DetailKind
	// Entry is set when Detail is Entry.
	Entry *EntryDetail
}

// IsDirectory reports whether the item is a submenu.
func (it *Item) IsDirectory() bool {
	return it.Detail == Directory
}

// CategoryKeys splits Categories, skipping empty keys.
func (it *Item) CategoryKeys() []string {
	var keys []string
	for _, key := range strings.Split(it.Categories, ";") {
		if key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

func (e *EntryDetail) hasMIME(mime string) bool {
	for _, m := range e.MIMEs {
		if m == mime {
			return true
		}
	}
	return false
}

func (e *EntryDetail) removeMIME(mime string) {
	for i, m := range e.MIMEs {
		if m == mime {
			e.MIMEs = append(e.MIMEs[:i], e.MIMEs[i+1:]...)
			return
		}
	}
}

const flatpakCommand = "--command="

// GuessWMClass derives a window class from an Exec line: the --command= of a
// flatpak invocation, otherwise the last path segment of the program.
func GuessWMClass(exec string) string {
	args := splitExec(exec)
	if len(args) == 0 {
		return ""
	}
	if strings.HasSuffix(args[0], "flatpak") {
		for _, arg := range args[1:] {
			if strings.HasPrefix(arg, flatpakCommand) {
				return arg[len(flatpakCommand):]
			}
		}
	}
	prog := args[0]
	if i := strings.LastIndexByte(prog, '/'); i >= 0 {
		prog = prog[i+1:]
	}
	return prog
}

func splitExec(exec string) []string {
	args, err := shlex.Split(exec)
	if err != nil {
		return strings.Fields(exec)
	}
	return args
}

type fileMode int

const (
	noFiles fileMode = iota
	perFile
	allFiles
)

// fieldCodes reports which file field code an argument list uses.
func fieldCodes(args []string) fileMode {
	for _, arg := range args {
		for i := 0; i+1 < len(arg); i++ {
			if arg[i] != '%' {
				continue
			}
			switch arg[i+1] {
			case 'f', 'u':
				return perFile
			case 'F', 'U':
				return allFiles
			}
			i++
		}
	}
	return noFiles
}

// ExecWithFilenames builds the shell command lines that open paths with this
// application. %f and %u produce one command per path, %F and %U pass every
// path to a single command, and without any file code the paths are appended.
// Other field codes are dropped and %% becomes %. Nothing is executed.
func (e *EntryDetail) ExecWithFilenames(paths []string) []string {
	args := splitExec(e.Exec)
	if len(args) == 0 {
		return nil
	}

	switch fieldCodes(args) {
	case perFile:
		if len(paths) == 0 {
			return []string{expandExec(args, nil)}
		}
		cmds := make([]string, 0, len(paths))
		for _, p := range paths {
			cmds = append(cmds, expandExec(args, []string{p}))
		}
		return cmds
	case allFiles:
		return []string{expandExec(args, paths)}
	}

	words := []string{expandExec(args, nil)}
	for _, p := range paths {
		words = append(words, shellescape.Quote(p))
	}
	return []string{strings.Join(words, " ")}
}

func expandExec(args []string, files []string) string {
	words := make([]string, 0, len(args)+len(files))
	for _, arg := range args {
		switch arg {
		case "%f", "%u", "%F", "%U":
			for _, f := range files {
				words = append(words, shellescape.Quote(f))
			}
			continue
		}

		var b strings.Builder
		for i := 0; i < len(arg); i++ {
			if arg[i] != '%' || i+1 == len(arg) {
				b.WriteByte(arg[i])
				continue
			}
			i++
			switch arg[i] {
			case '%':
				b.WriteByte('%')
			case 'f', 'u', 'F', 'U':
				b.WriteString(strings.Join(files, " "))
			}
		}
		if b.Len() == 0 {
			continue
		}
		words = append(words, shellescape.Quote(b.String()))
	}
	return strings.Join(words, " ")
}
