package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	locale "github.com/Xuanwo/go-locale"
	"golang.org/x/text/language"

	"xdgdesk/internal/log"
)

const defaultDataDirs = "/usr/share:/usr/local/share"

// DataHome returns $XDG_DATA_HOME or ~/.local/share.
func DataHome() string {
	return DataHomeWithEnv(os.Getenv("XDG_DATA_HOME"), os.Getenv("HOME"))
}

// DataHomeWithEnv is DataHome with explicit environment values.
func DataHomeWithEnv(dataHome, home string) string {
	if dataHome != "" {
		return filepath.Clean(dataHome)
	}
	if home == "" {
		home = "/root"
	}
	return filepath.Join(home, ".local", "share")
}

// DataDirs returns the data roots to scan, lowest priority first: system
// directories under /usr, then /usr/local, then others, then the user's data
// home last.
func DataDirs() []string {
	home := os.Getenv("HOME")
	return DataDirsWithEnv(os.Getenv("XDG_DATA_DIRS"), DataHomeWithEnv(os.Getenv("XDG_DATA_HOME"), home), home)
}

// DataDirsWithEnv is DataDirs with explicit environment values. dataHome is
// always included.
func DataDirsWithEnv(dataDirs, dataHome, home string) []string {
	if dataDirs == "" {
		dataDirs = defaultDataDirs
	}

	var paths []string
	for _, p := range strings.Split(dataDirs, ":") {
		if p != "" {
			paths = append(paths, filepath.Clean(p))
		}
	}
	paths = append(paths, filepath.Clean(dataHome))

	rank := func(p string) int {
		switch {
		case hasPathPrefix(p, "/usr/local"):
			return -1
		case hasPathPrefix(p, "/usr"):
			return -2
		case home != "" && hasPathPrefix(p, filepath.Clean(home)):
			return 1
		}
		return 0
	}
	sort.SliceStable(paths, func(i, j int) bool {
		ri, rj := rank(paths[i]), rank(paths[j])
		if ri != rj {
			return ri < rj
		}
		return paths[i] < paths[j]
	})

	deduped := paths[:0]
	for _, p := range paths {
		if len(deduped) == 0 || deduped[len(deduped)-1] != p {
			deduped = append(deduped, p)
		}
	}
	return deduped
}

func hasPathPrefix(p, prefix string) bool {
	return p == prefix || strings.HasPrefix(p, prefix+string(filepath.Separator))
}

// DetectLocale returns the user's locale as a desktop entry suffix such as
// "de_DE", or "" when it cannot be determined.
func DetectLocale() string {
	tag, err := locale.Detect()
	if err != nil {
		log.Debugf("config: locale detection failed: %v", err)
		return ""
	}
	return LocaleSuffix(tag)
}

// LocaleSuffix formats tag as <lang>[_<COUNTRY>]. The country is only
// included when the tag names it.
func LocaleSuffix(tag language.Tag) string {
	if tag == language.Und {
		return ""
	}
	base, _ := tag.Base()
	region, conf := tag.Region()
	if conf == language.Exact {
		return base.String() + "_" + region.String()
	}
	return base.String()
}
