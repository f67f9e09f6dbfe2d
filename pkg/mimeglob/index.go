package mimeglob

import (
	"path/filepath"
	"sort"
	"strings"

	radix "github.com/armon/go-radix"
	"github.com/gobwas/glob"

	"xdgdesk/internal/log"
)

// noGlobs marks a type whose lower priority globs are void; it never matches
// a filename itself.
const noGlobs = "__NOGLOBS__"

type suffixEntry struct {
	mime  string
	score int
}

type pattern struct {
	Record
	g glob.Glob
}

// Index answers filename to MIME type queries.
//
// Patterns of the form "*<literal>" live in a suffix table keyed by the
// reversed literal, so the longest matching suffix is one tree walk. Case
// sensitive suffixes have their own table, consulted first. All other
// patterns are tried in descending score order, database order within a
// score.
type Index struct {
	suffixes   *radix.Tree
	suffixesCS *radix.Tree
	patterns   []pattern
}

// NewIndex builds an index from records in priority order.
func NewIndex(records []Record) *Index {
	ix := &Index{suffixes: radix.New(), suffixesCS: radix.New()}
	for _, rec := range records {
		if rec.Pattern == noGlobs {
			continue
		}
		if suffix, ok := literalSuffix(rec); ok {
			tree := ix.suffixes
			if rec.CaseSensitive {
				tree = ix.suffixesCS
			}
			tree.Insert(reverse(suffix), suffixEntry{mime: rec.MIME, score: rec.Score})
			continue
		}
		src := rec.Pattern
		if !rec.CaseSensitive {
			src = strings.ToLower(src)
		}
		g, err := glob.Compile(escapeBraces(src))
		if err != nil {
			log.Debugf("mimeglob: dropping pattern %q for %s: %v", rec.Pattern, rec.MIME, err)
			continue
		}
		ix.patterns = append(ix.patterns, pattern{Record: rec, g: g})
	}
	sort.SliceStable(ix.patterns, func(i, j int) bool {
		return ix.patterns[i].Score > ix.patterns[j].Score
	})
	return ix
}

// Len returns the number of suffixes and patterns indexed.
func (ix *Index) Len() (suffixes, patterns int) {
	return ix.suffixes.Len() + ix.suffixesCS.Len(), len(ix.patterns)
}

// MatchFilename returns the MIME type for name. Only the last path element
// is considered. A pattern wins over the suffix table only with a strictly
// higher score.
func (ix *Index) MatchFilename(name string) (string, bool) {
	base := filepath.Base(name)
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "", false
	}
	lower := strings.ToLower(base)

	var (
		best  suffixEntry
		found bool
	)
	if _, v, ok := ix.suffixesCS.LongestPrefix(reverse(base)); ok {
		best, found = v.(suffixEntry), true
	} else if _, v, ok := ix.suffixes.LongestPrefix(reverse(lower)); ok {
		best, found = v.(suffixEntry), true
	}

	for _, p := range ix.patterns {
		if found && p.Score <= best.score {
			break
		}
		subject := lower
		if p.CaseSensitive {
			subject = base
		}
		if p.g.Match(subject) {
			return p.MIME, true
		}
	}
	return best.mime, found
}

// literalSuffix reports whether rec is "*<literal>" with no further wildcard.
func literalSuffix(rec Record) (string, bool) {
	if !strings.HasPrefix(rec.Pattern, "*") {
		return "", false
	}
	suffix := rec.Pattern[1:]
	if suffix == "" || strings.ContainsAny(suffix, "*?[") {
		return "", false
	}
	if rec.CaseSensitive {
		return suffix, true
	}
	return strings.ToLower(suffix), true
}

func reverse(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

// escapeBraces keeps '{' and '}' literal; the database has no alternation
// syntax.
func escapeBraces(s string) string {
	if !strings.ContainsAny(s, "{}") {
		return s
	}
	r := strings.NewReplacer("{", `\{`, "}", `\}`)
	return r.Replace(s)
}
