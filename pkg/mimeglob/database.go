// Package mimeglob maps filenames to MIME types using the shared-mime-info
// glob database (mime/globs2, or the legacy mime/globs).
package mimeglob

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"

	"xdgdesk/internal/errors"
	"xdgdesk/internal/log"
	"xdgdesk/pkg/entry"
)

// DefaultScore is the weight of records in the legacy two-field format.
const DefaultScore = 50

// Record is one glob database line.
type Record struct {
	Score         int
	MIME          string
	Pattern       string
	CaseSensitive bool
}

// ParseRecord parses "score:mime:pattern[:flags]" or the legacy
// "mime:pattern".
func ParseRecord(line string) (Record, bool) {
	parts := strings.SplitN(line, ":", 4)
	switch len(parts) {
	case 2:
		if parts[0] == "" || parts[1] == "" {
			return Record{}, false
		}
		return Record{Score: DefaultScore, MIME: parts[0], Pattern: parts[1]}, true
	case 3, 4:
		score, err := strconv.Atoi(parts[0])
		if err != nil || parts[1] == "" || parts[2] == "" {
			return Record{}, false
		}
		rec := Record{Score: score, MIME: parts[1], Pattern: parts[2]}
		if len(parts) == 4 {
			for _, flag := range strings.Split(parts[3], ",") {
				if flag == "cs" {
					rec.CaseSensitive = true
				}
			}
		}
		return rec, true
	}
	return Record{}, false
}

// Foreach calls fn for every well formed record in r, in file order, until fn
// returns false. Comments, blank lines and malformed records are skipped.
// Lines may be of any length.
func Foreach(r io.Reader, fn func(Record) bool) error {
	br := bufio.NewReader(r)
	lineNo := 0
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			lineNo++
			if !visitLine(line, "", lineNo, fn) {
				return nil
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// foreachBytes is Foreach over an in-memory database.
func foreachBytes(buf []byte, name string, fn func(Record) bool) {
	lineNo := 0
	for len(buf) > 0 {
		line := buf
		if nl := bytes.IndexByte(buf, '\n'); nl >= 0 {
			line, buf = buf[:nl], buf[nl+1:]
		} else {
			buf = nil
		}
		lineNo++
		if !visitLine(string(line), name, lineNo, fn) {
			return
		}
	}
}

// visitLine parses one line and hands a well formed record to fn. It reports
// whether iteration should continue.
func visitLine(line, name string, lineNo int, fn func(Record) bool) bool {
	line = strings.TrimRight(line, "\r\n")
	if line == "" || line[0] == '#' {
		return true
	}
	rec, ok := ParseRecord(line)
	if !ok {
		if len(line) > 80 {
			line = line[:80] + "..."
		}
		log.LogWithError(errors.NewParseError("malformed glob record", name, lineNo, nil)).
			Debugf("mimeglob: dropping %q", line)
		return true
	}
	return fn(rec)
}

// ParseDatabase reads every record from r.
func ParseDatabase(r io.Reader) ([]Record, error) {
	var records []Record
	err := Foreach(r, func(rec Record) bool {
		records = append(records, rec)
		return true
	})
	return records, err
}

// ReadFile reads the records of one database file through a read-only
// mapping of it.
func ReadFile(path string) ([]Record, error) {
	f, err := entry.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot open glob database")
	}
	defer f.Close()

	var records []Record
	foreachBytes(f.Bytes(), path, func(rec Record) bool {
		records = append(records, rec)
		return true
	})
	return records, nil
}

// Load builds an index from a single database file.
func Load(path string) (*Index, error) {
	records, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewIndex(records), nil
}

// DatabasePath returns the database file below one data root, preferring
// globs2 over globs.
func DatabasePath(root string) (string, bool) {
	for _, name := range []string{"globs2", "globs"} {
		path := filepath.Join(root, "mime", name)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			return path, true
		}
	}
	return "", false
}

// LoadRoots merges the databases of every root in order. Records from later
// roots take precedence for identical suffixes. Roots without a database are
// skipped; read failures are collected and returned alongside the index.
func LoadRoots(roots []string) (*Index, error) {
	var (
		records []Record
		result  *multierror.Error
	)
	for _, root := range roots {
		path, ok := DatabasePath(root)
		if !ok {
			continue
		}
		recs, err := ReadFile(path)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		log.LogWithFields(log.F("path", path), log.F("records", len(recs))).Debug("loaded glob database")
		records = append(records, recs...)
	}
	return NewIndex(records), result.ErrorOrNil()
}
