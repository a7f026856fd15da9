package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"
)

// TimestampLayout is the suffix written after a payload's prefix, read and
// written in local time, e.g. FULL_CATLOG_2025_06_08-03_45_48_PM.XML.
const TimestampLayout = "2006_01_02-03_04_05_PM"

type payloadFile struct {
	name string
	ts   time.Time
}

// FileName returns the payload file name for prefix, ts and ext. ext carries
// its own leading dot and may be empty.
func FileName(prefix string, ts time.Time, ext string) string {
	return prefix + ts.In(time.Local).Format(TimestampLayout) + ext
}

// ParseFileName decodes the timestamp from a payload file name that starts
// with prefix. Anything after the first dot of the suffix is the extension.
func ParseFileName(prefix, name string) (time.Time, error) {
	if !strings.HasPrefix(name, prefix) {
		return time.Time{}, fmt.Errorf("%q does not start with %q", name, prefix)
	}
	stamp := strings.TrimPrefix(name, prefix)
	if i := strings.IndexByte(stamp, '.'); i >= 0 {
		stamp = stamp[:i]
	}
	ts, err := time.ParseInLocation(TimestampLayout, stamp, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("decode timestamp of %q: %w", name, err)
	}
	return ts, nil
}

// listPayloads returns the prefix-matching files of dir sorted oldest first.
// Names whose suffix does not decode are passed to skip. A missing dir is empty.
func listPayloads(dir, prefix string, skip func(name string, err error)) ([]payloadFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing cache dir: %w", err)
	}

	var files []payloadFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		ts, err := ParseFileName(prefix, e.Name())
		if err != nil {
			if skip != nil {
				skip(e.Name(), err)
			}
			continue
		}
		files = append(files, payloadFile{name: e.Name(), ts: ts})
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].ts.Before(files[j].ts)
	})
	return files, nil
}
