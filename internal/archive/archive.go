// Package archive unpacks NEMweb zip archives into parser entries.
//
// NEMweb publishes each report as a zip holding one CSV, and its ARCHIVE
// directories bundle a day of those zips inside another zip. ReadEntries
// flattens both shapes into a single ordered list.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/JonMunkholm/nemweb/internal/mms"
)

const (
	// maxEntrySize bounds one decompressed member.
	maxEntrySize = 512 << 20

	// maxDepth bounds zip-in-zip nesting.
	maxDepth = 3
)

var (
	// ErrNotArchive marks input that is not a zip archive.
	ErrNotArchive = errors.New("not a zip archive")

	// ErrEntryTooLarge marks a member that decompresses past maxEntrySize.
	ErrEntryTooLarge = errors.New("archive entry too large")
)

// ReadEntries returns the regular files of a zip archive in archive order.
// Nested .zip members are expanded in place with names joined by "/". A
// member that cannot be read becomes an Entry with Err set; only an
// unreadable outer archive fails the call.
func ReadEntries(data []byte) ([]mms.Entry, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotArchive, err)
	}
	return collect(zr, "", 0), nil
}

// ReadFile reads a zip archive from disk.
func ReadFile(name string) ([]mms.Entry, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	entries, err := ReadEntries(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return entries, nil
}

func collect(zr *zip.Reader, prefix string, depth int) []mms.Entry {
	var entries []mms.Entry
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := prefix + f.Name

		data, err := readMember(f)
		if err != nil {
			entries = append(entries, mms.Entry{Name: name, Err: err})
			continue
		}

		if isZip(f.Name) {
			if depth+1 > maxDepth {
				entries = append(entries, mms.Entry{Name: name, Err: fmt.Errorf("nested archive deeper than %d levels", maxDepth)})
				continue
			}
			inner, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
			if err != nil {
				entries = append(entries, mms.Entry{Name: name, Err: fmt.Errorf("%w: %v", ErrNotArchive, err)})
				continue
			}
			entries = append(entries, collect(inner, name+"/", depth+1)...)
			continue
		}

		entries = append(entries, mms.Entry{Name: name, Data: data})
	}
	return entries
}

func readMember(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxEntrySize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	if len(data) > maxEntrySize {
		return nil, fmt.Errorf("%w: %s", ErrEntryTooLarge, f.Name)
	}
	return data, nil
}

func isZip(name string) bool {
	return strings.EqualFold(path.Ext(name), ".zip")
}
