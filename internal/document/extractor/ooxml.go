package extractor

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
)

// maxEntrySize caps how much of a single package part is inflated.
const maxEntrySize = 64 << 20

const markupCompatibilityNamespace = "http://schemas.openxmlformats.org/markup-compatibility/2006"

// isFallback reports whether name is the mc:Fallback branch of an
// mc:AlternateContent block. The mc:Choice sibling carries the same content,
// so only one of the two may be read.
func isFallback(name Name) bool {
	return name.is(markupCompatibilityNamespace, "mc", "Fallback")
}

// Package is a read-only view of a ZIP based Office Open XML container.
type Package struct {
	zr *zip.Reader
}

// OpenPackage opens data as a ZIP container.
func OpenPackage(data []byte) (*Package, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty package", ErrUnsupportedContainer)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedContainer, err)
	}

	return &Package{zr: zr}, nil
}

// PackageEntry is a package part whose name matched a numbered pattern.
type PackageEntry struct {
	Name   string
	Number int
	file   *zip.File
}

// NumberedEntries returns the parts whose names match pattern, ordered by the
// integer captured in the pattern's first group.
func (p *Package) NumberedEntries(pattern *regexp.Regexp) []PackageEntry {
	var entries []PackageEntry
	for _, f := range p.zr.File {
		m := pattern.FindStringSubmatch(f.Name)
		if len(m) < 2 {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		entries = append(entries, PackageEntry{Name: f.Name, Number: n, file: f})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Number < entries[j].Number
	})

	return entries
}

// Open returns the decompressed contents of the entry.
func (e PackageEntry) Open() ([]byte, error) {
	return readZipFile(e.file)
}

// ReadEntry returns the decompressed contents of the part with the given name.
func (p *Package) ReadEntry(name string) ([]byte, error) {
	for _, f := range p.zr.File {
		if f.Name == name {
			return readZipFile(f)
		}
	}
	return nil, fmt.Errorf("%w: %s not found in package", ErrUnsupportedContainer, name)
}

func readZipFile(f *zip.File) ([]byte, error) {
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
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrUnsupportedContainer, f.Name, maxEntrySize)
	}

	return data, nil
}
