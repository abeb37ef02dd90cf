// Package walker locates input files and feeds them through the extraction
// pipeline. It supports two independent discovery modes: a recursive keyword
// scan over a root directory, and a convention-driven lookup over a single
// simulation directory. Inputs compressed with gzip are read transparently.
package walker

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/coffersTech/tcmetrics/internal/extract"
	"github.com/coffersTech/tcmetrics/internal/model"
	"github.com/coffersTech/tcmetrics/internal/pkg/digest"
)

// ErrNoFiles is returned when a keyword scan matches nothing.
var ErrNoFiles = errors.New("no matching files found")

const runTimeLayout = "2006-01-02 15:04:05"

// readFile loads an input fully into memory, decompressing .gz inputs.
// The handle is released as soon as the read completes.
func readFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return "", fmt.Errorf("opening gzip stream %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// parseQdiscFile runs one file's text through segmenter and dispatcher,
// tagging each record with its source filename and block ordinal.
func parseQdiscFile(path, text, stamp string) []model.Record {
	var records []model.Record
	for i, block := range extract.Blocks(text) {
		rec, ok := extract.Dispatch(block)
		if !ok {
			continue
		}
		rec.SourceFile = filepath.Base(path)
		rec.Index = i + 1
		rec.Timestamp = stamp
		records = append(records, rec)
	}
	return records
}

// inputDigest is best-effort: a digest failure degrades the manifest, not
// the run.
func inputDigest(path string) string {
	d, err := digest.File(path)
	if err != nil {
		log.Printf("warning: digest of %s failed: %v", path, err)
		return ""
	}
	return d
}

// ScanKeyword recursively walks root for qdisc dump files whose name
// contains keyword (case-insensitive) and parses every block inside each.
func ScanKeyword(root, keyword string) ([]model.Record, []model.InputFile, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, nil, fmt.Errorf("invalid root directory %q", root)
	}

	kw := strings.ToLower(keyword)
	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := strings.ToLower(d.Name())
		if !strings.Contains(name, kw) {
			return nil
		}
		if strings.HasSuffix(name, ".txt") || strings.HasSuffix(name, ".txt.gz") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walking %s: %w", root, err)
	}
	if len(paths) == 0 {
		return nil, nil, ErrNoFiles
	}

	log.Printf("%d file(s) found", len(paths))
	for _, p := range paths {
		log.Printf("- %s", p)
	}

	stamp := time.Now().Format(runTimeLayout)
	var records []model.Record
	var inputs []model.InputFile
	for _, path := range paths {
		text, err := readFile(path)
		if err != nil {
			log.Printf("warning: skipping %s: %v", path, err)
			continue
		}
		recs := parseQdiscFile(path, text, stamp)
		records = append(records, recs...)
		inputs = append(inputs, model.InputFile{Path: path, Digest: inputDigest(path), Records: len(recs)})
		log.Printf("processed %s: %d record(s)", path, len(recs))
	}
	return records, inputs, nil
}
