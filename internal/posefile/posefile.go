// Package posefile reads and writes pose sequence files on disk and guards
// the output locations batch runs write to.
package posefile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/heimdex/heimdex-pose/internal/pose"
)

// Ext is the extension of pose files.
const Ext = ".json"

// ReadSequence loads a sequence from a JSON file holding either a frame
// array or a single frame object.
func ReadSequence(path string) (pose.Sequence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	seq, err := pose.DecodeSequence(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return seq, nil
}

// WriteSequence writes seq to path through a temporary file in the same
// directory, so a failed write never leaves a truncated pose file behind.
func WriteSequence(path string, seq pose.Sequence) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := pose.EncodeSequence(tmp, seq); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ListPoseFiles returns the pose files directly inside dir, sorted by name.
// Subdirectories and hidden files are skipped.
func ListPoseFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != dir && d.IsDir() {
			return filepath.SkipDir
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if strings.EqualFold(filepath.Ext(d.Name()), Ext) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// OutputPath maps an input file onto outDir, adding suffix before the
// extension. The base name is sanitized.
func OutputPath(outDir, inPath, suffix string) string {
	name := strings.TrimSuffix(filepath.Base(inPath), filepath.Ext(inPath))
	name = SanitizeName(name+suffix, 200)
	if name == "" {
		name = "pose"
	}
	return filepath.Join(outDir, name+Ext)
}
