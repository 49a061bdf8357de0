package posefile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/heimdex/heimdex-pose/internal/pose"
)

const sampleFrame = `{"version":1.3,"people":[{"person_id":[-1],"pose_keypoints_2d":[` +
	`1,2,1,1,2,1,1,2,1,1,2,1,1,2,1,1,2,1,1,2,1,1,2,1,1,2,1,` +
	`1,2,1,1,2,1,1,2,1,1,2,1,1,2,1,1,2,1,1,2,1,1,2,1,1,2,1]}]}`

func TestReadWriteSequence(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.json")
	if err := os.WriteFile(in, []byte(sampleFrame), 0o644); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}

	seq, err := ReadSequence(in)
	if err != nil {
		t.Fatalf("ReadSequence() error = %v", err)
	}
	if len(seq) != 1 || len(seq[0].People) != 1 {
		t.Fatalf("ReadSequence() = %d frames, want 1 frame with 1 person", len(seq))
	}

	out := filepath.Join(dir, "out.json")
	if err := WriteSequence(out, seq); err != nil {
		t.Fatalf("WriteSequence() error = %v", err)
	}

	again, err := ReadSequence(out)
	if err != nil {
		t.Fatalf("ReadSequence(out) error = %v", err)
	}
	if string(again[0].People[0].Extra["person_id"]) != "[-1]" {
		t.Errorf("person_id = %s, want [-1]", again[0].People[0].Extra["person_id"])
	}
	if string(again[0].Extra["version"]) != "1.3" {
		t.Errorf("version = %s, want 1.3", again[0].Extra["version"])
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected only in.json and out.json, got %d entries", len(entries))
	}
}

func TestReadSequence_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}

	_, err := ReadSequence(path)
	if err == nil {
		t.Fatal("ReadSequence() expected error for invalid JSON")
	}
	if !strings.Contains(err.Error(), "bad.json") {
		t.Errorf("error %q should name the file", err)
	}

	if _, err := ReadSequence(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("ReadSequence() expected error for missing file")
	}
}

func TestWriteSequence_MissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "out.json")
	if err := WriteSequence(path, pose.Sequence{{People: []pose.Person{}}}); err == nil {
		t.Error("WriteSequence() expected error for missing directory")
	}
}

func TestListPoseFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.json", "a.JSON", "notes.txt", ".hidden.json"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("failed to create subdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(sub, "c.json"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("failed to write nested file: %v", err)
	}

	paths, err := ListPoseFiles(dir)
	if err != nil {
		t.Fatalf("ListPoseFiles() error = %v", err)
	}

	want := []string{filepath.Join(dir, "a.JSON"), filepath.Join(dir, "b.json")}
	if len(paths) != len(want) {
		t.Fatalf("ListPoseFiles() = %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %s, want %s", i, paths[i], want[i])
		}
	}
}

func TestOutputPath(t *testing.T) {
	got := OutputPath("/out", "/in/dance take<1>.json", "_moved")
	want := filepath.Join("/out", "dance take_1__moved.json")
	if got != want {
		t.Errorf("OutputPath() = %s, want %s", got, want)
	}
}
