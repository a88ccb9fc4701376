package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"testing"
)

func TestOSFileSystem_CreatesParents(t *testing.T) {
	var fsys FileSystem = OSFileSystem{}
	name := filepath.Join(t.TempDir(), "out", "meshes", "square.obj")

	if err := WriteFile(fsys, name, []byte("v 0 0 0\n")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := fsys.ReadFile(name)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "v 0 0 0\n" {
		t.Errorf("ReadFile = %q", data)
	}
	info, err := fsys.Stat(filepath.Dir(name))
	if err != nil || !info.IsDir() {
		t.Errorf("parent directory missing: %v", err)
	}
}

func TestMemoryFileSystem_VisibleAfterClose(t *testing.T) {
	m := NewMemoryFileSystem()

	w, err := m.Create("out/../out/lod1.obj")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := io.WriteString(w, "v 1 2 3\n"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := m.Stat("out/lod1.obj"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("file visible before Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := m.ReadFile("out/lod1.obj")
	if err != nil || string(data) != "v 1 2 3\n" {
		t.Fatalf("ReadFile = %q, %v", data, err)
	}
	data[0] = 'x'
	if again, _ := m.ReadFile("out/lod1.obj"); again[0] != 'v' {
		t.Error("stored data was modified through the returned slice")
	}

	if info, err := m.Stat("out"); err != nil || !info.IsDir() || info.Mode()&fs.ModeDir == 0 {
		t.Errorf("out should be a directory: %v", err)
	}
	info, err := m.Stat("out/lod1.obj")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.IsDir() || info.Size() != 8 || info.Name() != "lod1.obj" || info.Mode() != 0o644 {
		t.Errorf("unexpected info: dir=%v size=%d name=%s mode=%v", info.IsDir(), info.Size(), info.Name(), info.Mode())
	}
	if !info.ModTime().IsZero() || info.Sys() != nil {
		t.Error("memory files carry no modification time or system data")
	}

	if _, err := w.Write([]byte("more")); !errors.Is(err, fs.ErrClosed) {
		t.Errorf("Write after Close = %v, want fs.ErrClosed", err)
	}
	if err := w.Close(); !errors.Is(err, fs.ErrClosed) {
		t.Errorf("second Close = %v, want fs.ErrClosed", err)
	}
}

func TestMemoryFileSystem_Missing(t *testing.T) {
	m := NewMemoryFileSystem()
	if _, err := m.ReadFile("nope.json"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadFile error = %v, want fs.ErrNotExist", err)
	}
	if _, err := m.Stat("nope.json"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Stat error = %v, want fs.ErrNotExist", err)
	}
}

func TestMemoryFileSystem_CreateOverDirectory(t *testing.T) {
	m := NewMemoryFileSystem()
	if err := WriteFile(m, "out/a.obj", nil); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := m.Create("out"); err == nil {
		t.Error("creating a file over a directory succeeded")
	}
}

func TestExport(t *testing.T) {
	m := NewMemoryFileSystem()
	boom := errors.New("boom")

	err := Export(m, "partial.obj", func(w io.Writer) error {
		io.WriteString(w, "v 0 0 0\n")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("Export error = %v, want %v", err, boom)
	}

	if err := Export(m, "b.obj", func(w io.Writer) error {
		_, err := io.WriteString(w, "f 1 2 3\n")
		return err
	}); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if got := m.Files(); len(got) != 2 || got[0] != "b.obj" || got[1] != "partial.obj" {
		t.Errorf("Files() = %v", got)
	}
}
