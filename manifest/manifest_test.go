package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/howl/vm"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
[project]
name = "test-app"
version = "0.1.0"

[source]
entry = "src/app.howl"

[runtime]
heap-capacity = 1048576
map-capacity = 64
trace = true
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Project.Name != "test-app" {
		t.Errorf("project name = %q, want test-app", m.Project.Name)
	}
	if m.Project.Version != "0.1.0" {
		t.Errorf("project version = %q, want 0.1.0", m.Project.Version)
	}
	if m.Source.Entry != "src/app.howl" {
		t.Errorf("source entry = %q, want src/app.howl", m.Source.Entry)
	}
	if m.Runtime.HeapCapacity != 1<<20 {
		t.Errorf("heap capacity = %d, want %d", m.Runtime.HeapCapacity, 1<<20)
	}
	if m.Runtime.MapCapacity != 64 {
		t.Errorf("map capacity = %d, want 64", m.Runtime.MapCapacity)
	}
	if !m.Runtime.Trace {
		t.Error("trace = false, want true")
	}
	if want := filepath.Join(m.Dir, "src", "app.howl"); m.EntryPath() != want {
		t.Errorf("entry path = %q, want %q", m.EntryPath(), want)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
[project]
name = "minimal"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Source.Entry != DefaultEntry {
		t.Errorf("entry = %q, want %q", m.Source.Entry, DefaultEntry)
	}
	if m.Runtime.HeapCapacity != vm.DefaultHeapCapacity {
		t.Errorf("heap capacity = %d, want default", m.Runtime.HeapCapacity)
	}
	if m.Runtime.MapCapacity != vm.DefaultMapCapacity {
		t.Errorf("map capacity = %d, want default", m.Runtime.MapCapacity)
	}
	if m.Runtime.Trace {
		t.Error("trace should default to false")
	}
}

func TestLoadManifestInvalidToml(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `[project`)
	if _, err := Load(dir); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadManifestMissing(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatal("expected error for missing manifest")
	}
}

func TestEnvFileOverlay(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, "[runtime]\nheap-capacity = 4096\n")
	writeFile(t, dir, EnvFileName, "HOWL_HEAP_CAPACITY=8192\nHOWL_TRACE=true\n")

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Runtime.HeapCapacity != 8192 {
		t.Errorf("heap capacity = %d, want 8192 from .env", m.Runtime.HeapCapacity)
	}
	if !m.Runtime.Trace {
		t.Error("trace should be enabled by .env")
	}
}

func TestProcessEnvWins(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, "[runtime]\nheap-capacity = 4096\n")
	writeFile(t, dir, EnvFileName, "HOWL_HEAP_CAPACITY=8192\n")
	t.Setenv(EnvHeapCapacity, "16384")
	t.Setenv(EnvMapCapacity, "128")

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Runtime.HeapCapacity != 16384 {
		t.Errorf("heap capacity = %d, want 16384 from process env", m.Runtime.HeapCapacity)
	}
	if m.Runtime.MapCapacity != 128 {
		t.Errorf("map capacity = %d, want 128", m.Runtime.MapCapacity)
	}
}

func TestApplyEnvRejectsBadValues(t *testing.T) {
	tests := []map[string]string{
		{EnvHeapCapacity: "lots"},
		{EnvHeapCapacity: "-1"},
		{EnvMapCapacity: "0"},
		{EnvTrace: "maybe"},
	}
	for _, env := range tests {
		m := &Manifest{}
		if err := m.ApplyEnv(env); err == nil {
			t.Errorf("ApplyEnv(%v) should fail", env)
		}
	}
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, FileName, "[project]\nname = \"found\"\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	m, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil || m.Project.Name != "found" {
		t.Fatalf("manifest = %+v, want project found", m)
	}
}

func TestFindAndLoadNone(t *testing.T) {
	dir := t.TempDir()
	m, err := FindAndLoad(dir)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m != nil && m.Dir == dir {
		t.Errorf("unexpected manifest in %s", m.Dir)
	}
}

func TestRuntimeOptions(t *testing.T) {
	m := &Manifest{Runtime: RuntimeConfig{HeapCapacity: 1 << 16, MapCapacity: 8}}
	rt, err := vm.NewRuntime(m.RuntimeOptions()...)
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	if rt.Heap.Capacity() != 1<<16 {
		t.Errorf("heap capacity = %d, want %d", rt.Heap.Capacity(), 1<<16)
	}
}
