package rename

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseTable(t *testing.T) {
	tbl, err := Parse([]byte(`
name: custom
symbols:
  open: true
  putc: ___wrap__IO_putc
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := &Table{
		Name:     "custom",
		Prefix:   DefaultPrefix,
		Suffixes: []string{UNIX2003},
		Symbols: map[string]Policy{
			"open": Prefix,
			"putc": Replace("___wrap__IO_putc"),
		},
	}
	if diff := cmp.Diff(want, tbl); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseTableErrors(t *testing.T) {
	for _, src := range []string{
		"symbols:\n  open: false\n",
		"symbols:\n  open: [a, b]\n",
		"symbols:\n  open: \"\"\n",
		"symbols: [open]\n",
	} {
		if _, err := Parse([]byte(src)); err == nil {
			t.Errorf("Parse(%q) expected an error", src)
		}
	}
}

func TestTableYAMLRoundTrip(t *testing.T) {
	data, err := LibC().Marshal()
	if err != nil {
		t.Fatal(err)
	}
	got, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse(Marshal()) error = %v\n%s", err, data)
	}
	if diff := cmp.Diff(LibC(), got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.yaml")
	if err := os.WriteFile(path, []byte("prefix: __w_\nsuffixes: []\nsymbols:\n  read: true\n"), 0644); err != nil {
		t.Fatal(err)
	}
	tbl, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := tbl.Rename("_read"); got != "__w_read" {
		t.Errorf("Rename(_read) = %q", got)
	}
	if got, ok := tbl.Rename("_read$UNIX2003"); ok {
		t.Errorf("Rename(_read$UNIX2003) = %q with no suffixes configured", got)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of a missing file succeeded")
	}
}

func TestMerge(t *testing.T) {
	base := Python()
	m := base.Merge(&Table{Symbols: map[string]Policy{"dlopen": Replace("_my_dlopen"), "stat": Prefix}})
	if got, _ := m.Rename("_dlopen"); got != "_my_dlopen" {
		t.Errorf("merged dlopen = %q", got)
	}
	if got, _ := m.Rename("_stat"); got != "___wrap_stat" {
		t.Errorf("merged stat = %q", got)
	}
	if _, ok := base.Rename("_stat"); ok {
		t.Error("Merge() modified its receiver")
	}
	if p := base.WithPrefix("__x_"); p.Prefix != "__x_" || base.Prefix != DefaultPrefix {
		t.Errorf("WithPrefix() = %q, base %q", p.Prefix, base.Prefix)
	}
}

func TestLookup(t *testing.T) {
	for _, name := range []string{"libc", "python", "runtime-alt", "LIBC"} {
		if _, err := Lookup(name); err != nil {
			t.Errorf("Lookup(%q) error = %v", name, err)
		}
	}
	if _, err := Lookup("perl"); err == nil {
		t.Error("Lookup(perl) succeeded")
	}
	if got := ForLibrary("build/libpython2.7.a").Name; got != "python" {
		t.Errorf("ForLibrary(libpython) = %s", got)
	}
	if got := ForLibrary("libfoo.a").Name; got != "libc" {
		t.Errorf("ForLibrary(libfoo) = %s", got)
	}
	if got := ForLibrary("").Name; got != "libc" {
		t.Errorf("ForLibrary(\"\") = %s", got)
	}
}
