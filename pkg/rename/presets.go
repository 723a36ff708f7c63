package rename

import (
	"fmt"
	"sort"
	"strings"
)

// LibC returns the table that wraps the C runtime's stdio and file
// descriptor calls.
func LibC() *Table {
	t := &Table{
		Name:     "libc",
		Prefix:   DefaultPrefix,
		Suffixes: []string{UNIX2003},
		Symbols:  make(map[string]Policy),
	}
	for _, s := range []string{
		"clearerr", "close", "fclose", "fdopen", "feof", "ferror", "fflush",
		"fgetc", "fgetpos", "fgets", "fileno", "flockfile", "fopen", "fopen64",
		"fprintf", "fputc", "fputs", "fread", "freopen", "fseek", "fsetpos",
		"fstatvfs64", "ftell", "ftrylockfile", "funlockfile", "fwrite",
		"ioctl", "lseek", "lseek64", "open", "open64", "popen", "printf",
		"read", "opendir", "readdir", "closedir", "rewinddir", "rewind",
		"stat", "fstat", "ungetc", "vfprintf", "write",
	} {
		t.Symbols[s] = Prefix
	}
	// glibc names these through _IO_*
	t.Symbols["putc"] = Replace("___wrap__IO_putc")
	t.Symbols["getc"] = Replace("___wrap__IO_getc")
	t.Symbols["getc_unlocked"] = Replace("___wrap__IO_getc_unlocked")
	return t
}

// Python returns the table used when the target is the embedded Python
// runtime: filesystem and dynamic loading calls.
func Python() *Table {
	t := &Table{
		Name:     "python",
		Prefix:   DefaultPrefix,
		Suffixes: []string{UNIX2003},
		Symbols:  make(map[string]Policy),
	}
	for _, s := range []string{
		"getcwd", "chdir", "access", "unlink", "chmod", "rmdir", "utime",
		"rename", "mkdir", "dlopen", "dlclose", "dlsym", "lstat",
	} {
		t.Symbols[s] = Prefix
	}
	return t
}

var presets = map[string]func() *Table{
	"libc":        LibC,
	"python":      Python,
	"runtime-alt": Python,
}

// Lookup returns a fresh copy of the named preset table.
func Lookup(name string) (*Table, error) {
	fn, ok := presets[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown rename table %q (available: %s)", name, strings.Join(Presets(), ", "))
	}
	return fn(), nil
}

// Presets lists the preset names.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ForLibrary picks the preset for a target library name: the python table
// for libpython builds and libc otherwise.
func ForLibrary(lib string) *Table {
	if strings.Contains(lib, "libpython") {
		return Python()
	}
	return LibC()
}
