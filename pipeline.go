package macho

import (
	"fmt"

	"github.com/sassoftware/relic/v7/lib/binpatch"

	"github.com/appsworld/mach5/pkg/rename"
)

// A Stage is a point the wrap pipeline has reached. Stages only move forward.
type Stage int

const (
	StageStart Stage = iota
	StageHeaderParsed
	StageCommandsWalked
	StageTablesParsed
	StageRenamed
	StageEmitted
)

var stageStrings = []string{
	"START",
	"HEADER_PARSED",
	"COMMANDS_WALKED",
	"TABLES_PARSED",
	"RENAMED",
	"EMITTED",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageStrings) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageStrings[s]
}

// A StageError is a pipeline failure. Stage is the last stage the run
// completed before Err stopped it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stopped after %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// WrapOptions configure Wrap.
type WrapOptions struct {
	FileConfig
	RewriteOptions
}

// Output is the result of a successful Wrap.
type Output struct {
	File    *File
	Rewrite *Rewrite
	Data    []byte
	Patch   *binpatch.PatchSet
	Stage   Stage
}

// Changes returns the renames Wrap applied.
func (o *Output) Changes() []rename.Change {
	return o.Rewrite.Rename.Changes
}

// Wrap runs the whole pipeline over data: parse the header and load
// commands, parse the tables, rename through tbl and emit the new binary.
func Wrap(data []byte, tbl *rename.Table, opts WrapOptions) (*Output, error) {
	f, stage, err := newFile(data, opts.FileConfig)
	if err != nil {
		return nil, &StageError{stage, err}
	}
	return f.Wrap(tbl, opts.RewriteOptions)
}

// Wrap runs the rename and emit stages over an already parsed File.
func (f *File) Wrap(tbl *rename.Table, opts RewriteOptions) (*Output, error) {
	if f.Symtab == nil {
		return nil, &StageError{StageCommandsWalked, ErrNoSymtab}
	}
	rw, err := f.Rewrite(tbl, opts)
	if err != nil {
		return nil, &StageError{StageTablesParsed, err}
	}
	out, patch, err := f.Emit(rw)
	if err != nil {
		return nil, &StageError{StageRenamed, err}
	}
	return &Output{
		File:    f,
		Rewrite: rw,
		Data:    out,
		Patch:   patch,
		Stage:   StageEmitted,
	}, nil
}
