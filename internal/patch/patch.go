// Package patch rewrites an installation prefix inside the files of a
// prebuilt bundle. Text files get plain string replacement; object
// binaries get length-preserving replacement so that section offsets and
// the file layout survive.
//
// This file holds the shared types and the Patcher itself.
// Related files:
// - text.go: whole-file text replacement
// - binary.go: NUL-padded in-place replacement for object files
// - extent.go: string-region analysis used by binary.go and inspection
package patch

import (
	"bytes"
	"errors"

	"go.uber.org/zap"
)

// ErrMalformedText reports text-file content that is not valid UTF-8.
var ErrMalformedText = errors.New("malformed utf-8 content")

// Prefix is one relocation: every occurrence of Old becomes New.
type Prefix struct {
	Old []byte
	New []byte
}

// NewPrefix builds a Prefix from the configured path strings.
func NewPrefix(old, new string) Prefix {
	return Prefix{Old: []byte(old), New: []byte(new)}
}

// Noop reports whether the relocation would change nothing.
func (p Prefix) Noop() bool {
	return bytes.Equal(p.Old, p.New)
}

// Grows reports whether the replacement is longer than the original.
// Object files can only be rewritten in place when it is not.
func (p Prefix) Grows() bool {
	return len(p.New) > len(p.Old)
}

// Reason explains what a patch attempt did to a file.
type Reason string

const (
	ReasonPatched    Reason = "patched"
	ReasonNoMatch    Reason = "no occurrence"
	ReasonNoSpace    Reason = "insufficient space"
	ReasonReadError  Reason = "read error"
	ReasonWriteError Reason = "write error"
)

// Outcome records the result for a single file.
type Outcome struct {
	Path    string
	Changed bool
	Reason  Reason
	Err     error
}

// Failed reports whether the file could not be processed at all. A file
// left untouched for lack of space is skipped, not failed.
func (o Outcome) Failed() bool {
	return o.Reason == ReasonReadError || o.Reason == ReasonWriteError
}

// Patcher applies one Prefix to individual files.
type Patcher struct {
	prefix Prefix
	log    *zap.Logger
}

// New creates a Patcher for the given relocation.
func New(prefix Prefix, log *zap.Logger) *Patcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Patcher{prefix: prefix, log: log}
}
