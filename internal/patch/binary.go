package patch

import (
	"bytes"
	"os"

	"go.uber.org/zap"
)

// Binary rewrites occurrences of the old prefix in an object file without
// moving a single byte of the layout. The file is read whole, rewritten
// in memory, and written back once, and only when something changed.
func (p *Patcher) Binary(path string) Outcome {
	data, err := os.ReadFile(path)
	if err != nil {
		return Outcome{Path: path, Reason: ReasonReadError, Err: err}
	}
	if !bytes.Contains(data, p.prefix.Old) {
		return Outcome{Path: path, Reason: ReasonNoMatch}
	}

	var changed bool
	if p.prefix.Grows() {
		changed = p.relocateStrings(data, path)
	} else {
		changed = p.overwriteInPlace(data)
	}
	if !changed {
		return Outcome{Path: path, Reason: ReasonNoSpace}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return Outcome{Path: path, Reason: ReasonWriteError, Err: err}
	}

	p.log.Debug("patched object file", zap.String("file", path))
	return Outcome{Path: path, Changed: true, Reason: ReasonPatched}
}

// overwriteInPlace handles a replacement no longer than the original:
// every occurrence is overwritten with the new prefix padded to the old
// prefix's width with NUL bytes. Strings keep their offsets, the file
// keeps its size.
func (p *Patcher) overwriteInPlace(data []byte) bool {
	padded := make([]byte, len(p.prefix.Old))
	copy(padded, p.prefix.New)

	changed := false
	from := 0
	for {
		i := bytes.Index(data[from:], p.prefix.Old)
		if i < 0 {
			break
		}
		i += from
		copy(data[i:i+len(padded)], padded)
		changed = true
		from = i + len(padded)
	}
	return changed
}

// relocateStrings handles a replacement longer than the original. Each
// occurrence sits inside a NUL-terminated string, and the rewritten
// string may only use the bytes up to that terminator. A longer prefix
// always needs more room than the original string occupied, so every
// occurrence gets logged and left byte-for-byte untouched; the scan
// resumes at the terminator.
func (p *Patcher) relocateStrings(data []byte, path string) bool {
	changed := false
	for _, ext := range Extents(data, p.prefix.Old) {
		trailer := data[ext.Offset+len(p.prefix.Old) : ext.End]
		candidate := make([]byte, 0, len(p.prefix.New)+len(trailer))
		candidate = append(candidate, p.prefix.New...)
		candidate = append(candidate, trailer...)

		if len(candidate) > ext.Width() {
			p.log.Warn("cannot relocate string in place",
				zap.String("file", path),
				zap.Int("offset", ext.Offset),
				zap.Int("available", ext.Width()),
				zap.Int("needed", len(candidate)))
			continue
		}

		copy(data[ext.Offset:], candidate)
		for j := ext.Offset + len(candidate); j < ext.End; j++ {
			data[j] = 0
		}
		changed = true
	}
	return changed
}
