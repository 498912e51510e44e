package patch

import (
	"bytes"
	"os"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Text rewrites every occurrence of the old prefix in a text file.
// Occurrences are replaced verbatim, so the file may change size. Files
// whose content is not valid UTF-8 are rejected as unreadable rather
// than risk corrupting something mis-classified as text.
func (p *Patcher) Text(path string) Outcome {
	data, err := os.ReadFile(path)
	if err != nil {
		return Outcome{Path: path, Reason: ReasonReadError, Err: err}
	}
	if !utf8.Valid(data) {
		return Outcome{Path: path, Reason: ReasonReadError, Err: ErrMalformedText}
	}
	if !bytes.Contains(data, p.prefix.Old) {
		return Outcome{Path: path, Reason: ReasonNoMatch}
	}

	patched := bytes.ReplaceAll(data, p.prefix.Old, p.prefix.New)
	if err := os.WriteFile(path, patched, 0644); err != nil {
		return Outcome{Path: path, Reason: ReasonWriteError, Err: err}
	}

	p.log.Debug("patched text file", zap.String("file", path))
	return Outcome{Path: path, Changed: true, Reason: ReasonPatched}
}
