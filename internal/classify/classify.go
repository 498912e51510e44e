// Package classify decides how the relocation engine treats each file in
// a bundle: rewrite it as text, rewrite it as an object binary, or leave
// it alone.
package classify

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Kind is the patch treatment assigned to a file.
type Kind int

const (
	// Unknown files are left untouched by the engine.
	Unknown Kind = iota
	// Text files get whole-file string replacement.
	Text
	// ObjectBinary files get length-preserving, NUL-padded replacement.
	ObjectBinary
)

// String returns a short lowercase name for the kind.
func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case ObjectBinary:
		return "object"
	default:
		return "unknown"
	}
}

// textExtensions lists filename suffixes always treated as text, whatever
// the file contents look like. Matching is case-insensitive.
var textExtensions = []string{
	".sh", ".py", ".pl", ".rb", ".lua",
	".conf", ".cfg", ".txt", ".json", ".xml",
	".pc", ".la", ".cmake", ".m4",
}

var (
	shebangMagic = []byte("#!")
	elfMagic     = []byte{0x7f, 'E', 'L', 'F'}
)

// Classify reports the Kind for the file at path.
//
// The extension list is consulted first, then the leading bytes: "#!"
// marks a script, "\x7fELF" marks an object binary. Classify never fails;
// a file that cannot be opened or read far enough to identify is Unknown.
func Classify(path string) Kind {
	if HasTextExtension(path) {
		return Text
	}

	f, err := os.Open(path)
	if err != nil {
		return Unknown
	}
	defer f.Close()

	header := make([]byte, len(elfMagic))
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF {
		return Unknown
	}
	header = header[:n]

	if bytes.HasPrefix(header, shebangMagic) {
		return Text
	}
	if bytes.HasPrefix(header, elfMagic) {
		return ObjectBinary
	}
	return Unknown
}

// HasTextExtension reports whether the file name carries one of the
// always-text suffixes.
func HasTextExtension(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, ext := range textExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
