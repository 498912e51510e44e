package patch

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// elfFixture builds a blob shaped like an object file's string table:
// some opaque bytes, then NUL-terminated path strings.
func elfFixture(strings ...string) []byte {
	buf := []byte{0x7f, 'E', 'L', 'F', 2, 1, 1, 0}
	for _, s := range strings {
		buf = append(buf, s...)
		buf = append(buf, 0)
	}
	return buf
}

func TestBinaryShrinkingReplacement(t *testing.T) {
	tmpDir := t.TempDir()
	p := New(NewPrefix("/data/app/usr", "/opt/usr"), zap.NewNop())

	before := elfFixture("/data/app/usr/bin/sh", "/lib/ld.so", "/data/app/usr/lib")
	path := writeFile(t, tmpDir, "libfoo.so", before)

	out := p.Binary(path)
	require.True(t, out.Changed)
	assert.Equal(t, ReasonPatched, out.Reason)

	after := readFile(t, path)
	assert.Equal(t, len(before), len(after), "object file size must not change")

	// Each occurrence becomes the new prefix padded with NULs to the old
	// prefix's width; the rest of the string stays where it was.
	want := elfFixture("/opt/usr\x00\x00\x00\x00\x00/bin/sh", "/lib/ld.so", "/opt/usr\x00\x00\x00\x00\x00/lib")
	assert.Equal(t, want, after)
}

func TestBinaryEqualLengthReplacement(t *testing.T) {
	tmpDir := t.TempDir()
	p := New(NewPrefix("/data/app", "/opt/apps"), zap.NewNop())
	require.Len(t, []byte("/opt/apps"), len("/data/app"))

	before := elfFixture("/data/app/lib/libz.so.1")
	path := writeFile(t, tmpDir, "app", before)

	out := p.Binary(path)
	require.True(t, out.Changed)

	after := readFile(t, path)
	assert.Equal(t, len(before), len(after))
	assert.Equal(t, elfFixture("/opt/apps/lib/libz.so.1"), after)
}

func TestBinaryNoOccurrence(t *testing.T) {
	tmpDir := t.TempDir()
	p := New(NewPrefix("/data/app", "/opt"), zap.NewNop())

	before := elfFixture("/usr/lib/libm.so")
	path := writeFile(t, tmpDir, "libm.so", before)

	out := p.Binary(path)
	assert.False(t, out.Changed)
	assert.Equal(t, ReasonNoMatch, out.Reason)
	assert.Equal(t, before, readFile(t, path))
}

func TestBinaryGrowingReplacementSkips(t *testing.T) {
	tmpDir := t.TempDir()

	core, logs := observer.New(zap.WarnLevel)
	p := New(NewPrefix("/opt", "/much/longer/opt"), zap.New(core))

	before := elfFixture("/opt/lib/libssl.so", "/etc/hosts", "/opt/bin/curl")
	path := writeFile(t, tmpDir, "libssl.so", before)

	out := p.Binary(path)
	assert.False(t, out.Changed)
	assert.Equal(t, ReasonNoSpace, out.Reason)
	assert.False(t, out.Failed(), "a skipped file is not a failure")

	// Every byte stays exactly as it was.
	assert.Equal(t, before, readFile(t, path))

	// One warning per skipped string region.
	warns := logs.FilterMessage("cannot relocate string in place").All()
	assert.Len(t, warns, 2)
}

func TestBinaryGrowingIsDeterministic(t *testing.T) {
	tmpDir := t.TempDir()
	p := New(NewPrefix("/a", "/a/b/c/d/e/f"), zap.NewNop())

	before := elfFixture("/a/x", "/a/y")
	path := writeFile(t, tmpDir, "bin", before)

	first := p.Binary(path)
	second := p.Binary(path)
	assert.Equal(t, first.Reason, second.Reason)
	assert.Equal(t, before, readFile(t, path))
}

func TestBinaryMultipleOccurrencesOneRegion(t *testing.T) {
	// Two matches inside one NUL-terminated region: the grow case skips
	// the whole region once, warning once.
	tmpDir := t.TempDir()

	core, logs := observer.New(zap.WarnLevel)
	p := New(NewPrefix("/u", "/uvwxyz"), zap.New(core))

	before := elfFixture("/u/share:/u/etc")
	path := writeFile(t, tmpDir, "bin", before)

	out := p.Binary(path)
	assert.Equal(t, ReasonNoSpace, out.Reason)
	assert.Equal(t, before, readFile(t, path))
	assert.Len(t, logs.FilterMessage("cannot relocate string in place").All(), 1)
}

func TestBinaryUnterminatedString(t *testing.T) {
	// Occurrence with no NUL before end of file: the region runs to the
	// end of the data and the grow case still leaves it alone.
	tmpDir := t.TempDir()
	p := New(NewPrefix("/opt", "/opt/longer"), zap.NewNop())

	before := []byte("garbage/opt/bin/tail")
	path := writeFile(t, tmpDir, "blob.bin", before)

	out := p.Binary(path)
	assert.Equal(t, ReasonNoSpace, out.Reason)
	assert.Equal(t, before, readFile(t, path))
}

func TestBinaryShrinkScanAdvancesPastReplacement(t *testing.T) {
	// Back-to-back occurrences must each be rewritten exactly once.
	tmpDir := t.TempDir()
	p := New(NewPrefix("/ab", "/a"), zap.NewNop())

	before := append([]byte("/ab/ab"), 0)
	path := writeFile(t, tmpDir, "tight.bin", before)

	out := p.Binary(path)
	require.True(t, out.Changed)

	want := append([]byte("/a\x00/a\x00"), 0)
	assert.Equal(t, want, readFile(t, path))
}

func TestBinaryMissingFile(t *testing.T) {
	p := New(NewPrefix("/data/app", "/opt"), zap.NewNop())

	out := p.Binary(tmpMissing(t))
	assert.Equal(t, ReasonReadError, out.Reason)
	assert.True(t, out.Failed())
}

func tmpMissing(t *testing.T) string {
	t.Helper()
	return t.TempDir() + "/does-not-exist"
}

func TestPrefixNoop(t *testing.T) {
	assert.True(t, NewPrefix("/same", "/same").Noop())
	assert.False(t, NewPrefix("/a", "/b").Noop())
}

func TestPrefixGrows(t *testing.T) {
	assert.True(t, NewPrefix("/a", "/ab").Grows())
	assert.False(t, NewPrefix("/ab", "/a").Grows())
	assert.False(t, NewPrefix("/ab", "/cd").Grows())
}

func TestExtents(t *testing.T) {
	needle := []byte("/opt")

	t.Run("terminated region", func(t *testing.T) {
		buf := append([]byte("xx/opt/lib"), 0)
		exts := Extents(buf, needle)
		require.Len(t, exts, 1)
		assert.Equal(t, 2, exts[0].Offset)
		assert.Equal(t, 10, exts[0].End)
		assert.Equal(t, 8, exts[0].Width())
	})

	t.Run("unterminated region ends at buffer", func(t *testing.T) {
		buf := []byte("xx/opt/lib")
		exts := Extents(buf, needle)
		require.Len(t, exts, 1)
		assert.Equal(t, len(buf), exts[0].End)
	})

	t.Run("two matches in one region collapse", func(t *testing.T) {
		buf := append([]byte("/opt:/opt"), 0)
		exts := Extents(buf, needle)
		require.Len(t, exts, 1)
	})

	t.Run("separate regions", func(t *testing.T) {
		var buf []byte
		buf = append(buf, "/opt/a"...)
		buf = append(buf, 0)
		buf = append(buf, "filler"...)
		buf = append(buf, 0)
		buf = append(buf, "/opt/b"...)
		buf = append(buf, 0)

		exts := Extents(buf, needle)
		require.Len(t, exts, 2)
		assert.Equal(t, 0, exts[0].Offset)
		assert.Equal(t, bytes.Index(buf, []byte("/opt/b")), exts[1].Offset)
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, Extents([]byte("nothing"), needle))
	})
}
