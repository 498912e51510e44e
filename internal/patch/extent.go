package patch

import "bytes"

// Extent locates one occurrence of a prefix inside an object file's
// string data, together with the NUL-terminated region enclosing it.
type Extent struct {
	// Offset is the byte position of the occurrence.
	Offset int
	// End is the position of the terminating NUL, or the end of the
	// data when no terminator follows.
	End int
}

// Width returns how many bytes a rewritten string may occupy in place.
func (e Extent) Width() int {
	return e.End - e.Offset
}

// Extents scans buf for needle and reports each occurrence with its
// enclosing string region. The scan resumes at every region's
// terminator, so a region is reported at most once.
func Extents(buf, needle []byte) []Extent {
	var out []Extent
	from := 0
	for {
		i := bytes.Index(buf[from:], needle)
		if i < 0 {
			return out
		}
		i += from
		end := regionEnd(buf, i)
		out = append(out, Extent{Offset: i, End: end})
		from = end
	}
}

// regionEnd returns the index of the first NUL byte at or after start,
// or len(buf) when the data runs out first.
func regionEnd(buf []byte, start int) int {
	if i := bytes.IndexByte(buf[start:], 0); i >= 0 {
		return start + i
	}
	return len(buf)
}
