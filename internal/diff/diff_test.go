package diff

import (
	"strings"
	"testing"
)

func TestCompute_NoChanges(t *testing.T) {
	content := "PREFIX=/opt/app/usr\nPATH=$PREFIX/bin\n"

	hunks := Compute(content, content)
	if len(hunks) != 0 {
		t.Errorf("Expected 0 hunks for identical content, got %d", len(hunks))
	}
}

func TestCompute_PrefixRewrite(t *testing.T) {
	oldContent := "# generated\nPREFIX=/data/app/usr\nPATH=$PREFIX/bin\n"
	newContent := strings.ReplaceAll(oldContent, "/data/app/usr", "/opt/bundle/usr")

	hunks := Compute(oldContent, newContent)
	if len(hunks) != 1 {
		t.Fatalf("Expected 1 hunk, got %d", len(hunks))
	}

	hasRemoval := false
	hasAddition := false
	hasContext := false
	for _, line := range hunks[0].Lines {
		switch {
		case line.Type == LineRemoved && strings.Contains(line.Content, "/data/app/usr"):
			hasRemoval = true
		case line.Type == LineAdded && strings.Contains(line.Content, "/opt/bundle/usr"):
			hasAddition = true
		case line.Type == LineContext:
			hasContext = true
		}
	}
	if !hasRemoval {
		t.Error("Expected the old prefix line to be removed")
	}
	if !hasAddition {
		t.Error("Expected the new prefix line to be added")
	}
	if !hasContext {
		t.Error("Expected context lines around the change")
	}
}

func TestCompute_DistantChangesSeparateHunks(t *testing.T) {
	var oldLines, newLines []string
	for i := 1; i <= 15; i++ {
		oldLines = append(oldLines, "line")
		newLines = append(newLines, "line")
	}
	oldLines[0] = "first-old"
	newLines[0] = "first-new"
	oldLines[14] = "last-old"
	newLines[14] = "last-new"

	hunks := Compute(strings.Join(oldLines, "\n")+"\n", strings.Join(newLines, "\n")+"\n")
	if len(hunks) != 2 {
		t.Fatalf("Expected 2 hunks for distant changes, got %d", len(hunks))
	}

	if !hunkHasLine(hunks[0], LineRemoved, "first-old") || !hunkHasLine(hunks[0], LineAdded, "first-new") {
		t.Errorf("First hunk missing the first change: %+v", hunks[0])
	}
	if !hunkHasLine(hunks[1], LineRemoved, "last-old") || !hunkHasLine(hunks[1], LineAdded, "last-new") {
		t.Errorf("Second hunk missing the last change: %+v", hunks[1])
	}
}

func TestCompute_ContextIsBounded(t *testing.T) {
	var oldLines, newLines []string
	for i := 1; i <= 20; i++ {
		oldLines = append(oldLines, "same")
		newLines = append(newLines, "same")
	}
	oldLines[10] = "mid-old"
	newLines[10] = "mid-new"

	hunks := Compute(strings.Join(oldLines, "\n")+"\n", strings.Join(newLines, "\n")+"\n")
	if len(hunks) != 1 {
		t.Fatalf("Expected 1 hunk, got %d", len(hunks))
	}

	// One removed, one added, at most contextLines on each side.
	max := 2 + 2*contextLines
	if got := len(hunks[0].Lines); got > max {
		t.Errorf("Expected at most %d lines in hunk, got %d", max, got)
	}
}

func TestCompute_Counts(t *testing.T) {
	oldContent := "a\nb\nc\n"
	newContent := "a\nB\nc\n"

	hunks := Compute(oldContent, newContent)
	if len(hunks) != 1 {
		t.Fatalf("Expected 1 hunk, got %d", len(hunks))
	}

	h := hunks[0]
	if h.OldCount != 3 || h.NewCount != 3 {
		t.Errorf("Expected 3 lines on both sides, got old=%d new=%d", h.OldCount, h.NewCount)
	}
}

func hunkHasLine(h Hunk, typ LineType, content string) bool {
	for _, line := range h.Lines {
		if line.Type == typ && line.Content == content {
			return true
		}
	}
	return false
}
