// Package engine drives one relocation pass over a bundle tree: list the
// files, classify each one, and hand it to the matching patcher. Files
// are processed strictly one at a time; a file that fails is counted and
// logged, never allowed to abort the pass.
package engine

import (
	"go.uber.org/zap"

	"reloc/internal/classify"
	"reloc/internal/patch"
	"reloc/internal/walk"
)

// Progress is one synchronous status update during a run. The first
// event announces the total before any file is touched; every following
// event reports one examined file. Outcome is nil for files the
// classifier told the engine to leave alone.
type Progress struct {
	Path    string
	Index   int
	Total   int
	Outcome *patch.Outcome
}

// Report sums up one relocation pass. Outcomes lists every file a
// patcher actually looked at, in walk order; unclassifiable files do
// not appear.
type Report struct {
	FilesPatched int
	FilesFailed  int
	Outcomes     []patch.Outcome
}

// Success reports whether every eligible file could be processed. Files
// skipped for lack of space still count as success.
func (r *Report) Success() bool {
	return r.FilesFailed == 0
}

// Engine applies a prefix relocation to every eligible file under a
// bundle root.
type Engine struct {
	log *zap.Logger

	// OnProgress, when set, receives updates as the run proceeds. The
	// callback runs on the caller's goroutine, between files.
	OnProgress func(Progress)
}

// New creates an Engine.
func New(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{log: log}
}

// Run rewrites prefix.Old to prefix.New in every text and object file
// under root.
//
// Identical prefixes short-circuit to an empty successful report before
// the tree is even listed. A missing root is the only fatal error;
// everything that goes wrong below it is recorded per file in the
// report and processing moves on.
func (e *Engine) Run(root string, prefix patch.Prefix) (*Report, error) {
	report := &Report{}

	if prefix.Noop() {
		e.log.Info("prefix already in place, nothing to do",
			zap.String("prefix", string(prefix.Old)))
		return report, nil
	}

	files, err := walk.List(root)
	if err != nil {
		return nil, err
	}

	e.log.Info("relocating bundle",
		zap.String("root", root),
		zap.String("old", string(prefix.Old)),
		zap.String("new", string(prefix.New)),
		zap.Int("files", len(files)))
	e.emit(Progress{Total: len(files)})

	p := patch.New(prefix, e.log)
	for i, path := range files {
		var out patch.Outcome
		kind := classify.Classify(path)
		switch kind {
		case classify.Text:
			out = p.Text(path)
		case classify.ObjectBinary:
			out = p.Binary(path)
		default:
			e.log.Debug("leaving unclassified file alone", zap.String("file", path))
			e.emit(Progress{Path: path, Index: i + 1, Total: len(files)})
			continue
		}

		report.Outcomes = append(report.Outcomes, out)
		if out.Changed {
			report.FilesPatched++
		}
		if out.Failed() {
			report.FilesFailed++
			e.log.Error("failed to patch file",
				zap.String("file", path),
				zap.String("kind", kind.String()),
				zap.Error(out.Err))
		}
		e.emit(Progress{Path: path, Index: i + 1, Total: len(files), Outcome: &out})
	}

	e.log.Info("relocation finished",
		zap.Int("patched", report.FilesPatched),
		zap.Int("failed", report.FilesFailed),
		zap.Int("examined", len(files)))
	return report, nil
}

func (e *Engine) emit(p Progress) {
	if e.OnProgress != nil {
		e.OnProgress(p)
	}
}
