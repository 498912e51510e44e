// Package provision performs first-run setup of a relocated bundle.
//
// A provisioning run rewrites the prefix baked into the bundle, installs
// the launcher and one-shot setup scripts, hooks the setup script into the
// shell rc file and finally records the provisioning version. The version
// gate makes repeated runs cheap no-ops.
//
// Related files:
//   - state.go: versioned JSON state that gates re-provisioning
//   - scripts.go: rendered boot, setup and rc hook scripts
//   - wait.go: blocking wait for the bundle root to appear
package provision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"reloc/internal/config"
	"reloc/internal/engine"
	"reloc/internal/patch"
)

// ErrNotReady reports that the bundle root does not exist yet, so there is
// nothing to provision. Callers that unpack the bundle asynchronously can
// wait for the root and retry.
var ErrNotReady = errors.New("bundle root not present")

// Provisioner runs the first-run sequence for a bundle.
type Provisioner struct {
	cfg    *config.Config
	engine *engine.Engine
	state  *StateManager
	log    *zap.Logger
}

// Result describes what a provisioning run did.
type Result struct {
	// Performed is false when the version gate short-circuited the run.
	Performed bool

	// Report is the relocation outcome. Nil when Performed is false.
	Report *engine.Report

	// FilesCreated lists the scripts and hooks written during the run.
	FilesCreated []string
}

// New creates a provisioner for the bundle described by cfg.
func New(cfg *config.Config, eng *engine.Engine, log *zap.Logger) *Provisioner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Provisioner{
		cfg:    cfg,
		engine: eng,
		state:  NewStateManager(cfg.StateDir()),
		log:    log,
	}
}

// State exposes the provisioning state manager.
func (p *Provisioner) State() *StateManager {
	return p.state
}

// Provision runs the full first-run sequence. When force is false and the
// recorded provisioning version is current, it returns immediately with
// Performed false. The version is recorded only after every other step has
// succeeded, so an interrupted or failed run stays re-runnable.
func (p *Provisioner) Provision(ctx context.Context, force bool) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.state.Load(); err != nil {
		return nil, err
	}
	if p.state.IsProvisioned() && !force {
		p.log.Info("bundle already provisioned",
			zap.Int("version", p.state.Get().InitializedVersion))
		return &Result{Performed: false}, nil
	}

	root := p.cfg.Bundle.Root
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotReady, root)
		}
		return nil, fmt.Errorf("failed to stat bundle root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrNotReady, root)
	}

	res := &Result{Performed: true}

	if err := p.installScripts(res); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := patch.NewPrefix(p.cfg.Bundle.OldPrefix, p.cfg.EffectiveNewPrefix())
	report, err := p.engine.Run(root, prefix)
	if err != nil {
		return nil, err
	}
	res.Report = report
	if !report.Success() {
		return res, fmt.Errorf("relocation failed on %d files, provisioning version not recorded",
			report.FilesFailed)
	}

	if err := p.state.MarkProvisioned(); err != nil {
		return res, err
	}

	p.log.Info("bundle provisioned",
		zap.Int("version", CurrentVersion),
		zap.Int("files_patched", report.FilesPatched))
	return res, nil
}

// installScripts writes the boot script, the one-shot setup script and the
// shell rc hook.
func (p *Provisioner) installScripts(res *Result) error {
	prefix := p.cfg.EffectiveNewPrefix()

	bootDir := p.cfg.BootDir()
	if err := os.MkdirAll(bootDir, 0755); err != nil {
		return fmt.Errorf("failed to create boot directory: %w", err)
	}
	bootPath := filepath.Join(bootDir, BootScriptName)
	if err := p.writeExecutable(bootPath, BootScript(prefix)); err != nil {
		return err
	}
	res.FilesCreated = append(res.FilesCreated, bootPath)

	homeDir := p.cfg.HomeDir()
	if err := os.MkdirAll(homeDir, 0755); err != nil {
		return fmt.Errorf("failed to create home directory: %w", err)
	}
	setupPath := filepath.Join(homeDir, SetupScriptName)
	if err := p.writeExecutable(setupPath, SetupScript(prefix)); err != nil {
		return err
	}
	res.FilesCreated = append(res.FilesCreated, setupPath)

	rcPath := filepath.Join(homeDir, rcFileName)
	appended, err := appendRCEntry(rcPath)
	if err != nil {
		return err
	}
	if appended {
		res.FilesCreated = append(res.FilesCreated, rcPath)
	}
	return nil
}

// writeExecutable writes a script and marks it executable. A failed chmod
// is logged rather than fatal so provisioning still works on filesystems
// that drop the executable bit.
func (p *Provisioner) writeExecutable(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0755); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := os.Chmod(path, 0755); err != nil {
		p.log.Warn("failed to mark script executable",
			zap.String("path", path),
			zap.Error(err))
	}
	return nil
}

// appendRCEntry adds the setup hook to the shell rc file unless the marker
// is already present. It reports whether the file was modified.
func appendRCEntry(rcPath string) (bool, error) {
	existing, err := os.ReadFile(rcPath)
	if err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to read %s: %w", filepath.Base(rcPath), err)
	}
	if strings.Contains(string(existing), rcMarker) {
		return false, nil
	}

	f, err := os.OpenFile(rcPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, fmt.Errorf("failed to open %s: %w", filepath.Base(rcPath), err)
	}
	defer f.Close()

	if _, err := f.WriteString(RCEntry()); err != nil {
		return false, fmt.Errorf("failed to append to %s: %w", filepath.Base(rcPath), err)
	}
	return true, nil
}
