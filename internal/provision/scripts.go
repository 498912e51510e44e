package provision

import "fmt"

// BootScriptName is the launcher script written into the boot directory.
const BootScriptName = "start.sh"

// SetupScriptName is the one-shot setup script written into the home
// directory. It deletes itself after its first run.
const SetupScriptName = ".reloc_setup.sh"

// rcFileName is the shell rc file the setup hook is appended to.
const rcFileName = ".bashrc"

// rcMarker tags the rc hook so repeated provisioning runs do not stack
// duplicate entries, and so the setup script can strip the hook again.
const rcMarker = "# reloc auto-setup (runs once on first open)"

const bootScriptTemplate = `#!/bin/sh
# Generated by reloc. Boots the relocated bundle and runs its boot hooks.
# A lock file keeps concurrent sessions from booting twice.

LOGFILE="$HOME/.reloc_boot.log"
LOCKFILE="$HOME/.reloc_boot.lock"

log() {
    echo "[$(date '+%%Y-%%m-%%d %%H:%%M:%%S')] $1" >> "$LOGFILE"
}

if [ -f "$LOCKFILE" ]; then
    log "boot already in progress, skipping"
    exit 0
fi

cleanup() {
    rm -f "$LOCKFILE"
}
trap cleanup EXIT
touch "$LOCKFILE"

log "booting bundle at %s"

if [ -d "%s/etc/boot.d" ]; then
    for hook in "%s/etc/boot.d"/*.sh; do
        [ -f "$hook" ] || continue
        log "running $hook"
        sh "$hook" >> "$LOGFILE" 2>&1
    done
fi

log "boot complete"
`

const setupScriptTemplate = `#!/bin/sh
# Generated by reloc. One-shot setup for the relocated bundle. Removes
# itself and its shell rc hook once it has run.

echo ""
echo "Preparing bundle at %s (first run)..."

if [ -d "%s/etc/setup.d" ]; then
    for hook in "%s/etc/setup.d"/*.sh; do
        [ -f "$hook" ] || continue
        sh "$hook"
    done
fi

rm -f "$HOME/%s"
if [ -f "$HOME/%s" ]; then
    sed -i '/reloc_setup/d' "$HOME/%s" 2>/dev/null
    sed -i '/reloc auto-setup/d' "$HOME/%s" 2>/dev/null
fi

echo "Setup complete."
echo ""
`

// BootScript renders the launcher script for a bundle rooted at prefix.
func BootScript(prefix string) string {
	return fmt.Sprintf(bootScriptTemplate, prefix, prefix, prefix)
}

// SetupScript renders the self-removing first-run setup script for a
// bundle rooted at prefix.
func SetupScript(prefix string) string {
	return fmt.Sprintf(setupScriptTemplate,
		prefix, prefix, prefix,
		SetupScriptName, rcFileName, rcFileName, rcFileName)
}

// RCEntry renders the shell rc hook that triggers the setup script on the
// next interactive session. The hook stays on one line so the setup
// script's sed cleanup removes it completely.
func RCEntry() string {
	return fmt.Sprintf("\n%s\nif [ -f \"$HOME/%s\" ]; then bash \"$HOME/%s\"; fi\n",
		rcMarker, SetupScriptName, SetupScriptName)
}
