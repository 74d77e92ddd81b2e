package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/cruciblehq/nova/internal"
)

const (

	// Default permission mode for directories.
	DefaultDirMode os.FileMode = 0755

	// Default permission mode for files.
	DefaultFileMode os.FileMode = 0644
)

// Path to the directory for runtime files (sockets, PIDs).
//
//	Linux:   $XDG_RUNTIME_DIR/nova or /run/user/<uid>/nova
//	macOS:   ~/Library/Caches/nova/run
func Runtime() string {
	if xdg.RuntimeDir != "" {
		return filepath.Join(xdg.RuntimeDir, internal.Name)
	}
	return filepath.Join(xdg.CacheHome, internal.Name, "run")
}

// Default path to the Unix domain socket for CLI-to-daemon communication.
//
//	Linux:   $XDG_RUNTIME_DIR/nova/nova.sock
//	macOS:   ~/Library/Caches/nova/run/nova.sock
func Socket() string {
	return filepath.Join(Runtime(), internal.Name+".sock")
}

// Default path to the PID file.
//
//	Linux:   $XDG_RUNTIME_DIR/nova/nova.pid
//	macOS:   ~/Library/Caches/nova/run/nova.pid
func PIDFile() string {
	return filepath.Join(Runtime(), internal.Name+".pid")
}

// Directory build reports are written to.
//
//	Linux:   $XDG_STATE_HOME/nova/reports or ~/.local/state/nova/reports
//	macOS:   ~/Library/Application Support/nova/reports
func Reports() string {
	return filepath.Join(xdg.StateHome, internal.Name, "reports")
}
