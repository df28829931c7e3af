package livestatus

import (
	"fmt"
	"path/filepath"

	"github.com/google/renameio/v2"
)

// Diagnostic dumps, overwritten on every run that has SaveHTML set.
const (
	LastResponseFile  = "last_response.html"
	ErrorResponseFile = "error_response.html"
)

// writeDiagnostic replaces dir/name with body in one atomic rename, so a
// reader never sees a half-written page.
func (c *Checker) writeDiagnostic(name, body string) error {
	path := filepath.Join(c.diagDir, name)

	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending %s: %w", name, err)
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			c.logger.Debug().Err(err).Str("file", name).Msg("livestatus: cleanup pending diagnostic file")
		}
	}()

	if _, err := pending.WriteString(body); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}
