package dbadmin

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// localFiles are copied into the script root when missing.
var localFiles = []string{"hosts", "ip.j2"}

// installLocalFiles writes the shipped local inventory and ip.j2 into the
// script root. Files already present are kept.
func (a *Admin) installLocalFiles() error {
	for _, name := range localFiles {
		dest := filepath.Join(a.Config.ScriptRoot, name)

		_, err := os.Stat(dest)
		if err == nil {
			continue
		}
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to check %s: %w", dest, err)
		}

		if err := a.Renderer.RenderFile(path.Join("local", name), nil, dest, 0o644); err != nil {
			return err
		}
		log.Debug("Installed local file", "path", dest)
	}
	return nil
}
