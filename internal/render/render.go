// Package render renders the shipped templates into files under the working
// root.
//
// Templates use "<[" and "]>" as delimiters so that the braces used by
// shell, terraform and ansible inside the same files are left alone.
package render

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/charmbracelet/log"
)

const (
	LeftDelim  = "<["
	RightDelim = "]>"
)

// Vars is the variable mapping handed to a template.
type Vars map[string]interface{}

// Renderer renders templates read from FS.
type Renderer struct {
	FS fs.FS
}

// New creates a renderer reading templates from fsys
func New(fsys fs.FS) *Renderer {
	return &Renderer{FS: fsys}
}

// Render executes the named template with vars and returns the output.
func (r *Renderer) Render(name string, vars Vars) ([]byte, error) {
	content, err := fs.ReadFile(r.FS, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", name, err)
	}

	tmpl, err := template.New(filepath.Base(name)).
		Delims(LeftDelim, RightDelim).
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	if vars == nil {
		vars = Vars{}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return nil, fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.Bytes(), nil
}

// RenderFile renders the named template and writes it to dest. The file is
// only replaced once rendering succeeded.
func (r *Renderer) RenderFile(name string, vars Vars, dest string, perm os.FileMode) error {
	out, err := r.Render(name, vars)
	if err != nil {
		return err
	}

	if err := writeFile(dest, out, perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}

	log.Debug("Rendered template", "template", name, "path", dest)
	return nil
}

func writeFile(dest string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), dest)
}
