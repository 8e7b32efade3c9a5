// Package templates ships the templates rendered by dbadmin.
package templates

import "embed"

// FS holds every template, addressed by its path relative to this directory.
//
//go:embed hosts local terraform config scripts playbooks
var FS embed.FS
