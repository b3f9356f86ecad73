// Package configs provides embedded configuration templates for docrag.
//
// Templates are embedded at build time via Go's //go:embed directive so
// they ship inside the binary regardless of install method.
//
// Used by:
//   - cmd/docrag/cmd/init.go -> writes project-config.example.yaml as .docrag.yaml
//   - cmd/docrag/cmd/init.go --user -> writes user-config.example.yaml to internal/config.GetUserConfigPath()
package configs

import _ "embed"

// ProjectConfigTemplate is the template written by `docrag init` to the
// project root as .docrag.yaml. It documents the search/embeddings/crawler
// knobs a project maintainer is most likely to tune.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string

// UserConfigTemplate is the template for the per-user global config at
// internal/config.GetUserConfigPath(), for machine-wide settings (Ollama
// host, default provider) that apply across all projects.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string
