/*
Copyright © 2025 texneat contributors
*/

// Package resolve diffs extracted references against the document tree.
package resolve

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/texneat/texneat/internal/texdoc"
	"github.com/texneat/texneat/pkg/safeio"
)

// EscapeError indicates a directive references a path outside the document
// tree. Such references are never resolved or synthesized: document content
// must not be able to place files outside the tree it lives in.
type EscapeError struct {
	Ref texdoc.Reference
}

func (e *EscapeError) Error() string {
	return fmt.Sprintf("reference %q (line %d) escapes the document tree", e.Ref.Path, e.Ref.Line)
}

// ArtifactStatus is the resolution result for one reference.
type ArtifactStatus struct {
	Ref          texdoc.Reference `json:"ref"`
	ResolvedPath string           `json:"resolved_path"`
	Exists       bool             `json:"exists"`
	SizeBytes    int64            `json:"size_bytes"`
}

// Resolver locates referenced artifacts on disk. Style fragments and content
// modules live under distinct roots; references that already carry a path
// keep it, bare names are anchored under their kind's root.
type Resolver struct {
	BaseDir    string
	StyleDir   string // default "style"
	ModulesDir string // default "modules"
}

// NewResolver creates a resolver rooted at baseDir with conventional subdirectories.
func NewResolver(baseDir string) *Resolver {
	return &Resolver{BaseDir: baseDir, StyleDir: "style", ModulesDir: "modules"}
}

// ResolvePath maps a reference to the on-disk path the compiler would load,
// appending the kind's default extension when the directive omitted it.
func (r *Resolver) ResolvePath(ref texdoc.Reference) string {
	rel := filepath.FromSlash(ref.Path)
	if !strings.ContainsRune(ref.Path, '/') {
		switch ref.Kind {
		case texdoc.KindStyleFragment:
			rel = filepath.Join(r.StyleDir, rel)
		case texdoc.KindContentModule:
			rel = filepath.Join(r.ModulesDir, rel)
		}
	}
	if filepath.Ext(rel) == "" {
		switch ref.Kind {
		case texdoc.KindStyleFragment:
			rel += ".sty"
		case texdoc.KindContentModule:
			rel += ".tex"
		}
	}
	return filepath.Join(r.BaseDir, rel)
}

// Resolve checks each reference against the filesystem. A missing file is
// the expected "needs synthesis" signal, not an error; only genuine
// filesystem failures (permissions and the like) are returned. References
// that traverse outside BaseDir are rejected with an EscapeError before any
// filesystem access.
func (r *Resolver) Resolve(refs []texdoc.Reference) ([]ArtifactStatus, error) {
	statuses := make([]ArtifactStatus, 0, len(refs))
	for _, ref := range refs {
		if _, err := safeio.CleanUserPath(ref.Path); err != nil {
			return nil, &EscapeError{Ref: ref}
		}
		path := r.ResolvePath(ref)
		status := ArtifactStatus{Ref: ref, ResolvedPath: path}
		st, err := os.Stat(path)
		switch {
		case err == nil:
			status.Exists = true
			status.SizeBytes = st.Size()
		case os.IsNotExist(err):
			// expected missing signal
		default:
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// Missing filters statuses down to those requiring synthesis.
func Missing(statuses []ArtifactStatus) []ArtifactStatus {
	var missing []ArtifactStatus
	for _, s := range statuses {
		if !s.Exists {
			missing = append(missing, s)
		}
	}
	return missing
}
