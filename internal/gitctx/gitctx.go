/*
Copyright © 2025 texneat contributors
*/

// Package gitctx captures a minimal git view of the document tree for
// reporting, and tells the sanitizer whether a merge is in flight.
package gitctx

import (
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
)

// Context is a snapshot of the repository holding the document tree.
type Context struct {
	Branch          string `json:"branch,omitempty" yaml:"branch,omitempty"`
	SHA             string `json:"sha,omitempty" yaml:"sha,omitempty"`
	DirtyFiles      int    `json:"dirty_files" yaml:"dirty_files"`
	MergeInProgress bool   `json:"merge_in_progress" yaml:"merge_in_progress"`
}

// Collect gathers repository context for the tree at target. Returns nil when
// target is not inside a git repository; that is not an error, documents are
// often edited outside version control.
func Collect(target string) *Context {
	repo, err := git.PlainOpenWithOptions(target, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil
	}

	ctx := &Context{}
	if head, err := repo.Head(); err == nil {
		ctx.Branch = head.Name().Short()
		ctx.SHA = head.Hash().String()
	}

	if wt, err := repo.Worktree(); err == nil {
		if st, err := wt.Status(); err == nil {
			for _, s := range st {
				if s.Staging != git.Unmodified || s.Worktree != git.Unmodified {
					ctx.DirtyFiles++
				}
			}
		}
		ctx.MergeInProgress = mergeHeadExists(wt.Filesystem.Root())
	}
	return ctx
}

// mergeHeadExists reports whether a MERGE_HEAD ref is present, which is the
// reliable signal that conflict markers in the tree are expected rather than
// forgotten.
func mergeHeadExists(worktreeRoot string) bool {
	gitDir := filepath.Join(worktreeRoot, ".git")
	st, err := os.Stat(gitDir)
	if err != nil {
		return false
	}
	if !st.IsDir() {
		// Worktree checkouts keep a pointer file; skip the indirection and
		// report no merge rather than chasing it.
		return false
	}
	_, err = os.Stat(filepath.Join(gitDir, "MERGE_HEAD"))
	return err == nil
}
