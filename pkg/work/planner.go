package work

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/texneat/texneat/pkg/logger"
)

// WorkItem represents a single file to be processed
type WorkItem struct {
	ID   string `json:"id"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// PlannerConfig configures file discovery
type PlannerConfig struct {
	Paths           []string // files or directories; defaults to "."
	IncludePatterns []string // doublestar globs relative to each directory
	ExcludePatterns []string
}

// DefaultIncludePatterns matches the document source files texneat operates on.
var DefaultIncludePatterns = []string{"**/*.tex", "**/*.sty"}

// DefaultExcludePatterns keeps discovery out of VCS metadata, backups, and
// transient skeleton copies.
var DefaultExcludePatterns = []string{
	"**/.git/**",
	"**/*.bak",
	"**/*-skeleton-*.tex",
	"**/*.todo",
}

// Planner discovers the files a command will operate on
type Planner struct {
	config PlannerConfig
}

// NewPlanner creates a planner, filling in default patterns
func NewPlanner(config PlannerConfig) *Planner {
	if len(config.Paths) == 0 {
		config.Paths = []string{"."}
	}
	if len(config.IncludePatterns) == 0 {
		config.IncludePatterns = DefaultIncludePatterns
	}
	if len(config.ExcludePatterns) == 0 {
		config.ExcludePatterns = DefaultExcludePatterns
	}
	return &Planner{config: config}
}

// Discover walks the configured paths and returns matching work items in
// deterministic (sorted) order. Explicit file arguments bypass the include
// patterns but still honor excludes.
func (p *Planner) Discover() ([]WorkItem, error) {
	seen := make(map[string]bool)
	var items []WorkItem

	for _, root := range p.config.Paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", root, err)
		}

		if !info.IsDir() {
			rel := filepath.ToSlash(root)
			if p.excluded(rel) || seen[root] {
				continue
			}
			seen[root] = true
			items = append(items, WorkItem{ID: itemID(root), Path: root, Size: info.Size()})
			continue
		}

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				return relErr
			}
			rel = filepath.ToSlash(rel)
			if d.IsDir() {
				if rel != "." && p.excluded(rel+"/") {
					return filepath.SkipDir
				}
				return nil
			}
			if !p.included(rel) || p.excluded(rel) || seen[path] {
				return nil
			}
			fi, statErr := d.Info()
			if statErr != nil {
				return statErr
			}
			seen[path] = true
			items = append(items, WorkItem{ID: itemID(path), Path: path, Size: fi.Size()})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Path < items[j].Path })
	logger.Debug(fmt.Sprintf("planner discovered %d file(s)", len(items)))
	return items, nil
}

func (p *Planner) included(rel string) bool {
	for _, pattern := range p.config.IncludePatterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func (p *Planner) excluded(rel string) bool {
	for _, pattern := range p.config.ExcludePatterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
		// Directory prefix form: let "**/.git/**" prune the directory itself.
		if strings.HasSuffix(rel, "/") {
			if ok, err := doublestar.Match(pattern, rel+"x"); err == nil && ok {
				return true
			}
		}
	}
	return false
}

func itemID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
