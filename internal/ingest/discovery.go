package ingest

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// skipDirs are never descended into, whatever the ignore patterns say.
var skipDirs = map[string]bool{
	".git":         true,
	"__pycache__":  true,
	"venv":         true,
	".venv":        true,
	"node_modules": true,
	".resgraph":    true,
}

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// FileDiscovery finds source files under a root with glob patterns and
// ignore rules.
type FileDiscovery struct {
	rootDir        string
	codePatterns   []compiledPattern
	ignorePatterns []compiledPattern
}

// NewFileDiscovery creates a new file discovery instance.
func NewFileDiscovery(rootDir string, codePatterns, ignorePatterns []string) (*FileDiscovery, error) {
	fd := &FileDiscovery{rootDir: rootDir}

	var err error
	if fd.codePatterns, err = compilePatterns(codePatterns); err != nil {
		return nil, err
	}
	if fd.ignorePatterns, err = compilePatterns(ignorePatterns); err != nil {
		return nil, err
	}
	return fd, nil
}

func compilePatterns(patterns []string) ([]compiledPattern, error) {
	compiled := make([]compiledPattern, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, compiledPattern{pattern: pattern, glob: g})
	}
	return compiled, nil
}

// RootDir returns the directory being walked.
func (fd *FileDiscovery) RootDir() string {
	return fd.rootDir
}

// DiscoverFiles walks the directory tree and returns matching source files,
// joined with the root, in lexical order.
func (fd *FileDiscovery) DiscoverFiles() ([]string, error) {
	files := []string{}

	err := filepath.WalkDir(fd.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(fd.rootDir, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if relPath != "." && (skipDirs[d.Name()] || fd.shouldIgnore(relPath)) {
				return filepath.SkipDir
			}
			return nil
		}

		if fd.shouldIgnore(relPath) {
			return nil
		}
		if fd.Matches(relPath) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// Matches reports whether a root-relative, slash-separated path is a
// source file that is not ignored.
func (fd *FileDiscovery) Matches(relPath string) bool {
	for _, part := range strings.Split(relPath, "/") {
		if skipDirs[part] {
			return false
		}
	}
	return !fd.shouldIgnore(relPath) && matchesAnyPattern(relPath, fd.codePatterns)
}

// shouldIgnore checks if a path matches any ignore pattern.
func (fd *FileDiscovery) shouldIgnore(relPath string) bool {
	if matchesAnyPattern(relPath, fd.ignorePatterns) {
		return true
	}

	// "venv" should match pattern "venv/**"
	return matchesAnyPattern(relPath+"/**", fd.ignorePatterns)
}

// matchesAnyPattern checks if a path matches any of the given patterns.
func matchesAnyPattern(path string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
	}

	// Root-level paths also match "**/" patterns with the prefix removed, so
	// "**/*.py" matches both "app.py" and "pkg/app.py".
	if !strings.Contains(path, "/") {
		for _, cp := range patterns {
			if !strings.HasPrefix(cp.pattern, "**/") {
				continue
			}
			simplified, err := glob.Compile(strings.TrimPrefix(cp.pattern, "**/"), '/')
			if err == nil && simplified.Match(path) {
				return true
			}
		}
	}

	return false
}
