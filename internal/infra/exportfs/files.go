package exportfs

import (
	"fmt"
	"os"
	"path/filepath"
)

// Dir is a file sink rooted at one output directory. Writes overwrite
// existing files; nothing is ever deleted.
type Dir struct {
	root string
}

func NewDir(root string) Dir {
	return Dir{root: root}
}

func (d Dir) Root() string {
	return d.root
}

// Ensure creates the root directory and any missing parents.
func (d Dir) Ensure() error {
	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", d.root, err)
	}
	return nil
}

// Sub returns a sink for a directory under the root.
func (d Dir) Sub(name string) Dir {
	return Dir{root: filepath.Join(d.root, name)}
}

// WriteFile writes content to a file named relative to the root, creating
// parent directories as needed.
func (d Dir) WriteFile(rel string, content string) error {
	abs := filepath.Join(d.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", rel, err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}
