package render

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gurbos/tcc/card"
)

const stubTemplate = `-- %s
local s, id = GetID()

function s.initial_effect(c)

end
`

// Stub is the boilerplate script written for a card that has none.
func Stub(name string) string {
	return fmt.Sprintf(stubTemplate, name)
}

// EnsureScript writes a stub to the card's script path unless a script is
// already there. It reports whether a stub was written.
func EnsureScript(c *card.Card) (bool, error) {
	path := c.ScriptPath()
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("Error checking script %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("Error creating script directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(Stub(c.Name)), 0o644); err != nil {
		return false, fmt.Errorf("Error writing script stub: %w", err)
	}
	return true, nil
}

// CopyFile copies src to dst, replacing dst.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("Error opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("Error creating %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("Error copying %s: %w", src, err)
	}
	return out.Close()
}

// CopyDir copies the regular files directly inside src into dst. A missing
// src copies nothing.
func CopyDir(src, dst string) (int, error) {
	entries, err := os.ReadDir(src)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("Error reading %s: %w", src, err)
	}
	n := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if err := CopyFile(filepath.Join(src, e.Name()), filepath.Join(dst, e.Name())); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
