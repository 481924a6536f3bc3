package macro

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pelletier/go-toml/v2/unstable"
)

// FileName is the macro file looked up in the set directory and in each pack.
const FileName = "macro.toml"

// LoadLayer reads a macro file. A missing file is an empty layer.
func LoadLayer(path string) (Layer, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Layer{Source: path}, nil
	}
	if err != nil {
		return Layer{}, fmt.Errorf("Error reading macro file: %w", err)
	}
	return ParseLayer(path, data)
}

// LoadLayers reads the macro file of each directory, outermost first.
func LoadLayers(dirs ...string) ([]Layer, error) {
	layers := make([]Layer, 0, len(dirs))
	for _, dir := range dirs {
		l, err := LoadLayer(filepath.Join(dir, FileName))
		if err != nil {
			return nil, err
		}
		layers = append(layers, l)
	}
	return layers, nil
}

// ParseLayer decodes a macro document. Every top-level key must hold a
// string; entries keep the order they are written in.
func ParseLayer(source string, data []byte) (Layer, error) {
	// The decoder rejects duplicate keys and other malformed input that the
	// expression parser lets through.
	var values map[string]any
	if err := toml.Unmarshal(data, &values); err != nil {
		return Layer{}, fmt.Errorf("Error decoding macro file %s: %w", source, err)
	}

	l := Layer{Source: source}
	p := unstable.Parser{}
	p.Reset(data)
	for p.NextExpression() {
		expr := p.Expression()
		switch expr.Kind {
		case unstable.KeyValue:
		case unstable.Table, unstable.ArrayTable:
			return Layer{}, fmt.Errorf("macro file %s: tables are not allowed", source)
		default:
			continue
		}

		var parts []string
		it := expr.Key()
		for it.Next() {
			parts = append(parts, string(it.Node().Data))
		}
		name := strings.Join(parts, ".")

		v := expr.Value()
		if v.Kind != unstable.String {
			return Layer{}, fmt.Errorf("macro file %s: %s must be a string, got %s", source, name, v.Kind)
		}
		if name == CardName {
			return Layer{}, fmt.Errorf("macro file %s: %w %s", source, ErrReservedName, name)
		}
		l.Entries = append(l.Entries, Entry{Name: name, Template: string(v.Data)})
	}
	if err := p.Error(); err != nil {
		return Layer{}, fmt.Errorf("Error parsing macro file %s: %w", source, err)
	}
	return l, nil
}
