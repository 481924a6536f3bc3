// Package card holds the authored card definition, its resolved projection and
// the structural validation run before anything is compiled.
package card

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// IndexFileName is the pack index every pack directory carries.
const IndexFileName = "card.toml"

// Definition is one authored card as written in a pack index.
type Definition struct {
	Key  string `toml:"-"` // table key in the pack index
	Pack string `toml:"-"` // pack directory

	ID        int64  `toml:"id"`
	Alias     int64  `toml:"alias"`
	Set       string `toml:"set"`
	Name      string `toml:"name"`
	Type      string `toml:"type"`
	Attribute string `toml:"attribute"`
	Race      string `toml:"race"`
	LinkArrow string `toml:"link_arrow"`
	CardLimit string `toml:"card_limit"`

	Level      *int `toml:"level"`
	Rank       *int `toml:"rank"`
	Link       *int `toml:"link"`
	Scale      *int `toml:"scale"`
	LeftScale  *int `toml:"left_scale"`
	RightScale *int `toml:"right_scale"`

	// Atk and Def are integers or strings; "?" and blanks mean unknown.
	Atk any `toml:"atk"`
	Def any `toml:"def"`

	Flavor         string   `toml:"flavor"`
	Effect         string   `toml:"effect"`
	PendulumEffect string   `toml:"pendulum_effect"`
	Strings        []string `toml:"strings"`

	GeneratePic    *bool `toml:"generate_pic"`
	GenerateScript *bool `toml:"generate_script"`
	ShowLevel      *bool `toml:"show_level"`
	ShowRank       *bool `toml:"show_rank"`
}

// LoadPack reads the index of the pack in dir. Definitions come back sorted by
// key so repeated loads of the same file agree.
func LoadPack(dir string) ([]Definition, error) {
	path := filepath.Join(dir, IndexFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Error reading pack index: %w", err)
	}

	var entries map[string]Definition
	if err := toml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("Error decoding pack index %s: %w", path, err)
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	defs := make([]Definition, 0, len(keys))
	for _, k := range keys {
		d := entries[k]
		d.Key = k
		d.Pack = dir
		defs = append(defs, d)
	}
	return defs, nil
}

// ParseStat converts an atk/def value to a number. The second result is false
// when the value is unknown.
func ParseStat(v any) (int, bool, error) {
	switch s := v.(type) {
	case nil:
		return 0, false, nil
	case int64:
		return int(s), true, nil
	case int:
		return s, true, nil
	case float64:
		if s != float64(int(s)) {
			return 0, false, fmt.Errorf("stat %v is not a whole number", s)
		}
		return int(s), true, nil
	case string:
		s = strings.TrimSpace(s)
		if s == "" || s == "?" {
			return 0, false, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, false, fmt.Errorf("stat %q is neither a number nor \"?\"", s)
		}
		return n, true, nil
	default:
		return 0, false, fmt.Errorf("stat has unsupported type %T", v)
	}
}
