package encode

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// maxSetcodes is how many 16-bit codes fit in the setcode column.
const maxSetcodes = 4

// SetCodes maps archetype keys to their 16-bit codes. It is read-only once
// loaded.
type SetCodes map[string]uint16

// Pack combines the codes of the space-separated keys in set. Each known key
// takes the next 16-bit slot; unknown keys are skipped without using a slot.
// Keys past the fourth known one are dropped.
func (s SetCodes) Pack(set string) int64 {
	var v uint64
	pos := 0
	for _, key := range strings.Fields(set) {
		code, ok := s[key]
		if !ok {
			continue
		}
		if pos == maxSetcodes {
			break
		}
		v |= uint64(code) << (16 * pos)
		pos++
	}
	return int64(v)
}

// LoadSetCodes merges setcode files. Each file maps keys to integer codes.
// A key defined twice, in one file or across files, is an error.
func LoadSetCodes(paths ...string) (SetCodes, error) {
	codes := SetCodes{}
	origin := map[string]string{}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("Error reading setcode file: %w", err)
		}
		var raw map[string]int64
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("Error decoding setcode file %s: %w", path, err)
		}
		for key, code := range raw {
			if prev, dup := origin[key]; dup {
				return nil, fmt.Errorf("setcode %q defined in both %s and %s", key, prev, path)
			}
			if code < 0 || code > 0xffff {
				return nil, fmt.Errorf("setcode %q in %s: %#x does not fit in 16 bits", key, path, code)
			}
			codes[key] = uint16(code)
			origin[key] = path
		}
	}
	return codes, nil
}
