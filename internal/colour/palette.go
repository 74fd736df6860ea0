// Package colour provides the fixed accent palette and branch-to-entry mapping.
package colour

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Entry is one named accent theme.
type Entry struct {
	Name        string `json:"name"`
	Primary     string `json:"primary"`
	PrimaryDark string `json:"primaryDark"`
	Foreground  string `json:"foreground"`
}

// Validate checks that every colour of the entry is a hex RGB string.
func (e Entry) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("entry has no name")
	}
	for field, value := range map[string]string{
		"primary":     e.Primary,
		"primaryDark": e.PrimaryDark,
		"foreground":  e.Foreground,
	} {
		if _, err := ParseHex(value); err != nil {
			return fmt.Errorf("entry %s: %s: %w", e.Name, field, err)
		}
	}
	return nil
}

// Palette is an ordered sequence of entries.
type Palette []Entry

// Len returns the number of entries in the palette.
func (p Palette) Len() int {
	return len(p)
}

// At returns the entry at index modulo the palette length.
// Negative indexes wrap from the end.
func (p Palette) At(index int) Entry {
	if len(p) == 0 {
		return Entry{}
	}
	i := index % len(p)
	if i < 0 {
		i += len(p)
	}
	return p[i]
}

// IndexFor returns the palette index selected for name.
func (p Palette) IndexFor(name string) int {
	if len(p) == 0 {
		return 0
	}
	return int(Hash(name) % uint32(len(p)))
}

// Select returns the entry selected for name. The same name always
// selects the same entry for a given table.
func (p Palette) Select(name string) Entry {
	return p.At(p.IndexFor(name))
}

// Names returns the entry names in table order.
func (p Palette) Names() []string {
	names := make([]string, len(p))
	for i, e := range p {
		names[i] = e.Name
	}
	return names
}

// Find looks an entry up by name. Exact (case-insensitive) matches win,
// otherwise the best fuzzy match is returned.
func (p Palette) Find(query string) (Entry, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Entry{}, false
	}
	for _, e := range p {
		if strings.EqualFold(e.Name, query) {
			return e, true
		}
	}
	matches := fuzzy.Find(strings.ToLower(query), lowerNames(p))
	if len(matches) == 0 {
		return Entry{}, false
	}
	return p[matches[0].Index], true
}

func lowerNames(p Palette) []string {
	names := p.Names()
	for i := range names {
		names[i] = strings.ToLower(names[i])
	}
	return names
}

// Hash returns the 32-bit FNV-1a hash of s.
// It is stable across processes and platforms.
func Hash(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

// RGB represents a colour in RGB format.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// String returns the RGB colour as a string in the format "rgb(r, g, b)".
func (rgb RGB) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", rgb.R, rgb.G, rgb.B)
}

// Hex returns the RGB colour as a hex string (e.g., "#1a2b3c").
func (rgb RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", rgb.R, rgb.G, rgb.B)
}

// ParseHex parses "#rrggbb" (the hash is optional).
func ParseHex(hex string) (RGB, error) {
	s := strings.TrimPrefix(hex, "#")
	if len(s) != 6 {
		return RGB{}, fmt.Errorf("invalid hex colour %q", hex)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid hex colour %q: %w", hex, err)
	}
	return RGB{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
	}, nil
}
