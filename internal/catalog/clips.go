package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Clips maps numbers to the spoken-number audio files of a flat directory.
// A file belongs to the number its name starts with ("42.mp3",
// "100-hundred.mp3"). The first file in name order wins on duplicates.
type Clips struct {
	dir   string
	files map[int]string
}

// LoadClips indexes dir. An empty dir yields an empty index, so every
// announcement is skipped.
func LoadClips(dir string, extensions []string) (*Clips, error) {
	clips := &Clips{dir: dir, files: make(map[int]string)}
	if strings.TrimSpace(dir) == "" {
		return clips, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read clips directory: %w", err)
	}
	exts := normalizeExtensions(extensions)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := exts[strings.ToLower(filepath.Ext(name))]; !ok {
			continue
		}
		n, ok := leadingNumber(name)
		if !ok {
			continue
		}
		if _, seen := clips.files[n]; !seen {
			clips.files[n] = filepath.Join(dir, name)
		}
	}
	return clips, nil
}

// Path returns the clip that speaks n.
func (c *Clips) Path(n int) (string, bool) {
	if c == nil {
		return "", false
	}
	path, ok := c.files[n]
	return path, ok
}

// Len returns the number of indexed clips.
func (c *Clips) Len() int {
	if c == nil {
		return 0
	}
	return len(c.files)
}

func leadingNumber(name string) (int, bool) {
	end := 0
	for end < len(name) && name[end] >= '0' && name[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(name[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
