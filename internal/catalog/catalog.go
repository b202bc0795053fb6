package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultExtensions lists the audio file extensions recognised when none are
// configured.
var DefaultExtensions = []string{".mp3"}

// RootAlbumID identifies an album made of files directly inside the root.
const RootAlbumID = "."

// Album is a leaf directory holding at least one audio file.
type Album struct {
	// ID is the directory path relative to the catalog root, slash separated.
	ID string
	// Dir is the absolute directory path.
	Dir string
	// Tracks holds the audio file names in lexicographic order.
	Tracks []string
}

// TrackPath returns the absolute path of track i.
func (a Album) TrackPath(i int) (string, bool) {
	if i < 0 || i >= len(a.Tracks) {
		return "", false
	}
	return filepath.Join(a.Dir, a.Tracks[i]), true
}

// TrackIndex returns the position of the named track.
func (a Album) TrackIndex(name string) (int, bool) {
	i := sort.SearchStrings(a.Tracks, name)
	if i < len(a.Tracks) && a.Tracks[i] == name {
		return i, true
	}
	return 0, false
}

// DisplayName returns a human friendly album name derived from its
// directory.
func (a Album) DisplayName() string {
	return DisplayName(a.ID)
}

var titleCaser = cases.Title(language.Und)

// DisplayName title-cases the last path element of an album id and turns
// underscores into spaces.
func DisplayName(id string) string {
	if id == "" || id == RootAlbumID {
		return "(root)"
	}
	base := filepath.Base(filepath.FromSlash(id))
	base = strings.ReplaceAll(base, "_", " ")
	return titleCaser.String(base)
}

// Catalog is the ordered album list found under one root directory. It is
// read-only after Scan.
type Catalog struct {
	root   string
	albums []Album
	index  map[string]int
}

// Scan walks root recursively. Every directory whose direct children include
// a file with one of the given extensions becomes an album. Hidden entries
// are skipped. Albums are ordered by id.
func Scan(root string, extensions []string) (*Catalog, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("catalog root not configured")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat catalog root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("catalog root %s is not a directory", root)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve catalog root: %w", err)
	}
	exts := normalizeExtensions(extensions)

	c := &Catalog{root: absRoot, index: make(map[string]int)}
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == absRoot {
				return walkErr
			}
			// Unreadable subtrees are left out of the catalog.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != absRoot && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		tracks, err := listTracks(path, exts)
		if err != nil || len(tracks) == 0 {
			return nil
		}
		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return nil
		}
		c.albums = append(c.albums, Album{ID: filepath.ToSlash(rel), Dir: path, Tracks: tracks})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan catalog: %w", err)
	}
	sort.Slice(c.albums, func(i, j int) bool { return c.albums[i].ID < c.albums[j].ID })
	for i, album := range c.albums {
		c.index[album.ID] = i
	}
	return c, nil
}

// New builds a catalog from already known albums. Tracks are sorted and
// albums ordered by id. Intended for tests and tools.
func New(root string, albums []Album) *Catalog {
	c := &Catalog{root: root, index: make(map[string]int, len(albums))}
	for _, album := range albums {
		tracks := append([]string(nil), album.Tracks...)
		sort.Strings(tracks)
		if album.Dir == "" {
			album.Dir = filepath.Join(root, filepath.FromSlash(album.ID))
		}
		album.Tracks = tracks
		c.albums = append(c.albums, album)
	}
	sort.Slice(c.albums, func(i, j int) bool { return c.albums[i].ID < c.albums[j].ID })
	for i, album := range c.albums {
		c.index[album.ID] = i
	}
	return c
}

// Root returns the absolute catalog root.
func (c *Catalog) Root() string {
	if c == nil {
		return ""
	}
	return c.root
}

// Len returns the number of albums.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.albums)
}

// Album returns album i (0-based).
func (c *Catalog) Album(i int) (Album, bool) {
	if c == nil || i < 0 || i >= len(c.albums) {
		return Album{}, false
	}
	return c.albums[i], true
}

// Lookup returns the index of the album with the given id.
func (c *Catalog) Lookup(id string) (int, bool) {
	if c == nil {
		return 0, false
	}
	i, ok := c.index[id]
	return i, ok
}

// Albums returns a copy of the album list.
func (c *Catalog) Albums() []Album {
	if c == nil {
		return nil
	}
	return append([]Album(nil), c.albums...)
}

// TrackCount returns the number of tracks across all albums.
func (c *Catalog) TrackCount() int {
	total := 0
	for _, album := range c.Albums() {
		total += len(album.Tracks)
	}
	return total
}

func listTracks(dir string, exts map[string]struct{}) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var tracks []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if _, ok := exts[strings.ToLower(filepath.Ext(name))]; ok {
			tracks = append(tracks, name)
		}
	}
	sort.Strings(tracks)
	return tracks, nil
}

func normalizeExtensions(extensions []string) map[string]struct{} {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	set := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = struct{}{}
	}
	return set
}
