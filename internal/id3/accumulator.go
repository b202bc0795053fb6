package id3

import (
	"strconv"
	"strings"
)

// ID3v1 fixed-width field layout inside an "ID3:" fragment.
const (
	v1TitleLen   = 30
	v1ArtistLen  = 30
	v1AlbumLen   = 30
	v1YearLen    = 4
	v1CommentLen = 30
	v1MinPayload = v1TitleLen + v1ArtistLen + v1AlbumLen + v1YearLen + v1CommentLen
)

// Accumulator collects the "@I" fragments the engine prints after a LOAD and
// merges them into a Title. The zero value is ready to use.
type Accumulator struct {
	started  bool
	filename *string
	v1       *Info
	v1Genre  *int
	v1Track  *int
	v2       Info
}

// Started reports whether any fragment arrived since the last Reset.
func (a *Accumulator) Started() bool {
	return a.started
}

// Reset discards everything collected so far.
func (a *Accumulator) Reset() {
	*a = Accumulator{}
}

// Add consumes one fragment (the text after "@I "). It reports whether the
// fragment contributed anything.
func (a *Accumulator) Add(fragment string) bool {
	a.started = true
	idx := strings.Index(fragment, "ID3")
	if idx < 0 || len(fragment) < 4 {
		if a.filename != nil {
			return false
		}
		name := strings.TrimSpace(fragment)
		a.filename = &name
		return true
	}
	rest := fragment[idx+3:]
	switch {
	case strings.HasPrefix(rest, ":"):
		return a.addV1Record(rest[1:])
	case strings.HasPrefix(rest, "v2."):
		return a.addV2Field(rest[3:])
	case strings.HasPrefix(rest, "."):
		return a.addV1Extra(rest[1:])
	default:
		return false
	}
}

func (a *Accumulator) addV1Record(payload string) bool {
	if a.v1 != nil || len(payload) < v1MinPayload {
		return false
	}
	info := &Info{}
	pos := 0
	next := func(n int) string {
		field := payload[pos : pos+n]
		pos += n
		return field
	}
	info.Title = optionalText(next(v1TitleLen))
	info.Artist = optionalText(next(v1ArtistLen))
	info.Album = optionalText(next(v1AlbumLen))
	info.Year = optionalNumber(next(v1YearLen))
	info.Comment = optionalText(next(v1CommentLen))
	info.Genre = optionalText(payload[pos:])
	a.v1 = info
	return true
}

func (a *Accumulator) addV1Extra(field string) bool {
	key, value, ok := strings.Cut(field, ":")
	if !ok {
		return false
	}
	n := optionalNumber(value)
	if n == nil {
		return false
	}
	switch key {
	case "genre":
		a.v1Genre = n
	case "track":
		a.v1Track = n
	default:
		return false
	}
	return true
}

func (a *Accumulator) addV2Field(field string) bool {
	key, value, ok := strings.Cut(field, ":")
	if !ok {
		return false
	}
	switch key {
	case "title":
		a.v2.Title = optionalText(value)
	case "artist":
		a.v2.Artist = optionalText(value)
	case "album":
		a.v2.Album = optionalText(value)
	case "year":
		a.v2.Year = optionalNumber(value)
	case "comment":
		a.v2.Comment = optionalText(value)
	case "genre":
		a.v2.Genre = optionalText(value)
	default:
		return false
	}
	return true
}

// Title merges the collected fragments: ID3v2 values override ID3v1 values
// and a numeric v1 genre is resolved only when no genre text exists.
func (a *Accumulator) Title() Title {
	merged := Info{}
	if a.v1 != nil {
		merged = *a.v1
	}
	override(&merged.Title, a.v2.Title)
	override(&merged.Artist, a.v2.Artist)
	override(&merged.Album, a.v2.Album)
	override(&merged.Year, a.v2.Year)
	override(&merged.Comment, a.v2.Comment)
	override(&merged.Genre, a.v2.Genre)
	if merged.Genre == nil && a.v1Genre != nil {
		if name, ok := GenreName(*a.v1Genre); ok {
			merged.Genre = &name
		}
	}
	merged.Track = a.v1Track

	title := Title{Filename: a.filename}
	if !merged.empty() {
		title.Info = &merged
	}
	return title
}

func override[T any](dst **T, src *T) {
	if src != nil {
		*dst = src
	}
}

func optionalText(raw string) *string {
	value := strings.TrimSpace(strings.TrimRight(raw, "\x00"))
	if value == "" {
		return nil
	}
	return &value
}

func optionalNumber(raw string) *int {
	value := strings.TrimSpace(strings.TrimRight(raw, "\x00"))
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil
	}
	return &n
}
