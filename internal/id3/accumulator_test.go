package id3_test

import (
	"fmt"
	"strings"
	"testing"

	"jukebox/internal/id3"
)

func v1Fragment(title, artist, album, year, comment, genre string) string {
	return fmt.Sprintf("ID3:%-30s%-30s%-30s%-4s%-30s%s", title, artist, album, year, comment, genre)
}

func TestTitleStringFallbacks(t *testing.T) {
	artist, title, file := "Artist", "Song", "track01.mp3"
	tests := []struct {
		name  string
		input id3.Title
		want  string
	}{
		{"artist and title", id3.Title{Info: &id3.Info{Artist: &artist, Title: &title}}, "Artist - Song"},
		{"title only", id3.Title{Info: &id3.Info{Title: &title}}, "Song"},
		{"filename", id3.Title{Info: &id3.Info{Artist: &artist}, Filename: &file}, "track01.mp3"},
		{"nothing", id3.Title{}, id3.UnknownTitle},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.input.String(); got != tc.want {
				t.Fatalf("String() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFirstFilenameWins(t *testing.T) {
	var acc id3.Accumulator
	if !acc.Add("first.mp3") {
		t.Fatal("expected filename accepted")
	}
	if acc.Add("second.mp3") {
		t.Fatal("second filename should be rejected")
	}
	got := acc.Title()
	if got.Filename == nil || *got.Filename != "first.mp3" {
		t.Fatalf("filename = %v", got.Filename)
	}
	if got.Info != nil {
		t.Fatalf("expected no tag info, got %+v", got.Info)
	}
}

func TestV1RecordParsesFixedFields(t *testing.T) {
	var acc id3.Accumulator
	acc.Add(v1Fragment("Song", "Band", "Record", "1999", "nice", "Rock"))
	got := acc.Title()
	if got.String() != "Band - Song" {
		t.Fatalf("String() = %q", got.String())
	}
	if album, ok := got.Album(); !ok || album != "Record" {
		t.Fatalf("album = %q %v", album, ok)
	}
	if year, ok := got.Year(); !ok || year != 1999 {
		t.Fatalf("year = %d %v", year, ok)
	}
	if genre, ok := got.Genre(); !ok || genre != "Rock" {
		t.Fatalf("genre = %q %v", genre, ok)
	}
}

func TestShortV1RecordIgnored(t *testing.T) {
	var acc id3.Accumulator
	if acc.Add("ID3:" + strings.Repeat("x", 20)) {
		t.Fatal("short v1 record accepted")
	}
}

func TestV2OverridesV1AndNumericGenreResolves(t *testing.T) {
	var acc id3.Accumulator
	acc.Add("song.mp3")
	acc.Add(v1Fragment("Old", "Band", "Record", "1999", "", ""))
	acc.Add("ID3v2.title:New Title")
	acc.Add("ID3.genre:17")
	acc.Add("ID3.track:4")

	got := acc.Title()
	if got.String() != "Band - New Title" {
		t.Fatalf("String() = %q", got.String())
	}
	if genre, _ := got.Genre(); genre != "Rock" {
		t.Fatalf("genre = %q", genre)
	}
	if track, ok := got.Track(); !ok || track != 4 {
		t.Fatalf("track = %d %v", track, ok)
	}
}

func TestGenreTextBeatsNumericGenre(t *testing.T) {
	var acc id3.Accumulator
	acc.Add("ID3v2.genre:Krautrock")
	acc.Add("ID3.genre:0")
	if genre, _ := acc.Title().Genre(); genre != "Krautrock" {
		t.Fatalf("genre = %q", genre)
	}
}

func TestResetClearsState(t *testing.T) {
	var acc id3.Accumulator
	acc.Add("ID3v2.artist:Someone")
	acc.Reset()
	if acc.Started() {
		t.Fatal("Started after Reset")
	}
	if acc.Title().Info != nil {
		t.Fatal("info survived Reset")
	}
}

func TestGenreNameBounds(t *testing.T) {
	if name, ok := id3.GenreName(0); !ok || name != "Blues" {
		t.Fatalf("genre 0 = %q %v", name, ok)
	}
	if name, ok := id3.GenreName(125); !ok || name != "Dance Hall" {
		t.Fatalf("genre 125 = %q %v", name, ok)
	}
	if _, ok := id3.GenreName(126); ok {
		t.Fatal("genre 126 should be unknown")
	}
}
