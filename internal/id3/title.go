package id3

// Info is the merged tag metadata of a track. Nil fields were not reported.
type Info struct {
	Title   *string
	Artist  *string
	Album   *string
	Year    *int
	Comment *string
	Genre   *string
	Track   *int
}

func (i *Info) empty() bool {
	return i == nil || (i.Title == nil && i.Artist == nil && i.Album == nil &&
		i.Year == nil && i.Comment == nil && i.Genre == nil && i.Track == nil)
}

// Title describes the track the engine just loaded.
type Title struct {
	Info     *Info
	Filename *string
}

// UnknownTitle is shown when neither tags nor a filename are available.
const UnknownTitle = "Unknown Title"

// String renders "artist - title", "title", the filename, or UnknownTitle.
func (t Title) String() string {
	if t.Info != nil && t.Info.Title != nil {
		if t.Info.Artist != nil {
			return *t.Info.Artist + " - " + *t.Info.Title
		}
		return *t.Info.Title
	}
	if t.Filename != nil {
		return *t.Filename
	}
	return UnknownTitle
}

// Lookup helpers for callers that prefer (value, ok) over pointers.

func (t Title) Artist() (string, bool) { return strField(t.Info, func(i *Info) *string { return i.Artist }) }
func (t Title) Album() (string, bool)  { return strField(t.Info, func(i *Info) *string { return i.Album }) }
func (t Title) Genre() (string, bool)  { return strField(t.Info, func(i *Info) *string { return i.Genre }) }

func (t Title) Year() (int, bool) {
	if t.Info == nil || t.Info.Year == nil {
		return 0, false
	}
	return *t.Info.Year, true
}

func (t Title) Track() (int, bool) {
	if t.Info == nil || t.Info.Track == nil {
		return 0, false
	}
	return *t.Info.Track, true
}

func strField(info *Info, get func(*Info) *string) (string, bool) {
	if info == nil {
		return "", false
	}
	if v := get(info); v != nil {
		return *v, true
	}
	return "", false
}
