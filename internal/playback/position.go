package playback

import (
	"fmt"
	"strconv"
	"strings"
)

// TitlePosition is a track of the current album and a frame offset into it.
// It is a value: positions are replaced, never mutated.
type TitlePosition struct {
	Track string
	Frame int
}

// NewTitlePosition clamps negative frames to 0.
func NewTitlePosition(track string, frame int) TitlePosition {
	if frame < 0 {
		frame = 0
	}
	return TitlePosition{Track: track, Frame: frame}
}

// AtFrame returns the same track at another frame.
func (p TitlePosition) AtFrame(frame int) TitlePosition {
	return NewTitlePosition(p.Track, frame)
}

// encode renders the durable form "<frame>\n<track>".
func (p TitlePosition) encode() string {
	return fmt.Sprintf("%d\n%s", p.Frame, p.Track)
}

func decodeTitlePosition(value string) (TitlePosition, bool) {
	frameText, track, found := strings.Cut(value, "\n")
	if !found {
		return TitlePosition{}, false
	}
	frame, err := strconv.Atoi(strings.TrimSpace(frameText))
	if err != nil {
		return TitlePosition{}, false
	}
	track = strings.TrimRight(track, "\n")
	if track == "" {
		return TitlePosition{}, false
	}
	return NewTitlePosition(track, frame), true
}

// SayTokens splits n into the clips that speak it: numbers from 100 up are a
// hundreds clip followed by the remainder.
func SayTokens(n int) []int {
	if n < 0 {
		n = 0
	}
	if n >= 100 {
		return []int{n / 100 * 100, n % 100}
	}
	return []int{n}
}
