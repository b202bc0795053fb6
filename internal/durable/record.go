package durable

import (
	"fmt"
	"os"
	"path/filepath"
)

// Slot file prefixes. Odd serial numbers live in the odd slot.
const (
	OddPrefix  = "a-"
	EvenPrefix = "b-"
)

// MaxSerial is the largest serial that fits the nine digit trailer. It is odd,
// so wrapping to 2 keeps the slot alternation intact.
const MaxSerial = 999_999_999

const (
	wrapSerial  = 2
	trailerSize = 12 // '\n' '<' nine digits '>'
	halfRange   = MaxSerial / 2
)

// Record is a string value that survives power loss at any instant. Each
// write goes to the slot that does not hold the current value and carries a
// serial trailer; a torn write leaves an invalid trailer, so readers fall
// back to the other slot.
type Record struct {
	dir     string
	name    string
	serial  int
	value   string
	present bool
}

// Open loads the newest valid slot of name inside dir. Missing or corrupt
// slots are not an error; the record is simply absent.
func Open(dir, name string) *Record {
	r := &Record{dir: dir, name: name}
	odd, oddOK := readSlot(r.path(OddPrefix), 1)
	even, evenOK := readSlot(r.path(EvenPrefix), 0)
	switch {
	case oddOK && evenOK:
		if newer(odd.serial, even.serial) {
			r.load(odd)
		} else {
			r.load(even)
		}
	case oddOK:
		r.load(odd)
	case evenOK:
		r.load(even)
	}
	return r
}

// Value returns the stored string and whether one exists.
func (r *Record) Value() (string, bool) {
	return r.value, r.present
}

// Serial returns the serial of the active slot, or 0 when absent.
func (r *Record) Serial() int {
	return r.serial
}

// Name returns the base file name shared by both slots.
func (r *Record) Name() string {
	return r.name
}

// Store writes value to the inactive slot and fsyncs it. On failure the
// in-memory state is unchanged and the previous slot remains authoritative.
func (r *Record) Store(value string) error {
	serial := NextSerial(r.serial)
	prefix := EvenPrefix
	if serial%2 == 1 {
		prefix = OddPrefix
	}
	payload := fmt.Sprintf("%s\n<%09d>", value, serial)
	if err := writeSynced(r.path(prefix), []byte(payload)); err != nil {
		return fmt.Errorf("store %s: %w", r.name, err)
	}
	r.serial = serial
	r.value = value
	r.present = true
	return nil
}

// NextSerial returns the serial following current, wrapping from MaxSerial
// to 2.
func NextSerial(current int) int {
	if current >= MaxSerial {
		return wrapSerial
	}
	return current + 1
}

func (r *Record) path(prefix string) string {
	return filepath.Join(r.dir, prefix+r.name)
}

func (r *Record) load(s slot) {
	r.serial = s.serial
	r.value = s.value
	r.present = true
}

type slot struct {
	serial int
	value  string
}

// readSlot parses a slot file. parity is the required serial%2.
func readSlot(path string, parity int) (slot, bool) {
	data, err := os.ReadFile(path)
	if err != nil || len(data) < trailerSize {
		return slot{}, false
	}
	trailer := data[len(data)-trailerSize:]
	if trailer[0] != '\n' || trailer[1] != '<' || trailer[trailerSize-1] != '>' {
		return slot{}, false
	}
	serial := 0
	for _, c := range trailer[2 : trailerSize-1] {
		if c < '0' || c > '9' {
			return slot{}, false
		}
		serial = serial*10 + int(c-'0')
	}
	if serial == 0 || serial%2 != parity {
		return slot{}, false
	}
	return slot{serial: serial, value: string(data[:len(data)-trailerSize])}, true
}

// newer reports whether serial a was written after serial b, treating a gap
// of more than half the range as a wrap-around.
func newer(a, b int) bool {
	if a > b {
		return a-b <= halfRange
	}
	return b-a > halfRange
}

func writeSynced(path string, payload []byte) error {
	_, statErr := os.Stat(path)
	created := os.IsNotExist(statErr)

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := file.Write(payload); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	if created {
		syncDir(filepath.Dir(path))
	}
	return nil
}

// syncDir persists a new directory entry. Best effort: some filesystems
// refuse fsync on directories.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
