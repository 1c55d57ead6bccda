package model

import "time"

// Score is a stored reference MIDI for one page of a sheet.
type Score struct {
	Sheet     string
	Page      int
	Midi      []byte
	CreatedAt time.Time
}

type ScoreKey struct {
	Sheet string
	Page  int
}
