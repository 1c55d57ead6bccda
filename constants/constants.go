package constants

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jsphweid/scoretrack/model"
)

func GetResourceDir() string {
	path := os.Getenv("SCORETRACK_RESOURCE_DIR")
	if path != "" {
		return path
	}
	return "./resources"
}

func GetTemplateDir() string {
	return filepath.Join(GetResourceDir(), "template")
}

func GetDataDir() string {
	path := os.Getenv("SCORETRACK_DATA_DIR")
	if path != "" {
		return path
	}
	return "./data"
}

func GetDatabasePath() string {
	return filepath.Join(GetDataDir(), "scores.db")
}

// GetStoreBackend is either "sqlite" (default) or "dynamodb".
func GetStoreBackend() string {
	backend := strings.ToLower(os.Getenv("SCORETRACK_STORE"))
	if backend != "" {
		return backend
	}
	return "sqlite"
}

func GetDynamoEndpoint() string {
	endpoint := os.Getenv("SCORETRACK_DYNAMO_ENDPOINT")
	if endpoint != "" {
		return endpoint
	}
	return "http://localhost:8000"
}

func GetDynamoTable() string {
	table := os.Getenv("SCORETRACK_DYNAMO_TABLE")
	if table != "" {
		return table
	}
	return "scoretrack-scores"
}

func GetPort() string {
	port := os.Getenv("PORT")
	if port != "" {
		return port
	}
	return "8080"
}

// canonical A4 page at ~300 DPI
const PageWidth = 2479
const PageHeight = 3508

const BinarizeThreshold = 127

const Tempo = 140
const TrackName = "Track"
const TicksPerQuarter = 960
const Velocity = 100

const OnsetMergeWindow = 100 * time.Millisecond

// LookAhead bounds how far past the cursor the follower searches, in seconds.
const LookAhead = 5.0

const SessionIdleTimeout = 10 * time.Minute
const ConvertTimeout = 2 * time.Minute

// MaxPagesPerRequest caps one /convert call; it is also the rate limiter burst.
const MaxPagesPerRequest = 32
const AlignTimeout = 5 * time.Second

const StaffMergeThreshold = 0.01
const GlyphMergeThreshold = 0.5

// DefaultTemplateClasses mirrors the prototype set shipped under
// resources/template.
func DefaultTemplateClasses() []model.TemplateClass {
	return []model.TemplateClass{
		{
			Category:       model.StaffLine,
			Variants:       []string{"staff4.png", "staff3.png", "staff2.png", "staff1.png"},
			Threshold:      0.77,
			ScaleLow:       50,
			ScaleHigh:      150,
			ScaleStep:      3,
			MergeThreshold: StaffMergeThreshold,
		},
		{
			Category:       model.Sharp,
			Variants:       []string{"sharp.png"},
			Threshold:      0.65,
			ScaleLow:       50,
			ScaleHigh:      150,
			ScaleStep:      3,
			MergeThreshold: GlyphMergeThreshold,
		},
		{
			Category:       model.Flat,
			Variants:       []string{"flat-line.png", "flat-space.png"},
			Threshold:      0.7,
			ScaleLow:       50,
			ScaleHigh:      150,
			ScaleStep:      3,
			MergeThreshold: GlyphMergeThreshold,
		},
		{
			Category:       model.QuarterOrEighth,
			Variants:       []string{"quarter.png", "solid-note.png"},
			Threshold:      0.7,
			ScaleLow:       50,
			ScaleHigh:      150,
			ScaleStep:      3,
			MergeThreshold: GlyphMergeThreshold,
		},
		{
			Category:       model.HalfNote,
			Variants:       []string{"half-space.png", "half-note-line.png", "half-line.png", "half-note-space.png"},
			Threshold:      0.63,
			ScaleLow:       50,
			ScaleHigh:      150,
			ScaleStep:      3,
			MergeThreshold: GlyphMergeThreshold,
		},
		{
			Category:       model.WholeNote,
			Variants:       []string{"whole-space.png", "whole-note-line.png", "whole-line.png", "whole-note-space.png"},
			Threshold:      0.65,
			ScaleLow:       50,
			ScaleHigh:      150,
			ScaleStep:      3,
			MergeThreshold: GlyphMergeThreshold,
		},
	}
}
