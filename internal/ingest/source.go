package ingest

import (
	"fmt"

	"scholarbrief/internal/model"
)

// Thumbnail hues cycled per source position within a session
var thumbnailHues = []int{0, 210, 160, 280, 35, 120, 300, 180}

// ThumbnailColor returns the HSL display color for the source at the
// given position.
func ThumbnailColor(index int) string {
	hue := thumbnailHues[index%len(thumbnailHues)]
	return fmt.Sprintf("hsl(%d, 70%%, 55%%)", hue)
}

// NewSource builds the session source record for a converted document.
// The index positions the source within the session for color cycling;
// claim counts and relevance are filled in by later pipeline stages.
func NewSource(doc *Document, index int) model.Source {
	authors := doc.Authors
	if authors == nil {
		authors = []string{}
	}
	return model.Source{
		ID:             doc.ID,
		Title:          doc.Title,
		Authors:        authors,
		Date:           doc.Date,
		Type:           doc.FileType,
		Status:         model.StatusProcessed,
		ThumbnailColor: ThumbnailColor(index),
	}
}
