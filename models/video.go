package models

import "time"

// VideoSummary is the outcome of processing one YouTube video.
type VideoSummary struct {
	VideoID     string    `json:"video_id"`
	Title       string    `json:"title,omitempty"`
	Language    string    `json:"language,omitempty"`
	Transcript  string    `json:"transcript"`
	Summary     string    `json:"summary"`
	ProcessedAt time.Time `json:"processed_at"`
}
