package domain

import "time"

// RunInfo describes a distribution run as it started.
type RunInfo struct {
	ID              string        `json:"id"`
	StartedAt       time.Time     `json:"started_at"`
	Deadline        time.Time     `json:"deadline"`
	MaxDuration     time.Duration `json:"max_duration"`
	ChunkSize       int           `json:"chunk_size"`
	TotalChunks     int           `json:"total_chunks"`
	TotalRecipients int           `json:"total_recipients"`
}

// Report is everything a finished run produced.
type Report struct {
	Run        RunInfo         `json:"run"`
	FinishedAt time.Time       `json:"finished_at"`
	EndState   string          `json:"end_state"`
	Records    []OutcomeRecord `json:"records"`
	Summary    Summary         `json:"summary"`
	Rejected   []DecodeError   `json:"rejected,omitempty"`
	Duplicates int             `json:"duplicates_removed,omitempty"`
}
