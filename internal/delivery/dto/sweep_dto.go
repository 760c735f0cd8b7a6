package dto

import "github.com/google/uuid"

type SweepTransition struct {
	ID   uuid.UUID `json:"id"`
	From string    `json:"from"`
	To   string    `json:"to"`
}

type SweepResultResponse struct {
	ProcessedCount int               `json:"processed_count"`
	SkippedCount   int               `json:"skipped_count"`
	FailedCount    int               `json:"failed_count"`
	Transitions    []SweepTransition `json:"transitions"`
}
