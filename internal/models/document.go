package models

import (
	"time"
)

// AnalysisResult is what the document analysis service returned for one
// image. Content is nil when the service produced no text at all.
type AnalysisResult struct {
	Content *string `json:"content,omitempty"`
	ModelID string  `json:"modelId,omitempty"`
	Pages   int     `json:"pages"`
	Backend string  `json:"backend"`
}

// Text returns the extracted content, or "" when absent.
func (r *AnalysisResult) Text() string {
	if r == nil || r.Content == nil {
		return ""
	}
	return *r.Content
}

// DiagnosisRecord is one row of the primary results file.
type DiagnosisRecord struct {
	ImageName string `json:"imageName"`
	Diagnosis string `json:"diagnosis"`
}

// RunSummary describes a finished batch run.
type RunSummary struct {
	RunID       string            `json:"runId"`
	Status      RunStatus         `json:"status"`
	InputDir    string            `json:"inputDir"`
	OutputCSV   string            `json:"outputCsv"`
	StartedAt   time.Time         `json:"startedAt"`
	FinishedAt  time.Time         `json:"finishedAt,omitempty"`
	Scanned     int               `json:"scanned"`
	Matched     int               `json:"matched"`
	Succeeded   int               `json:"succeeded"`
	Failed      int               `json:"failed"`
	Records     []DiagnosisRecord `json:"records,omitempty"`
	Errors      []string          `json:"errors,omitempty"`
	PublishedTo string            `json:"publishedTo,omitempty"`
}

type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)
