package batch

import (
	"context"

	"github.com/feichai0017/diagnosis-extractor/internal/models"
)

// BatchProcessor runs the analyze-and-extract pass over an input folder.
type BatchProcessor interface {
	ProcessFolder(ctx context.Context, opts RunOptions) (*models.RunSummary, error)
}

// DocumentAnalyzer returns the analysis of the file at path, or nil when the
// analysis failed. agent.Adapter implements it.
type DocumentAnalyzer interface {
	AnalyzeFile(ctx context.Context, path string) *models.AnalysisResult
}

// RunOptions identifies the input and primary output of one run.
type RunOptions struct {
	RunID     string `json:"runId"`
	InputDir  string `json:"inputDir"`
	OutputCSV string `json:"outputCsv"`
}
