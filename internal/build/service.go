// Package build turns the documentation source tree into the publishable
// build tree: oss/ once per language, langsmith/ for python, and shared
// assets copied once. All entry points (build, watch) route through Service.
package build

import (
	"context"
	"time"
)

// BuildService executes documentation builds.
type BuildService interface {
	// Run rebuilds the whole output tree from scratch.
	Run(ctx context.Context, req BuildRequest) (*BuildResult, error)
	// BuildFile rebuilds every output of a single source file.
	BuildFile(ctx context.Context, path string) error
	// RemoveOutputs deletes every output of a (deleted) source file.
	RemoveOutputs(path string) error
}

// BuildRequest carries per-run overrides of the service configuration.
type BuildRequest struct {
	// CheckLinks verifies internal links in the built pages after the run.
	CheckLinks bool
}

// BuildResult contains the outcome of a build execution.
type BuildResult struct {
	BuildID string
	Status  BuildStatus

	// OutputPath is the build root.
	OutputPath string

	FilesBuilt   int
	FilesSkipped int
	FilesFailed  int

	// Variants counts built files per output variant.
	Variants map[string]int

	// BrokenLinks is only populated when link checking was requested.
	BrokenLinks []BrokenLink

	Duration  time.Duration
	StartTime time.Time
	EndTime   time.Time
}

// BuildStatus represents the final status of a build.
type BuildStatus string

const (
	BuildStatusSuccess   BuildStatus = "success"
	BuildStatusFailed    BuildStatus = "failed"
	BuildStatusCancelled BuildStatus = "cancelled"
)

// IsSuccess returns true if the build completed successfully.
func (s BuildStatus) IsSuccess() bool {
	return s == BuildStatusSuccess
}

// BrokenLink is an internal link in a built page with no built target.
type BrokenLink struct {
	File   string // build-relative page containing the link
	Target string
}
