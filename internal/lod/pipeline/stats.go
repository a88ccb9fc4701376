package pipeline

import (
	"github.com/banshee-data/footprint.report/internal/timeutil"
)

// StageTiming is the wall time spent in one named stage.
type StageTiming = timeutil.Lap

// Stats summarises the most recent builds.
type Stats struct {
	Points         int
	BoundaryPoints int
	InsidePoints   int
	OutsidePoints  int
	UnknownPoints  int
	// EstimatedNormals is true when normals were computed because the
	// caller supplied none.
	EstimatedNormals bool

	Clusters          int
	DroppedClusters   int
	Segments          int
	UnsegmentedPoints int
	RejectedRegions   int

	Lines       int
	Cells       int
	InsideCells int
	Energy      float64

	Footprints          int
	RejectedFootprints  int
	DiscardedFootprints int

	Buildings         int
	FallbackBuildings int

	LOD0Timings []StageTiming
	LOD1Timings []StageTiming
}

// stageTimer traces every lap of a stopwatch.
type stageTimer struct {
	*timeutil.Stopwatch
}

func newStageTimer(clock timeutil.Clock) stageTimer {
	return stageTimer{timeutil.NewStopwatch(clock)}
}

// mark closes the current stage.
func (t stageTimer) mark(stage string) {
	tracef("stage %s took %v", stage, t.Lap(stage))
}
