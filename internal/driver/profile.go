package driver

import (
	"os"
	"time"

	"github.com/google/pprof/profile"
)

// stageProfiler accumulates one wall-clock sample per pipeline stage per
// source, implementing the "build profiling regions around
// preprocess/compile/link" requirement of §4.H. Samples are kept in
// google/pprof's own profile.Profile representation so -flog= output is
// a real pprof file a developer can open with `go tool pprof`, rather
// than an ad hoc log format.
type stageProfiler struct {
	locStage map[string]*profile.Location
	fn       *profile.Function
	samples  []*profile.Sample
	nextLoc  uint64
	nextFn   uint64
}

func newStageProfiler() *stageProfiler {
	return &stageProfiler{locStage: map[string]*profile.Location{}}
}

type stageSpan struct {
	p     *stageProfiler
	stage string
	start time.Time
}

// Start begins timing stage for the given source path.
func (p *stageProfiler) Start(stage, source string) *stageSpan {
	return &stageSpan{p: p, stage: stage + ":" + source, start: time.Now()}
}

// End records the elapsed duration as one pprof sample.
func (s *stageSpan) End() {
	d := time.Since(s.start)
	s.p.nextFn++
	fn := &profile.Function{ID: s.p.nextFn, Name: s.stage}
	s.p.nextLoc++
	loc := &profile.Location{ID: s.p.nextLoc, Line: []profile.Line{{Function: fn}}}
	s.p.samples = append(s.p.samples, &profile.Sample{
		Location: []*profile.Location{loc},
		Value:    []int64{d.Nanoseconds()},
		Label:    map[string][]string{"stage": {s.stage}},
	})
}

// WriteTo writes the accumulated profile in pprof's gzip+protobuf format
// to path, or to stdout when path == "-".
func (p *stageProfiler) WriteTo(path string) error {
	if path == "" {
		return nil
	}
	prof := &profile.Profile{
		SampleType:    []*profile.ValueType{{Type: "wall", Unit: "nanoseconds"}},
		Sample:        p.samples,
		TimeNanos:     time.Now().UnixNano(),
		DurationNanos: 0,
	}
	if err := prof.CheckValid(); err != nil {
		return err
	}
	if path == "-" {
		return prof.Write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return prof.Write(f)
}
