package loader

import (
	"fmt"
)

// Stage is one step of the layer chain. Stages run strictly in order.
type Stage int

const (
	StageBoundary Stage = iota
	StageRings
	StageContext
	StageLines
	StageMarkers
	StageDone
)

var stageNames = [...]string{"boundary", "rings", "context", "lines", "markers", "done"}

func (s Stage) String() string {
	if s >= 0 && int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Next returns the stage that follows s. StageDone is terminal.
func (s Stage) Next() Stage {
	if s >= StageDone {
		return StageDone
	}
	return s + 1
}

// LoadFailure halts the chain at Stage.
type LoadFailure struct {
	Stage  Stage
	Source string
	Err    error
}

func (f *LoadFailure) Error() string {
	return fmt.Sprintf("%s stage failed loading %s: %v", f.Stage, f.Source, f.Err)
}

func (f *LoadFailure) Unwrap() error {
	return f.Err
}
