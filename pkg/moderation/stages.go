// Package moderation implements the progressive disciplinary engine: trial stages,
// the per-guild case ledger and the statistics projection shown to moderators.
package moderation

import (
	"fmt"
	"time"
)

const (
	StageFirst  = 1
	StageSecond = 2
	StageThird  = 3
	StageGreat  = 4
)

// StageConfig describes the thresholds of one trial stage
type StageConfig struct {
	Stage      int
	Name       string
	MaxWarns   int
	AppealDays int
	Permanent  bool
}

var stageTable = [...]StageConfig{
	{Stage: StageFirst, Name: "First Trial", MaxWarns: 5, AppealDays: 7},
	{Stage: StageSecond, Name: "Second Trial", MaxWarns: 4, AppealDays: 14},
	{Stage: StageThird, Name: "Third Trial", MaxWarns: 3, AppealDays: 90},
	{Stage: StageGreat, Name: "Great Trial", MaxWarns: 5, Permanent: true},
}

// InvalidStageError is the panic value raised when a stage outside 1..4 reaches the engine.
// Stages only ever originate from this package, so it signals a corrupted record.
type InvalidStageError struct {
	Stage int
}

func (e *InvalidStageError) Error() string {
	return fmt.Sprintf("moderation: invalid trial stage %d", e.Stage)
}

// ConfigFor returns the configuration of stage. It panics with *InvalidStageError
// for values outside 1..4.
func ConfigFor(stage int) StageConfig {
	if stage < StageFirst || stage > StageGreat {
		panic(&InvalidStageError{Stage: stage})
	}
	return stageTable[stage-1]
}

// TrialName returns the display name of stage
func TrialName(stage int) string {
	return ConfigFor(stage).Name
}

// NextStage returns the stage reached after completing stage
func NextStage(stage int) int {
	ConfigFor(stage)
	return min(stage+1, StageGreat)
}

// AppealDate returns the earliest appeal time for a ban issued at now,
// or nil when bans at this stage are permanent.
func (c StageConfig) AppealDate(now time.Time) *time.Time {
	if c.Permanent {
		return nil
	}
	at := now.Add(time.Duration(c.AppealDays) * 24 * time.Hour)
	return &at
}
