package sqlstore

import "github.com/PancyStudios/PancyTrials/pkg/models"

type trialRow struct {
	GuildID       string `gorm:"primaryKey"`
	SubjectID     string `gorm:"primaryKey"`
	TrialStage    int    `gorm:"not null"`
	WarnCount     int    `gorm:"not null"`
	BanAppealDate *int64
	Version       int64 `gorm:"not null"`
	CreatedAt     int64 `gorm:"autoCreateTime:false"`
	UpdatedAt     int64 `gorm:"autoUpdateTime:false"`
}

func (trialRow) TableName() string { return "trials" }

type actionRow struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	GuildID    string `gorm:"not null"`
	SubjectID  string `gorm:"not null"`
	ActorID    string `gorm:"not null"`
	Action     string `gorm:"not null"`
	Reason     *string
	CaseNumber *int64
	DurationMs *int64
	CreatedAt  int64 `gorm:"autoCreateTime:false"`
}

func (actionRow) TableName() string { return "actions" }

type caseCounterRow struct {
	GuildID        string `gorm:"primaryKey"`
	LastCaseNumber int64  `gorm:"not null"`
}

func (caseCounterRow) TableName() string { return "case_counters" }

func trialFromRow(r *trialRow) *models.TrialRecord {
	return &models.TrialRecord{
		GuildID:       r.GuildID,
		SubjectID:     r.SubjectID,
		TrialStage:    r.TrialStage,
		WarnCount:     r.WarnCount,
		BanAppealDate: r.BanAppealDate,
		Version:       r.Version,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func actionToRow(rec *models.ActionRecord) *actionRow {
	row := &actionRow{
		GuildID:   rec.GuildID,
		SubjectID: rec.SubjectID,
		ActorID:   rec.ActorID,
		Action:    string(rec.Action),
		CreatedAt: rec.CreatedAt,
	}
	if rec.Reason != "" {
		reason := rec.Reason
		row.Reason = &reason
	}
	if rec.CaseNumber != 0 {
		n := rec.CaseNumber
		row.CaseNumber = &n
	}
	if rec.DurationMs != 0 {
		d := rec.DurationMs
		row.DurationMs = &d
	}
	return row
}

func actionFromRow(r *actionRow) *models.ActionRecord {
	rec := &models.ActionRecord{
		ID:        r.ID,
		GuildID:   r.GuildID,
		SubjectID: r.SubjectID,
		ActorID:   r.ActorID,
		Action:    models.ActionKind(r.Action),
		CreatedAt: r.CreatedAt,
	}
	if r.Reason != nil {
		rec.Reason = *r.Reason
	}
	if r.CaseNumber != nil {
		rec.CaseNumber = *r.CaseNumber
	}
	if r.DurationMs != nil {
		rec.DurationMs = *r.DurationMs
	}
	return rec
}
