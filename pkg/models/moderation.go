package models

import "time"

// ActionKind identifies the moderation action stored in a ledger entry
type ActionKind string

const (
	ActionWarn    ActionKind = "warn"
	ActionMute    ActionKind = "mute"
	ActionUnmute  ActionKind = "unmute"
	ActionKick    ActionKind = "kick"
	ActionBan     ActionKind = "ban"
	ActionUnban   ActionKind = "unban"
	ActionHackban ActionKind = "hackban"
	ActionTempban ActionKind = "tempban"
	ActionBotWarn ActionKind = "bot_warn"
	ActionBotBan  ActionKind = "bot_ban"
)

// Valid reports whether k is one of the known action kinds
func (k ActionKind) Valid() bool {
	switch k {
	case ActionWarn, ActionMute, ActionUnmute, ActionKick, ActionBan,
		ActionUnban, ActionHackban, ActionTempban, ActionBotWarn, ActionBotBan:
		return true
	}
	return false
}

// IsBot reports whether k is recorded against an automated account
func (k ActionKind) IsBot() bool {
	return k == ActionBotWarn || k == ActionBotBan
}

// TrialRecord holds the disciplinary state of one subject inside one guild.
// Timestamps are epoch seconds, matching the persisted shape of the "trials" collection.
type TrialRecord struct {
	GuildID       string `bson:"guildId" json:"guildId"`
	SubjectID     string `bson:"subjectId" json:"subjectId"`
	TrialStage    int    `bson:"trialStage" json:"trialStage"`
	WarnCount     int    `bson:"warnCount" json:"warnCount"`
	BanAppealDate *int64 `bson:"banAppealDate" json:"banAppealDate"` // nil: no ban pending or permanent
	Version       int64  `bson:"version" json:"version"`             // 0 until first persisted
	CreatedAt     int64  `bson:"createdAt" json:"createdAt"`
	UpdatedAt     int64  `bson:"updatedAt" json:"updatedAt"`
}

// NewTrialRecord returns the default record used before the first warning
func NewTrialRecord(guildID, subjectID string) *TrialRecord {
	return &TrialRecord{
		GuildID:    guildID,
		SubjectID:  subjectID,
		TrialStage: 1,
	}
}

// AppealTime returns the appeal date as a time value, or nil
func (t *TrialRecord) AppealTime() *time.Time {
	if t.BanAppealDate == nil {
		return nil
	}
	at := time.Unix(*t.BanAppealDate, 0)
	return &at
}

// SetAppealTime stores at (or clears the appeal date when at is nil)
func (t *TrialRecord) SetAppealTime(at *time.Time) {
	if at == nil {
		t.BanAppealDate = nil
		return
	}
	secs := at.Unix()
	t.BanAppealDate = &secs
}

// ActionRecord is one immutable entry of the case ledger.
// An empty Reason and a zero DurationMs are persisted as NULL.
type ActionRecord struct {
	ID         int64      `bson:"-" json:"id,omitempty"`
	GuildID    string     `bson:"guildId" json:"guildId"`
	SubjectID  string     `bson:"subjectId" json:"subjectId"`
	ActorID    string     `bson:"actorId" json:"actorId"`
	Action     ActionKind `bson:"action" json:"action"`
	Reason     string     `bson:"reason,omitempty" json:"reason,omitempty"`
	CaseNumber int64      `bson:"caseNumber" json:"caseNumber"`
	DurationMs int64      `bson:"durationMs,omitempty" json:"durationMs,omitempty"`
	CreatedAt  int64      `bson:"createdAt" json:"createdAt"`
}

// Duration returns the stored duration of a mute or tempban
func (a *ActionRecord) Duration() time.Duration {
	return time.Duration(a.DurationMs) * time.Millisecond
}

// CaseCounter is the per-guild case number sequence
type CaseCounter struct {
	GuildID        string `bson:"guildId" json:"guildId"`
	LastCaseNumber int64  `bson:"lastCaseNumber" json:"lastCaseNumber"`
}
