// Package sqlstore implements the moderation store on SQL databases through gorm.
// SQLite (pure Go driver), MySQL and PostgreSQL share the same schema.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PancyStudios/PancyTrials/pkg/logger"
	"github.com/PancyStudios/PancyTrials/pkg/models"
	"github.com/PancyStudios/PancyTrials/pkg/moderation"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// ErrUnknownDriver is returned for drivers other than sqlite, mysql and postgres
var ErrUnknownDriver = errors.New("sqlstore: unknown driver")

// Open connects to dsn with the given driver and tunes the connection pool
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = sqlite.Dialector{DriverName: "sqlite", DSN: dsn}
	case DriverMySQL:
		dialector = mysql.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 NewGormLogger(200 * time.Millisecond),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get SQL DB: %w", err)
	}

	if driver == DriverSQLite {
		// A single connection serializes writers, which is what SQLite does anyway
		sqlDB.SetMaxOpenConns(1)
		if err := db.Exec("PRAGMA busy_timeout = 5000").Error; err != nil {
			return nil, err
		}
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	logger.Success(fmt.Sprintf("Conexión SQL (%s) establecida", driver), "SQL")
	return db, nil
}

// Store implements moderation.Store with gorm
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

var _ moderation.Store = (*Store)(nil)

// Option configures a Store
type Option func(*Store)

// WithClock sets the clock used for timestamps the caller leaves unset
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New wraps an opened and migrated database
func New(db *gorm.DB, opts ...Option) *Store {
	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close releases the underlying connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// GetStatus reports the connection state in the same form as the Mongo store
func (s *Store) GetStatus() (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Ping(ctx); err != nil {
		return "🔴 | Desconectado", false
	}
	return "🟢 | Conectado (" + s.db.Dialector.Name() + ")", true
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx moderation.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &Store{db: tx, now: s.now})
	})
}

func (s *Store) GetTrial(ctx context.Context, guildID, subjectID string) (*models.TrialRecord, error) {
	var row trialRow
	err := s.db.WithContext(ctx).
		Where("guild_id = ? AND subject_id = ?", guildID, subjectID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewTrialRecord(guildID, subjectID), nil
	}
	if err != nil {
		return nil, err
	}
	return trialFromRow(&row), nil
}

// UpsertTrial keeps the caller's UpdatedAt and only stamps it when unset
func (s *Store) UpsertTrial(ctx context.Context, rec *models.TrialRecord) error {
	if rec.UpdatedAt == 0 {
		rec.UpdatedAt = s.now().Unix()
	}

	if rec.Version == 0 {
		if rec.CreatedAt == 0 {
			rec.CreatedAt = rec.UpdatedAt
		}
		row := trialRow{
			GuildID:       rec.GuildID,
			SubjectID:     rec.SubjectID,
			TrialStage:    rec.TrialStage,
			WarnCount:     rec.WarnCount,
			BanAppealDate: rec.BanAppealDate,
			Version:       1,
			CreatedAt:     rec.CreatedAt,
			UpdatedAt:     rec.UpdatedAt,
		}
		res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return moderation.ErrTrialConflict
		}
		rec.Version = 1
		return nil
	}

	res := s.db.WithContext(ctx).Model(&trialRow{}).
		Where("guild_id = ? AND subject_id = ? AND version = ?", rec.GuildID, rec.SubjectID, rec.Version).
		Updates(map[string]any{
			"trial_stage":     rec.TrialStage,
			"warn_count":      rec.WarnCount,
			"ban_appeal_date": rec.BanAppealDate,
			"updated_at":      rec.UpdatedAt,
			"version":         rec.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return moderation.ErrTrialConflict
	}
	rec.Version++
	return nil
}

func (s *Store) ClearWarnings(ctx context.Context, guildID, subjectID string) error {
	return s.db.WithContext(ctx).Model(&trialRow{}).
		Where("guild_id = ? AND subject_id = ?", guildID, subjectID).
		Updates(map[string]any{
			"warn_count": 0,
			"updated_at": s.now().Unix(),
			"version":    gorm.Expr("version + 1"),
		}).Error
}

// NextCaseNumber creates the counter row if needed and increments it.
// The UPDATE holds the row lock until the surrounding transaction ends.
func (s *Store) NextCaseNumber(ctx context.Context, guildID string) (int64, error) {
	var counter caseCounterRow
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&caseCounterRow{GuildID: guildID}).Error; err != nil {
			return err
		}
		if err := tx.Model(&caseCounterRow{}).
			Where("guild_id = ?", guildID).
			Update("last_case_number", gorm.Expr("last_case_number + 1")).Error; err != nil {
			return err
		}
		return tx.Where("guild_id = ?", guildID).Take(&counter).Error
	})
	if err != nil {
		return 0, fmt.Errorf("case counter %s: %w", guildID, err)
	}
	return counter.LastCaseNumber, nil
}

func (s *Store) AppendAction(ctx context.Context, rec *models.ActionRecord) error {
	row := actionToRow(rec)
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return err
	}
	rec.ID = row.ID
	return nil
}

func (s *Store) History(ctx context.Context, guildID, subjectID string) ([]*models.ActionRecord, error) {
	var rows []actionRow
	err := s.db.WithContext(ctx).
		Where("guild_id = ? AND subject_id = ?", guildID, subjectID).
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]*models.ActionRecord, 0, len(rows))
	for i := range rows {
		out = append(out, actionFromRow(&rows[i]))
	}
	return out, nil
}

func (s *Store) ByCaseNumber(ctx context.Context, guildID string, caseNumber int64) (*models.ActionRecord, error) {
	var row actionRow
	err := s.db.WithContext(ctx).
		Where("guild_id = ? AND case_number = ?", guildID, caseNumber).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, moderation.ErrCaseNotFound
	}
	if err != nil {
		return nil, err
	}
	return actionFromRow(&row), nil
}
