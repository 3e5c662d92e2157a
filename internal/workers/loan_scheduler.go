package workers

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/bookhub-dev/bookhub/internal/config"
	"github.com/bookhub-dev/bookhub/internal/events"
	"github.com/bookhub-dev/bookhub/internal/models"
	"github.com/bookhub-dev/bookhub/internal/tasks"
)

// EventPublisher is the slice of events.Publisher the sweep needs;
// tests substitute a recording fake
type EventPublisher interface {
	Publish(eventType string, detail interface{})
}

var _ EventPublisher = (*events.Publisher)(nil)

// StartLoanScheduler runs the periodic overdue sweep. The schedule is a
// standard cron expression from config; each due run also purges expired
// verification codes.
func StartLoanScheduler(publisher EventPublisher, db *gorm.DB, cfg *config.Config, logger zerolog.Logger) {
	schedule, err := cron.ParseStandard(cfg.Loans.CheckSchedule)
	if err != nil {
		logger.Error().Err(err).
			Str("schedule", cfg.Loans.CheckSchedule).
			Msg("Invalid loan check schedule - overdue sweep disabled")
		return
	}

	next := schedule.Next(time.Now())
	logger.Info().
		Str("schedule", cfg.Loans.CheckSchedule).
		Time("next_run", next).
		Msg("Loan scheduler started")

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		if now.Before(next) {
			continue
		}
		next = schedule.Next(now)

		SweepOverdueLoans(publisher, db, cfg.Loans.PeriodDays, logger)
		purgeExpiredCodes(db, logger)
	}
}

// SweepOverdueLoans publishes a BookOverdue event for every book whose
// loan has run past the configured period
func SweepOverdueLoans(publisher EventPublisher, db *gorm.DB, periodDays int, logger zerolog.Logger) {
	cutoff := time.Now().AddDate(0, 0, -periodDays)

	var overdue []models.Book
	err := db.Where("borrowed_by IS NOT NULL AND borrow_date < ?", cutoff).Find(&overdue).Error
	if err != nil {
		logger.Error().Err(err).Msg("Failed to query overdue loans")
		return
	}

	for _, book := range overdue {
		publisher.Publish(tasks.TypeBookOverdue, map[string]interface{}{
			"book_name":   book.Name,
			"user":        *book.BorrowedBy,
			"borrow_date": book.BorrowDate,
			"days_out":    int(time.Since(*book.BorrowDate).Hours() / 24),
		})
	}

	if len(overdue) > 0 {
		logger.Info().Int("count", len(overdue)).Msg("Overdue loans flagged")
	}
}

func purgeExpiredCodes(db *gorm.DB, logger zerolog.Logger) {
	res := db.Where("expires_at < ? AND consumed_at IS NULL", time.Now()).
		Delete(&models.VerificationCode{})
	if res.Error != nil {
		logger.Error().Err(res.Error).Msg("Failed to purge expired codes")
		return
	}
	if res.RowsAffected > 0 {
		logger.Info().Int64("count", res.RowsAffected).Msg("Expired verification codes purged")
	}
}
