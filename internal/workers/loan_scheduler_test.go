package workers

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/bookhub-dev/bookhub/internal/models"
	"github.com/bookhub-dev/bookhub/internal/tasks"
)

type fakePublisher struct {
	published []string
}

func (f *fakePublisher) Publish(eventType string, detail interface{}) {
	f.published = append(f.published, eventType)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	return db
}

func addLoan(t *testing.T, db *gorm.DB, name, borrower string, borrowedAt time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&models.Book{
		Name:       name,
		Author:     "Author",
		BorrowedBy: &borrower,
		BorrowDate: &borrowedAt,
	}).Error)
}

func TestSweepOverdueLoans(t *testing.T) {
	db := newTestDB(t)
	pub := &fakePublisher{}

	addLoan(t, db, "Overdue Book", "vera@example.com", time.Now().AddDate(0, 0, -30))
	addLoan(t, db, "Recent Loan", "vera@example.com", time.Now().AddDate(0, 0, -2))
	require.NoError(t, db.Create(&models.Book{Name: "On Shelf", Author: "Author"}).Error)

	SweepOverdueLoans(pub, db, 14, zerolog.Nop())

	require.Equal(t, []string{tasks.TypeBookOverdue}, pub.published)
}

func TestSweepOverdueLoansNoneDue(t *testing.T) {
	db := newTestDB(t)
	pub := &fakePublisher{}

	addLoan(t, db, "Recent Loan", "vera@example.com", time.Now().AddDate(0, 0, -1))

	SweepOverdueLoans(pub, db, 14, zerolog.Nop())

	require.Empty(t, pub.published)
}

func TestPurgeExpiredCodes(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.Create(&models.VerificationCode{
		Email:     "vera@example.com",
		Code:      "123456",
		Purpose:   models.PurposeConfirm,
		ExpiresAt: time.Now().Add(-time.Hour),
	}).Error)
	require.NoError(t, db.Create(&models.VerificationCode{
		Email:     "vera@example.com",
		Code:      "654321",
		Purpose:   models.PurposeReset,
		ExpiresAt: time.Now().Add(time.Hour),
	}).Error)

	purgeExpiredCodes(db, zerolog.Nop())

	var remaining int64
	require.NoError(t, db.Model(&models.VerificationCode{}).Count(&remaining).Error)
	require.EqualValues(t, 1, remaining)
}
