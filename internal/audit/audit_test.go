package audit_test

import (
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/dokterku/clinic-finance/internal/audit"
	auditDatamodel "github.com/dokterku/clinic-finance/internal/core/datamodel/audit"
	"github.com/dokterku/clinic-finance/internal/transaction"
)

func TestAuditRecorder(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Audit Recorder Suite")
}

// SQLiteValidationLog is a SQLite-compatible model for testing
type SQLiteValidationLog struct {
	ID            int64     `gorm:"primaryKey"`
	TransactionID *int64    `gorm:"column:transaction_id"`
	ActorID       int64     `gorm:"column:actor_id;not null"`
	Action        string    `gorm:"column:action;not null"`
	FromStatus    string    `gorm:"column:from_status"`
	ToStatus      string    `gorm:"column:to_status"`
	Note          string    `gorm:"column:note"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

func (SQLiteValidationLog) TableName() string {
	return "validation_logs"
}

var _ = Describe("Audit Recorder", func() {
	var (
		db       *gorm.DB
		recorder *audit.Recorder
	)

	testLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	BeforeEach(func() {
		var err error
		// Use SQLite in-memory database for testing
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&SQLiteValidationLog{})
		Expect(err).NotTo(HaveOccurred())

		recorder = audit.NewRecorder(db, testLogger)
	})

	Describe("Record", func() {
		It("should persist an entry referencing the record it changed", func() {
			recorder.Record(42, 2, "approve", transaction.StatusPending, transaction.StatusApproved, "Disetujui")

			var rows []SQLiteValidationLog
			Expect(db.Find(&rows).Error).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].TransactionID).NotTo(BeNil())
			Expect(*rows[0].TransactionID).To(Equal(int64(42)))
			Expect(rows[0].ActorID).To(Equal(int64(2)))
			Expect(rows[0].Action).To(Equal("approve"))
			Expect(rows[0].FromStatus).To(Equal("pending"))
			Expect(rows[0].ToStatus).To(Equal("approved"))
		})

		It("should store a NULL transaction reference for batch run summaries", func() {
			recorder.Record(0, 3, "quick_action:approve_low_value", "", "", "")

			var rows []SQLiteValidationLog
			Expect(db.Find(&rows).Error).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].TransactionID).To(BeNil())
			Expect(rows[0].ActorID).To(Equal(int64(3)))
			Expect(rows[0].Action).To(Equal("quick_action:approve_low_value"))
		})

		It("should not panic when the write fails", func() {
			sqlDB, err := db.DB()
			Expect(err).NotTo(HaveOccurred())
			Expect(sqlDB.Close()).To(Succeed())

			Expect(func() {
				recorder.Record(1, 2, "approve", transaction.StatusPending, transaction.StatusApproved, "")
			}).NotTo(Panic())
		})
	})

	Describe("ForTransaction", func() {
		It("should return the trail for one record oldest first", func() {
			id := int64(7)
			earlier := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
			later := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

			Expect(db.Create(&SQLiteValidationLog{TransactionID: &id, ActorID: 2, Action: "revision", CreatedAt: later}).Error).NotTo(HaveOccurred())
			Expect(db.Create(&SQLiteValidationLog{TransactionID: &id, ActorID: 2, Action: "approve", CreatedAt: earlier}).Error).NotTo(HaveOccurred())
			recorder.Record(0, 2, "quick_action:approve_routine", "", "", "")

			trail, err := recorder.ForTransaction(id)

			Expect(err).NotTo(HaveOccurred())
			Expect(trail).To(HaveLen(2))
			Expect(trail[0].Action).To(Equal("approve"))
			Expect(trail[1].Action).To(Equal("revision"))
		})
	})
})

var _ = Describe("ValidationLog model", func() {
	It("maps to the validation_logs table", func() {
		Expect(auditDatamodel.ValidationLog{}.TableName()).To(Equal("validation_logs"))
	})
})
