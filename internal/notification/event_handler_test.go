package notification_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dokterku/clinic-finance/internal/core/events"
	"github.com/dokterku/clinic-finance/internal/notification"
)

func TestNotification(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Notification Suite")
}

type sentNotification struct {
	userID  int64
	message string
	level   notification.Level
}

type mockNotifier struct {
	sent []sentNotification
}

func (m *mockNotifier) Notify(userID int64, message string, level notification.Level) {
	m.sent = append(m.sent, sentNotification{userID: userID, message: message, level: level})
}

var _ = Describe("Notification EventHandler", func() {
	var (
		notifier *mockNotifier
		handler  *notification.EventHandler
	)

	testLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	BeforeEach(func() {
		notifier = &mockNotifier{}
		handler = notification.NewEventHandler(notifier, testLogger)
	})

	Describe("HandleTransactionValidated", func() {
		It("should notify the submitter, not the validator", func() {
			event := events.NewTransactionValidatedEvent(events.EventTypeTransactionApproved, 42, 250_000, 2, 7, "expense")

			err := handler.HandleTransactionValidated(context.Background(), event)

			Expect(err).NotTo(HaveOccurred())
			Expect(notifier.sent).To(HaveLen(1))
			Expect(notifier.sent[0].userID).To(Equal(int64(7)))
			Expect(notifier.sent[0].message).To(ContainSubstring("disetujui"))
			Expect(notifier.sent[0].level).To(Equal(notification.LevelInfo))
		})

		It("should warn the submitter on rejection", func() {
			event := events.NewTransactionValidatedEvent(events.EventTypeTransactionRejected, 43, 1_000_000, 2, 7, "expense")

			err := handler.HandleTransactionValidated(context.Background(), event)

			Expect(err).NotTo(HaveOccurred())
			Expect(notifier.sent).To(HaveLen(1))
			Expect(notifier.sent[0].userID).To(Equal(int64(7)))
			Expect(notifier.sent[0].message).To(ContainSubstring("ditolak"))
			Expect(notifier.sent[0].level).To(Equal(notification.LevelWarning))
		})

		It("should warn the submitter when a decision is reverted", func() {
			event := events.NewTransactionValidatedEvent(events.EventTypeTransactionReverted, 44, 1_000_000, 3, 7, "income")

			err := handler.HandleTransactionValidated(context.Background(), event)

			Expect(err).NotTo(HaveOccurred())
			Expect(notifier.sent).To(HaveLen(1))
			Expect(notifier.sent[0].userID).To(Equal(int64(7)))
			Expect(notifier.sent[0].message).To(ContainSubstring("pending"))
			Expect(notifier.sent[0].level).To(Equal(notification.LevelWarning))
		})

		It("should reject events of the wrong type", func() {
			event := events.BaseEvent{ID: "x", Type: events.EventTypeTransactionApproved}

			err := handler.HandleTransactionValidated(context.Background(), event)

			Expect(err).To(HaveOccurred())
			Expect(notifier.sent).To(BeEmpty())
		})

		It("should reject validated events with an unknown type", func() {
			event := events.NewTransactionValidatedEvent("transaction.archived", 45, 100_000, 2, 7, "income")

			err := handler.HandleTransactionValidated(context.Background(), event)

			Expect(err).To(HaveOccurred())
			Expect(notifier.sent).To(BeEmpty())
		})
	})
})
