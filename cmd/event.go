package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/dokterku/clinic-finance/internal/core/events"
	"github.com/dokterku/clinic-finance/internal/notification"
	"github.com/dokterku/clinic-finance/pkg/logger"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event bus commands",
	Long:  `Inspect and exercise the in-process event bus`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a synthetic validation event",
	Long: `Publish a synthetic transaction validation event and run the
registered notification handlers against it. Useful for checking the
notification wiring without touching the database.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		publishTestEvent(args[0])
	},
}

var (
	eventAmount int64
	eventKind   string
)

func publishTestEvent(eventType string) {
	lg := logger.LoggerWrapper()

	eventBus := events.NewEventBus(lg)
	notifier := notification.NewSlogNotifier(lg)
	notification.NewEventHandler(notifier, lg).RegisterEventHandlers(eventBus)

	eventBus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
		lg.Info("test handler received event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	testEvent := events.NewTransactionValidatedEvent(eventType, 0, eventAmount, 0, 0, eventKind)

	lg.Info("publishing test event", "event_type", eventType, "event_id", testEvent.ID)

	if err := eventBus.Publish(context.Background(), testEvent); err != nil {
		lg.Error("failed to publish event", "error", err)
		return
	}

	// handlers run async, give them a moment before the process exits
	time.Sleep(100 * time.Millisecond)
	lg.Info("test event published")
}

func init() {
	publishEventCmd.Flags().Int64Var(&eventAmount, "amount", 100_000, "Amount carried by the synthetic event")
	publishEventCmd.Flags().StringVar(&eventKind, "kind", "income", "Transaction kind carried by the synthetic event")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
