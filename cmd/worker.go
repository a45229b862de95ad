package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/dokterku/clinic-finance/internal/core/events"
	"github.com/dokterku/clinic-finance/internal/notification"
	"github.com/dokterku/clinic-finance/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start and manage background workers like the notification event worker.`,
}

var notificationWorkerCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Start the notification event worker",
	Long:  `Start a standalone event bus with the notification handlers attached, useful for debugging event flow.`,
	Run: func(cmd *cobra.Command, args []string) {
		startNotificationWorker()
	},
}

func startNotificationWorker() {
	lg := logger.LoggerWrapper()

	eventBus := events.NewEventBus(lg)
	notifier := notification.NewSlogNotifier(lg)
	notification.NewEventHandler(notifier, lg).RegisterEventHandlers(eventBus)

	lg.Info("notification worker is running. Press Ctrl+C to stop.")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	lg.Info("received signal, shutting down notification worker", "signal", sig)
}

func init() {
	workerCmd.AddCommand(notificationWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
