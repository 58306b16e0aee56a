package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/kconnect-service/internal/queue"
	"github.com/spec-kit/kconnect-service/internal/service"
)

// StartNotificationWorker registers notification handlers. The returned stop
// function releases the broker connection, if any.
func StartNotificationWorker(notificationService *service.NotificationService, publisher *queue.Publisher, logger *zap.Logger) func() {
	if notificationService == nil {
		return func() {}
	}
	notificationService.RegisterHandlers()
	logger.Info("notification worker started", zap.Bool("broker", publisher != nil))
	return publisher.Close
}
