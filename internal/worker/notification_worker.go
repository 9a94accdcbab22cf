package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/service"
)

// NotificationWorker moves notification delivery off the request path.
// Events are queued by the dispatcher and handled by a fixed set of goroutines.
type NotificationWorker struct {
	svc    *service.NotificationService
	logger *zap.Logger
	queue  chan events.Event
	wg     sync.WaitGroup
	once   sync.Once
}

// NewNotificationWorker builds a worker with the given queue size.
func NewNotificationWorker(svc *service.NotificationService, logger *zap.Logger, buffer int) *NotificationWorker {
	if buffer <= 0 {
		buffer = 64
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{svc: svc, logger: logger, queue: make(chan events.Event, buffer)}
}

// StartNotificationWorker subscribes the worker to the dispatcher and starts
// workers goroutines. Stop drains the queue.
func StartNotificationWorker(ctx context.Context, dispatcher events.Dispatcher, svc *service.NotificationService, logger *zap.Logger, workers int) *NotificationWorker {
	if svc == nil || dispatcher == nil {
		return nil
	}
	w := NewNotificationWorker(svc, logger, 0)
	for _, eventType := range svc.EventTypes() {
		dispatcher.Subscribe(eventType, w.Enqueue)
	}
	w.Start(ctx, workers)
	return w
}

// Start launches n consumers.
func (w *NotificationWorker) Start(ctx context.Context, n int) {
	if n <= 0 {
		n = 1
	}
	for i := 0; i < n; i++ {
		w.wg.Add(1)
		go w.run(ctx)
	}
}

// Enqueue satisfies events.EventHandler. A full queue drops the event.
func (w *NotificationWorker) Enqueue(_ context.Context, event events.Event) error {
	select {
	case w.queue <- event:
	default:
		w.logger.Warn("notification queue full, dropping event",
			zap.String("event_type", string(event.Type)),
			zap.String("event_id", event.ID))
	}
	return nil
}

// Stop closes the queue and waits for in-flight deliveries.
func (w *NotificationWorker) Stop() {
	if w == nil {
		return
	}
	w.once.Do(func() { close(w.queue) })
	w.wg.Wait()
}

func (w *NotificationWorker) run(ctx context.Context) {
	defer w.wg.Done()
	for event := range w.queue {
		if err := w.svc.Handle(ctx, event); err != nil {
			w.logger.Warn("notification failed", zap.String("event_id", event.ID), zap.Error(err))
		}
	}
}
