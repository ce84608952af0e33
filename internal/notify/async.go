package notify

import (
	"sync"

	"github.com/atinyakov/taskmanager/internal/models"
	"go.uber.org/zap"
)

// Async sends notifications in the background. Failures are logged and never
// reach the caller.
type Async struct {
	sender Sender
	log    *zap.Logger
	wg     sync.WaitGroup
}

// NewAsync wraps sender.
func NewAsync(sender Sender, log *zap.Logger) *Async {
	return &Async{sender: sender, log: log}
}

// Notify schedules a notification and returns immediately.
func (a *Async) Notify(kind models.NotificationKind, email, name string) {
	msg := Message{Kind: kind, To: email, Name: name}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				a.log.Error("notification panicked", zap.Any("panic", r), zap.String("kind", string(kind)))
			}
		}()

		if err := a.sender.Send(msg); err != nil {
			a.log.Error("failed to send notification",
				zap.String("kind", string(kind)),
				zap.String("to", email),
				zap.Error(err),
			)
			return
		}
		a.log.Debug("notification sent", zap.String("kind", string(kind)), zap.String("to", email))
	}()
}

// Wait blocks until every scheduled notification has finished.
func (a *Async) Wait() {
	a.wg.Wait()
}

// LogSender only logs notifications. It is used when no mail server is configured.
type LogSender struct {
	Log *zap.Logger
}

// Send logs msg.
func (l LogSender) Send(msg Message) error {
	l.Log.Info("notification (mail disabled)",
		zap.String("kind", string(msg.Kind)),
		zap.String("to", msg.To),
		zap.String("name", msg.Name),
	)
	return nil
}
