package notifier

import (
	"context"

	log "github.com/sirupsen/logrus"

	"finapp-backend/internal/domain/notify"
)

// LogDispatcher only logs. Used when no NATS URL is configured.
type LogDispatcher struct{}

func (LogDispatcher) Dispatch(_ context.Context, n notify.Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"recipient": n.RecipientID,
		"type":      n.Type(),
		"loan_id":   n.Data[notify.KeyLoanID],
		"title":     n.Title,
	}).Info("notification")
	return nil
}
