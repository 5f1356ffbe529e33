// Package notifier delivers notifications to the push gateway over NATS.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"finapp-backend/internal/domain/notify"
)

// Publisher is the part of *nats.Conn the dispatcher needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

type Envelope struct {
	EventID       string              `json:"event_id"`
	EventType     string              `json:"event_type"`
	Timestamp     time.Time           `json:"timestamp"`
	SourceService string              `json:"source_service"`
	Payload       notify.Notification `json:"payload"`
}

const sourceService = "finapp-backend"

type NATSDispatcher struct {
	pub     Publisher
	subject string
	now     func() time.Time
}

// NewNATSDispatcher publishes each notification on "<subject>.<type>",
// e.g. notifications.payment_confirmed.
func NewNATSDispatcher(pub Publisher, subject string) *NATSDispatcher {
	return &NATSDispatcher{pub: pub, subject: subject, now: time.Now}
}

func (d *NATSDispatcher) Dispatch(ctx context.Context, n notify.Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", notify.ErrDeliveryFailure, err)
	}

	env := Envelope{
		EventID:       uuid.New().String(),
		EventType:     string(n.Type()),
		Timestamp:     d.now().UTC(),
		SourceService: sourceService,
		Payload:       n,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", notify.ErrDeliveryFailure, err)
	}

	subject := d.Subject(n.Type())
	if err := d.pub.Publish(subject, data); err != nil {
		return fmt.Errorf("%w: publish %s: %v", notify.ErrDeliveryFailure, subject, err)
	}

	log.WithFields(log.Fields{
		"event_id":  env.EventID,
		"subject":   subject,
		"recipient": n.RecipientID,
		"loan_id":   n.Data[notify.KeyLoanID],
	}).Debug("notification published")
	return nil
}

func (d *NATSDispatcher) Subject(t notify.Type) string {
	return d.subject + "." + strings.ToLower(string(t))
}
