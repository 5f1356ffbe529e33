package notifier

import (
	"context"
	"errors"

	"finapp-backend/internal/domain/notify"
)

// Multi hands a notification to every dispatcher and joins their errors.
type Multi []notify.Dispatcher

func (m Multi) Dispatch(ctx context.Context, n notify.Notification) error {
	var errs []error
	for _, d := range m {
		if err := d.Dispatch(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
