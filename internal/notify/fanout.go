package notify

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/MikeMC777/foodapp/internal/order"
)

// Fanout sends every event to several notifiers concurrently. One failing
// notifier does not stop the others; their errors are joined.
type Fanout []order.Notifier

func (f Fanout) Notify(ctx context.Context, ev order.Event) error {
	errs := make([]error, len(f))
	var g errgroup.Group
	for i, n := range f {
		g.Go(func() error {
			errs[i] = n.Notify(ctx, ev)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
