package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/venu630/bequest"
	"github.com/venu630/bequest/disburse"
	"github.com/venu630/bequest/event"
	"github.com/venu630/bequest/notify"
	"github.com/venu630/bequest/pin"
)

// PinDocument uploads one document to the pinning gateway.
func (eng *Engine) PinDocument(ctx context.Context, doc pin.Document) (pin.Ref, error) {
	var ref pin.Ref
	err := eng.run(ctx, eng.collaboratorOp("document.pin", ""), func(ctx context.Context) error {
		if eng.pinner == nil {
			return fmt.Errorf("%w: pinner", bequest.ErrCollaboratorAbsent)
		}
		var err error
		ref, err = eng.pinner.Pin(ctx, doc)
		return err
	})
	return ref, err
}

// PinDocuments uploads docs in parallel and returns their refs in input
// order. The first failure cancels the remaining uploads.
func (eng *Engine) PinDocuments(ctx context.Context, docs []pin.Document) ([]pin.Ref, error) {
	refs := make([]pin.Ref, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(eng.pinConcurrency)
	for i, doc := range docs {
		g.Go(func() error {
			ref, err := eng.PinDocument(gctx, doc)
			if err != nil {
				return err
			}
			refs[i] = ref
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return refs, nil
}

// Notify sends one notification and reports the outcome to extensions.
// Delivery failures are returned, never retried.
func (eng *Engine) Notify(ctx context.Context, req notify.Request) (*notify.Result, error) {
	var res *notify.Result
	err := eng.run(ctx, eng.collaboratorOp("notification.send", ""), func(ctx context.Context) error {
		if eng.sender == nil {
			return fmt.Errorf("%w: sender", bequest.ErrCollaboratorAbsent)
		}
		var err error
		res, err = eng.sender.Send(ctx, req)
		if err != nil {
			eng.extensions.EmitNotificationFailed(ctx, &req, err)
			return err
		}
		eng.extensions.EmitNotificationSent(ctx, &req, res)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Disburse publishes a FundsDisbursed event on the event bus, where the
// disbursement listener turns it into a beneficiary notification. Events
// that could never be rendered are rejected with ErrInvalidEvent.
func (eng *Engine) Disburse(ctx context.Context, evt disburse.FundsDisbursed) (*event.Event, error) {
	var published *event.Event
	err := eng.run(ctx, eng.collaboratorOp("disbursement.publish", ""), func(ctx context.Context) error {
		if _, err := disburse.Request(evt); err != nil {
			return fmt.Errorf("%w: %w", bequest.ErrInvalidEvent, err)
		}
		var err error
		published, err = disburse.Publish(ctx, eng.eventBus, evt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return published, nil
}

// Sender returns the configured notification sender, or nil.
func (eng *Engine) Sender() notify.Sender { return eng.sender }
