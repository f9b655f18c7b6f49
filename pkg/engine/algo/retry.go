package algo

import (
	"context"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/openexec/execution-engine/pkg/venue"
)

// Transient venue failures on a slice are retried a small fixed number of
// times with exponential backoff; a slice that still fails is skipped by
// the caller.
const maxSliceRetries = 3

func attemptFill(ctx context.Context, v venue.Venue, req venue.FillRequest) (venue.FillResult, error) {
	var res venue.FillResult
	op := func() error {
		r, err := v.AttemptFill(ctx, req)
		if err != nil {
			if venue.IsTransient(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		res = r
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxElapsedTime = 0
	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, maxSliceRetries), ctx))
	return res, err
}
