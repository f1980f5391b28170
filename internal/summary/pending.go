package summary

import (
	"context"
	"sync"

	"github.com/sanspareilsmyn/perfsummary/internal/indicator"
)

// Pending is the handle to a snapshot that has been queued but may not have run yet.
// Abandoning it does not cancel the snapshot; the reset happens regardless.
type Pending struct {
	done    chan struct{}
	once    sync.Once
	reports []indicator.Report
	err     error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func (p *Pending) resolve(reports []indicator.Report, err error) {
	p.once.Do(func() {
		p.reports = reports
		p.err = err
		close(p.done)
	})
}

// Done is closed once the snapshot has run.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the snapshot has run or ctx ends, whichever comes first.
func (p *Pending) Wait(ctx context.Context) ([]indicator.Report, error) {
	select {
	case <-p.done:
		return p.reports, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
