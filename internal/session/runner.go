package session

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/studiowebux/apiprobe/internal/executor"
	"github.com/studiowebux/apiprobe/internal/types"
)

// errBail stops a run after the first failed request
var errBail = errors.New("request failed")

// RunOptions controls RunCollection
type RunOptions struct {
	Concurrency int  // parallel requests, at least 1
	Bail        bool // stop starting requests after the first failure
}

// RunResult is the outcome of one request in a collection run
type RunResult struct {
	Request  types.Request
	Response types.Response
	Skipped  bool // not sent because the run bailed out
}

// Failed reports a network error or a 4xx/5xx status
func (r RunResult) Failed() bool {
	return !r.Skipped && (r.Response.IsNetworkError() || r.Response.Status >= 400)
}

// RunCollection sends every request of a collection and returns the results
// in request order. The environment is snapshotted once for the whole run and
// Current is left untouched.
func (m *Manager) RunCollection(ctx context.Context, collectionID string, opts RunOptions) ([]RunResult, error) {
	col, err := m.store.Get(collectionID)
	if err != nil {
		return nil, err
	}

	workers := opts.Concurrency
	if workers < 1 {
		workers = 1
	}

	env := m.Environment()
	results := make([]RunResult, len(col.Requests))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, req := range col.Requests {
		results[i].Request = req

		if gctx.Err() != nil {
			results[i].Skipped = true
			continue
		}

		g.Go(func() error {
			if gctx.Err() != nil {
				results[i].Skipped = true
				return nil
			}

			resolved, resp := m.exec.Do(gctx, &col, req, env)
			m.history.Record(resolved, resp)
			results[i].Response = resp

			m.log.V(1).Info("runner request done", "request", req.Name, "status", resp.Status,
				"duration", executor.FormatDuration(resp.Duration))

			if opts.Bail && results[i].Failed() {
				return fmt.Errorf("%s: %w", req.Name, errBail)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, errBail) {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("run interrupted: %w", err)
	}
	return results, nil
}
