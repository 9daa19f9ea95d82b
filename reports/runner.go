package reports

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

// Aggregator runs a pipeline against a named collection.
type Aggregator interface {
	Aggregate(ctx context.Context, collection string, pipeline mongo.Pipeline) ([]bson.D, error)
}

// Result is the output of one report.
type Result struct {
	Report   Report
	Rows     []bson.D
	Duration time.Duration
}

type Runner struct {
	agg      Aggregator
	parallel bool
	logger   *slog.Logger
}

// NewRunner creates a runner. With parallel set, RunAll issues the reports
// concurrently; results keep the order of All either way.
func NewRunner(agg Aggregator, parallel bool, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{agg: agg, parallel: parallel, logger: logger}
}

// Run executes the report with the given id.
func (r *Runner) Run(ctx context.Context, id string) (*Result, error) {
	rep, err := Find(id)
	if err != nil {
		return nil, err
	}
	return r.run(ctx, rep)
}

func (r *Runner) run(ctx context.Context, rep Report) (*Result, error) {
	start := time.Now()
	rows, err := r.agg.Aggregate(ctx, rep.Collection, rep.Pipeline)
	if err != nil {
		return nil, errors.Wrapf(err, "report %s", rep.ID)
	}
	res := &Result{Report: rep, Rows: rows, Duration: time.Since(start)}
	r.logger.Debug("Report finished", "report", rep.ID, "rows", len(rows), "duration", res.Duration)
	return res, nil
}

// RunAll executes every report and returns the results in request order.
func (r *Runner) RunAll(ctx context.Context) ([]*Result, error) {
	reps := All()
	results := make([]*Result, len(reps))

	if !r.parallel {
		for i, rep := range reps {
			res, err := r.run(ctx, rep)
			if err != nil {
				return nil, err
			}
			results[i] = res
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, rep := range reps {
		i, rep := i, rep
		g.Go(func() error {
			res, err := r.run(gctx, rep)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
