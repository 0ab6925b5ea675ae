package enrich

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/pkg/zoominfo"
)

// Options controls the batch loop.
type Options struct {
	// BatchSize is the maximum number of contacts per bulk request. Default: 10.
	BatchSize int

	// RetryLimit is the number of additional attempts after the first
	// failure of a batch. Zero means each batch is attempted exactly once;
	// negative values are treated as zero. The operational default of 2
	// comes from configuration, not from here.
	RetryLimit int

	// BatchDelay is the fixed pause between retry attempts of one batch.
	// Default: 2s.
	BatchDelay time.Duration

	// PacingDelay is inserted between batches while more remain, to respect
	// the remote channel's implicit rate limits. Default: 100ms.
	PacingDelay time.Duration

	// OnProgress, when set, is invoked after each batch with the number of
	// contacts handled so far and the total.
	OnProgress func(done, total int)
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = 10
	}
	if o.RetryLimit < 0 {
		o.RetryLimit = 0
	}
	if o.BatchDelay <= 0 {
		o.BatchDelay = 2 * time.Second
	}
	if o.PacingDelay <= 0 {
		o.PacingDelay = 100 * time.Millisecond
	}
	return o
}

// Orchestrator drives the end-to-end batch loop: chunking, per-batch retry,
// per-record validation, error accumulation, and result assembly.
type Orchestrator struct {
	client zoominfo.Client
	opts   Options
}

// New creates an Orchestrator. A nil client disables remote enrichment and
// passes contacts straight to extraction, which is useful for dry runs.
func New(client zoominfo.Client, opts Options) *Orchestrator {
	return &Orchestrator{client: client, opts: opts.withDefaults()}
}

// batchOutcome is the immutable result of a single batch attempt. Each
// attempt produces a fresh value; the orchestrator folds the surviving one
// into the run accumulators so no state leaks across retries.
type batchOutcome struct {
	leads []model.Lead
	errs  []model.ErrorRecord
}

// Run enriches contacts in batches and assembles the two ordered output
// sequences. Every input contact lands in exactly one of them. Only a
// whole-channel authentication failure aborts the run; batch and record
// failures are absorbed into the error sequence.
func (o *Orchestrator) Run(ctx context.Context, contacts []model.Contact) ([]model.Lead, []model.ErrorRecord, error) {
	log := zap.L().With(zap.Int("contacts", len(contacts)))

	if o.client != nil && !o.client.Valid(ctx) {
		return nil, nil, eris.Wrap(zoominfo.ErrNotAuthenticated, "enrich: channel not authenticated")
	}

	var (
		leads []model.Lead
		errs  []model.ErrorRecord
	)

	total := len(contacts)
	for start := 0; start < total; start += o.opts.BatchSize {
		end := min(start+o.opts.BatchSize, total)
		batch := contacts[start:end]
		batchNum := start/o.opts.BatchSize + 1

		log.Debug("enrich: processing batch",
			zap.Int("batch", batchNum),
			zap.Int("from", start+1),
			zap.Int("to", end),
		)

		outcome, err := resilience.DoVal(ctx, resilience.RetryConfig{
			MaxAttempts: o.opts.RetryLimit + 1,
			Delay:       o.opts.BatchDelay,
			ShouldRetry: func(err error) bool {
				return !errors.Is(err, zoominfo.ErrNotAuthenticated)
			},
			OnRetry: resilience.RetryLogger("zoominfo", "person/bulk"),
		}, func(ctx context.Context) (batchOutcome, error) {
			return o.processBatch(ctx, batch)
		})

		switch {
		case err == nil:
			leads = append(leads, outcome.leads...)
			errs = append(errs, outcome.errs...)
		case errors.Is(err, zoominfo.ErrNotAuthenticated):
			// Credentials died mid-run. Nothing downstream can succeed.
			return leads, errs, eris.Wrap(err, "enrich: channel authentication lost")
		default:
			log.Error("enrich: batch failed after retries",
				zap.Int("batch", batchNum),
				zap.Error(err),
			)
			msg := "batch enrichment error: " + err.Error()
			for _, c := range batch {
				errs = append(errs, model.ErrorRecord{Contact: c, Error: msg})
			}
		}

		if o.opts.OnProgress != nil {
			o.opts.OnProgress(end, total)
		}

		if end < total {
			timer := time.NewTimer(o.opts.PacingDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return leads, errs, eris.Wrap(ctx.Err(), "enrich: run cancelled")
			case <-timer.C:
			}
		}
	}

	log.Info("enrich: run complete",
		zap.Int("leads", len(leads)),
		zap.Int("errors", len(errs)),
	)
	return leads, errs, nil
}

// processBatch performs one attempt: map, request, reconcile, extract.
// Record-level validation failures land in the outcome's error list and do
// not fail the attempt; only request-level failures are retryable.
func (o *Orchestrator) processBatch(ctx context.Context, batch []model.Contact) (batchOutcome, error) {
	results, err := o.enrichBatch(ctx, batch)
	if err != nil {
		return batchOutcome{}, err
	}

	var out batchOutcome
	for i, r := range results {
		c := r.Contact
		if !c.HasOutputFields() {
			out.errs = append(out.errs, model.ErrorRecord{
				Contact: batch[i],
				Error:   "no name, email, or phone found after enrichment",
			})
			continue
		}
		out.leads = append(out.leads, model.Lead{
			Name:  c.FullName(),
			Email: c.Email,
			Phone: c.Phone,
		})
	}
	return out, nil
}

// enrichBatch submits the batch and reconciles the response. Contacts whose
// mapped payload is empty are excluded from the outbound request but still
// reconciled (they come back unmatched).
func (o *Orchestrator) enrichBatch(ctx context.Context, batch []model.Contact) ([]Result, error) {
	if o.client == nil {
		results := make([]Result, 0, len(batch))
		for _, c := range batch {
			results = append(results, Result{Contact: c.Clone()})
		}
		return results, nil
	}

	persons := make([]map[string]string, 0, len(batch))
	for _, c := range batch {
		if p := ToPayload(c); len(p) > 0 {
			persons = append(persons, p)
		}
	}
	if len(persons) == 0 {
		zap.L().Warn("enrich: no mappable contacts in batch", zap.Int("size", len(batch)))
		return Reconcile(batch, nil), nil
	}

	entries, err := o.client.EnrichPersons(ctx, persons)
	if err != nil {
		return nil, err
	}
	return Reconcile(batch, entries), nil
}
