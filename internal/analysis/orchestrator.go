// Package analysis correlates the numbered sections cited in a source
// document with the matching sections of a target document.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"legaldash/internal/analysis/reasoning"
	"legaldash/internal/analysis/sections"
	"legaldash/internal/common/logger"
	"legaldash/internal/common/metrics"
	"legaldash/internal/common/observability"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
)

// ErrReasoningUnavailable is returned when sections were dispatched and every
// call failed to reach the reasoning service.
var ErrReasoningUnavailable = errors.New("ANALYSIS_REASONING_UNAVAILABLE")

var errTaskPanicked = errors.New("correlation task panicked")

// DefaultDeadline bounds the fan-out when Options.Deadline is zero.
const DefaultDeadline = 120 * time.Second

type Options struct {
	// Extractor defaults to the "Section" keyword.
	Extractor     *sections.Extractor
	Deadline      time.Duration
	Logger        logger.Logger
	Observability *observability.Observability
}

// Orchestrator runs one correlation batch per Analyze call. It holds no
// per-request state and is safe for concurrent use.
type Orchestrator struct {
	extractor *sections.Extractor
	reasoner  reasoning.Reasoner
	deadline  time.Duration
	logger    logger.Logger
	obs       *observability.Observability
}

func New(reasoner reasoning.Reasoner, opts Options) *Orchestrator {
	if opts.Extractor == nil {
		opts.Extractor = sections.New(sections.DefaultKeyword)
	}
	if opts.Deadline <= 0 {
		opts.Deadline = DefaultDeadline
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}
	return &Orchestrator{
		extractor: opts.Extractor,
		reasoner:  reasoner,
		deadline:  opts.Deadline,
		logger:    opts.Logger.With(map[string]interface{}{"component": "analysis"}),
		obs:       opts.Observability,
	}
}

type taskResult struct {
	idx        int
	commentary string
	err        error
}

// Analyze extracts the markers of source, locates each in target and asks
// the reasoner about every located span concurrently. A failed call leaves
// an empty commentary for its marker only.
func (o *Orchestrator) Analyze(ctx context.Context, source, target string) (*Outcome, error) {
	start := time.Now()

	markers := o.extractor.FindMarkers(source)
	if len(markers) == 0 {
		o.logger.Info("no sections in source document", nil)
		o.obs.RecordAnalysis(ctx, time.Since(start), observability.StatusNoSections)
		return NoSectionsOutcome(), nil
	}
	markers = dedupe(markers)

	headings := o.extractor.FindHeadings(target)
	results := make([]Result, len(markers))
	pending := make([]int, 0, len(markers))
	for i, m := range markers {
		span := sections.SpanOf(target, headings, m)
		results[i] = Result{Marker: m, Span: span, Found: span != ""}
		if span == "" {
			results[i].Error = notFoundMessage(o.extractor.Keyword(), m)
			continue
		}
		pending = append(pending, i)
	}

	errs := o.dispatch(ctx, results, pending)

	unreachable := 0
	var firstErr error
	for _, idx := range pending {
		err := errs[idx]
		if err == nil {
			continue
		}
		results[idx].Failed = true
		if firstErr == nil {
			firstErr = err
		}
		if errors.Is(err, reasoning.ErrUnreachable) {
			unreachable++
		}
		o.logger.Warn("section correlation failed", map[string]interface{}{
			"marker": results[idx].Marker,
			"error":  err.Error(),
		})
	}

	o.recordSections(ctx, results)

	if err := ctx.Err(); err != nil {
		o.obs.RecordAnalysis(ctx, time.Since(start), observability.StatusError)
		return nil, fmt.Errorf("analysis aborted: %w", err)
	}

	if len(pending) > 0 && unreachable == len(pending) {
		o.obs.RecordAnalysis(ctx, time.Since(start), observability.StatusUnavailable)
		return nil, fmt.Errorf("%w: %v", ErrReasoningUnavailable, firstErr)
	}

	o.logger.Info("analysis completed", map[string]interface{}{
		"markers":    len(markers),
		"dispatched": len(pending),
		"durationMs": time.Since(start).Milliseconds(),
	})
	o.obs.RecordAnalysis(ctx, time.Since(start), observability.StatusOK)

	return &Outcome{Results: results}, nil
}

// dispatch runs one reasoning call per pending index and fills in the
// commentaries. The join is bounded by the orchestrator deadline; tasks still
// running when it fires are reported with the context error.
func (o *Orchestrator) dispatch(ctx context.Context, results []Result, pending []int) []error {
	errs := make([]error, len(results))
	if len(pending) == 0 {
		return errs
	}

	runCtx, cancel := context.WithTimeout(ctx, o.deadline)
	defer cancel()

	// Buffered so that tasks finishing after the deadline never block.
	out := make(chan taskResult, len(pending))
	var wg conc.WaitGroup
	for _, idx := range pending {
		idx, span := idx, results[idx].Span
		wg.Go(func() {
			res := taskResult{idx: idx, err: errTaskPanicked}
			defer func() { out <- res }()
			res.commentary, res.err = o.correlate(runCtx, span)
		})
	}

	joined := make(chan *panics.Recovered, 1)
	go func() { joined <- wg.WaitAndRecover() }()

	settled := make([]bool, len(results))
	apply := func(r taskResult) {
		results[r.idx].Commentary = r.commentary
		errs[r.idx] = r.err
		settled[r.idx] = true
	}

	received := 0
wait:
	for received < len(pending) {
		select {
		case r := <-out:
			apply(r)
			received++
		case <-runCtx.Done():
			break wait
		}
	}

	if received < len(pending) {
		// Keep whatever finished together with the deadline.
	drain:
		for {
			select {
			case r := <-out:
				apply(r)
				received++
			default:
				break drain
			}
		}
		for _, idx := range pending {
			if !settled[idx] {
				errs[idx] = fmt.Errorf("correlation abandoned: %w", runCtx.Err())
			}
		}
		o.logger.Warn("analysis deadline reached", map[string]interface{}{
			"dispatched": len(pending),
			"settled":    received,
			"deadline":   o.deadline.String(),
		})
		return errs
	}

	if rec := <-joined; rec != nil {
		o.logger.Error("correlation task panicked", map[string]interface{}{
			"panic": rec.String(),
		})
	}
	return errs
}

func (o *Orchestrator) correlate(ctx context.Context, span string) (string, error) {
	prompt, err := RenderPrompt(span)
	if err != nil {
		return "", err
	}
	return o.reasoner.Complete(ctx, prompt)
}

func (o *Orchestrator) recordSections(ctx context.Context, results []Result) {
	var found, missing, failed int
	for _, r := range results {
		switch {
		case !r.Found:
			missing++
		case r.Failed:
			failed++
		default:
			found++
		}
	}
	for result, n := range map[string]int{"found": found, "missing": missing, "failed": failed} {
		if n > 0 {
			metrics.SectionCorrelations.WithLabelValues(result).Add(float64(n))
		}
		o.obs.RecordSections(ctx, result, n)
	}
}

// dedupe keeps the first occurrence of every marker.
func dedupe(markers []string) []string {
	seen := make(map[string]struct{}, len(markers))
	out := make([]string, 0, len(markers))
	for _, m := range markers {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}
