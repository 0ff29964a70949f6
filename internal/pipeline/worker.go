package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JoaoFavoreto/Powerpoint-translator/internal/extract"
	"github.com/JoaoFavoreto/Powerpoint-translator/internal/metrics"
	"github.com/JoaoFavoreto/Powerpoint-translator/internal/pptx"
	"github.com/JoaoFavoreto/Powerpoint-translator/internal/reinject"
	"github.com/JoaoFavoreto/Powerpoint-translator/internal/translate"
)

// Worker runs the translation state machine for a single job:
// load -> extract -> translate -> reinject -> serialize. The stages
// are strictly sequential; each consumes the full output of the
// previous one, and a failure at any stage is terminal for the job.
// The job's input bytes are never touched, so a failed job leaves the
// caller with exactly the original document.
type Worker struct {
	ports            map[string]translate.Port
	stats            *translate.Stats
	met              *metrics.Metrics
	log              *slog.Logger
	translateTimeout time.Duration
	backoff          func(attempt int) time.Duration
}

func NewWorker(ports map[string]translate.Port, stats *translate.Stats, met *metrics.Metrics, log *slog.Logger, translateTimeout time.Duration) *Worker {
	return &Worker{
		ports:            ports,
		stats:            stats,
		met:              met,
		log:              log,
		translateTimeout: translateTimeout,
		backoff:          Backoff,
	}
}

// Process runs the full translation pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "provider", job.Provider, "language", job.TargetLanguage)

	if w.met != nil {
		w.met.JobsInFlight.Inc()
		defer w.met.JobsInFlight.Dec()
	}

	fail := func(phase string, err error) {
		log.Error("job failed", "phase", phase, "error", err)
		job.AddError(fmt.Sprintf("%s: %s", phase, err))
		job.SetStatus(StatusFailed, phase)
		w.met.JobFinished("failed")
	}

	// Phase 1: Load
	job.SetStatus(StatusLoading, "loading")
	data := job.FileData()
	doc, err := pptx.Open(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		fail("loading", err)
		return
	}

	// Phase 2: Extract
	job.SetStatus(StatusExtracting, "extracting")
	units, err := extract.Units(doc.Deck)
	if err != nil {
		fail("extracting", err)
		return
	}
	characters := 0
	for _, u := range units {
		characters += len(u.Text)
	}
	job.SetCounts(len(doc.Deck.Slides), len(units), characters)
	if w.met != nil {
		w.met.UnitsPerDocument.Observe(float64(len(units)))
	}
	log.Info("extracted text units", "slides", len(doc.Deck.Slides), "units", len(units), "characters", characters)

	// Nothing to translate: the result is a copy of the original.
	if len(units) == 0 {
		job.SetResult(data)
		job.SetStatus(StatusCompleted, "done")
		w.met.JobFinished("completed")
		log.Info("no text found, returning original")
		return
	}

	// Phase 3: Translate. One request carries the whole document;
	// transient provider failures retry the whole request with
	// backoff, everything else fails the job.
	job.SetStatus(StatusTranslating, "translating")
	port, ok := w.ports[job.Provider]
	if !ok {
		fail("translating", fmt.Errorf("unknown provider %q", job.Provider))
		return
	}

	req := translate.Request{
		Texts:      translate.EncodeBatch(units),
		TargetLang: job.TargetLanguage,
		Style:      job.Style,
		Glossary:   job.Glossary,
	}
	var translated []string
	var lastErr error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		tctx, cancel := context.WithTimeout(ctx, w.translateTimeout)
		start := time.Now()
		translated, lastErr = port.Translate(tctx, req)
		cancel()

		elapsed := time.Since(start)
		if w.stats != nil {
			w.stats.Record(elapsed.Milliseconds())
		}
		if w.met != nil {
			w.met.TranslateDuration.WithLabelValues(port.Name()).Observe(elapsed.Seconds())
		}

		if lastErr == nil || !IsRetryable(lastErr) || attempt == MaxRetries-1 {
			break
		}
		log.Warn("retryable provider error", "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(w.backoff(attempt)):
		case <-ctx.Done():
			fail("translating", ctx.Err())
			return
		}
	}
	if lastErr != nil {
		fail("translating", lastErr)
		return
	}

	results, err := translate.DecodeBatch(units, translated)
	if err != nil {
		fail("translating", err)
		return
	}

	// Phase 4: Reinject
	job.SetStatus(StatusReinjecting, "reinjecting")
	if err := reinject.Apply(doc.Deck, results); err != nil {
		fail("reinjecting", err)
		return
	}

	// Phase 5: Serialize
	job.SetStatus(StatusSerializing, "serializing")
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		fail("serializing", err)
		return
	}
	job.SetResult(buf.Bytes())
	job.SetStatus(StatusCompleted, "done")
	w.met.JobFinished("completed")
	log.Info("translation complete", "units", len(units), "output_bytes", buf.Len())
}
