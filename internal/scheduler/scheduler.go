package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"CandleKeeper/internal/checkpoint"
	"CandleKeeper/internal/collector"
	"CandleKeeper/internal/metrics"
	"CandleKeeper/internal/model"
	"CandleKeeper/internal/notifier"
	"CandleKeeper/internal/recorder"

	"github.com/robfig/cron/v3"
)

// Options selects what an ingest run fetches.
type Options struct {
	Symbols        []string
	Range          string
	Interval       string
	DropInProgress bool
}

// Scheduler manages the ingest cron task.
type Scheduler struct {
	Cron       *cron.Cron
	Collector  *collector.Collector
	Recorder   recorder.Recorder
	Notifier   notifier.Notifier
	Metrics    *metrics.Metrics    // optional
	Checkpoint *checkpoint.Manager // optional
	Options    Options
	Ctx        context.Context

	runMu sync.Mutex // one run at a time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, rec recorder.Recorder, n notifier.Notifier, opts Options) *Scheduler {
	if n == nil {
		n = notifier.NoopNotifier{}
	}
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		Collector: col,
		Recorder:  rec,
		Notifier:  n,
		Options:   opts,
		Ctx:       ctx,
	}
}

// Register registers the ingest task.
func (s *Scheduler) Register(ingestCron string) error {
	if _, err := s.Cron.AddFunc(ingestCron, s.ingestTask); err != nil {
		return fmt.Errorf("register ingest task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes the ingest task immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.ingestTask()
}

func (s *Scheduler) ingestTask() {
	report := s.RunOnce(s.Ctx)
	s.trySend(notifier.FormatRunReport(report))
}

// RunOnce collects and stores every configured symbol in turn. A failing
// symbol is logged and recorded in the report; the others still run.
func (s *Scheduler) RunOnce(ctx context.Context) *model.RunReport {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	opts := s.Options
	report := &model.RunReport{
		Started:  time.Now(),
		Provider: s.Collector.Fetcher.Name(),
		Range:    opts.Range,
		Interval: opts.Interval,
		Symbols:  len(opts.Symbols),
		Failed:   map[string]string{},
	}
	log.Printf("[INFO] running ingest: %d symbols, %s/%s via %s", report.Symbols, opts.Range, opts.Interval, report.Provider)

	for _, symbol := range opts.Symbols {
		if err := ctx.Err(); err != nil {
			report.Failed[symbol] = err.Error()
			continue
		}
		n, err := s.ingestSymbol(ctx, symbol)
		if err != nil {
			log.Printf("[ERROR] ingest %s: %v", symbol, err)
			report.Failed[symbol] = err.Error()
			continue
		}
		report.Succeeded++
		report.Rows += n
	}

	report.Finished = time.Now()
	if s.Metrics != nil {
		s.Metrics.MarkRun(report.Finished)
	}
	if s.Checkpoint != nil {
		s.Checkpoint.RecordRun(report)
	}
	log.Printf("[INFO] ingest finished: %d/%d symbols, %d rows in %s",
		report.Succeeded, report.Symbols, report.Rows, report.Duration().Round(time.Millisecond))
	return report
}

func (s *Scheduler) ingestSymbol(ctx context.Context, symbol string) (int, error) {
	opts := s.Options
	period, err := s.Collector.Collect(ctx, symbol, opts.Range, opts.Interval)
	if s.Metrics != nil {
		s.Metrics.ObserveParse(s.Collector.Fetcher.Name(), resultLabel(err))
	}
	if err != nil {
		return 0, err
	}

	if opts.DropInProgress && period.RemoveInProgress() {
		log.Printf("[INFO] %s: dropped in-progress candlestick", symbol)
	}
	candles := period.Candlesticks()
	if len(candles) == 0 {
		log.Printf("[INFO] %s: no closed candlesticks to store", symbol)
		return 0, nil
	}

	start := time.Now()
	err = s.Recorder.AddRows(ctx, symbol, candles)
	if s.Metrics != nil {
		s.Metrics.ObservePersist(len(candles), time.Since(start), err)
	}
	if err != nil {
		return 0, err
	}
	if s.Checkpoint != nil {
		s.Checkpoint.RecordBatch(symbol, candles)
	}
	log.Printf("[INFO] %s: stored %d candlesticks", symbol, len(candles))
	return len(candles), nil
}

// resultLabel maps a Collect error onto its metrics label.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, collector.ErrInvalidRequest):
		return metrics.ResultInvalid
	case errors.Is(err, collector.ErrFetch):
		return metrics.ResultFetch
	case errors.Is(err, model.ErrDecode):
		return metrics.ResultDecode
	case errors.Is(err, model.ErrConsistency):
		return metrics.ResultConsistency
	default:
		return metrics.ResultOther
	}
}

// LastReport returns the report of the most recent run, if any.
func (s *Scheduler) LastReport() *model.RunReport {
	if s.Checkpoint == nil {
		return nil
	}
	return s.Checkpoint.GetState().LastRun
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	name := ""
	if fields := strings.Fields(command); len(fields) > 0 {
		name = strings.ToLower(fields[0])
	}
	switch name {
	case "/ingest", "/run":
		s.ingestTask()
		return ""
	case "/status":
		if r := s.LastReport(); r != nil {
			return notifier.FormatRunReport(r)
		}
		return "No ingest run recorded yet."
	case "/symbols":
		return notifier.FormatSymbols(s.Options.Symbols, s.Options.Range, s.Options.Interval)
	default:
		return "Available commands:\n• /ingest - run ingest now\n• /status - last run report\n• /symbols - configured symbols"
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.Notify(s.Ctx, text); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
