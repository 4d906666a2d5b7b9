package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"budget-auditor/internal/logging"
	"budget-auditor/internal/models"
	"budget-auditor/internal/resilience"
	"budget-auditor/internal/sink"
	"budget-auditor/pkg/utils"

	apperrors "budget-auditor/internal/errors"
)

// Config holds pipeline configuration.
type Config struct {
	// SpikeMultiplier is the ratio at or above which a spike alert fires.
	SpikeMultiplier float64
	// ContractorCeiling is the cumulative spend ceiling (INR crores).
	ContractorCeiling float64
	// SpikeBaseline selects the pre- or post-update sector mean.
	SpikeBaseline SpikeBaseline
	// IntakeBufferSize is the size of the raw event intake channel.
	IntakeBufferSize int
	// PublishBufferSize is the size of the publish queue. When full,
	// ingestion blocks, which backpressures Submit and the event source.
	PublishBufferSize int
	// PublishRetry bounds the retry attempts per publish round.
	PublishRetry utils.RetryConfig
	// PublishRetryInterval is the pause between publish rounds for a
	// record that exhausted its bounded retries. Records are held, never
	// dropped: a missed compliance alert is a correctness violation.
	PublishRetryInterval time.Duration
	// Breaker configures the circuit breaker guarding the sink.
	Breaker resilience.BreakerConfig
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		SpikeMultiplier:      4.0,
		ContractorCeiling:    5000.0,
		SpikeBaseline:        BaselinePreUpdate,
		IntakeBufferSize:     1000,
		PublishBufferSize:    1000,
		PublishRetry:         utils.DefaultRetryConfig(),
		PublishRetryInterval: 5 * time.Second,
		Breaker:              resilience.DefaultBreakerConfig(),
	}
}

// Validate checks the configuration for fatal errors.
func (c Config) Validate() error {
	if c.SpikeMultiplier <= 0 {
		return apperrors.NewConfigError("spike_multiplier", c.SpikeMultiplier, "must be positive")
	}
	if c.ContractorCeiling <= 0 {
		return apperrors.NewConfigError("contractor_ceiling", c.ContractorCeiling, "must be positive")
	}
	if c.SpikeBaseline != BaselinePreUpdate && c.SpikeBaseline != BaselinePostUpdate {
		return apperrors.NewConfigError("spike_baseline", string(c.SpikeBaseline), "unknown baseline policy")
	}
	if c.IntakeBufferSize <= 0 {
		return apperrors.NewConfigError("intake_buffer_size", c.IntakeBufferSize, "must be positive")
	}
	if c.PublishBufferSize <= 0 {
		return apperrors.NewConfigError("publish_buffer_size", c.PublishBufferSize, "must be positive")
	}
	if c.PublishRetry.MaxAttempts <= 0 {
		return apperrors.NewConfigError("publish_retry.max_attempts", c.PublishRetry.MaxAttempts, "must be positive")
	}
	return nil
}

// Metrics contains pipeline counters.
type Metrics struct {
	EventsReceived   uint64
	EventsRejected   uint64
	EventsProcessed  uint64
	SpikeAlerts      uint64
	ThresholdAlerts  uint64
	RecordsPublished uint64
	PublishRetries   uint64
}

// Result is the outcome of processing one event: the aggregate snapshots it
// produced and zero, one, or two alert records.
type Result struct {
	Event        *models.BudgetEvent
	SectorBefore models.SectorSnapshot
	SectorAfter  models.SectorSnapshot
	Contractor   models.ContractorSnapshot
	Alerts       []models.AlertRecord
}

// publishItem is one record queued for the output sink. Exactly one field
// is set.
type publishItem struct {
	sector     *models.SectorSnapshot
	contractor *models.ContractorSnapshot
	alert      *models.AlertRecord
}

// Pipeline wires the aggregators, detector, ledger, and reason composer
// into a single dataflow: raw lines in, snapshots and alerts out.
//
// One serializing ingest worker processes events in arrival order, which
// preserves per-key ordering; the aggregate maps are still safe for
// concurrent snapshot readers. A separate publisher drains the bounded
// publish queue into the sink, so a slow sink backpressures ingestion
// instead of growing memory or dropping records.
type Pipeline struct {
	config   Config
	logger   zerolog.Logger
	sectors  *SectorAggregator
	ledger   *ContractorLedger
	detector *SpikeDetector
	sink     sink.Sink
	breaker  *resilience.Breaker

	intake   chan []byte
	publishQ chan publishItem
	stopping chan struct{}
	runCtx   context.Context

	mu       sync.Mutex
	started  bool
	stopOnce sync.Once
	wg       sync.WaitGroup

	metricsMu sync.RWMutex
	metrics   Metrics
}

// New creates a pipeline publishing to snk. The configuration is validated
// eagerly; an invalid configuration prevents the engine from starting.
func New(cfg Config, snk sink.Sink, logger zerolog.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if snk == nil {
		snk = sink.NoopSink{}
	}

	return &Pipeline{
		config:   cfg,
		logger:   logger,
		sectors:  NewSectorAggregator(),
		ledger:   NewContractorLedger(cfg.ContractorCeiling),
		detector: NewSpikeDetector(cfg.SpikeMultiplier, cfg.SpikeBaseline),
		sink:     snk,
		breaker:  resilience.NewBreaker("sink", cfg.Breaker),
		intake:   make(chan []byte, cfg.IntakeBufferSize),
		publishQ: make(chan publishItem, cfg.PublishBufferSize),
		stopping: make(chan struct{}),
	}, nil
}

// Start launches the ingest and publish workers. Cancelling ctx initiates
// the same graceful drain as Stop.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return nil
	}
	p.started = true
	p.runCtx = ctx
	p.mu.Unlock()

	p.wg.Add(2)
	go p.ingestLoop()
	go p.publishLoop()

	go func() {
		<-ctx.Done()
		p.initiateStop()
	}()

	return nil
}

// Submit hands one raw JSONL-encoded event record to the pipeline. It
// blocks when the intake buffer is full (backpressure to the source) and
// returns ErrPipelineStopped once shutdown has begun.
func (p *Pipeline) Submit(line []byte) error {
	// Copy: callers (file tails, scanners) reuse their buffers.
	buf := make([]byte, len(line))
	copy(buf, line)

	select {
	case <-p.stopping:
		return apperrors.ErrPipelineStopped
	default:
	}

	select {
	case p.intake <- buf:
		return nil
	case <-p.stopping:
		return apperrors.ErrPipelineStopped
	}
}

// Stop gracefully shuts the pipeline down: stop accepting events, drain
// buffered intake, flush the publish queue, then close the sink.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	if !started {
		return
	}

	p.initiateStop()
	p.wg.Wait()

	if err := p.sink.Close(); err != nil {
		p.logger.Error().Err(err).Msg("Closing sink")
	}
}

func (p *Pipeline) initiateStop() {
	p.stopOnce.Do(func() {
		close(p.stopping)
	})
}

// ingestLoop is the serializing worker: parse, validate, aggregate, detect,
// compose, enqueue for publishing.
func (p *Pipeline) ingestLoop() {
	defer p.wg.Done()
	defer close(p.publishQ)

	for {
		select {
		case line := <-p.intake:
			p.ingestLine(line)
		case <-p.stopping:
			// Drain whatever was buffered before shutdown began.
			for {
				select {
				case line := <-p.intake:
					p.ingestLine(line)
				default:
					return
				}
			}
		}
	}
}

func (p *Pipeline) ingestLine(line []byte) {
	p.count(func(m *Metrics) { m.EventsReceived++ })

	ev, err := models.ParseBudgetEvent(line)
	if err != nil {
		p.count(func(m *Metrics) { m.EventsRejected++ })
		logging.LogRejected(p.logger, err)
		return
	}

	res := p.process(ev)
	p.enqueue(res)
}

// Process runs one already-decoded event through the pipeline synchronously
// and returns the result without publishing it. Malformed events are
// rejected with no aggregate updated. Intended for embedders and tests;
// the streaming path goes through Submit.
func (p *Pipeline) Process(ev *models.BudgetEvent) (Result, error) {
	if err := ev.Validate(); err != nil {
		return Result{}, err
	}
	return p.process(ev), nil
}

// process applies the fixed per-event order: sector ingest, spike detection
// against the configured baseline snapshot, ledger ingest, reason
// composition.
func (p *Pipeline) process(ev *models.BudgetEvent) Result {
	before, after := p.sectors.Ingest(ev)
	trigger := p.detector.Detect(ev, before, after)
	contractor, crossed := p.ledger.Ingest(ev)

	res := Result{
		Event:        ev,
		SectorBefore: before,
		SectorAfter:  after,
		Contractor:   contractor,
	}

	now := time.Now().UTC()

	if trigger != nil {
		alert := models.AlertRecord{
			SourceEventID: ev.EventID,
			Kind:          models.AlertKindSpike,
			Reason:        SpikeReason(ev, trigger, p.detector.Multiplier()),
			State:         ev.State,
			Sector:        ev.Sector,
			Contractor:    ev.Contractor,
			Amount:        ev.Amount,
			SectorMean:    trigger.Baseline.MeanAmount,
			SpikeRatio:    trigger.Ratio,
			EmittedAt:     now,
		}
		res.Alerts = append(res.Alerts, alert)
		p.count(func(m *Metrics) { m.SpikeAlerts++ })
		logging.LogSpike(p.logger, &alert)
	}

	if crossed {
		alert := models.AlertRecord{
			SourceEventID:    ev.EventID,
			Kind:             models.AlertKindCumulativeThreshold,
			Reason:           ThresholdReason(ev, contractor, p.ledger.Ceiling()),
			State:            ev.State,
			Sector:           ev.Sector,
			Contractor:       ev.Contractor,
			Amount:           ev.Amount,
			CumulativeAmount: contractor.CumulativeAmount,
			Ceiling:          p.ledger.Ceiling(),
			EmittedAt:        now,
		}
		res.Alerts = append(res.Alerts, alert)
		p.count(func(m *Metrics) { m.ThresholdAlerts++ })
		logging.LogThresholdCross(p.logger, &alert)
	}

	p.count(func(m *Metrics) { m.EventsProcessed++ })
	return res
}

// enqueue pushes the result's output records onto the publish queue.
// Blocking here is the backpressure point when the sink lags.
func (p *Pipeline) enqueue(res Result) {
	sector := res.SectorAfter
	contractor := res.Contractor

	p.publishQ <- publishItem{sector: &sector}
	p.publishQ <- publishItem{contractor: &contractor}
	for i := range res.Alerts {
		alert := res.Alerts[i]
		p.publishQ <- publishItem{alert: &alert}
	}
}

// publishLoop drains the publish queue into the sink. Each record is
// retried with bounded backoff behind the circuit breaker; a record that
// still cannot be delivered is held and retried after
// PublishRetryInterval. Nothing is ever dropped while the run context is
// alive.
func (p *Pipeline) publishLoop() {
	defer p.wg.Done()

	for item := range p.publishQ {
		p.publishWithRetry(item)
	}
}

func (p *Pipeline) publishWithRetry(item publishItem) {
	ctx := p.runCtx
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		err := p.breaker.Execute(ctx, func() error {
			return utils.RetryNotify(ctx, p.config.PublishRetry,
				func() error { return p.publishOnce(ctx, item) },
				func(attempt int, err error) {
					p.count(func(m *Metrics) { m.PublishRetries++ })
					p.logger.Warn().Err(err).Int("attempt", attempt).Msg("Publish retry")
				})
		})
		if err == nil {
			p.count(func(m *Metrics) { m.RecordsPublished++ })
			return
		}

		// Held back, not dropped. During shutdown one more bounded round
		// runs with a background context so drained records still get a
		// delivery attempt.
		if ctx.Err() != nil {
			final := utils.Retry(context.Background(), p.config.PublishRetry,
				func() error { return p.publishOnce(context.Background(), item) })
			if final == nil {
				p.count(func(m *Metrics) { m.RecordsPublished++ })
			} else {
				p.logger.Error().Err(final).Msg("Record undeliverable at shutdown")
			}
			return
		}

		p.logger.Warn().
			Err(err).
			Str("breaker", string(p.breaker.State())).
			Dur("retry_in", p.config.PublishRetryInterval).
			Msg("Sink unavailable, holding record")

		select {
		case <-time.After(p.config.PublishRetryInterval):
		case <-ctx.Done():
		}
	}
}

func (p *Pipeline) publishOnce(ctx context.Context, item publishItem) error {
	switch {
	case item.sector != nil:
		return p.sink.PublishSectorSnapshot(ctx, *item.sector)
	case item.contractor != nil:
		return p.sink.PublishContractorSnapshot(ctx, *item.contractor)
	case item.alert != nil:
		return p.sink.PublishAlert(ctx, *item.alert)
	default:
		return nil
	}
}

func (p *Pipeline) count(fn func(*Metrics)) {
	p.metricsMu.Lock()
	fn(&p.metrics)
	p.metricsMu.Unlock()
}

// Metrics returns a copy of the pipeline counters.
func (p *Pipeline) Metrics() Metrics {
	p.metricsMu.RLock()
	defer p.metricsMu.RUnlock()
	return p.metrics
}

// SectorSnapshots returns the current state of every sector aggregate.
func (p *Pipeline) SectorSnapshots() []models.SectorSnapshot {
	return p.sectors.Snapshots()
}

// ContractorSnapshots returns the current state of every contractor
// aggregate.
func (p *Pipeline) ContractorSnapshots() []models.ContractorSnapshot {
	return p.ledger.Snapshots()
}
