// Copyright © 2026 The tangolint authors

// Package pipeline keeps analyzer diagnostics in sync with open documents.
//
// A Pipeline receives document events (open, save, change, close, manual
// runs), decides whether and when to run the analyzer, and hands each
// completed run's diagnostics and status to a Publisher. Runs execute on
// their own goroutines; change events are debounced per document.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/davejwalsh/tangolint/analyzer"
	"github.com/davejwalsh/tangolint/config"
	"github.com/davejwalsh/tangolint/report"
	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

// DefaultDebounce is the quiescence window applied to change events.
const DefaultDebounce = 600 * time.Millisecond

// Analyzer produces the diagnostics of one file.
type Analyzer interface {
	Analyze(ctx context.Context, path string, s config.Settings) ([]report.Diagnostic, error)
}

// Publisher receives pipeline output. Calls are serialized and arrive in
// the order results were applied. A Publisher must not call back into the
// Pipeline.
type Publisher interface {
	PublishDiagnostics(uri string, diags []report.Diagnostic)
	PublishStatus(uri string, st Status)
}

// Pipeline is the diagnostic synchronization context. The zero value is
// not usable; call New.
type Pipeline struct {
	analyzer Analyzer
	pub      Publisher
	log      commonlog.Logger
	metrics  *Metrics
	debounce time.Duration
	store    *Store

	// pubMu is acquired before mu is released so publications keep the
	// order in which results were applied.
	pubMu sync.Mutex

	mu       sync.Mutex
	settings config.Settings
	started  bool
	stopped  bool
	docs     map[string]Document
	timers   map[string]*time.Timer
	status   map[string]Status
	seq      uint64
	applied  map[string]uint64
	ctx      context.Context
	wg       sync.WaitGroup
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDebounce sets the change quiescence window.
func WithDebounce(d time.Duration) Option {
	return func(p *Pipeline) { p.debounce = d }
}

// WithLogger sets the logger.
func WithLogger(log commonlog.Logger) Option {
	return func(p *Pipeline) { p.log = log }
}

// WithMetrics records runs in m.
func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithContext sets the context analyzer runs are started with.
func WithContext(ctx context.Context) Option {
	return func(p *Pipeline) { p.ctx = ctx }
}

// WithSettings sets the initial settings.
func WithSettings(s config.Settings) Option {
	return func(p *Pipeline) { p.settings = s.Clone() }
}

// New creates a pipeline that runs a and reports to pub.
func New(a Analyzer, pub Publisher, opts ...Option) *Pipeline {
	p := &Pipeline{
		analyzer: a,
		pub:      pub,
		log:      commonlog.GetLogger("tangolint.pipeline"),
		debounce: DefaultDebounce,
		store:    NewStore(),
		settings: config.Default(),
		docs:     make(map[string]Document),
		timers:   make(map[string]*time.Timer),
		status:   make(map[string]Status),
		applied:  make(map[string]uint64),
		ctx:      context.Background(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Start activates the pipeline and replays documents that are already
// open, subject to run_on_open.
func (p *Pipeline) Start(open []Document) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()
	p.log.Info("pipeline started", "documents", len(open))
	for _, doc := range open {
		p.Trigger(doc, TriggerStartup)
	}
}

// Stop cancels pending debounce timers, drops every diagnostic set and
// clears what was published. Runs still in flight complete but their
// results are discarded. Stop is idempotent.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if !p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	for uri, t := range p.timers {
		t.Stop()
		delete(p.timers, uri)
	}
	p.docs = make(map[string]Document)
	p.status = make(map[string]Status)
	p.pubMu.Lock()
	p.mu.Unlock()
	defer p.pubMu.Unlock()

	p.metrics.setPending(0)
	p.metrics.setTotals(0, 0, 0)
	for _, uri := range p.store.Clear() {
		p.pub.PublishDiagnostics(uri, nil)
	}
	p.log.Info("pipeline stopped")
}

// Wait blocks until every dispatched run has completed.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// Settings returns the current settings.
func (p *Pipeline) Settings() config.Settings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settings.Clone()
}

// SetSettings replaces the settings used by subsequent runs.
func (p *Pipeline) SetSettings(s config.Settings) {
	p.mu.Lock()
	p.settings = s.Clone()
	p.mu.Unlock()
}

// Documents returns the tracked documents sorted by URI.
func (p *Pipeline) Documents() []Document {
	p.mu.Lock()
	docs := make([]Document, 0, len(p.docs))
	for _, d := range p.docs {
		docs = append(docs, d)
	}
	p.mu.Unlock()
	sort.Slice(docs, func(i, j int) bool { return docs[i].URI < docs[j].URI })
	return docs
}

// Replay re-runs every tracked document as a startup trigger, typically
// after the configuration changed.
func (p *Pipeline) Replay() {
	for _, doc := range p.Documents() {
		p.Trigger(doc, TriggerStartup)
	}
}

// Diagnostics returns the current diagnostics of uri.
func (p *Pipeline) Diagnostics(uri string) []report.Diagnostic {
	diags, _ := p.store.Get(uri)
	return diags
}

// Status returns the status of uri. Untracked documents are idle.
func (p *Pipeline) Status(uri string) Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status[uri]
}

// Trigger handles a document event. Ineligible documents and triggers
// disabled by configuration are ignored.
func (p *Pipeline) Trigger(doc Document, t Trigger) {
	if !Eligible(doc) {
		return
	}
	p.mu.Lock()
	if !p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.docs[doc.URI] = doc
	if !t.Enabled(p.settings) {
		p.mu.Unlock()
		return
	}
	switch t {
	case TriggerChange:
		p.scheduleLocked(doc)
		p.mu.Unlock()
		return
	case TriggerSave:
		// The save run supersedes a pending change run.
		p.cancelTimerLocked(doc.URI)
	}
	p.dispatchLocked(doc, t)
}

// Close stops tracking uri: a pending change run is cancelled without
// firing, runs in flight are discarded and its diagnostics are cleared.
func (p *Pipeline) Close(uri string) {
	p.mu.Lock()
	if !p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.cancelTimerLocked(uri)
	_, tracked := p.docs[uri]
	delete(p.docs, uri)
	delete(p.status, uri)
	p.applied[uri] = p.seq
	_, stored := p.store.Get(uri)
	p.store.Delete(uri)
	p.pubMu.Lock()
	p.mu.Unlock()
	defer p.pubMu.Unlock()

	if tracked || stored {
		p.pub.PublishDiagnostics(uri, nil)
		p.updateTotals()
	}
}

func (p *Pipeline) scheduleLocked(doc Document) {
	if t, ok := p.timers[doc.URI]; ok {
		t.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(p.debounce, func() {
		p.mu.Lock()
		if p.timers[doc.URI] != timer || p.stopped {
			p.mu.Unlock()
			return
		}
		delete(p.timers, doc.URI)
		p.metrics.setPending(len(p.timers))
		if _, open := p.docs[doc.URI]; !open {
			p.mu.Unlock()
			return
		}
		p.dispatchLocked(doc, TriggerChange)
	})
	p.timers[doc.URI] = timer
	p.metrics.setPending(len(p.timers))
}

func (p *Pipeline) cancelTimerLocked(uri string) {
	if t, ok := p.timers[uri]; ok {
		t.Stop()
		delete(p.timers, uri)
		p.metrics.setPending(len(p.timers))
	}
}

// dispatchLocked starts a run for doc and releases p.mu.
func (p *Pipeline) dispatchLocked(doc Document, t Trigger) {
	p.seq++
	r := run{
		id:       uuid.NewString(),
		seq:      p.seq,
		doc:      doc,
		trigger:  t,
		settings: p.settings.Clone(),
	}
	running := Status{State: StateRunning}
	p.status[doc.URI] = running
	p.wg.Add(1)
	ctx := p.ctx
	p.pubMu.Lock()
	p.mu.Unlock()
	p.pub.PublishStatus(doc.URI, running)
	p.pubMu.Unlock()

	go p.execute(ctx, r)
}

type run struct {
	id       string
	seq      uint64
	doc      Document
	trigger  Trigger
	settings config.Settings
}

func (p *Pipeline) execute(ctx context.Context, r run) {
	defer p.wg.Done()
	log := commonlog.NewKeyValueLogger(p.log, "run", r.id, "uri", r.doc.URI, "trigger", r.trigger.String())
	defer func() {
		if rec := recover(); rec != nil {
			log.Errorf("analyzer run panicked: %v", rec)
			p.complete(log, r, nil, fmt.Errorf("analyzer run panicked: %v", rec), 0)
		}
	}()

	path, _ := URIToPath(r.doc.URI)
	log.Debug("analyzer run started")
	start := time.Now()
	diags, err := p.analyzer.Analyze(ctx, path, r.settings)
	p.complete(log, r, diags, err, time.Since(start))
}

func (p *Pipeline) complete(log commonlog.Logger, r run, diags []report.Diagnostic, err error, elapsed time.Duration) {
	uri := r.doc.URI
	p.mu.Lock()
	if _, open := p.docs[uri]; p.stopped || !open || r.seq <= p.applied[uri] {
		p.mu.Unlock()
		log.Debug("discarding stale analyzer result", "seq", r.seq)
		p.metrics.observeRun(r.trigger, outcomeStale, elapsed)
		return
	}
	p.applied[uri] = r.seq

	var (
		st      Status
		outcome string
		publish bool
		drop    bool
	)
	switch {
	case errors.Is(err, analyzer.ErrUnresolved):
		st, outcome, drop = Status{State: StateIdle}, outcomeUnresolved, true
		p.store.Delete(uri)
		log.Debug("no analyzer entry-point; clearing diagnostics")
	case err != nil:
		st, outcome = Failed(err), outcomeFailed
		log.Warningf("analyzer run failed: %v", err)
	default:
		st, publish = Summarize(diags), true
		outcome = outcomeClean
		if len(diags) > 0 {
			outcome = outcomeIssues
		}
		p.store.Set(uri, diags)
		log.Debug("analyzer run completed", "diagnostics", len(diags), "elapsed", elapsed.String())
	}
	p.status[uri] = st
	p.pubMu.Lock()
	p.mu.Unlock()
	defer p.pubMu.Unlock()

	p.metrics.observeRun(r.trigger, outcome, elapsed)
	switch {
	case publish:
		p.pub.PublishDiagnostics(uri, diags)
	case drop:
		p.pub.PublishDiagnostics(uri, nil)
	}
	p.pub.PublishStatus(uri, st)
	p.updateTotals()
}

func (p *Pipeline) updateTotals() {
	if p.metrics == nil {
		return
	}
	var e, w, i int
	for _, uri := range p.store.URIs() {
		diags, _ := p.store.Get(uri)
		de, dw, di := report.Counts(diags)
		e, w, i = e+de, w+dw, i+di
	}
	p.metrics.setTotals(e, w, i)
}
