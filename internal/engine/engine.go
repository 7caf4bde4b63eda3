// SPDX-License-Identifier: MIT
/*
Package engine turns audio into LED frames on a fixed tick.

Each tick loads one settings snapshot, analyses the newest sample window,
selects the bands whose height jumped, averages them into a frame colour,
blends that colour with the recent history and hands the encoded frame to
the sink without waiting for it.

Thread Safety:
- At most one tick runs at a time; a tick that finds another in flight is
  dropped and counted as skipped
- Tick-owned buffers are only touched by the goroutine holding the ticking
  flag
- History, Last and Stats may be read from any goroutine
*/
package engine

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"moodlight/internal/audio"
	"moodlight/internal/average"
	"moodlight/internal/bands"
	"moodlight/internal/color"
	"moodlight/internal/config"
	"moodlight/internal/frame"
	"moodlight/internal/log"
	"moodlight/internal/peak"
	"moodlight/internal/spectrum"
	"moodlight/internal/transport"
)

// State is the scheduler state.
type State int32

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

var (
	ErrRunning    = errors.New("engine already running")
	ErrNotRunning = errors.New("engine not running")
)

// Options wires the engine to its collaborators. Source, Sink and Settings
// are required.
type Options struct {
	Source    audio.Source
	Sink      transport.Sink
	Settings  *config.Store
	Observers []transport.Observer
	Clock     Clock // SystemClock when nil
}

// Result is one committed tick. Its slices are owned by the result.
type Result struct {
	Sequence uint64
	Time     time.Time
	Mode     frame.Mode
	Silent   bool
	Frame    color.HSL // colour of this tick alone
	Blended  color.HSL // colour sent to the sink
	Peaks    []int     // indices of the selected bands
	Heights  []float64
	Bytes    []byte // encoded frame
}

// Snapshot converts the result for observers, with colours in scale.
func (r *Result) Snapshot(scale color.Scale) transport.Snapshot {
	return transport.Snapshot{
		Sequence: r.Sequence,
		Time:     r.Time,
		Mode:     r.Mode.String(),
		Silent:   r.Silent,
		Frame:    transport.ColorOf(r.Frame, scale),
		Blended:  transport.ColorOf(r.Blended, scale),
		Peaks:    r.Peaks,
		Heights:  r.Heights,
	}
}

// Stats are cumulative tick counters.
type Stats struct {
	Ticks       uint64 // ticks that ran
	Skipped     uint64 // ticks dropped because one was in flight
	Failed      uint64 // ticks abandoned after a panic or internal error
	Silent      uint64 // ticks whose spectrum was silent
	Unavailable uint64 // ticks skipped because the source had no samples
	Sent        uint64 // frames delivered by the sink
	Dropped     uint64 // frames dropped because the sink was busy
}

type Engine struct {
	src       audio.Source
	sink      *transport.AsyncSink
	store     *config.Store
	observers []transport.Observer
	clock     Clock
	log       *log.Logger

	// Scheduler.
	mu       sync.Mutex
	state    atomic.Int32
	stop     chan struct{}
	done     chan struct{}
	inFlight sync.WaitGroup

	// Tick-owned workspace.
	ticking    atomic.Bool
	analyzer   *spectrum.Analyzer
	samples    []float32
	aggregator bands.Aggregator
	detector   peak.Detector
	averager   average.Averager
	heights    []float64
	levels     []float64
	rising     []int
	selected   []color.HSL
	blend      []color.HSL
	frameBuf   []byte

	history       *History
	effectVersion atomic.Uint64 // settings version of the last effect frame sent
	last          atomic.Pointer[Result]
	sequence      uint64

	ticks       atomic.Uint64
	skipped     atomic.Uint64
	failed      atomic.Uint64
	silent      atomic.Uint64
	unavailable atomic.Uint64
}

// New builds an idle engine. The sink is wrapped so sends never block a
// tick.
func New(opts Options) (*Engine, error) {
	if opts.Source == nil {
		return nil, errors.New("engine: audio source cannot be nil")
	}
	if opts.Sink == nil {
		return nil, errors.New("engine: sink cannot be nil")
	}
	if opts.Settings == nil {
		return nil, errors.New("engine: settings store cannot be nil")
	}

	sink, ok := opts.Sink.(*transport.AsyncSink)
	if !ok {
		sink = transport.NewAsyncSink(opts.Sink)
	}
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock
	}

	s := opts.Settings.Load()
	return &Engine{
		src:       opts.Source,
		sink:      sink,
		store:     opts.Settings,
		observers: opts.Observers,
		clock:     clock,
		log:       log.New("engine"),
		history:   NewHistory(s.BlendedFrames + 1),
	}, nil
}

// State returns the scheduler state.
func (e *Engine) State() State { return State(e.state.Load()) }

// Start begins ticking at the configured interval.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.CompareAndSwap(int32(Idle), int32(Running)) {
		return ErrRunning
	}
	e.stop = make(chan struct{})
	e.done = make(chan struct{})

	interval := e.store.Load().TickInterval
	ticker := e.clock.NewTicker(interval)
	go e.run(ticker, interval)

	e.log.Infof("started, ticking every %s", interval)
	return nil
}

// Stop halts the scheduler and waits for an in-flight tick to finish.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.CompareAndSwap(int32(Running), int32(Idle)) {
		return ErrNotRunning
	}
	close(e.stop)
	<-e.done
	e.inFlight.Wait()

	e.log.Infof("stopped")
	return nil
}

// run dispatches one tick per timer fire on its own goroutine, so a slow
// tick shows up as skipped fires rather than a late timer. A changed tick
// interval takes effect on the next fire.
func (e *Engine) run(ticker Ticker, interval time.Duration) {
	defer close(e.done)
	defer func() { ticker.Stop() }()

	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C():
			e.inFlight.Add(1)
			go func() {
				defer e.inFlight.Done()
				e.Tick()
			}()

			if next := e.store.Load().TickInterval; next != interval {
				ticker.Stop()
				ticker = e.clock.NewTicker(next)
				e.log.Debugf("tick interval changed from %s to %s", interval, next)
				interval = next
			}
		}
	}
}

// Tick runs one pass of the pipeline. It returns false when another tick
// was in flight and this one was dropped.
func (e *Engine) Tick() bool {
	if !e.ticking.CompareAndSwap(false, true) {
		e.skipped.Add(1)
		return false
	}
	defer e.ticking.Store(false)

	e.ticks.Add(1)
	if err := e.safeTick(); err != nil {
		e.failed.Add(1)
		e.log.Errorf("tick abandoned: %v", err)
	}
	return true
}

// safeTick converts a panic anywhere in the pass into an error. Nothing is
// committed before the pass completes, so an abandoned tick leaves no
// trace.
func (e *Engine) safeTick() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return e.tick(e.store.Load())
}

func (e *Engine) tick(s *config.Settings) error {
	enc := frame.Encoder{Framing: s.Framing, Model: s.ColorModel}

	if !s.Mode.AudioDriven() {
		return e.tickEffect(s, enc)
	}
	e.effectVersion.Store(0)

	if !e.src.Available() {
		e.unavailable.Add(1)
		return nil
	}
	rate := e.src.SampleRate()
	if !(rate > 0) {
		e.unavailable.Add(1)
		return nil
	}

	if err := e.ensureAnalyzer(s); err != nil {
		return err
	}
	if err := e.src.SampleBuffer(e.samples); err != nil {
		e.unavailable.Add(1)
		e.log.Debugf("no samples: %v", err)
		return nil
	}

	spec := e.analyzer.Process(e.samples)
	res := e.aggregator.Aggregate(spec, bands.Params{
		Count:     s.BandCount,
		Lo:        spectrum.FrequencyToBin(s.MinimumFrequency, s.FFTSize, rate),
		Hi:        spectrum.FrequencyToBin(s.MaximumFrequency, s.FFTSize, rate),
		Scale:     s.BandScale,
		Gain:      s.ScaleFactor,
		Loudness:  s.LoudnessCurve,
		Normalize: s.NormalizeHeights,
	})
	e.heights = bands.Heights(e.heights, res.Bands)

	frameColor := color.Off
	e.rising = e.rising[:0]
	if !res.Silent {
		frameColor = e.frameColor(s, res.Bands)
	}

	capacity := s.BlendedFrames + 1
	blended := color.Off
	if !res.Silent {
		e.blend = e.history.AppendTo(e.blend[:0])
		e.blend = append(e.blend, frameColor)
		if over := len(e.blend) - capacity; over > 0 {
			e.blend = e.blend[over:]
		}
		blended = e.averager.Average(e.blend,
			average.HistoryOptions(s.HueMode, s.LuminosityMode, s.BlendedFrames))
	}

	secondary := s.Secondary
	if enc.Framing == frame.Dual {
		secondary = frameColor
	}
	e.frameBuf = enc.Encode(e.frameBuf, enc.Frame(s.Mode, blended, secondary, s.Speed))

	// Commit.
	e.history.SetCapacity(capacity)
	e.history.Push(frameColor)
	if res.Silent {
		e.silent.Add(1)
	}
	r := e.commit(s.Mode, res.Silent, frameColor, blended)
	e.sink.TrySend(e.frameBuf)
	e.publish(r, s.ColorScale)
	return nil
}

// frameColor averages the bands selected for this tick: the apex of each
// rising run, or every band when peak detection is off.
func (e *Engine) frameColor(s *config.Settings, bs []bands.Band) color.HSL {
	count := len(bs)
	if s.PeakDetection {
		signals := e.detector.Detect(e.heights, s.Peak)
		e.levels = bands.Levels(e.levels, bs)
		e.rising = peak.RisingPeaks(e.rising, signals, e.levels)
	} else {
		for i := range bs {
			e.rising = append(e.rising, i)
		}
	}

	e.selected = e.selected[:0]
	for _, i := range e.rising {
		if i >= 0 && i < count {
			e.selected = append(e.selected, bs[i].Color(count))
		}
	}
	return e.averager.Average(e.selected, average.FrameOptions(s.HueMode, s.LuminosityMode))
}

// tickEffect handles modes the controller renders itself: the history is
// cleared and the effect frame is sent once per settings version.
func (e *Engine) tickEffect(s *config.Settings, enc frame.Encoder) error {
	e.history.Reset()
	if e.effectVersion.Load() == s.Version {
		return nil
	}

	primary := s.Primary
	if s.Mode == frame.Off {
		primary = color.Off
	}
	e.frameBuf = enc.Encode(e.frameBuf, enc.Frame(s.Mode, primary, s.Secondary, s.Speed))
	if !e.sink.TrySend(e.frameBuf) {
		return nil // retried next tick
	}
	e.effectVersion.Store(s.Version)
	e.publish(e.commit(s.Mode, false, primary, primary), s.ColorScale)
	return nil
}

// commit publishes a result owning copies of the tick's buffers.
func (e *Engine) commit(mode frame.Mode, silent bool, frameColor, blended color.HSL) *Result {
	e.sequence++
	r := &Result{
		Sequence: e.sequence,
		Time:     e.clock.Now(),
		Mode:     mode,
		Silent:   silent,
		Frame:    frameColor,
		Blended:  blended,
		Bytes:    append([]byte(nil), e.frameBuf...),
	}
	if mode.AudioDriven() {
		r.Peaks = append([]int(nil), e.rising...)
		r.Heights = append([]float64(nil), e.heights...)
	}
	e.last.Store(r)
	return r
}

func (e *Engine) publish(r *Result, scale color.Scale) {
	if len(e.observers) == 0 {
		return
	}
	snap := r.Snapshot(scale)
	for _, o := range e.observers {
		if err := o.Publish(snap); err != nil {
			e.log.Debugf("observer: %v", err)
		}
	}
}

// ensureAnalyzer rebuilds the analyzer when the FFT size or window changed.
func (e *Engine) ensureAnalyzer(s *config.Settings) error {
	if e.analyzer != nil && e.analyzer.Size() == s.FFTSize && e.analyzer.Window() == s.Window {
		return nil
	}
	a, err := spectrum.NewAnalyzer(s.FFTSize, s.Window)
	if err != nil {
		return err
	}
	e.analyzer = a
	if cap(e.samples) < s.FFTSize {
		e.samples = make([]float32, s.FFTSize)
	}
	e.samples = e.samples[:s.FFTSize]
	e.log.Debugf("analyzer rebuilt: size %d, window %s", s.FFTSize, s.Window)
	return nil
}

// Last returns the most recent committed tick, or nil before the first.
func (e *Engine) Last() *Result { return e.last.Load() }

// History returns the blend history.
func (e *Engine) History() *History { return e.history }

// Settings returns the store the engine reads every tick.
func (e *Engine) Settings() *config.Store { return e.store }

// Stats returns the tick and sink counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Ticks:       e.ticks.Load(),
		Skipped:     e.skipped.Load(),
		Failed:      e.failed.Load(),
		Silent:      e.silent.Load(),
		Unavailable: e.unavailable.Load(),
		Sent:        e.sink.Sent(),
		Dropped:     e.sink.Dropped(),
	}
}

// Reset clears the history and forgets the last effect frame, so the next
// tick starts from scratch.
func (e *Engine) Reset() {
	e.history.Reset()
	e.effectVersion.Store(0)
	e.last.Store(nil)
}

// Close stops the scheduler if running, waits for the last send and closes
// the sink and observers.
func (e *Engine) Close() error {
	var errs []error
	if e.State() == Running {
		errs = append(errs, e.Stop())
	}
	errs = append(errs, e.sink.Close())
	for _, o := range e.observers {
		errs = append(errs, o.Close())
	}
	return errors.Join(errs...)
}
