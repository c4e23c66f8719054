package interview

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"nia-mentor/internal/gateway"
	"nia-mentor/internal/metrics"
	"nia-mentor/internal/speech"
)

type fakeGateway struct {
	mu        sync.Mutex
	generate  func(ctx context.Context, req gateway.QuestionRequest) (*gateway.QuestionSet, error)
	evaluate  func(ctx context.Context, req gateway.EvaluationRequest) (*gateway.Evaluation, error)
	requests  []gateway.QuestionRequest
	submitted []gateway.EvaluationRequest
}

func (g *fakeGateway) GenerateQuestions(ctx context.Context, req gateway.QuestionRequest) (*gateway.QuestionSet, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	fn := g.generate
	g.mu.Unlock()
	return fn(ctx, req)
}

func (g *fakeGateway) EvaluateInterview(ctx context.Context, req gateway.EvaluationRequest) (*gateway.Evaluation, error) {
	g.mu.Lock()
	g.submitted = append(g.submitted, req)
	fn := g.evaluate
	g.mu.Unlock()
	if fn == nil {
		return &gateway.Evaluation{Grade: "A", Percentage: 90}, nil
	}
	return fn(ctx, req)
}

func (g *fakeGateway) setEvaluate(fn func(ctx context.Context, req gateway.EvaluationRequest) (*gateway.Evaluation, error)) {
	g.mu.Lock()
	g.evaluate = fn
	g.mu.Unlock()
}

func (g *fakeGateway) submissions() []gateway.EvaluationRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]gateway.EvaluationRequest(nil), g.submitted...)
}

func questionsOf(texts ...string) func(context.Context, gateway.QuestionRequest) (*gateway.QuestionSet, error) {
	return func(context.Context, gateway.QuestionRequest) (*gateway.QuestionSet, error) {
		set := &gateway.QuestionSet{SessionID: "sess-1"}
		for i, text := range texts {
			set.Questions = append(set.Questions, gateway.Question{ID: "q" + string(rune('1'+i)), Text: text})
		}
		return set, nil
	}
}

type fakeRecognizer struct {
	mu         sync.Mutex
	supported  bool
	autoAck    bool
	handler    *speech.RecognitionHandler
	starts     int
	stops      int
	startErr   error
	slotsTotal int
}

func (f *fakeRecognizer) IsSupported() bool { return f.supported }

func (f *fakeRecognizer) SetHandler(h *speech.RecognitionHandler) {
	f.mu.Lock()
	f.handler = h
	f.mu.Unlock()
}

func (f *fakeRecognizer) Start() error {
	f.mu.Lock()
	if f.startErr != nil {
		f.mu.Unlock()
		return f.startErr
	}
	f.starts++
	f.slotsTotal = 0
	h := f.handler
	ack := f.autoAck
	f.mu.Unlock()
	if ack && h != nil && h.OnStart != nil {
		h.OnStart()
	}
	return nil
}

func (f *fakeRecognizer) Stop() error {
	f.mu.Lock()
	f.stops++
	f.mu.Unlock()
	return nil
}

func (f *fakeRecognizer) current() *speech.RecognitionHandler {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handler
}

func (f *fakeRecognizer) counts() (starts, stops int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts, f.stops
}

func (f *fakeRecognizer) ack() {
	if h := f.current(); h != nil && h.OnStart != nil {
		h.OnStart()
	}
}

func (f *fakeRecognizer) emit(ev speech.RecognitionEvent) {
	if h := f.current(); h != nil && h.OnResult != nil {
		h.OnResult(ev)
	}
}

// finals отправляет фрагменты как новые финальные слоты текущего захвата
func (f *fakeRecognizer) finals(texts ...string) {
	f.mu.Lock()
	start := f.slotsTotal
	results := make([]speech.Fragment, start, start+len(texts))
	for i := range results {
		results[i] = speech.Fragment{Text: "earlier", Final: true}
	}
	for _, text := range texts {
		results = append(results, speech.Fragment{Text: text, Final: true})
	}
	f.slotsTotal += len(texts)
	f.mu.Unlock()
	f.emit(speech.RecognitionEvent{ResultIndex: start, Results: results})
}

func (f *fakeRecognizer) fail(code speech.ErrorCode) {
	if h := f.current(); h != nil && h.OnError != nil {
		h.OnError(code)
	}
}

func (f *fakeRecognizer) end() {
	if h := f.current(); h != nil && h.OnEnd != nil {
		h.OnEnd()
	}
}

type fakeSynth struct {
	mu        sync.Mutex
	spoken    []string
	cancels   int
	cancelErr error
	last      speech.SynthesisHandler
}

func (f *fakeSynth) IsSupported() bool { return true }

func (f *fakeSynth) Speak(text string, h speech.SynthesisHandler) error {
	f.mu.Lock()
	f.spoken = append(f.spoken, text)
	f.last = h
	f.mu.Unlock()
	if h.OnStart != nil {
		h.OnStart()
	}
	return nil
}

func (f *fakeSynth) Cancel() error {
	f.mu.Lock()
	f.cancels++
	err := f.cancelErr
	f.mu.Unlock()
	return err
}

func (f *fakeSynth) finish() {
	f.mu.Lock()
	h := f.last
	f.mu.Unlock()
	if h.OnEnd != nil {
		h.OnEnd()
	}
}

func (f *fakeSynth) snapshot() (spoken []string, cancels int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.spoken...), f.cancels
}

type fakeStream struct {
	mu      sync.Mutex
	stopped int
}

func (s *fakeStream) Stop() error {
	s.mu.Lock()
	s.stopped++
	s.mu.Unlock()
	return nil
}

func (s *fakeStream) stops() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

type fakeMedia struct {
	mu      sync.Mutex
	openErr error
	streams []*fakeStream
	reqs    []speech.MediaRequest
}

func (f *fakeMedia) IsSupported() bool { return true }

func (f *fakeMedia) Open(_ context.Context, req speech.MediaRequest) (speech.MediaStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if f.openErr != nil {
		return nil, f.openErr
	}
	st := &fakeStream{}
	f.streams = append(f.streams, st)
	return st, nil
}

func (f *fakeMedia) opened() []*fakeStream {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakeStream(nil), f.streams...)
}

type harness struct {
	t       *testing.T
	s       *Session
	clk     *clock.Mock
	gw      *fakeGateway
	rec     *fakeRecognizer
	synth   *fakeSynth
	media   *fakeMedia
	metrics *metrics.Metrics

	mu          sync.Mutex
	notices     []Notice
	results     []Result
	countdowns  []int
	revealTexts []string
}

func newHarness(t *testing.T, configure ...func(*Options)) *harness {
	t.Helper()
	h := &harness{
		t:       t,
		clk:     clock.NewMock(),
		gw:      &fakeGateway{generate: questionsOf("First question?", "Second question?")},
		rec:     &fakeRecognizer{supported: true, autoAck: true},
		synth:   &fakeSynth{},
		media:   &fakeMedia{},
		metrics: metrics.NewMetrics(),
	}
	opts := Options{
		Gateway:       h.gw,
		Recognizer:    h.rec,
		Synthesizer:   h.synth,
		Media:         h.media,
		SecureContext: true,
		SpeechEnabled: true,
		Clock:         h.clk,
		Metrics:       h.metrics,
		Hooks: Hooks{
			OnNotice: func(n Notice) {
				h.mu.Lock()
				h.notices = append(h.notices, n)
				h.mu.Unlock()
			},
			OnEvaluation: func(r Result) {
				h.mu.Lock()
				h.results = append(h.results, r)
				h.mu.Unlock()
			},
			OnCountdown: func(sec int) {
				h.mu.Lock()
				h.countdowns = append(h.countdowns, sec)
				h.mu.Unlock()
			},
			OnReveal: func(_ int, revealed string) {
				h.mu.Lock()
				h.revealTexts = append(h.revealTexts, revealed)
				h.mu.Unlock()
			},
		},
	}
	for _, fn := range configure {
		fn(&opts)
	}
	h.s = New(opts)
	t.Cleanup(func() { _ = h.s.Close() })
	return h
}

func (h *harness) start(cfg Config) {
	h.t.Helper()
	require.NoError(h.t, h.s.Configure(cfg))
	require.NoError(h.t, h.s.Start(context.Background()))
}

func (h *harness) snap() Snapshot {
	return h.s.Snapshot()
}

func (h *harness) waitFor(cond func(Snapshot) bool, msg string) Snapshot {
	h.t.Helper()
	var last Snapshot
	require.Eventually(h.t, func() bool {
		last = h.snap()
		return cond(last)
	}, 2*time.Second, time.Millisecond, msg)
	return last
}

func (h *harness) waitPhase(p Phase) Snapshot {
	h.t.Helper()
	return h.waitFor(func(s Snapshot) bool { return s.Phase == p }, "phase "+string(p))
}

func (h *harness) noticeList() []Notice {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Notice(nil), h.notices...)
}

func (h *harness) resultList() []Result {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Result(nil), h.results...)
}

func (h *harness) countdownList() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]int(nil), h.countdowns...)
}

func (h *harness) reveals() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.revealTexts...)
}

var beginnerArrays = Config{Topic: "Arrays", Difficulty: Beginner, QuestionCount: 2}
