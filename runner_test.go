package gopals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/unkn0wn-root/gopals/codec"
	"github.com/unkn0wn-root/gopals/internal/wire"
	pr "github.com/unkn0wn-root/gopals/provider"
	"github.com/unkn0wn-root/gopals/serde"
)

type memEntry struct {
	v   []byte
	exp time.Time // zero => no TTL
}

type memProvider struct {
	mu     sync.Mutex
	m      map[string]memEntry
	setErr error
}

var _ pr.Provider = (*memProvider)(nil)

func newMemProvider() *memProvider { return &memProvider{m: make(map[string]memEntry)} }

func (p *memProvider) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.m[key]
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && time.Now().After(e.exp) {
		delete(p.m, key)
		return nil, false, nil
	}
	return e.v, true, nil
}

func (p *memProvider) Set(_ context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.setErr != nil {
		return false, p.setErr
	}
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	p.m[key] = memEntry{v: value, exp: exp}
	return true, nil
}

func (p *memProvider) Del(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.m, key)
	return nil
}

func (p *memProvider) Close(_ context.Context) error { return nil }

func (p *memProvider) keysWithPrefix(prefix string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for k := range p.m {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out
}

type recHooks struct {
	NopHooks
	mu       sync.Mutex
	passed   []string
	failed   map[string]string
	storeErr int
	dropped  map[string]string
}

func newRecHooks() *recHooks {
	return &recHooks{failed: map[string]string{}, dropped: map[string]string{}}
}

func (h *recHooks) ScenarioPassed(s string, _ time.Duration) {
	h.mu.Lock()
	h.passed = append(h.passed, s)
	h.mu.Unlock()
}

func (h *recHooks) ScenarioFailed(s, msg string) {
	h.mu.Lock()
	h.failed[s] = msg
	h.mu.Unlock()
}

func (h *recHooks) StoreError(string, error) {
	h.mu.Lock()
	h.storeErr++
	h.mu.Unlock()
}

func (h *recHooks) CorruptRecord(k, reason string) {
	h.mu.Lock()
	h.dropped[k] = reason
	h.mu.Unlock()
}

func newTestRunner(t *testing.T, mp pr.Provider, optsOpt func(*Options)) Runner {
	t.Helper()
	opts := Options{
		Namespace: "test",
		Provider:  mp,
	}
	if optsOpt != nil {
		optsOpt(&opts)
	}
	r, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = r.Close(context.Background()) })
	return r
}

func mustImpl(t *testing.T, r Runner) *runner {
	t.Helper()
	impl, ok := r.(*runner)
	if !ok {
		t.Fatalf("unexpected concrete type for Runner")
	}
	return impl
}

func scenarioNames(ss []Scenario) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = s.Name
	}
	return out
}

// ==============================
// Evaluation
// ==============================

// TestDefaultScenariosPass runs the built-in table without history.
func TestDefaultScenariosPass(t *testing.T) {
	h := newRecHooks()
	r := newTestRunner(t, nil, func(o *Options) { o.Hooks = h })

	table := DefaultScenarios()
	results, err := r.Run(context.Background(), table)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != len(table) {
		t.Fatalf("expected %d results, got %d", len(table), len(results))
	}
	for i, res := range results {
		if res.Scenario != table[i].Name {
			t.Fatalf("result %d is %q, want %q", i, res.Scenario, table[i].Name)
		}
		if !res.OK() {
			t.Fatalf("scenario %q failed: %s", res.Scenario, res.Message)
		}
		if res.Run != 0 {
			t.Fatalf("run number must stay 0 without history, got %d", res.Run)
		}
		if res.String() != "OK" {
			t.Fatalf("String: %q", res.String())
		}
	}
	if len(h.passed) != len(table) || len(h.failed) != 0 {
		t.Fatalf("hooks: passed=%v failed=%v", h.passed, h.failed)
	}
	if r.HistoryEnabled() {
		t.Fatalf("history must be disabled without a provider")
	}
}

// TestFailureMessages checks the text of each kind of failure.
func TestFailureMessages(t *testing.T) {
	table := []Scenario{
		{Name: "wrong-output", Op: OpHexToBase64, Inputs: []string{"4d616e"}, Want: "TWFz"},
		{Name: "unexpected-error", Op: OpHexDecode, Inputs: []string{"0g"}, Want: "00"},
		{Name: "wrong-error-kind", Op: OpHexDecode, Inputs: []string{"gg"}, WantErr: codec.KindInvalidCharacter},
		{Name: "missing-error", Op: OpHexDecode, Inputs: []string{"00"}, WantErr: codec.KindInvalidLength},
		{Name: "base64-length", Op: OpHexToBase64, Inputs: []string{"4d61"}, Want: "TWE"},
	}
	want := map[string]string{
		"wrong-output":     "got TWFu, want TWFz",
		"unexpected-error": "invalid hex character g",
		"wrong-error-kind": "got invalid hex characters g and g, want InvalidCharacter error",
		"missing-error":    "got 00, want InvalidLength error",
		"base64-length":    "input length must be divisible by 3",
	}

	h := newRecHooks()
	r := newTestRunner(t, nil, func(o *Options) { o.Hooks = h })
	results, err := r.Run(context.Background(), table)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, res := range results {
		if res.OK() {
			t.Fatalf("scenario %q should fail", res.Scenario)
		}
		if res.Message != want[res.Scenario] {
			t.Fatalf("%s: message %q, want %q", res.Scenario, res.Message, want[res.Scenario])
		}
		if res.String() != "FAILED("+want[res.Scenario]+")" {
			t.Fatalf("%s: String %q", res.Scenario, res.String())
		}
		if h.failed[res.Scenario] != res.Message {
			t.Fatalf("%s: hook saw %q", res.Scenario, h.failed[res.Scenario])
		}
	}
}

// TestRunRejectsInvalidTable ensures a malformed table evaluates nothing.
func TestRunRejectsInvalidTable(t *testing.T) {
	h := newRecHooks()
	r := newTestRunner(t, nil, func(o *Options) { o.Hooks = h })
	ctx := context.Background()

	cases := map[string][]Scenario{
		"duplicate": {
			{Name: "a", Op: OpHexDecode, Inputs: []string{"00"}, Want: "00"},
			{Name: "a", Op: OpHexDecode, Inputs: []string{"01"}, Want: "01"},
		},
		"unnamed":   {{Op: OpHexDecode, Inputs: []string{"00"}}},
		"unknown":   {{Name: "x", Op: "rot13", Inputs: []string{"00"}}},
		"arity":     {{Name: "x", Op: OpFixedXor, Inputs: []string{"00"}}},
		"no-inputs": {{Name: "x", Op: OpDetectSingleByteXor}},
	}
	for name, table := range cases {
		if res, err := r.Run(ctx, table); err == nil || res != nil {
			t.Fatalf("%s: expected validation error, got res=%v err=%v", name, res, err)
		}
	}
	if len(h.passed) != 0 || len(h.failed) != 0 {
		t.Fatalf("nothing should have been evaluated")
	}
}

// TestWorkersKeepTableOrder fans a large table out over several workers.
func TestWorkersKeepTableOrder(t *testing.T) {
	r := newTestRunner(t, nil, func(o *Options) { o.Workers = 8 })

	var table []Scenario
	for i := 0; i < 200; i++ {
		b := fmt.Sprintf("%02x", i%256)
		table = append(table, Scenario{
			Name:   fmt.Sprintf("row-%03d", i),
			Op:     OpHexDecode,
			Inputs: []string{b},
			Want:   b,
		})
	}
	results, err := r.Run(context.Background(), table)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i, res := range results {
		if res.Scenario != table[i].Name || !res.OK() {
			t.Fatalf("row %d: got %q status=%s msg=%q", i, res.Scenario, res.Status, res.Message)
		}
	}
}

func TestRunHonorsCancelledContext(t *testing.T) {
	h := newRecHooks()
	r := newTestRunner(t, nil, func(o *Options) { o.Hooks = h; o.Workers = 2 })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := r.Run(ctx, DefaultScenarios())
	if !errors.Is(err, context.Canceled) || res != nil {
		t.Fatalf("expected context.Canceled, got res=%v err=%v", res, err)
	}
	if len(h.passed)+len(h.failed) != 0 {
		t.Fatalf("no scenario should run after cancellation")
	}
}

func TestNewRejectsNegativeWorkers(t *testing.T) {
	if _, err := New(Options{Workers: -1}); err == nil {
		t.Fatalf("expected error for negative workers")
	}
}

// ==============================
// History
// ==============================

// TestHistoryRunNumbers records two runs and reads them back.
func TestHistoryRunNumbers(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	r := newTestRunner(t, mp, nil)
	table := DefaultScenarios()

	for want := uint64(1); want <= 2; want++ {
		results, err := r.Run(ctx, table)
		if err != nil {
			t.Fatalf("Run %d: %v", want, err)
		}
		for _, res := range results {
			if res.Run != want {
				t.Fatalf("%s: run=%d, want %d", res.Scenario, res.Run, want)
			}
		}
	}

	got, ok, err := r.Last(ctx, "fixed-xor")
	if err != nil || !ok {
		t.Fatalf("Last: ok=%v err=%v", ok, err)
	}
	if got.Run != 2 || !got.OK() || got.Op != OpFixedXor {
		t.Fatalf("Last returned %+v", got)
	}

	if _, ok, err := r.Last(ctx, "never-ran"); err != nil || ok {
		t.Fatalf("Last on unknown scenario should miss, ok=%v err=%v", ok, err)
	}

	if n := len(mp.keysWithPrefix("result:test:")); n != len(table) {
		t.Fatalf("expected %d result records, got %d", len(table), n)
	}
	if n := len(mp.keysWithPrefix("run:test:")); n != 1 {
		t.Fatalf("expected one run record, got %d", n)
	}
}

// TestSummaryUsesRunRecord removes every single result so Summary must rely
// on the run record; the name order must not matter.
func TestSummaryUsesRunRecord(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	r := newTestRunner(t, mp, nil)
	impl := mustImpl(t, r)

	table := DefaultScenarios()
	if _, err := r.Run(ctx, table); err != nil {
		t.Fatalf("Run: %v", err)
	}
	names := scenarioNames(table)
	for _, n := range names {
		_ = mp.Del(ctx, impl.resultKey(n))
	}

	reversed := make([]string, len(names))
	for i, n := range names {
		reversed[len(names)-1-i] = n
	}
	got, missing, err := r.Summary(ctx, reversed)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if len(missing) != 0 || len(got) != len(names) {
		t.Fatalf("expected all present, missing=%v got=%d", missing, len(got))
	}
	for _, n := range names {
		if got[n].Scenario != n || got[n].Run != 1 {
			t.Fatalf("%s: %+v", n, got[n])
		}
	}
}

// TestSummaryFallsBackToSingles drops the run record and asks for a subset
// plus an unknown name.
func TestSummaryFallsBackToSingles(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	r := newTestRunner(t, mp, nil)

	if _, err := r.Run(ctx, DefaultScenarios()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, k := range mp.keysWithPrefix("run:test:") {
		_ = mp.Del(ctx, k)
	}

	got, missing, err := r.Summary(ctx, []string{"hex-to-base64", "ghost", "fixed-xor"})
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if len(missing) != 1 || missing[0] != "ghost" {
		t.Fatalf("expected only ghost missing, got %v", missing)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %v", got)
	}
}

func TestSummaryWithoutHistory(t *testing.T) {
	r := newTestRunner(t, nil, nil)
	got, missing, err := r.Summary(context.Background(), []string{"a", "b"})
	if err != nil || len(got) != 0 || len(missing) != 2 {
		t.Fatalf("got=%v missing=%v err=%v", got, missing, err)
	}
	if _, ok, err := r.Last(context.Background(), "a"); ok || err != nil {
		t.Fatalf("Last without history: ok=%v err=%v", ok, err)
	}
}

// ==============================
// Self-heal
// ==============================

// TestLastSelfHeals ensures corrupt and stale records are deleted and missed.
func TestLastSelfHeals(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	h := newRecHooks()
	r := newTestRunner(t, mp, func(o *Options) { o.Hooks = h })
	impl := mustImpl(t, r)

	k := impl.resultKey("bad")
	if ok, err := mp.Set(ctx, k, []byte("not-wire-format"), 1, time.Minute); err != nil || !ok {
		t.Fatalf("inject corrupt: ok=%v err=%v", ok, err)
	}
	if _, ok, err := r.Last(ctx, "bad"); err != nil || ok {
		t.Fatalf("Last on corrupt should miss, ok=%v err=%v", ok, err)
	}
	if _, ok, _ := mp.Get(ctx, k); ok {
		t.Fatalf("corrupt record was not deleted")
	}
	if h.dropped[k] != "corrupt" {
		t.Fatalf("expected corrupt hook, got %q", h.dropped[k])
	}

	// A real record becomes stale once its run counter moves on.
	if _, err := r.Run(ctx, DefaultScenarios()[:1]); err != nil {
		t.Fatalf("Run: %v", err)
	}
	k = impl.resultKey("hex-to-base64")
	if _, err := impl.gen.Next(ctx, "hex-to-base64"); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if _, ok, err := r.Last(ctx, "hex-to-base64"); err != nil || ok {
		t.Fatalf("Last on stale record should miss, ok=%v err=%v", ok, err)
	}
	if _, ok, _ := mp.Get(ctx, k); ok {
		t.Fatalf("stale record was not deleted")
	}
	if h.dropped[k] != "stale_run" {
		t.Fatalf("expected stale_run hook, got %q", h.dropped[k])
	}

	// Valid framing, undecodable payload.
	k = impl.resultKey("garbled")
	run, _ := impl.gen.Next(ctx, "garbled")
	if ok, err := mp.Set(ctx, k, wire.EncodeSingle(run, []byte("{nope")), 1, time.Minute); err != nil || !ok {
		t.Fatalf("inject garbled: ok=%v err=%v", ok, err)
	}
	if _, ok, err := r.Last(ctx, "garbled"); err != nil || ok {
		t.Fatalf("Last on garbled should miss, ok=%v err=%v", ok, err)
	}
	if h.dropped[k] != "value_decode" {
		t.Fatalf("expected value_decode hook, got %q", h.dropped[k])
	}
}

// TestSummaryDropsCorruptRunRecord overwrites the run record with garbage.
func TestSummaryDropsCorruptRunRecord(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	r := newTestRunner(t, mp, nil)
	impl := mustImpl(t, r)

	table := DefaultScenarios()
	if _, err := r.Run(ctx, table); err != nil {
		t.Fatalf("Run: %v", err)
	}
	names := scenarioNames(table)
	rk := impl.runKey(names)
	_, _ = mp.Set(ctx, rk, []byte("junk"), 1, time.Minute)

	got, missing, err := r.Summary(ctx, names)
	if err != nil || len(missing) != 0 || len(got) != len(names) {
		t.Fatalf("Summary: got=%d missing=%v err=%v", len(got), missing, err)
	}
	if _, ok, _ := mp.Get(ctx, rk); ok {
		t.Fatalf("corrupt run record was not deleted")
	}
}

// ==============================
// Store failures
// ==============================

// TestStoreFailureKeepsOutcome: a failing store is reported but every
// scenario still passes.
func TestStoreFailureKeepsOutcome(t *testing.T) {
	ctx := context.Background()
	mp := newMemProvider()
	mp.setErr = errors.New("disk on fire")
	h := newRecHooks()
	r := newTestRunner(t, mp, func(o *Options) { o.Hooks = h })

	table := DefaultScenarios()
	results, err := r.Run(ctx, table)
	if err == nil {
		t.Fatalf("expected record error")
	}
	var re *RecordError
	if !errors.As(err, &re) {
		t.Fatalf("expected *RecordError, got %T: %v", err, err)
	}
	if !errors.Is(err, mp.setErr) {
		t.Fatalf("record error must wrap the store error")
	}
	if len(results) != len(table) {
		t.Fatalf("results must be returned alongside the record error")
	}
	for _, res := range results {
		if !res.OK() {
			t.Fatalf("%s: store failure changed the outcome: %s", res.Scenario, res.Message)
		}
	}
	if h.storeErr != len(table) {
		t.Fatalf("expected %d store errors, got %d", len(table), h.storeErr)
	}
}

// ==============================
// Result formats
// ==============================

func TestResultCodecFormats(t *testing.T) {
	in := Result{
		Scenario: "fixed-xor",
		Op:       OpFixedXor,
		Status:   StatusFailed,
		Message:  "buffers must be the same length",
		Run:      7,
		Elapsed:  1500 * time.Microsecond,
		At:       time.Date(2024, 3, 1, 12, 0, 0, 42, time.UTC),
	}
	for _, f := range serde.Formats() {
		c, err := ResultCodec(f)
		if err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		b, err := c.Encode(in)
		if err != nil {
			t.Fatalf("%s encode: %v", f, err)
		}
		out, err := c.Decode(b)
		if err != nil {
			t.Fatalf("%s decode: %v", f, err)
		}
		if out.Scenario != in.Scenario || out.Op != in.Op || out.Status != in.Status ||
			out.Message != in.Message || out.Run != in.Run || out.Elapsed != in.Elapsed || !out.At.Equal(in.At) {
			t.Fatalf("%s: round trip mismatch: %+v", f, out)
		}
	}
	if _, err := ResultCodec("yaml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

// TestHistoryWithMsgpack stores records in a non-default format.
func TestHistoryWithMsgpack(t *testing.T) {
	ctx := context.Background()
	c, err := ResultCodec(serde.FormatMsgpack)
	if err != nil {
		t.Fatalf("ResultCodec: %v", err)
	}
	r := newTestRunner(t, newMemProvider(), func(o *Options) { o.Codec = c })
	if _, err := r.Run(ctx, DefaultScenarios()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	got, ok, err := r.Last(ctx, "single-byte-xor")
	if err != nil || !ok || got.Run != 1 {
		t.Fatalf("Last: ok=%v err=%v got=%+v", ok, err, got)
	}
}
