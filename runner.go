package gopals

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	gen "github.com/unkn0wn-root/gopals/genstore"
	"github.com/unkn0wn-root/gopals/internal/util"
	"github.com/unkn0wn-root/gopals/internal/wire"
	pr "github.com/unkn0wn-root/gopals/provider"
	"github.com/unkn0wn-root/gopals/serde"
)

type runner struct {
	ns       string
	provider pr.Provider
	codec    serde.Codec[Result]
	log      Logger
	hooks    Hooks
	gen      gen.GenStore

	workers        int
	ttl            time.Duration
	computeSetCost SetCostFunc

	closeOnce sync.Once
	closeErr  error
}

func newRunner(opts Options) (*runner, error) {
	if opts.Workers < 0 {
		return nil, fmt.Errorf("gopals: workers must not be negative")
	}

	r := &runner{
		ns:       coalesce(opts.Namespace, defaultNamespace),
		provider: opts.Provider,
	}

	r.log = coalesce[Logger](opts.Logger, NopLogger{})
	r.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	r.workers = coalesce(opts.Workers, 1)
	r.ttl = coalesce(opts.TTL, defaultTTL)

	var inner serde.Codec[Result] = serde.JSON[Result]{}
	if opts.Codec != nil {
		inner = opts.Codec
	}
	r.codec = serde.Limit[Result]{Inner: inner, MaxDecode: coalesce(opts.MaxRecordSize, defaultMaxRecordSize)}

	if opts.ComputeSetCost != nil {
		r.computeSetCost = opts.ComputeSetCost
	} else {
		r.computeSetCost = func(_ string, _ []byte, _ bool, _ int) int64 { return 1 }
	}

	if r.provider != nil {
		if opts.GenStore != nil {
			r.gen = opts.GenStore
		} else {
			// in-process counters, swept of long-idle scenarios
			r.gen = gen.NewLocalGenStore(
				coalesce(opts.CleanupInterval, defaultSweep),
				coalesce(opts.GenRetention, defaultGenRetention),
			)
		}
	}
	return r, nil
}

func (r *runner) HistoryEnabled() bool { return r.provider != nil }

func (r *runner) Close(ctx context.Context) error {
	r.closeOnce.Do(func() {
		// run counters first (best effort)
		if r.gen != nil {
			_ = r.gen.Close(ctx)
		}
		if r.provider != nil {
			r.closeErr = r.provider.Close(ctx)
		}
	})
	return r.closeErr
}

func (r *runner) Run(ctx context.Context, scenarios []Scenario) ([]Result, error) {
	seen := make(map[string]struct{}, len(scenarios))
	for _, s := range scenarios {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("gopals: duplicate scenario %q", s.Name)
		}
		seen[s.Name] = struct{}{}
	}

	results := make([]Result, len(scenarios))
	jobs := make(chan int)

	var wg sync.WaitGroup
	workers := min(r.workers, len(scenarios))
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = r.evaluate(scenarios[i])
			}
		}()
	}

	var ctxErr error
feed:
	for i := range scenarios {
		if ctxErr = ctx.Err(); ctxErr != nil {
			break
		}
		select {
		case jobs <- i:
		case <-ctx.Done():
			ctxErr = ctx.Err()
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if ctxErr != nil {
		return nil, ctxErr
	}
	if r.provider == nil {
		return results, nil
	}
	return results, r.record(ctx, results)
}

func (r *runner) evaluate(s Scenario) Result {
	start := time.Now()
	got, err := s.Evaluate()
	status, msg := s.judge(got, err)

	res := Result{
		Scenario: s.Name,
		Op:       s.Op,
		Status:   status,
		Message:  msg,
		Elapsed:  time.Since(start),
		At:       start.UTC(),
	}
	if res.OK() {
		r.hooks.ScenarioPassed(s.Name, res.Elapsed)
		r.log.Debug("scenario passed", Fields{"scenario": s.Name, "op": string(s.Op), "elapsed": res.Elapsed})
	} else {
		r.hooks.ScenarioFailed(s.Name, msg)
		r.log.Info("scenario failed", Fields{"scenario": s.Name, "op": string(s.Op), "message": msg})
	}
	return res
}

// record bumps each scenario's run counter, stores every result under its
// own key and then the whole run under a key derived from the scenario set.
// Results are updated in place with their run numbers.
func (r *runner) record(ctx context.Context, results []Result) error {
	var errs []error
	names := make([]string, 0, len(results))
	items := make([]wire.BulkItem, 0, len(results))

	for i := range results {
		res := &results[i]
		names = append(names, res.Scenario)
		k := r.resultKey(res.Scenario)

		run, err := r.gen.Next(ctx, res.Scenario)
		if err != nil {
			// without a run number the record could never validate
			r.hooks.RunCounterError(res.Scenario, err)
			r.log.Warn("run counter failed", Fields{"scenario": res.Scenario, "err": err})
			errs = append(errs, &RecordError{Key: k, CounterErr: err})
			continue
		}
		res.Run = run

		payload, err := r.codec.Encode(*res)
		if err != nil {
			errs = append(errs, &RecordError{Key: k, EncodeErr: err})
			continue
		}
		if err := r.set(ctx, k, wire.EncodeSingle(run, payload), false, 1); err != nil {
			errs = append(errs, &RecordError{Key: k, StoreErr: err})
			continue
		}
		items = append(items, wire.BulkItem{Key: res.Scenario, Gen: run, Payload: payload})
	}

	if len(items) > 0 {
		rk := r.runKey(names)
		wireb, err := wire.EncodeBulk(items)
		if err != nil {
			errs = append(errs, &RecordError{Key: rk, EncodeErr: err})
		} else if err := r.set(ctx, rk, wireb, true, len(items)); err != nil {
			errs = append(errs, &RecordError{Key: rk, StoreErr: err})
		}
	}
	return errors.Join(errs...)
}

func (r *runner) set(ctx context.Context, k string, b []byte, isRun bool, count int) error {
	ok, err := r.provider.Set(ctx, k, b, r.computeSetCost(k, b, isRun, count), r.ttl)
	if err != nil {
		r.hooks.StoreError(k, err)
		r.log.Warn("store set failed", Fields{"key": k, "err": err})
		return err
	}
	if !ok {
		r.hooks.StoreRejected(k, isRun)
		r.log.Debug("store rejected set (pressure)", Fields{"key": k})
	}
	return nil
}

func (r *runner) Last(ctx context.Context, scenario string) (Result, bool, error) {
	var zero Result
	if r.provider == nil {
		return zero, false, nil
	}
	k := r.resultKey(scenario)
	raw, ok, err := r.provider.Get(ctx, k)
	if err != nil {
		r.hooks.StoreError(k, err)
		return zero, false, err
	}
	if !ok {
		return zero, false, nil
	}

	run, payload, err := wire.DecodeSingle(raw)
	if err != nil {
		r.drop(ctx, k, "corrupt")
		return zero, false, nil
	}
	cur, err := r.gen.Current(ctx, scenario)
	if err != nil {
		r.hooks.RunCounterError(scenario, err)
		return zero, false, err
	}
	if run != cur {
		r.drop(ctx, k, "stale_run")
		return zero, false, nil
	}
	res, err := r.codec.Decode(payload)
	if err != nil {
		r.drop(ctx, k, "value_decode")
		return zero, false, nil
	}
	return res, true, nil
}

func (r *runner) Summary(ctx context.Context, scenarios []string) (map[string]Result, []string, error) {
	out := make(map[string]Result, len(scenarios))
	if r.provider == nil {
		missing := make([]string, 0, len(scenarios))
		missing = append(missing, scenarios...)
		return out, missing, nil
	}
	if len(scenarios) == 0 {
		return out, nil, nil
	}

	// Try the run entry; each member is validated against its run counter.
	rk := r.runKey(scenarios)
	raw, ok, err := r.provider.Get(ctx, rk)
	switch {
	case err != nil:
		r.hooks.StoreError(rk, err)
	case ok:
		items, err := wire.DecodeBulk(raw)
		if err != nil {
			r.drop(ctx, rk, "corrupt")
			break
		}
		names := make([]string, len(items))
		for i, it := range items {
			names[i] = it.Key
		}
		cur, err := r.gen.CurrentMany(ctx, names)
		if err != nil {
			r.hooks.RunCounterError(rk, err)
			break
		}
		for _, it := range items {
			if it.Gen != cur[it.Key] {
				continue
			}
			res, err := r.codec.Decode(it.Payload)
			if err != nil {
				continue
			}
			out[it.Key] = res
		}
	}

	// Fallback: singles
	var missing []string
	for _, s := range scenarios {
		if _, ok := out[s]; ok {
			continue
		}
		if res, ok, _ := r.Last(ctx, s); ok {
			out[s] = res
		} else {
			missing = append(missing, s)
		}
	}
	return out, missing, nil
}

// drop self-heals an unusable record.
func (r *runner) drop(ctx context.Context, k, reason string) {
	_ = r.provider.Del(ctx, k)
	r.hooks.CorruptRecord(k, reason)
	r.log.Debug("dropped stored record", Fields{"key": k, "reason": reason})
}

func (r *runner) resultKey(scenario string) string {
	// isolate by namespace
	return "result:" + r.ns + ":" + scenario
}

func (r *runner) runKey(scenarios []string) string {
	return util.BulkKey("run:"+r.ns, scenarios)
}
