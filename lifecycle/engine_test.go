package lifecycle

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/kbukum/eureka-sidecar/errors"
	"github.com/kbukum/eureka-sidecar/instance"
	"github.com/kbukum/eureka-sidecar/logger"
	"github.com/kbukum/eureka-sidecar/registry"
)

func newTestEngine(t *testing.T, client registry.Client, cfg Config) (*Engine, *countingRecorder) {
	t.Helper()
	rec := &countingRecorder{}
	e, err := New(client, cfg, logger.NewNop(), WithRecorder(rec))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(e.Shutdown)
	return e, rec
}

func TestStartRegistersAndHeartbeats(t *testing.T) {
	client := &fakeClient{}
	e, rec := newTestEngine(t, client, fastConfig())

	e.Start(orders())

	if !e.IsRunning(1) {
		t.Fatal("expected instance to be running after a successful first attempt")
	}
	waitFor(t, "three heartbeats", func() bool { return rec.beatOK.Load() >= 3 })
	if rec.regOK.Load() != 1 || rec.regFailed.Load() != 0 {
		t.Errorf("unexpected registration counts ok=%d failed=%d", rec.regOK.Load(), rec.regFailed.Load())
	}
	if got := e.ListRunning(); len(got) != 1 || got[0].ServiceName != "ORDERS" {
		t.Errorf("unexpected running list %+v", got)
	}
}

func TestStartTwiceIsNoop(t *testing.T) {
	client := &fakeClient{}
	e, _ := newTestEngine(t, client, fastConfig())

	e.Start(orders())
	e.Start(orders())

	if n := client.count("register"); n != 1 {
		t.Errorf("expected one registration, got %d", n)
	}
}

func TestRegisterRecoversWithinBudget(t *testing.T) {
	client := &fakeClient{register: func(n int) bool { return n > 5 }}
	e, rec := newTestEngine(t, client, fastConfig())

	e.Start(orders())

	waitFor(t, "instance running", func() bool { return e.IsRunning(1) })
	if n := client.count("register"); n != 6 {
		t.Errorf("expected 6 register attempts, got %d", n)
	}
	if rec.regFailed.Load() != 5 || rec.regOK.Load() != 1 {
		t.Errorf("unexpected counts ok=%d failed=%d", rec.regOK.Load(), rec.regFailed.Load())
	}
}

func TestRegisterGivesUpAfterBudget(t *testing.T) {
	client := &fakeClient{register: func(int) bool { return false }}
	e, rec := newTestEngine(t, client, fastConfig())

	e.Start(orders())

	waitFor(t, "lifecycle abandoned", func() bool { return e.ActiveCount() == 0 })
	time.Sleep(20 * time.Millisecond)

	if n := client.count("register"); n != 6 {
		t.Errorf("expected maxRegisterRetries+1 = 6 attempts, got %d", n)
	}
	if rec.regFailed.Load() != 6 {
		t.Errorf("expected 6 failures counted, got %d", rec.regFailed.Load())
	}
	if e.IsRunning(1) || len(e.ListRunning()) != 0 {
		t.Error("instance must not be listed as running")
	}
	if client.count("heartbeat") != 0 {
		t.Error("no heartbeat may be sent for an unregistered instance")
	}
}

func TestRegisterBackoffDelaysGrow(t *testing.T) {
	var stamps []time.Time
	client := &fakeClient{register: func(n int) bool {
		stamps = append(stamps, time.Now())
		return n > 3
	}}
	cfg := fastConfig()
	cfg.BackoffUnit = 5 * time.Millisecond
	cfg.BackoffMax = time.Second
	e, _ := newTestEngine(t, client, cfg)

	e.Start(orders())
	waitFor(t, "instance running", func() bool { return e.IsRunning(1) })

	// Waits are 5ms, 10ms, 20ms.
	if len(stamps) != 4 {
		t.Fatalf("expected 4 attempts, got %d", len(stamps))
	}
	if gap := stamps[3].Sub(stamps[2]); gap < 20*time.Millisecond {
		t.Errorf("expected third retry to wait at least 20ms, waited %v", gap)
	}
}

func TestNotFoundTriggersReRegistration(t *testing.T) {
	client := &fakeClient{}
	client.heartbeat = func(n int) registry.HeartbeatResult {
		if n == 1 {
			return registry.HeartbeatNotFound
		}
		return registry.HeartbeatOK
	}
	e, rec := newTestEngine(t, client, fastConfig())

	e.Start(orders())

	waitFor(t, "second registration", func() bool { return client.count("register") >= 2 })
	waitFor(t, "heartbeats after re-registration", func() bool { return rec.beatOK.Load() >= 2 })
	if !e.IsRunning(1) {
		t.Error("expected instance to stay running")
	}
	if rec.beatFailed.Load() != 0 {
		t.Errorf("not found must not count as a heartbeat failure, got %d", rec.beatFailed.Load())
	}
}

func TestOrdersScenario(t *testing.T) {
	client := &fakeClient{}
	client.heartbeat = func(n int) registry.HeartbeatResult {
		switch {
		case n == 1:
			return registry.HeartbeatFailed
		case client.count("register") < 2:
			return registry.HeartbeatNotFound
		default:
			return registry.HeartbeatOK
		}
	}
	e, _ := newTestEngine(t, client, fastConfig())

	e.Start(orders())

	var maxRunning atomic.Int64
	waitFor(t, "re-registration", func() bool {
		if n := int64(len(e.ListRunning())); n > maxRunning.Load() {
			maxRunning.Store(n)
		}
		return client.count("register") >= 2
	})

	for _, c := range client.snapshot() {
		if c.key != "h1:ORDERS:8080" {
			t.Errorf("unexpected instance key %q in %s", c.key, c.op)
		}
	}
	running := e.ListRunning()
	if len(running) != 1 || running[0].ServiceName != "ORDERS" {
		t.Errorf("expected exactly one ORDERS entry, got %+v", running)
	}
	if maxRunning.Load() != 1 {
		t.Errorf("running list held %d entries at some point", maxRunning.Load())
	}
}

func TestHeartbeatBackoffRecovers(t *testing.T) {
	client := &fakeClient{heartbeat: func(n int) registry.HeartbeatResult {
		if n <= 2 {
			return registry.HeartbeatFailed
		}
		return registry.HeartbeatOK
	}}
	cfg := fastConfig()
	cfg.HeartbeatInterval = time.Hour
	e, rec := newTestEngine(t, client, cfg)

	e.Start(orders())

	waitFor(t, "recovered heartbeat", func() bool { return rec.beatOK.Load() == 1 })
	time.Sleep(20 * time.Millisecond)
	if rec.beatFailed.Load() != 1 {
		t.Errorf("expected one failed retry, got %d", rec.beatFailed.Load())
	}
	if n := client.count("heartbeat"); n != 3 {
		t.Errorf("expected tick plus two retries, got %d heartbeats", n)
	}
}

func TestHeartbeatBackoffExhausted(t *testing.T) {
	client := &fakeClient{heartbeat: func(int) registry.HeartbeatResult { return registry.HeartbeatFailed }}
	cfg := fastConfig()
	cfg.HeartbeatInterval = time.Hour
	cfg.MaxHeartbeatRetries = Retries(3)
	e, rec := newTestEngine(t, client, cfg)

	e.Start(orders())

	waitFor(t, "chain exhausted", func() bool { return rec.beatFailed.Load() == 4 })
	time.Sleep(20 * time.Millisecond)
	if n := client.count("heartbeat"); n != 4 {
		t.Errorf("expected tick plus 3 retries, got %d heartbeats", n)
	}
	if !e.IsRunning(1) {
		t.Error("a spent heartbeat chain does not stop the lifecycle")
	}
}

func TestNotFoundDuringBackoffIsNotAFailure(t *testing.T) {
	client := &fakeClient{heartbeat: func(n int) registry.HeartbeatResult {
		if n == 1 {
			return registry.HeartbeatFailed
		}
		return registry.HeartbeatNotFound
	}}
	cfg := fastConfig()
	cfg.HeartbeatInterval = time.Hour
	e, rec := newTestEngine(t, client, cfg)

	e.Start(orders())

	waitFor(t, "backoff heartbeat", func() bool { return client.count("heartbeat") == 2 })
	time.Sleep(20 * time.Millisecond)
	if n := client.count("heartbeat"); n != 2 {
		t.Errorf("expected the chain to end on not-found, got %d heartbeats", n)
	}
	if rec.beatFailed.Load() != 0 {
		t.Errorf("not-found must not count as a heartbeat failure, got %d", rec.beatFailed.Load())
	}
	if !e.IsRunning(1) {
		t.Error("expected the lifecycle to stay running until the next tick")
	}
}

func TestSteadyTicksContinueDuringBackoff(t *testing.T) {
	client := &fakeClient{heartbeat: func(int) registry.HeartbeatResult { return registry.HeartbeatFailed }}
	cfg := fastConfig()
	cfg.BackoffUnit = time.Hour
	cfg.BackoffMax = time.Hour
	e, _ := newTestEngine(t, client, cfg)

	e.Start(orders())

	// Every retry waits an hour, so any further heartbeat comes from a tick.
	waitFor(t, "three steady ticks", func() bool { return client.count("heartbeat") >= 3 })
}

func TestStopIsIdempotent(t *testing.T) {
	client := &fakeClient{}
	e, _ := newTestEngine(t, client, fastConfig())

	e.Start(orders())
	waitFor(t, "a heartbeat", func() bool { return client.count("heartbeat") >= 1 })

	if !e.Stop(context.Background(), orders()) {
		t.Error("expected first stop to stop the lifecycle")
	}
	if e.Stop(context.Background(), orders()) {
		t.Error("expected second stop to be a no-op")
	}

	if n := client.count("deregister"); n != 1 {
		t.Errorf("expected exactly one deregister, got %d", n)
	}
	if e.IsRunning(1) {
		t.Error("expected instance to be removed from running")
	}

	beats := client.count("heartbeat")
	time.Sleep(5 * fastConfig().HeartbeatInterval)
	if client.count("heartbeat") != beats {
		t.Error("heartbeats continued after stop")
	}
}

func TestStopWithoutLifecycleIsNoop(t *testing.T) {
	client := &fakeClient{}
	e, _ := newTestEngine(t, client, fastConfig())

	if e.Stop(context.Background(), orders()) {
		t.Error("expected no-op")
	}
	if len(client.snapshot()) != 0 {
		t.Errorf("expected no registry calls, got %v", client.snapshot())
	}
}

func TestStopInterruptsRegistrationBackoff(t *testing.T) {
	client := &fakeClient{register: func(int) bool { return false }}
	cfg := fastConfig()
	cfg.BackoffUnit = time.Hour
	cfg.BackoffMax = time.Hour
	e, _ := newTestEngine(t, client, cfg)

	e.Start(orders())

	done := make(chan struct{})
	go func() {
		e.Stop(context.Background(), orders())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stop did not interrupt the backoff wait")
	}
	if n := client.count("register"); n != 1 {
		t.Errorf("expected a single attempt, got %d", n)
	}
	if e.ActiveCount() != 0 {
		t.Error("expected no active lifecycle")
	}
}

func TestStopInterruptsInFlightHeartbeat(t *testing.T) {
	client := &fakeClient{block: true}
	e, rec := newTestEngine(t, client, fastConfig())

	e.Start(orders())
	waitFor(t, "heartbeat in flight", func() bool { return client.count("heartbeat") == 1 })

	done := make(chan struct{})
	go func() {
		e.Stop(context.Background(), orders())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stop did not cancel the in-flight heartbeat")
	}

	time.Sleep(20 * time.Millisecond)
	if n := client.count("heartbeat"); n != 1 {
		t.Errorf("no heartbeat may follow stop, got %d", n)
	}
	if rec.beatFailed.Load() != 0 {
		t.Errorf("a cancelled heartbeat is not a failure, got %d", rec.beatFailed.Load())
	}
}

func TestStopAllHaltsEverything(t *testing.T) {
	client := &fakeClient{}
	e, _ := newTestEngine(t, client, fastConfig())

	billing := instance.ServiceInstance{ID: 2, ServiceName: "BILLING", HostName: "h2", HTTPPort: 9000}
	e.Start(orders())
	e.Start(billing)
	waitFor(t, "both heartbeating", func() bool { return client.count("heartbeat") >= 2 })

	e.StopAll(context.Background(), []instance.ServiceInstance{orders(), billing})

	if n := client.count("deregister"); n != 2 {
		t.Errorf("expected 2 deregistrations, got %d", n)
	}
	calls := len(client.snapshot())
	e.Start(orders())
	time.Sleep(5 * fastConfig().HeartbeatInterval)
	if len(client.snapshot()) != calls {
		t.Error("no registry call may happen after StopAll")
	}
	if e.RunningCount() != 0 {
		t.Errorf("expected nothing running, got %d", e.RunningCount())
	}
}

func TestStopActiveIncludesRetrying(t *testing.T) {
	client := &fakeClient{register: func(n int) bool { return n == 1 }}
	cfg := fastConfig()
	cfg.BackoffUnit = time.Hour
	cfg.BackoffMax = time.Hour
	e, _ := newTestEngine(t, client, cfg)

	e.Start(orders())
	e.Start(instance.ServiceInstance{ID: 2, ServiceName: "BILLING", HostName: "h2", HTTPPort: 9000})

	if e.RunningCount() != 1 || e.ActiveCount() != 2 {
		t.Fatalf("expected 1 running of 2 active, got %d/%d", e.RunningCount(), e.ActiveCount())
	}
	if n := e.StopActive(context.Background()); n != 2 {
		t.Errorf("expected 2 stopped, got %d", n)
	}
	if e.ActiveCount() != 0 {
		t.Error("expected no active lifecycle")
	}
}

func TestShutdownDoesNotDeregister(t *testing.T) {
	client := &fakeClient{}
	e, _ := newTestEngine(t, client, fastConfig())

	e.Start(orders())
	e.Shutdown()
	e.Shutdown()

	if client.count("deregister") != 0 {
		t.Error("shutdown must not deregister")
	}
	if e.RunningCount() != 0 {
		t.Error("expected nothing running after shutdown")
	}
}

func TestUpdateUnknownInstance(t *testing.T) {
	client := &fakeClient{}
	e, _ := newTestEngine(t, client, fastConfig())
	store := instance.NewStore()

	_, err := e.Update(context.Background(), store, instance.UpdateRequest{ServiceName: "GHOST", NewHostName: "h9", HTTPPort: 1})

	if !apperrors.IsNotFound(err) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
	if store.Len() != 0 {
		t.Error("store must not be mutated")
	}
	if len(client.snapshot()) != 0 {
		t.Errorf("expected zero registry calls, got %v", client.snapshot())
	}
}

func TestUpdateDeregistersDespiteCancelledCaller(t *testing.T) {
	client := &fakeClient{}
	e, _ := newTestEngine(t, client, fastConfig())
	store := instance.NewStore()
	e.Start(store.Save(orders()))
	waitFor(t, "instance running", func() bool { return e.IsRunning(1) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Update(ctx, store, instance.UpdateRequest{ServiceName: "ORDERS", NewHostName: "h2", HTTPPort: 9090}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	client.mu.Lock()
	errs := append([]error(nil), client.deregisterErrs...)
	client.mu.Unlock()
	if len(errs) != 1 {
		t.Fatalf("expected one deregister, got %d", len(errs))
	}
	if errs[0] != nil {
		t.Errorf("deregister ran on a done context: %v", errs[0])
	}
}

func TestUpdateRestartsWithNewDescriptor(t *testing.T) {
	client := &fakeClient{}
	e, _ := newTestEngine(t, client, fastConfig())
	store := instance.NewStore()
	saved := store.Save(instance.ServiceInstance{ServiceName: "ORDERS", HostName: "h1", HTTPPort: 8080, SecurePort: 8443})

	e.Start(saved)
	waitFor(t, "a heartbeat", func() bool { return client.count("heartbeat") >= 1 })
	mark := len(client.snapshot())

	updated, err := e.Update(context.Background(), store, instance.UpdateRequest{
		ServiceName:  "orders",
		NewHostName:  "h2",
		NewIPAddress: "10.0.0.2",
		HTTPPort:     9090,
		SecurePort:   9443,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.ID != saved.ID {
		t.Errorf("expected id %d to be kept, got %d", saved.ID, updated.ID)
	}

	waitFor(t, "heartbeat for the new descriptor", func() bool {
		for _, c := range client.snapshot()[mark:] {
			if c.op == "heartbeat" {
				return true
			}
		}
		return false
	})

	var lifecycleCalls []call
	deregistered := false
	for _, c := range client.snapshot()[mark:] {
		if c.op != "heartbeat" {
			lifecycleCalls = append(lifecycleCalls, c)
		}
		if c.op == "deregister" {
			deregistered = true
		}
		if c.op == "heartbeat" && deregistered && c.key != "h2:ORDERS:9090" {
			t.Errorf("stale heartbeat for %s after deregister", c.key)
		}
	}
	want := []call{{"deregister", "h1:ORDERS:8080"}, {"register", "h2:ORDERS:9090"}}
	if len(lifecycleCalls) != 2 || lifecycleCalls[0] != want[0] || lifecycleCalls[1] != want[1] {
		t.Errorf("expected %v, got %v", want, lifecycleCalls)
	}

	list := store.List()
	if len(list) != 1 || list[0].HostName != "h2" || list[0].HTTPPort != 9090 {
		t.Errorf("expected only the new descriptor in the store, got %+v", list)
	}
	running := e.ListRunning()
	if len(running) != 1 || running[0].HostName != "h2" {
		t.Errorf("expected the new descriptor running, got %+v", running)
	}
}

func TestConfigDefaultsAndValidate(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	def := DefaultConfig()
	if cfg.HeartbeatInterval != def.HeartbeatInterval || cfg.BackoffUnit != def.BackoffUnit ||
		cfg.BackoffMax != def.BackoffMax || cfg.DeregisterTimeout != def.DeregisterTimeout {
		t.Errorf("expected default timings, got %+v", cfg)
	}
	if *cfg.MaxRegisterRetries != 5 || *cfg.MaxHeartbeatRetries != 50 {
		t.Errorf("expected 5/50 retries, got %d/%d", *cfg.MaxRegisterRetries, *cfg.MaxHeartbeatRetries)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}

	bad := DefaultConfig()
	bad.BackoffMax = time.Millisecond
	if err := bad.Validate(); err == nil {
		t.Error("expected error when max < unit")
	}
	bad = DefaultConfig()
	bad.MaxHeartbeatRetries = Retries(-1)
	if err := bad.Validate(); err == nil {
		t.Error("expected error for a negative retry budget")
	}

	if _, err := New(&fakeClient{}, Config{HeartbeatInterval: -time.Second}, logger.NewNop()); err == nil {
		t.Error("expected New to reject invalid config")
	}
}

func TestConfigKeepsZeroRetryBudgets(t *testing.T) {
	cfg := Config{MaxRegisterRetries: Retries(0), MaxHeartbeatRetries: Retries(0)}
	cfg.ApplyDefaults()
	if *cfg.MaxRegisterRetries != 0 || *cfg.MaxHeartbeatRetries != 0 {
		t.Fatalf("explicit zero budgets were replaced: %d/%d", *cfg.MaxRegisterRetries, *cfg.MaxHeartbeatRetries)
	}
}

func TestZeroRegisterRetriesAllowsOneAttempt(t *testing.T) {
	client := &fakeClient{register: func(int) bool { return false }}
	cfg := fastConfig()
	cfg.MaxRegisterRetries = Retries(0)
	e, rec := newTestEngine(t, client, cfg)

	e.Start(orders())

	waitFor(t, "lifecycle abandoned", func() bool { return e.ActiveCount() == 0 })
	time.Sleep(20 * time.Millisecond)
	if n := client.count("register"); n != 1 {
		t.Errorf("expected a single register attempt, got %d", n)
	}
	if rec.regFailed.Load() != 1 {
		t.Errorf("expected 1 failure counted, got %d", rec.regFailed.Load())
	}
}
