package lifecycle

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/eureka-sidecar/instance"
	"github.com/kbukum/eureka-sidecar/registry"
)

type call struct {
	op  string
	key string
}

// fakeClient is a scripted registry. The script functions receive the
// 1-based number of the call for that operation.
type fakeClient struct {
	mu        sync.Mutex
	calls     []call
	nRegister int
	nBeat     int

	register  func(n int) bool
	heartbeat func(n int) registry.HeartbeatResult
	// block makes heartbeats wait for context cancellation.
	block bool
	// deregisterErrs holds ctx.Err() as seen by each Deregister call.
	deregisterErrs []error
}

func (f *fakeClient) Register(_ context.Context, inst instance.ServiceInstance) bool {
	f.mu.Lock()
	f.nRegister++
	n := f.nRegister
	f.calls = append(f.calls, call{"register", registry.InstanceKey(inst)})
	script := f.register
	f.mu.Unlock()

	if script == nil {
		return true
	}
	return script(n)
}

func (f *fakeClient) Heartbeat(ctx context.Context, inst instance.ServiceInstance) registry.HeartbeatResult {
	f.mu.Lock()
	f.nBeat++
	n := f.nBeat
	f.calls = append(f.calls, call{"heartbeat", registry.InstanceKey(inst)})
	script, block := f.heartbeat, f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return registry.HeartbeatFailed
	}
	if script == nil {
		return registry.HeartbeatOK
	}
	return script(n)
}

func (f *fakeClient) Deregister(ctx context.Context, inst instance.ServiceInstance) {
	f.mu.Lock()
	f.calls = append(f.calls, call{"deregister", registry.InstanceKey(inst)})
	f.deregisterErrs = append(f.deregisterErrs, ctx.Err())
	f.mu.Unlock()
}

func (f *fakeClient) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.op == op {
			n++
		}
	}
	return n
}

func (f *fakeClient) snapshot() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]call, len(f.calls))
	copy(out, f.calls)
	return out
}

type countingRecorder struct {
	regOK, regFailed, beatOK, beatFailed atomic.Int64
}

func (r *countingRecorder) RegistrationSucceeded(string) { r.regOK.Add(1) }
func (r *countingRecorder) RegistrationFailed(string)    { r.regFailed.Add(1) }
func (r *countingRecorder) HeartbeatSucceeded(string)    { r.beatOK.Add(1) }
func (r *countingRecorder) HeartbeatFailed(string)       { r.beatFailed.Add(1) }

func fastConfig() Config {
	return Config{
		HeartbeatInterval:   10 * time.Millisecond,
		MaxRegisterRetries:  Retries(5),
		MaxHeartbeatRetries: Retries(50),
		BackoffUnit:         time.Millisecond,
		BackoffMax:          2 * time.Millisecond,
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func orders() instance.ServiceInstance {
	return instance.ServiceInstance{
		ID:          1,
		ServiceName: "ORDERS",
		HostName:    "h1",
		HTTPPort:    8080,
		SecurePort:  8443,
	}
}
