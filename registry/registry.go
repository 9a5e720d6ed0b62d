package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kbukum/eureka-sidecar/instance"
	"github.com/kbukum/eureka-sidecar/logger"
)

// UnknownAppName replaces a blank service name in registry paths.
const UnknownAppName = "UNKNOWN"

// HeartbeatResult classifies a heartbeat outcome.
type HeartbeatResult int

const (
	// HeartbeatFailed covers transport errors, timeouts and unexpected statuses.
	HeartbeatFailed HeartbeatResult = iota
	// HeartbeatOK means the registry renewed the lease.
	HeartbeatOK
	// HeartbeatNotFound means the registry holds no record of the instance.
	HeartbeatNotFound
)

// String returns the outcome name.
func (r HeartbeatResult) String() string {
	switch r {
	case HeartbeatOK:
		return "ok"
	case HeartbeatNotFound:
		return "not_found"
	default:
		return "failed"
	}
}

// Client performs registry calls for a single instance descriptor.
// Ordinary failures are reported through return values, never panics.
type Client interface {
	// Register returns true only when the registry accepted the instance.
	Register(ctx context.Context, inst instance.ServiceInstance) bool

	// Heartbeat renews the instance's lease.
	Heartbeat(ctx context.Context, inst instance.ServiceInstance) HeartbeatResult

	// Deregister removes the instance. Best-effort: failures are logged.
	Deregister(ctx context.Context, inst instance.ServiceInstance)
}

// Named is implemented by clients that report which registry they talk to.
type Named interface {
	Name() string
}

// InstanceKey is the registry-side identity host:serviceName:port, where port
// follows the instance's SSL preference.
func InstanceKey(inst instance.ServiceInstance) string {
	return fmt.Sprintf("%s:%s:%d", inst.HostName, inst.ServiceName, inst.Port())
}

// AppName is the trimmed, upper-cased service name, or UNKNOWN when blank.
func AppName(serviceName string) string {
	name := strings.ToUpper(strings.TrimSpace(serviceName))
	if name == "" {
		return UnknownAppName
	}
	return name
}

// ProviderFactory builds a Client from provider-specific configuration.
// Providers type-assert providerCfg to their own config type.
type ProviderFactory func(providerCfg any, log *logger.Logger) (Client, error)

var providerFactories = make(map[string]ProviderFactory)

// RegisterProviderFactory makes a backend available under name. Backend
// packages call this from an init function.
func RegisterProviderFactory(name string, f ProviderFactory) {
	providerFactories[name] = f
}

// Providers lists the registered backend names.
func Providers() []string {
	names := make([]string, 0, len(providerFactories))
	for name := range providerFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the named backend.
func New(provider string, providerCfg any, log *logger.Logger) (Client, error) {
	f, ok := providerFactories[provider]
	if !ok {
		return nil, fmt.Errorf("registry: unknown provider %q (registered: %s)", provider, strings.Join(Providers(), ", "))
	}
	c, err := f(providerCfg, log)
	if err != nil {
		return nil, fmt.Errorf("registry: create %s client: %w", provider, err)
	}
	return c, nil
}
