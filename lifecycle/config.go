package lifecycle

import (
	"fmt"
	"time"

	"github.com/kbukum/eureka-sidecar/resilience"
)

// Config tunes the per-instance state machine.
type Config struct {
	// HeartbeatInterval is the fixed period between steady-state heartbeats.
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval" mapstructure:"heartbeat_interval"`

	// MaxRegisterRetries is the attempt number after which registration gives
	// up. Zero allows a single attempt; nil takes the default.
	MaxRegisterRetries *int `yaml:"max_register_retries" mapstructure:"max_register_retries"`

	// MaxHeartbeatRetries bounds one heartbeat backoff chain. Zero disables
	// the chain; nil takes the default.
	MaxHeartbeatRetries *int `yaml:"max_heartbeat_retries" mapstructure:"max_heartbeat_retries"`

	// BackoffUnit is the delay before the first retry; it doubles per attempt.
	BackoffUnit time.Duration `yaml:"backoff_unit" mapstructure:"backoff_unit"`

	// BackoffMax caps every retry delay.
	BackoffMax time.Duration `yaml:"backoff_max" mapstructure:"backoff_max"`

	// DeregisterTimeout bounds the deregistration sent when a lifecycle
	// stops. It applies even when the caller's context is already done.
	DeregisterTimeout time.Duration `yaml:"deregister_timeout" mapstructure:"deregister_timeout"`
}

// Retries returns a retry budget for Config literals.
func Retries(n int) *int { return &n }

// DefaultConfig returns the production timings.
func DefaultConfig() Config {
	return Config{
		HeartbeatInterval:   20 * time.Second,
		MaxRegisterRetries:  Retries(5),
		MaxHeartbeatRetries: Retries(50),
		BackoffUnit:         time.Second,
		BackoffMax:          time.Minute,
		DeregisterTimeout:   10 * time.Second,
	}
}

// ApplyDefaults fills zero durations and nil retry budgets from
// DefaultConfig.
func (c *Config) ApplyDefaults() {
	def := DefaultConfig()
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = def.HeartbeatInterval
	}
	if c.MaxRegisterRetries == nil {
		c.MaxRegisterRetries = def.MaxRegisterRetries
	}
	if c.MaxHeartbeatRetries == nil {
		c.MaxHeartbeatRetries = def.MaxHeartbeatRetries
	}
	if c.BackoffUnit == 0 {
		c.BackoffUnit = def.BackoffUnit
	}
	if c.BackoffMax == 0 {
		c.BackoffMax = def.BackoffMax
	}
	if c.DeregisterTimeout == 0 {
		c.DeregisterTimeout = def.DeregisterTimeout
	}
}

// Validate checks that the timings are usable.
func (c *Config) Validate() error {
	if c.HeartbeatInterval <= 0 {
		return fmt.Errorf("lifecycle: heartbeat_interval must be positive")
	}
	if c.registerBudget() < 0 || c.heartbeatBudget() < 0 {
		return fmt.Errorf("lifecycle: retry budgets must be non-negative")
	}
	if c.DeregisterTimeout < 0 {
		return fmt.Errorf("lifecycle: deregister_timeout must not be negative")
	}
	if c.BackoffUnit <= 0 || c.BackoffMax < c.BackoffUnit {
		return fmt.Errorf("lifecycle: backoff_max must be at least backoff_unit (%s)", c.BackoffUnit)
	}
	return nil
}

func (c *Config) backoff() resilience.Backoff {
	return resilience.Backoff{Unit: c.BackoffUnit, Max: c.BackoffMax}
}

func (c *Config) registerBudget() int  { return budget(c.MaxRegisterRetries) }
func (c *Config) heartbeatBudget() int { return budget(c.MaxHeartbeatRetries) }

func budget(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
