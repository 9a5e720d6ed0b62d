package consul

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hashicorp/consul/api"

	"github.com/kbukum/eureka-sidecar/instance"
	"github.com/kbukum/eureka-sidecar/logger"
	"github.com/kbukum/eureka-sidecar/registry"
	"github.com/kbukum/eureka-sidecar/util"
)

const providerName = "consul"

func init() {
	registry.RegisterProviderFactory(providerName, func(providerCfg any, log *logger.Logger) (registry.Client, error) {
		switch cfg := providerCfg.(type) {
		case Config:
			return NewClient(cfg, log)
		case *Config:
			return NewClient(*cfg, log)
		default:
			return nil, fmt.Errorf("consul: unexpected config type %T", providerCfg)
		}
	})
}

// Client registers instances with the local Consul agent. Each registration
// carries a TTL check that heartbeats keep passing.
type Client struct {
	agent *api.Agent
	cfg   Config
	log   *logger.Logger
}

var _ registry.Client = (*Client)(nil)

// NewClient creates a Client from the given Config.
func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	apiCfg, err := cfg.apiConfig()
	if err != nil {
		return nil, err
	}
	client, err := api.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("consul client: %w", err)
	}

	c := &Client{
		agent: client.Agent(),
		cfg:   cfg,
		log:   log.WithComponent("consul"),
	}
	fields := logger.Fields("address", cfg.Address, "check_ttl", cfg.CheckTTL.String())
	if cfg.Token != "" {
		fields["token"] = util.MaskSecret(cfg.Token, 4)
	}
	c.log.Info("consul client configured", fields)
	return c, nil
}

// Name returns the registry kind.
func (c *Client) Name() string { return providerName }

// Register upserts the service and its TTL check, which starts out passing.
func (c *Client) Register(ctx context.Context, inst instance.ServiceInstance) bool {
	reg := c.registration(inst)
	err := c.agent.ServiceRegisterOpts(reg, api.ServiceRegisterOpts{ReplaceExistingChecks: true}.WithContext(ctx))
	if err != nil {
		c.log.Error("failed to register service", c.fields(inst, logger.FieldError, err.Error()))
		return false
	}
	c.log.Info("registered service", c.fields(inst))
	return true
}

// Heartbeat marks the instance's TTL check as passing. An unknown check means
// the agent lost the registration.
func (c *Client) Heartbeat(ctx context.Context, inst instance.ServiceInstance) registry.HeartbeatResult {
	q := (&api.QueryOptions{}).WithContext(ctx)
	err := c.agent.UpdateTTLOpts(checkID(inst), "heartbeat from eureka-sidecar", api.HealthPassing, q)
	switch {
	case err == nil:
		c.log.Debug("heartbeat ok", c.fields(inst))
		return registry.HeartbeatOK
	case isUnknownCheck(err):
		c.log.Warn("heartbeat: check not found", c.fields(inst))
		return registry.HeartbeatNotFound
	default:
		c.log.Error("heartbeat failed", c.fields(inst, logger.FieldError, err.Error()))
		return registry.HeartbeatFailed
	}
}

// Deregister removes the service and its check from the agent.
func (c *Client) Deregister(ctx context.Context, inst instance.ServiceInstance) {
	q := (&api.QueryOptions{}).WithContext(ctx)
	if err := c.agent.ServiceDeregisterOpts(registry.InstanceKey(inst), q); err != nil {
		c.log.Error("error deregistering service", c.fields(inst, logger.FieldError, err.Error()))
		return
	}
	c.log.Info("deregistered service", c.fields(inst))
}

func (c *Client) registration(inst instance.ServiceInstance) *api.AgentServiceRegistration {
	address := inst.IPAddr
	if address == "" {
		address = inst.HostName
	}
	return &api.AgentServiceRegistration{
		ID:      registry.InstanceKey(inst),
		Name:    registry.AppName(inst.ServiceName),
		Address: address,
		Port:    inst.Port(),
		Tags:    c.cfg.Tags,
		Meta: map[string]string{
			"hostName":   inst.HostName,
			"scheme":     inst.Scheme(),
			"status":     inst.StatusOrDefault(),
			"dataCenter": inst.DataCenterOrDefault(),
		},
		Check: &api.AgentServiceCheck{
			CheckID:                        checkID(inst),
			Name:                           "eureka-sidecar heartbeat",
			TTL:                            c.cfg.CheckTTL.String(),
			Status:                         api.HealthPassing,
			DeregisterCriticalServiceAfter: c.cfg.DeregisterAfter.String(),
		},
	}
}

func checkID(inst instance.ServiceInstance) string {
	return "service:" + registry.InstanceKey(inst)
}

// isUnknownCheck matches the agent's 404 for a check it does not hold. Older
// agents answered 500 with an "Unknown check" body.
func isUnknownCheck(err error) bool {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Unexpected response code: 404") || strings.Contains(msg, "Unknown check")
}

func (c *Client) fields(inst instance.ServiceInstance, kv ...any) map[string]interface{} {
	f := logger.Fields(kv...)
	f[logger.FieldService] = registry.AppName(inst.ServiceName)
	f[logger.FieldInstanceKey] = registry.InstanceKey(inst)
	f[logger.FieldRegistry] = c.cfg.Address
	return f
}
