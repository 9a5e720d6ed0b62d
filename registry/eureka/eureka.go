package eureka

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kbukum/eureka-sidecar/httpclient"
	"github.com/kbukum/eureka-sidecar/instance"
	"github.com/kbukum/eureka-sidecar/logger"
	"github.com/kbukum/eureka-sidecar/registry"
)

const providerName = "eureka"

var xmlHeaders = map[string]string{
	"Content-Type": "application/xml",
	"Accept":       "application/xml",
}

func init() {
	registry.RegisterProviderFactory(providerName, func(providerCfg any, log *logger.Logger) (registry.Client, error) {
		switch cfg := providerCfg.(type) {
		case Config:
			return NewClient(cfg, log)
		case *Config:
			return NewClient(*cfg, log)
		default:
			return nil, fmt.Errorf("eureka: unexpected config type %T", providerCfg)
		}
	})
}

// Client talks to the Eureka REST API.
type Client struct {
	http *httpclient.Client
	host string
	log  *logger.Logger
}

var _ registry.Client = (*Client)(nil)

// NewClient creates a Client from the given Config.
func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hc, err := httpclient.New(httpclient.Config{
		BaseURL:            cfg.URL,
		Timeout:            cfg.Timeout,
		Username:           cfg.Username,
		Password:           cfg.Password,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	})
	if err != nil {
		return nil, fmt.Errorf("eureka http client: %w", err)
	}

	return &Client{
		http: hc,
		host: cfg.Host(),
		log:  log.WithComponent("eureka"),
	}, nil
}

// Name returns the registry kind.
func (c *Client) Name() string { return providerName }

// Register posts the instance document. Only 204 No Content counts as accepted.
func (c *Client) Register(ctx context.Context, inst instance.ServiceInstance) bool {
	app := registry.AppName(inst.ServiceName)
	c.warnBlankName(inst)

	body, err := marshalInstance(inst)
	if err != nil {
		c.log.Error("failed to build registration payload", c.fields(inst, logger.FieldError, err.Error()))
		return false
	}

	resp, err := c.http.Do(ctx, httpclient.Request{
		Method:  http.MethodPost,
		Path:    app,
		Headers: xmlHeaders,
		Body:    body,
	})
	if resp == nil {
		c.log.Error("error registering instance", c.failureFields(inst, err))
		return false
	}
	if resp.StatusCode == http.StatusNoContent {
		c.log.Info("registered instance", c.fields(inst))
		return true
	}

	c.log.Error("failed to register instance", c.fields(inst,
		"status", resp.StatusCode,
		"body", string(resp.Body),
	))
	return false
}

// Heartbeat renews the lease with PUT {app}/{instanceKey}. A 404 means the
// server has forgotten the instance.
func (c *Client) Heartbeat(ctx context.Context, inst instance.ServiceInstance) registry.HeartbeatResult {
	_, err := c.http.Do(ctx, httpclient.Request{
		Method: http.MethodPut,
		Path:   c.instancePath(inst),
	})
	switch {
	case err == nil:
		c.log.Debug("heartbeat ok", c.fields(inst))
		return registry.HeartbeatOK
	case httpclient.IsNotFound(err):
		c.log.Warn("heartbeat: instance not found", c.fields(inst))
		return registry.HeartbeatNotFound
	default:
		c.log.Error("heartbeat failed", c.failureFields(inst, err))
		return registry.HeartbeatFailed
	}
}

// Deregister issues DELETE {app}/{instanceKey}.
func (c *Client) Deregister(ctx context.Context, inst instance.ServiceInstance) {
	_, err := c.http.Do(ctx, httpclient.Request{
		Method: http.MethodDelete,
		Path:   c.instancePath(inst),
	})
	if err != nil {
		c.log.Error("error deregistering instance", c.fields(inst, logger.FieldError, err.Error()))
		return
	}
	c.log.Info("deregistered instance", c.fields(inst))
}

func (c *Client) instancePath(inst instance.ServiceInstance) string {
	return registry.AppName(inst.ServiceName) + "/" + registry.InstanceKey(inst)
}

func (c *Client) warnBlankName(inst instance.ServiceInstance) {
	if strings.TrimSpace(inst.ServiceName) == "" {
		c.log.Warn("service name is blank, registering as UNKNOWN", c.fields(inst))
	}
}

func (c *Client) fields(inst instance.ServiceInstance, kv ...any) map[string]interface{} {
	f := logger.Fields(kv...)
	f[logger.FieldService] = registry.AppName(inst.ServiceName)
	f[logger.FieldInstanceKey] = registry.InstanceKey(inst)
	f[logger.FieldRegistry] = c.host
	return f
}

// failureFields tags a transport or status failure with whether it timed out
// and whether a later attempt could succeed.
func (c *Client) failureFields(inst instance.ServiceInstance, err error) map[string]interface{} {
	f := c.fields(inst, logger.FieldError, err.Error(), "timeout", httpclient.IsTimeout(err))
	var he *httpclient.Error
	if errors.As(err, &he) {
		f["temporary"] = he.Temporary()
	}
	return f
}
