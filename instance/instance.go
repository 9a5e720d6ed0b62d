package instance

import (
	"fmt"
	"strings"

	"github.com/kbukum/eureka-sidecar/validation"
)

// Default advertised values.
const (
	StatusUp              = "UP"
	StatusDown            = "DOWN"
	DefaultDataCenterName = "MyOwn"
)

// ServiceInstance describes one registrable endpoint of a named service.
type ServiceInstance struct {
	// ID is assigned by the Store on first save; zero means unassigned.
	ID                 int64  `json:"id,omitempty" yaml:"id,omitempty" mapstructure:"id"`
	ServiceName        string `json:"serviceName" yaml:"serviceName" mapstructure:"serviceName"`
	HostName           string `json:"hostName" yaml:"hostName" mapstructure:"hostName"`
	HTTPPort           int    `json:"httpPort" yaml:"httpPort" mapstructure:"httpPort"`
	SecurePort         int    `json:"securePort" yaml:"securePort" mapstructure:"securePort"`
	IPAddr             string `json:"ipAddr" yaml:"ipAddr" mapstructure:"ipAddr"`
	DataCenterInfoName string `json:"dataCenterInfoName" yaml:"dataCenterInfoName" mapstructure:"dataCenterInfoName"`
	Status             string `json:"status" yaml:"status" mapstructure:"status"`
	SSLPreferred       bool   `json:"sslPreferred" yaml:"sslPreferred" mapstructure:"sslPreferred"`
}

// Port returns the port advertised to the registry.
func (s ServiceInstance) Port() int {
	if s.SSLPreferred {
		return s.SecurePort
	}
	return s.HTTPPort
}

// Scheme returns the protocol matching Port.
func (s ServiceInstance) Scheme() string {
	if s.SSLPreferred {
		return "https"
	}
	return "http"
}

// StatusOrDefault returns Status, or UP when none was supplied.
func (s ServiceInstance) StatusOrDefault() string {
	if strings.TrimSpace(s.Status) == "" {
		return StatusUp
	}
	return s.Status
}

// DataCenterOrDefault returns DataCenterInfoName, or MyOwn when none was supplied.
func (s ServiceInstance) DataCenterOrDefault() string {
	if strings.TrimSpace(s.DataCenterInfoName) == "" {
		return DefaultDataCenterName
	}
	return s.DataCenterInfoName
}

// BaseURL is the scheme://host:port root advertised for this instance.
func (s ServiceInstance) BaseURL() string {
	return fmt.Sprintf("%s://%s:%d", s.Scheme(), s.HostName, s.Port())
}

// SameName reports whether two service names match case-insensitively.
func SameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Validate checks the fields a registry call cannot do without. A blank
// service name is allowed; registries advertise it as UNKNOWN.
func (s ServiceInstance) Validate() error {
	v := validation.New().
		Required("hostName", s.HostName).
		OptionalPort("httpPort", s.HTTPPort).
		OptionalPort("securePort", s.SecurePort)
	if s.SSLPreferred {
		v.Port("securePort", s.SecurePort)
	} else {
		v.Port("httpPort", s.HTTPPort)
	}
	return v.Err()
}

// UpdateRequest relocates one configured instance.
type UpdateRequest struct {
	ServiceName  string `json:"serviceName" validate:"required"`
	NewHostName  string `json:"newHostName" validate:"required"`
	NewIPAddress string `json:"newIpAddress"`
	HTTPPort     int    `json:"httpPort" validate:"min=0,max=65535"`
	SecurePort   int    `json:"securePort" validate:"min=0,max=65535"`
	SSLPreferred bool   `json:"sslPreferred"`
}

// Validate checks the request's struct tags.
func (r UpdateRequest) Validate() error {
	return validation.Validate(r)
}

// Apply copies the request's connection fields onto inst.
func (r UpdateRequest) Apply(inst *ServiceInstance) {
	inst.HostName = r.NewHostName
	inst.IPAddr = r.NewIPAddress
	inst.HTTPPort = r.HTTPPort
	inst.SecurePort = r.SecurePort
	inst.SSLPreferred = r.SSLPreferred
}
