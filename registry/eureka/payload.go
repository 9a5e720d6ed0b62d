package eureka

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/kbukum/eureka-sidecar/instance"
	"github.com/kbukum/eureka-sidecar/registry"
)

const defaultDataCenterClass = "com.netflix.appinfo.InstanceInfo$DefaultDataCenterInfo"

// instanceDocument is the <instance> body accepted by POST /eureka/apps/{APP}.
type instanceDocument struct {
	XMLName          xml.Name       `xml:"instance"`
	InstanceID       string         `xml:"instanceId"`
	HostName         string         `xml:"hostName"`
	App              string         `xml:"app"`
	IPAddr           string         `xml:"ipAddr"`
	VIPAddress       string         `xml:"vipAddress"`
	SecureVIPAddress string         `xml:"secureVipAddress"`
	Status           string         `xml:"status"`
	Port             portElement    `xml:"port"`
	SecurePort       portElement    `xml:"securePort"`
	HomePageURL      string         `xml:"homePageUrl"`
	StatusPageURL    string         `xml:"statusPageUrl"`
	HealthCheckURL   string         `xml:"healthCheckUrl"`
	DataCenterInfo   dataCenterInfo `xml:"dataCenterInfo"`
}

type portElement struct {
	Enabled bool `xml:"enabled,attr"`
	Value   int  `xml:",chardata"`
}

type dataCenterInfo struct {
	Class string `xml:"class,attr"`
	Name  string `xml:"name"`
}

func newInstanceDocument(inst instance.ServiceInstance) instanceDocument {
	base := inst.BaseURL()
	vip := strings.ToLower(strings.TrimSpace(inst.ServiceName))
	return instanceDocument{
		InstanceID:       registry.InstanceKey(inst),
		HostName:         inst.HostName,
		App:              registry.AppName(inst.ServiceName),
		IPAddr:           inst.IPAddr,
		VIPAddress:       vip,
		SecureVIPAddress: vip,
		Status:           inst.StatusOrDefault(),
		Port:             portElement{Enabled: !inst.SSLPreferred, Value: inst.HTTPPort},
		SecurePort:       portElement{Enabled: inst.SSLPreferred, Value: inst.SecurePort},
		HomePageURL:      base + "/",
		StatusPageURL:    base + "/actuator/info",
		HealthCheckURL:   base + "/actuator/health",
		DataCenterInfo: dataCenterInfo{
			Class: defaultDataCenterClass,
			Name:  inst.DataCenterOrDefault(),
		},
	}
}

// marshalInstance renders the registration body for inst.
func marshalInstance(inst instance.ServiceInstance) ([]byte, error) {
	body, err := xml.MarshalIndent(newInstanceDocument(inst), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("eureka: marshal instance %s: %w", registry.InstanceKey(inst), err)
	}
	return body, nil
}
