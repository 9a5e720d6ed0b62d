// Package registry defines the contract between the lifecycle engine and a
// service registry.
//
// A Client registers, heartbeats and deregisters one instance at a time and
// classifies each heartbeat as OK, failed, or not found. Not found means the
// registry has no record of the instance and drives re-registration.
//
// # Backends
//
//   - registry/eureka: Netflix Eureka REST API (XML payloads)
//   - registry/consul: HashiCorp Consul agent with TTL checks
//
// Backends register themselves through RegisterProviderFactory from an init
// function; New builds the configured one by name.
package registry
