// Package validation checks instance records, update requests and service
// configuration before they reach the lifecycle engine.
//
// Struct tag validation uses go-playground/validator and reports field names
// by their json tag:
//
//	type UpdateRequest struct {
//	    ServiceName string `json:"serviceName" validate:"required"`
//	    HTTPPort    int    `json:"httpPort" validate:"min=1,max=65535"`
//	}
//	err := validation.Validate(req)
//
// Cross-field rules use a Validator, which keeps the first failure per field:
//
//	err := validation.New().
//	    Required("serviceName", inst.ServiceName).
//	    Port("httpPort", inst.HTTPPort).
//	    Err()
package validation
