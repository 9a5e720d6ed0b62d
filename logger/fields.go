package logger

// Standard field keys used across the sidecar.
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldService     = "service"
	FieldInstanceKey = "instance_key"
	FieldInstanceID  = "instance_id"
	FieldAttempt     = "attempt"
	FieldDelay       = "delay"
	FieldRegistry    = "registry"
	FieldOperation   = "operation"
	FieldError       = "error"
	FieldDuration    = "duration_ms"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	logger.Info("done", logger.Fields("op", "save", "id", 42))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}
