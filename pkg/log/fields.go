package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor (matches pkg/middleware/identity.go)
	FieldIdentity = "identity"

	// Chat
	FieldParticipant = "participant"
	FieldMessageID   = "message_id"
	FieldKind        = "kind"
	FieldThreshold   = "threshold"

	// Service
	FieldService   = "service"
	FieldComponent = "component"
)
