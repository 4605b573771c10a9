package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor
	FieldUserID = "user_id"

	// Service
	FieldService = "service"

	// Peer lookups
	FieldPeer = "peer"
	FieldURL  = "url"

	// Events
	FieldTopic     = "topic"
	FieldEventType = "event_type"
	FieldPartition = "partition"
	FieldOffset    = "offset"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
