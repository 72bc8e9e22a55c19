package metadata

// Header keys set on every published envelope. They duplicate envelope fields
// so brokers, logs and middleware can route or inspect without decoding the
// payload.
const (
	// KeyCorrelationID carries the request id of requests and responses.
	KeyCorrelationID = "correlation_id"
	// KeyType is the envelope type.
	KeyType = "relay_type"
	// KeyMethod is the invoked method of requests and notifications.
	KeyMethod = "relay_method"
	// KeyFrom is the sender address.
	KeyFrom = "relay_from"
	// KeyTo is the destination address.
	KeyTo = "relay_to"
	// KeyContentType names the codec of the payload.
	KeyContentType = "content_type"
)

// ContentType maps a codec name to the MIME type advertised in KeyContentType.
func ContentType(codec string) string {
	switch codec {
	case "proto":
		return "application/x-protobuf"
	default:
		return "application/json"
	}
}
