package runtime

import (
	"net/http"
	"strings"

	"github.com/drblury/relay/internal/runtime/jsoncodec"
)

const defaultAdminPort = 8081

// EndpointStatus is the admin view of an Endpoint.
type EndpointStatus struct {
	Identity     string                 `json:"identity"`
	PubSubSystem string                 `json:"pubsub_system"`
	Codec        string                 `json:"codec"`
	Handlers     []string               `json:"handlers"`
	Pending      int                    `json:"pending"`
	Capabilities EndpointCapabilityView `json:"capabilities"`
}

type EndpointCapabilityView struct {
	Ordering       bool  `json:"ordering"`
	Tracing        bool  `json:"tracing"`
	Ack            bool  `json:"ack"`
	Nack           bool  `json:"nack"`
	Partitioning   bool  `json:"partitioning"`
	MaxMessageSize int64 `json:"max_message_size"`
}

// Status snapshots the endpoint's identity, registry and pending table.
func (e *Endpoint) Status() EndpointStatus {
	status := EndpointStatus{
		Handlers: []string{},
		Capabilities: EndpointCapabilityView{
			Ordering:       e.capabilities.SupportsOrdering,
			Tracing:        e.capabilities.SupportsTracing,
			Ack:            e.capabilities.SupportsAck,
			Nack:           e.capabilities.SupportsNack,
			Partitioning:   e.capabilities.SupportsPartitioning,
			MaxMessageSize: e.capabilities.MaxMessageSize,
		},
	}
	if e.Conf != nil {
		status.Identity = e.Conf.Identity
		status.PubSubSystem = e.transportName()
	}
	if e.codec != nil {
		status.Codec = e.codec.Name()
	}
	if e.dispatcher != nil {
		status.Handlers = append(status.Handlers, e.dispatcher.Handlers()...)
		status.Pending = e.dispatcher.Pending()
	}
	return status
}

// registerAdminServer mounts the admin API when enabled. The server itself
// starts with the endpoint.
func (e *Endpoint) registerAdminServer() {
	if e.Conf == nil || !e.Conf.AdminEnabled {
		return
	}

	port := e.Conf.AdminPort
	if port == 0 {
		port = defaultAdminPort
	}

	e.RegisterHTTPHandler(port, "/api/status", http.HandlerFunc(e.handleGetStatus))
}

func (e *Endpoint) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if e.Conf != nil && len(e.Conf.AdminCORSAllowedOrigins) > 0 {
		if allowed := e.allowedCORSOrigin(r.Header.Get("Origin")); allowed != "" {
			w.Header().Set("Access-Control-Allow-Origin", allowed)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
	}

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodGet, http.MethodHead:
	default:
		w.Header().Set("Allow", "GET, OPTIONS")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := jsoncodec.Encode(w, e.Status()); err != nil {
		e.Logger.Error("Failed to encode endpoint status", err, nil)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// allowedCORSOrigin returns the Access-Control-Allow-Origin value for
// requestOrigin, or "" when it is not allowed.
func (e *Endpoint) allowedCORSOrigin(requestOrigin string) string {
	for _, allowed := range e.Conf.AdminCORSAllowedOrigins {
		if allowed == "*" {
			return "*"
		}
		if strings.EqualFold(allowed, requestOrigin) {
			return requestOrigin
		}
	}
	return ""
}
