package log

import (
	"net/http"
	"time"
)

// Transport is an http.RoundTripper for service-to-service calls. It forwards
// the caller's request ID and logs every outbound request through the context
// logger of the request that triggered it.
type Transport struct {
	// Peer names the remote service in log entries.
	Peer string
	// Base performs the request. http.DefaultTransport is used when nil.
	Base http.RoundTripper
}

// NewTransport returns a Transport for the named peer.
func NewTransport(peer string) *Transport {
	return &Transport{Peer: peer}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	ctx := req.Context()

	if id := RequestID(ctx); id != "" && req.Header.Get(headerRequestID) == "" {
		// RoundTrippers must not modify the caller's request.
		req = req.Clone(ctx)
		req.Header.Set(headerRequestID, id)
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	resp, err := base.RoundTrip(req)

	l := Ctx(ctx)
	latency := float64(time.Since(start).Milliseconds())
	if err != nil {
		l.Warn().Err(err).
			Str(FieldPeer, t.Peer).
			Str(FieldMethod, req.Method).
			Str(FieldURL, req.URL.String()).
			Float64(FieldLatency, latency).
			Msg("peer request failed")
		return nil, err
	}

	l.Debug().
		Str(FieldPeer, t.Peer).
		Str(FieldMethod, req.Method).
		Str(FieldURL, req.URL.String()).
		Int(FieldStatus, resp.StatusCode).
		Float64(FieldLatency, latency).
		Msg("peer request completed")

	return resp, nil
}
