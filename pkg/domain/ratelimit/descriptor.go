package ratelimit

import "net/http"

// Descriptor is the normalized view of an incoming request the admission
// subsystem works on. It is filled by the HTTP layer.
type Descriptor struct {
	Method     string
	Path       string
	RemoteAddr string
	Headers    http.Header
	CallerID   string
	Tier       string
}

func (d Descriptor) Header(name string) string {
	if d.Headers == nil {
		return ""
	}
	return d.Headers.Get(name)
}
