package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/accessimport/internal/core"
)

// WithRequestMetadata adds the client IP and User-Agent to ctx for the
// activity log.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ip := r.RemoteAddr // already rewritten by TrustedRealIP
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	ctx = core.ContextWithIPAddress(ctx, ip)
	ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
	return ctx
}
