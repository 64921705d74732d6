package shared

import (
	"context"
	"net"
	"sync/atomic"
	"time"
)

// UseResolver routes the process-wide resolver through servers (host:port),
// trying them round-robin. mongodb+srv:// URIs need SRV and TXT lookups that
// some host resolvers refuse. An empty list leaves the resolver untouched.
func UseResolver(servers []string) {
	if len(servers) == 0 {
		return
	}
	var next atomic.Uint32
	d := net.Dialer{Timeout: 5 * time.Second}
	net.DefaultResolver = &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
			addr := servers[int(next.Add(1)-1)%len(servers)]
			return d.DialContext(ctx, network, addr)
		},
	}
}
