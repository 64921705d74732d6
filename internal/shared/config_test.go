package shared

import (
	"net"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("CACHE_TTL_SECONDS", "")
	t.Setenv("RATE_LIMIT_RPS", "")

	c := Load()
	if c.StoreDriver != "mysql" || c.CacheTTL != 900*time.Second || c.RateLimitRPS != 20 {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Mongo")
	t.Setenv("CACHE_TTL_SECONDS", "60")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "bogus")
	t.Setenv("DNS_SERVERS", " 1.1.1.1:53 ,, 9.9.9.9:53")

	c := Load()
	if c.StoreDriver != "mongo" || c.CacheTTL != time.Minute {
		t.Fatalf("unexpected config: %+v", c)
	}
	if c.RequestTimeout != 15*time.Second {
		t.Fatalf("unparsable value should fall back, got %v", c.RequestTimeout)
	}
	if len(c.DNSServers) != 2 || c.DNSServers[1] != "9.9.9.9:53" {
		t.Fatalf("dns servers: %v", c.DNSServers)
	}
}

func TestLoad_EmptyDNSDisables(t *testing.T) {
	t.Setenv("DNS_SERVERS", "")
	if c := Load(); len(c.DNSServers) != 0 {
		t.Fatalf("expected no dns servers, got %v", c.DNSServers)
	}
}

func TestUseResolver_EmptyKeepsDefault(t *testing.T) {
	before := net.DefaultResolver
	UseResolver(nil)
	if net.DefaultResolver != before {
		t.Fatalf("resolver replaced")
	}
}
