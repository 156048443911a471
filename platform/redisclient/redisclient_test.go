package redisclient

import "testing"

type testRedisConfig struct {
	url      string
	insecure bool
}

func (c testRedisConfig) GetRedisURL() string       { return c.url }
func (c testRedisConfig) GetRedisTLSInsecure() bool { return c.insecure }

func TestOptionsRequiresURL(t *testing.T) {
	if _, err := Options(testRedisConfig{}); err == nil {
		t.Fatalf("expected error for empty redis url")
	}
}

func TestOptionsParsesURL(t *testing.T) {
	opt, err := Options(testRedisConfig{url: "redis://:secret@localhost:6380/2"})
	if err != nil {
		t.Fatalf("Options returned error: %v", err)
	}
	if opt.Addr != "localhost:6380" || opt.DB != 2 || opt.Password != "secret" {
		t.Fatalf("unexpected options: addr=%s db=%d", opt.Addr, opt.DB)
	}
	if opt.TLSConfig != nil {
		t.Fatalf("expected no TLS config for redis:// scheme")
	}
}

func TestOptionsInsecureTLS(t *testing.T) {
	opt, err := Options(testRedisConfig{url: "rediss://localhost:6380/0", insecure: true})
	if err != nil {
		t.Fatalf("Options returned error: %v", err)
	}
	if opt.TLSConfig == nil || !opt.TLSConfig.InsecureSkipVerify {
		t.Fatalf("expected insecure TLS config")
	}
}
