package cache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestNewCache(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name     string
		cfg      Config
		wantNil  bool
		wantName string
		wantErr  bool
	}{
		{name: "none", cfg: Config{Type: "none"}, wantNil: true},
		{name: "empty", cfg: Config{Type: ""}, wantNil: true},
		{name: "memory", cfg: Config{Type: "memory", TTL: time.Minute}, wantName: "memory"},
		{name: "memory mixed case", cfg: Config{Type: " Memory "}, wantName: "memory"},
		{name: "redis", cfg: Config{Type: "redis", TTL: time.Minute, RedisAddr: mr.Addr()}, wantName: "redis"},
		{name: "redis unreachable", cfg: Config{Type: "redis", RedisAddr: "invalid:9999"}, wantErr: true},
		{name: "unknown", cfg: Config{Type: "memcached"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCache(tt.cfg)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantNil {
				if c != nil {
					t.Errorf("expected nil cache, got %s", c.Name())
				}
				return
			}
			defer c.Close()
			if c.Name() != tt.wantName {
				t.Errorf("expected %s cache, got %s", tt.wantName, c.Name())
			}
		})
	}
}
