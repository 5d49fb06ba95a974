package noteinsights

import (
	"testing"
	"time"

	"github.com/botirk38/noteinsights/types"
)

func TestResolve_Defaults(t *testing.T) {
	in := types.RunConfig{RetryAttempts: 0}
	got, err := resolve(in)
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}

	def := DefaultRunConfig()
	if got.MaxTokensPerRequest != def.MaxTokensPerRequest {
		t.Errorf("MaxTokensPerRequest = %d", got.MaxTokensPerRequest)
	}
	if got.InsertPosition != types.InsertBottom {
		t.Errorf("InsertPosition = %q", got.InsertPosition)
	}
	if got.RequestTimeout != def.RequestTimeout {
		t.Errorf("RequestTimeout = %s", got.RequestTimeout)
	}
	if got.Backoff != def.Backoff {
		t.Errorf("Backoff = %+v", got.Backoff)
	}
	if got.Concurrency != 1 {
		t.Errorf("Concurrency = %d", got.Concurrency)
	}
	if got.RetryAttempts != 0 {
		t.Errorf("RetryAttempts = %d, zero must be kept", got.RetryAttempts)
	}
	if in.MaxTokensPerRequest != 0 {
		t.Error("caller's config must not be modified")
	}
}

func TestResolve_Invalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  types.RunConfig
	}{
		{"negative budget", types.RunConfig{MaxTokensPerRequest: -1}},
		{"negative retries", types.RunConfig{RetryAttempts: -1}},
		{"negative timeout", types.RunConfig{RequestTimeout: -time.Second}},
		{"unknown position", types.RunConfig{InsertPosition: "middle"}},
		{"negative test mode cap", types.RunConfig{TestMode: types.TestMode{Enabled: true, MaxFiles: -1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := resolve(tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}
