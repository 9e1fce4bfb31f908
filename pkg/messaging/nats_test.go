package messaging

import (
	"testing"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{name: "bytes", in: []byte("raw"), want: "raw"},
		{name: "string", in: "text", want: "text"},
		{name: "json", in: map[string]int{"count": 2}, want: `{"count":2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := encode(tt.in)
			if err != nil {
				t.Fatalf("encode failed: %v", err)
			}
			if string(got) != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestEncode_Unsupported(t *testing.T) {
	if _, err := encode(make(chan int)); err == nil {
		t.Fatalf("expected error for unsupported payload")
	}
}

func TestStreamConfigs(t *testing.T) {
	subjects := map[string]string{}
	for _, cfg := range streamConfigs() {
		subjects[cfg.Name] = cfg.Subjects[0]
	}
	if subjects[StreamPO] != "po.*" || subjects[StreamAlerts] != "alerts.*" {
		t.Fatalf("unexpected stream subjects %v", subjects)
	}
}
