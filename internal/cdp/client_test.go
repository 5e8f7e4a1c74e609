package cdp

import (
	"context"
	"testing"

	"github.com/dgnsrekt/tabtracker/internal/config"
	"github.com/dgnsrekt/tabtracker/internal/tabstate"
)

type discardSink struct{}

func (discardSink) OnNavigation(tabstate.NavigationEvent) {}

func TestConnectHonorsCanceledContext(t *testing.T) {
	cfg := &config.Config{CDPAddress: "127.0.0.1", CDPPort: 9}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(cfg, discardSink{}, nil)
	defer c.Close()

	if err := c.Connect(ctx); err == nil {
		t.Fatalf("Connect() error = nil with canceled context; want error")
	}
}
