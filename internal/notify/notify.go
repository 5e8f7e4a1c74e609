package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dgnsrekt/tabtracker/internal/tabstate"
)

const sendTimeout = 5 * time.Second

// URLChangeListener returns a cache listener that posts a plain-text message
// to an NTFY-style endpoint on every URL change. Delivery is best-effort:
// failures are swallowed so a slow or dead endpoint never stalls dispatch.
func URLChangeListener(endpoint string, client *http.Client) tabstate.Listener {
	return func(change tabstate.URLChange) {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		msg := fmt.Sprintf("tab %d navigated to %s", change.TabID, change.URL)
		_ = Send(ctx, client, endpoint, msg)
	}
}

// Send sends a message to the requested endpoint using HTTP POST.
func Send(ctx context.Context, client *http.Client, endpoint, message string) error {
	c := client
	if c == nil {
		c = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(message))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy notification failed: status=%d", resp.StatusCode)
	}
	return nil
}
