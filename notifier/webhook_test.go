package notifier

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertPostsJSON(t *testing.T) {
	var mu sync.Mutex
	var got []WebhookMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var m WebhookMessage
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&m))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		mu.Lock()
		got = append(got, m)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := New(srv.URL, time.Hour, 2)
	n.Alert("fetch of /vps-setup.sh failed", "critical")
	n.Alert("second", "critical")
	n.Alert("throttled", "critical")
	n.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	assert.Equal(t, "critical", got[0].Severity)
	assert.Contains(t, []string{got[0].Text, got[1].Text}, "[scriptedge] fetch of /vps-setup.sh failed")
	assert.False(t, got[0].Timestamp.IsZero())
}

func TestDisabledNotifier(t *testing.T) {
	n := New("", 0, 0)
	assert.False(t, n.Enabled())
	n.Alert("ignored", "info")
	n.Wait()

	var nilNotifier *Notifier
	assert.False(t, nilNotifier.Enabled())
	nilNotifier.Alert("ignored", "info")
	nilNotifier.Wait()
}
