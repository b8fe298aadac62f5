package ws_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudk/scope"
	"github.com/dudk/scope/ws"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// repeat keeps broadcasting until done closes, so the reader does not
// depend on when the server registers the client.
func repeat(fn func()) (stop func()) {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
	return func() { close(done) }
}

func TestSinkFrames(t *testing.T) {
	sink := ws.NewSink()
	defer sink.Close()
	srv := httptest.NewServer(sink)
	defer srv.Close()

	conn := dial(t, srv)
	handler := sink.HandleFrame("ch1")
	stop := repeat(func() { handler(scope.Frame{1, 2, 3}) })
	defer stop()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg ws.FrameMessage
	require.NoError(t, conn.ReadJSON(&msg))

	assert.Equal(t, "ch1", msg.Channel)
	assert.Equal(t, []float64{1, 2, 3}, msg.Samples)
	assert.NotZero(t, msg.Seq)
}

func TestSinkValues(t *testing.T) {
	sink := ws.NewSink()
	defer sink.Close()
	srv := httptest.NewServer(sink)
	defer srv.Close()

	conn := dial(t, srv)
	handler := sink.HandleValue("ch1", scope.RMS)
	stop := repeat(func() { handler(0.7071) })
	defer stop()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg ws.ValueMessage
	require.NoError(t, conn.ReadJSON(&msg))

	assert.Equal(t, "ch1", msg.Channel)
	assert.Equal(t, scope.RMS.String(), msg.Statistic)
	assert.Equal(t, 0.7071, msg.Value)
}

func TestSinkClose(t *testing.T) {
	sink := ws.NewSink()
	srv := httptest.NewServer(sink)
	defer srv.Close()

	conn := dial(t, srv)
	sink.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			assert.Error(t, err)
			return
		}
	}
}
