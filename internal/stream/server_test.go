package stream

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, maxConnections int) (*httptest.Server, *fakeWorkflows) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := NewRegistry(maxConnections)
	workflows := &fakeWorkflows{}
	server := NewServer(registry, NewDispatcher(registry, workflows))

	router := gin.New()
	server.RegisterRoutes(router)

	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts, workflows
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readResponse(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	return decoded
}

func TestServerVoiceListRoundTrip(t *testing.T) {
	ts, _ := newTestServer(t, 5)
	conn := dial(t, ts)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"task":"get_voice_list"}`)))

	decoded := readResponse(t, conn)
	assert.Equal(t, "true", decoded["status"])
	assert.Equal(t, TaskVoiceList, decoded["task"])
	assert.Equal(t, []interface{}{"alice"}, decoded["message"])
}

func TestServerMalformedMessageAlert(t *testing.T) {
	ts, _ := newTestServer(t, 5)
	conn := dial(t, ts)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))

	decoded := readResponse(t, conn)
	assert.Equal(t, "false", decoded["status"])
	assert.Equal(t, TaskAlert, decoded["task"])
}

func TestServerUnknownTaskNoResponse(t *testing.T) {
	ts, _ := newTestServer(t, 5)
	conn := dial(t, ts)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"task":"bogus"}`)))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestServerReconnectSameClient(t *testing.T) {
	// 同一地址重连替换旧会话，第二条连接仍然可用
	ts, _ := newTestServer(t, 1)
	dial(t, ts)
	conn2 := dial(t, ts)

	require.NoError(t, conn2.WriteMessage(websocket.TextMessage, []byte(`{"task":"get_voice_list"}`)))
	decoded := readResponse(t, conn2)
	assert.Equal(t, "true", decoded["status"])
}

func TestServerBinaryFramesIgnored(t *testing.T) {
	ts, workflows := newTestServer(t, 5)
	conn := dial(t, ts)

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{1, 2, 3}))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"task":"get_voice_list"}`)))

	decoded := readResponse(t, conn)
	assert.Equal(t, TaskVoiceList, decoded["task"])
	assert.Equal(t, 1, workflows.listCount())
}
