package notifier

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cjbester78/h2h/server/model"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleExecution() *model.FlowExecution {
	return &model.FlowExecution{
		Id:       "exec-1",
		FlowId:   "flow-1",
		FlowName: "orders",
		Status:   model.EXECUTION_RUNNING,
	}
}

func TestHubNotifyWithoutSubscribers(t *testing.T) {
	h := NewHub()
	assert.Equal(t, 0, h.ClientCount())

	// must be a no-op, never a block or a panic
	h.NotifyExecution(sampleExecution())
	h.NotifyStep(sampleExecution(), model.ExecutionStep{Name: "discover", Status: model.STEP_RUNNING})
}

func dialHub(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal(data, &env))
	return env
}

func TestHubDeliversExecutionUpdates(t *testing.T) {
	h := NewHub()
	conn := dialHub(t, h)

	h.NotifyExecution(sampleExecution())

	env := readEnvelope(t, conn)
	assert.Equal(t, TOPIC_EXECUTIONS, env.Topic)
	assert.Equal(t, "execution", env.Kind)
	payload, err := json.Marshal(env.Payload)
	require.NoError(t, err)
	var update ExecutionUpdate
	require.NoError(t, json.Unmarshal(payload, &update))
	assert.Equal(t, "exec-1", update.ExecutionId)
	assert.Equal(t, model.EXECUTION_RUNNING, update.Status)
}

func TestHubStepUpdatesRequireSubscription(t *testing.T) {
	h := NewHub()
	conn := dialHub(t, h)

	// step updates only go to execution and flow topics, the default
	// firehose subscription does not see them
	sub := subscribeRequest{Action: "subscribe", Topic: ExecutionTopic("exec-1")}
	data, err := json.Marshal(sub)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))

	// keep notifying until the subscription has taken effect; before it
	// does, nothing reaches this client
	step := model.ExecutionStep{Name: "transfer", Status: model.STEP_COMPLETED}
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				h.NotifyStep(sampleExecution(), step)
			}
		}
	}()

	env := readEnvelope(t, conn)
	assert.Equal(t, "step", env.Kind)
	assert.Equal(t, ExecutionTopic("exec-1"), env.Topic)
}

func TestHubRemovesDisconnectedClients(t *testing.T) {
	h := NewHub()
	conn := dialHub(t, h)
	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
