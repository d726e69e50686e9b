package notifier

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cjbester78/h2h/server/logger"
	"github.com/cjbester78/h2h/server/model"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const TOPIC_EXECUTIONS = "executions"

func ExecutionTopic(executionId string) string {
	return fmt.Sprintf("execution:%s", executionId)
}

func FlowTopic(flowId string) string {
	return fmt.Sprintf("flow:%s", flowId)
}

type envelope struct {
	Topic   string `json:"topic"`
	Kind    string `json:"kind"`
	Payload any    `json:"payload"`
}

type subscribeRequest struct {
	Action string `json:"action"`
	Topic  string `json:"topic"`
}

// Hub fans execution/step updates out to WebSocket subscribers by topic.
// Sends are non-blocking; a client whose buffer is full loses the message,
// and a client that stops draining gets disconnected. Delivery is strictly
// best effort, the engine never observes the outcome.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	conn   *websocket.Conn
	send   chan []byte
	topics map[string]struct{}
	mu     sync.RWMutex
}

var _ Notifier = new(Hub)

func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request and registers the client. Every client is
// subscribed to the firehose topic until it sends explicit subscriptions.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}
	cl := &client{
		conn:   conn,
		send:   make(chan []byte, 64),
		topics: map[string]struct{}{TOPIC_EXECUTIONS: {}},
	}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
	go cl.writePump(h)
	go cl.readPump(h)
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.send)
		_ = cl.conn.Close()
	}
}

// ClientCount is used by tests and the health endpoint.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) publish(topics []string, kind string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.clients) == 0 {
		return
	}
	for _, topic := range topics {
		data, err := json.Marshal(envelope{Topic: topic, Kind: kind, Payload: payload})
		if err != nil {
			logger.Error("error encoding push message", zap.Error(err))
			return
		}
		for cl := range h.clients {
			if !cl.subscribed(topic) {
				continue
			}
			select {
			case cl.send <- data:
			default:
				// slow client, drop the message
			}
		}
	}
}

func (h *Hub) NotifyExecution(e *model.FlowExecution) {
	update := ExecutionUpdate{
		ExecutionId: e.Id,
		FlowId:      e.FlowId,
		FlowName:    e.FlowName,
		Status:      e.Status,
		Percentage:  e.CompletionPercentage(),
		Summary:     e.Summary,
		Error:       e.Error,
		Timestamp:   time.Now(),
	}
	h.publish([]string{TOPIC_EXECUTIONS, ExecutionTopic(e.Id), FlowTopic(e.FlowId)}, "execution", update)
}

func (h *Hub) NotifyStep(e *model.FlowExecution, step model.ExecutionStep) {
	update := StepUpdate{
		ExecutionId: e.Id,
		FlowId:      e.FlowId,
		Step:        step,
		Timestamp:   time.Now(),
	}
	h.publish([]string{ExecutionTopic(e.Id), FlowTopic(e.FlowId)}, "step", update)
}

func (c *client) subscribed(topic string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.topics[topic]
	return ok
}

func (c *client) readPump(h *Hub) {
	defer h.remove(c)
	c.conn.SetReadLimit(4096)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var req subscribeRequest
		if err := json.Unmarshal(data, &req); err != nil {
			continue
		}
		c.mu.Lock()
		switch req.Action {
		case "subscribe":
			c.topics[req.Topic] = struct{}{}
		case "unsubscribe":
			delete(c.topics, req.Topic)
		}
		c.mu.Unlock()
	}
}

func (c *client) writePump(h *Hub) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		h.remove(c)
	}()
	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
