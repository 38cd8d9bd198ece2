package stream

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/Antorou/Togesong/internal/post"

	"github.com/redis/go-redis/v9"
)

const feedChannel = "feed:posts:broadcast"

// Hub fans newly created posts out to connected feed viewers. Instances
// share the feed over a redis channel so a post created on one instance
// reaches clients connected to another.
type Hub struct {
	redis   *redis.Client
	clients map[*Client]struct{}
	mu      sync.RWMutex
}

type Client struct {
	Send chan []byte
}

func NewHub(redisClient *redis.Client) *Hub {
	h := &Hub{
		redis:   redisClient,
		clients: map[*Client]struct{}{},
	}

	if redisClient != nil {
		go h.subscribeRedis()
	}
	return h
}

func (h *Hub) Register() *Client {
	client := &Client{
		Send: make(chan []byte, 64),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.Send)
	}
}

// NotifyPost implements post.FeedNotifier. Encoding failures are logged
// and dropped; fan-out must never fail the write that triggered it.
func (h *Hub) NotifyPost(p post.Post) {
	payload, err := json.Marshal(p)
	if err != nil {
		log.Printf("feed broadcast encode error: %v", err)
		return
	}
	h.Broadcast(payload)
}

// Broadcast delivers a payload to every connected viewer once. With redis
// wired, local clients are served through the subscription like every other
// instance's clients; the direct fan-out runs only when there is no redis
// or the publish failed.
func (h *Hub) Broadcast(payload []byte) {
	if h.redis != nil {
		err := h.redis.Publish(context.Background(), feedChannel, payload).Err()
		if err == nil {
			return
		}
		log.Printf("redis publish error: %v", err)
	}
	h.fanOut(payload)
}

func (h *Hub) fanOut(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis() {
	ctx := context.Background()
	pubsub := h.redis.Subscribe(ctx, feedChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		h.fanOut([]byte(msg.Payload))
	}
}
