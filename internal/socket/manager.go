package socket

import (
    "context"
    "strings"
    "sync"

    "github.com/ninthgrid/ninthgrid-backend/internal/logger"
)

// ChannelPrefix is the only channel family clients may subscribe to.
const ChannelPrefix = "upload:"

// Message is the frame sent to sockets and relayed through redis.
type Message struct {
    Channel string      `json:"channel"`
    Payload interface{} `json:"payload"`
}

type Hub struct {
    log      *logger.Logger
    mu       sync.RWMutex
    channels map[string]map[string]*Client

    redisPubSub *RedisPubSub
}

func NewHub(log *logger.Logger) *Hub {
    return &Hub{
        log:      log.With("component", "Hub"),
        channels: make(map[string]map[string]*Client),
    }
}

// SetRedisPubSub makes BroadcastGlobal publish through redis instead of delivering locally.
func (h *Hub) SetRedisPubSub(rp *RedisPubSub) {
    h.redisPubSub = rp
}

func ChannelAllowed(channel string) bool {
    return strings.HasPrefix(channel, ChannelPrefix) && len(channel) > len(ChannelPrefix)
}

func (h *Hub) Subscribe(client *Client, channels []string) {
    h.mu.Lock()
    defer h.mu.Unlock()

    for _, ch := range channels {
        if h.channels[ch] == nil {
            h.channels[ch] = make(map[string]*Client)
        }
        h.channels[ch][client.ID] = client
    }
    h.log.Debug("Client subscribed", "client", client.ID, "channels", channels)
}

// Unsubscribe drops client from every channel. After it returns no broadcast will touch the client.
func (h *Hub) Unsubscribe(client *Client) {
    h.mu.Lock()
    defer h.mu.Unlock()

    for ch, clientsMap := range h.channels {
        if _, ok := clientsMap[client.ID]; ok {
            delete(clientsMap, client.ID)
            if len(clientsMap) == 0 {
                delete(h.channels, ch)
            }
        }
    }
    h.log.Debug("Client unsubscribed from all channels", "client", client.ID)
}

func (h *Hub) UnsubscribeFromChannel(client *Client, channel string) {
    h.mu.Lock()
    defer h.mu.Unlock()
    if clientsMap, ok := h.channels[channel]; ok {
        delete(clientsMap, client.ID)
        if len(clientsMap) == 0 {
            delete(h.channels, channel)
        }
    }
}

// Subscribers reports how many clients listen on channel.
func (h *Hub) Subscribers(channel string) int {
    h.mu.RLock()
    defer h.mu.RUnlock()
    return len(h.channels[channel])
}

func (h *Hub) localBroadcast(msg Message) {
    h.mu.RLock()
    defer h.mu.RUnlock()

    clientsMap, ok := h.channels[msg.Channel]
    if !ok {
        return
    }
    for _, client := range clientsMap {
        select {
        case client.Outbound <- msg:
        default:
            h.log.Warn("Dropping message to client; outbound buffer full", "client", client.ID, "channel", msg.Channel)
        }
    }
}

// BroadcastGlobal reaches every node: through redis when configured, otherwise to local sockets only.
// With redis the local delivery happens when the subscriber receives our own publish.
func (h *Hub) BroadcastGlobal(ctx context.Context, msg Message) {
    if h.redisPubSub == nil {
        h.localBroadcast(msg)
        return
    }
    if err := h.redisPubSub.Publish(ctx, msg); err != nil {
        h.log.Warn("Failed to publish to Redis, delivering locally", "error", err)
        h.localBroadcast(msg)
    }
}
