package ws

import (
	nethttp "net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"roadrunner/server/internal/game"
	"roadrunner/server/internal/net/proto"
	"roadrunner/server/internal/world"
)

// Application is the slice of the game the stream handler needs.
type Application interface {
	Authorize(raw string) (*game.Player, error)
	Action(raw, move string) error
	Ticks() uint64
}

type HandlerConfig struct {
	ReadLimit int64
}

type Handler struct {
	app      Application
	hub      *Hub
	upgrader websocket.Upgrader
	cfg      HandlerConfig
}

func NewHandler(app Application, hub *Hub, cfg HandlerConfig) *Handler {
	if cfg.ReadLimit <= 0 {
		cfg.ReadLimit = 4096
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}
	return &Handler{app: app, hub: hub, upgrader: upgrader, cfg: cfg}
}

// ServeHTTP authorizes the token query parameter, upgrades the connection,
// sends the current state and then applies move messages until the client
// goes away.
func (h *Handler) ServeHTTP(w nethttp.ResponseWriter, r *nethttp.Request) {
	token := r.URL.Query().Get("token")
	player, err := h.app.Authorize(token)
	if err != nil {
		code, status := proto.Classify(err)
		data, _ := proto.EncodeError(code, err.Error())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write(data)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.hub.logger.Printf("upgrade failed for player %d: %v", player.ID, err)
		return
	}
	conn.SetReadLimit(h.cfg.ReadLimit)

	ctx := r.Context()
	sub := &subscriber{conn: conn, mapID: player.MapID(), dogID: player.ID}
	tick := h.app.Ticks()

	data, err := h.hub.encodeState(tick, sub.mapID)
	if err != nil {
		h.hub.logger.Printf("failed to marshal initial state for player %d: %v", player.ID, err)
		conn.Close()
		return
	}
	if err := sub.write(websocket.TextMessage, data); err != nil {
		conn.Close()
		return
	}
	h.hub.subscribe(ctx, sub, tick)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			reason := "client closed"
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				reason = "read failed"
			}
			h.hub.unsubscribe(ctx, sub, h.app.Ticks(), reason)
			return
		}

		msg, err := proto.DecodeClientMessage(payload)
		if err != nil {
			if !h.reply(sub, errorReply(proto.CodeBadRequest, err.Error())) {
				h.hub.unsubscribe(ctx, sub, h.app.Ticks(), "write failed")
				return
			}
			continue
		}

		var reply func() ([]byte, error)
		switch msg.Type {
		case proto.TypeMove:
			if err := h.app.Action(token, msg.Move); err != nil {
				code, _ := proto.Classify(err)
				reply = errorReply(code, err.Error())
			} else {
				reply = func() ([]byte, error) { return proto.EncodeAck(proto.Ack{Of: proto.TypeMove}) }
			}
		case proto.TypeHeartbeat:
			reply = func() ([]byte, error) {
				return proto.EncodeAck(proto.Ack{
					Of:         proto.TypeHeartbeat,
					ServerTime: time.Now().UnixMilli(),
					ClientTime: msg.SentAt,
				})
			}
		default:
			reply = errorReply(proto.CodeBadRequest, "unknown message type "+strconv.Quote(msg.Type))
		}
		if !h.reply(sub, reply) {
			h.hub.unsubscribe(ctx, sub, h.app.Ticks(), "write failed")
			return
		}
	}
}

func (h *Handler) reply(sub *subscriber, encode func() ([]byte, error)) bool {
	data, err := encode()
	if err != nil {
		h.hub.logger.Printf("failed to marshal reply for player %d: %v", sub.dogID, err)
		return true
	}
	return sub.write(websocket.TextMessage, data) == nil
}

func errorReply(code, message string) func() ([]byte, error) {
	return func() ([]byte, error) { return proto.EncodeError(code, message) }
}

func dogKey(id world.DogID) string {
	return strconv.FormatUint(uint64(id), 10)
}
