package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/BrianBNeal/DistributedDemo/internal/config"
	"github.com/BrianBNeal/DistributedDemo/internal/domain"
	"github.com/BrianBNeal/DistributedDemo/internal/hub"
	"github.com/BrianBNeal/DistributedDemo/internal/log"
	"github.com/BrianBNeal/DistributedDemo/internal/service"
)

// WSHandler upgrades connections and dispatches inbound chat requests.
type WSHandler struct {
	hub      *hub.Hub
	service  service.ChatService
	wsCfg    config.WebSocketConfig
	upgrader websocket.Upgrader
}

// NewWSHandler creates the websocket handler.
func NewWSHandler(h *hub.Hub, svc service.ChatService, wsCfg config.WebSocketConfig) *WSHandler {
	return &WSHandler{
		hub:     h,
		service: svc,
		wsCfg:   wsCfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// RegisterRoutes mounts the chat hub endpoint.
func (h *WSHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc(domain.ChatHubPath, h.HandleWebSocket)
}

// HandleWebSocket upgrades the request and starts the client pumps.
func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	l := log.L()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), h.hub, conn, h.wsCfg)
	h.hub.Register(client)

	l.Info().Str(log.FieldConnID, client.ID).Msg("new connection established")

	go client.WritePump()
	go client.ReadPump(h.handleMessage, h.onDisconnect)
}

func (h *WSHandler) handleMessage(c *hub.Client, message []byte) {
	l := log.L()

	var base domain.Envelope
	if err := json.Unmarshal(message, &base); err != nil {
		c.SendMessage(domain.NewConnectionError("Invalid message format"))
		return
	}

	ctx := context.Background()

	switch base.Type {
	case domain.MethodJoinChat:
		var req domain.JoinChatRequest
		if err := json.Unmarshal(message, &req); err != nil {
			c.SendMessage(domain.NewConnectionError("Invalid JoinChat request"))
			return
		}
		if err := h.service.HandleJoin(ctx, c.ID, req.UserName); err != nil {
			l.Debug().Err(err).Str(log.FieldConnID, c.ID).Msg("join rejected")
		}

	case domain.MethodSendMessage:
		var req domain.SendMessageRequest
		if err := json.Unmarshal(message, &req); err != nil {
			c.SendMessage(domain.NewConnectionError("Invalid SendMessage request"))
			return
		}
		if err := h.service.HandleSend(ctx, c.ID, req.Content); err != nil {
			l.Debug().Err(err).Str(log.FieldConnID, c.ID).Msg("send rejected")
		}

	case domain.MethodLeaveChat:
		if err := h.service.HandleLeave(ctx, c.ID); err != nil {
			l.Warn().Err(err).Str(log.FieldConnID, c.ID).Msg("leave failed")
		}

	case domain.MethodGetChatHistory:
		if err := h.service.HandleHistory(ctx, c.ID); err != nil {
			l.Warn().Err(err).Str(log.FieldConnID, c.ID).Msg("history failed")
		}

	default:
		c.SendMessage(domain.NewConnectionError("Unknown message type: " + base.Type))
	}
}

// onDisconnect runs when the transport detects the connection is gone.
// Idempotent with an explicit prior LeaveChat.
func (h *WSHandler) onDisconnect(c *hub.Client) {
	l := log.L()
	if err := h.service.HandleDisconnect(context.Background(), c.ID); err != nil {
		l.Warn().Err(err).Str(log.FieldConnID, c.ID).Msg("disconnect handling failed")
		return
	}
	l.Info().Str(log.FieldConnID, c.ID).Msg("connection disconnected")
}
