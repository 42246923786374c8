package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"chirp/config"
	"chirp/internal/auth"
	"chirp/internal/live"
	"chirp/internal/models"
	"chirp/internal/repository"
	"chirp/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	subWriteWait  = 10 * time.Second
	subPongWait   = 60 * time.Second
	subPingPeriod = (subPongWait * 9) / 10
)

var subscribeUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// SubscribeHandler serves the live query websocket. A client subscribes to
// named queries (messages, conversations, unread, presence); the server runs
// each query once, pushes the result, and re-runs it whenever a mutation
// publishes one of the query's topics on the broker.
type SubscribeHandler struct {
	jwtCfg   *config.JWTConfig
	userRepo *repository.UserRepository
	msgRepo  *repository.MessageRepository
	views    *Views
	broker   *live.Broker
}

func NewSubscribeHandler(jwtCfg *config.JWTConfig, userRepo *repository.UserRepository, msgRepo *repository.MessageRepository, views *Views, broker *live.Broker) *SubscribeHandler {
	return &SubscribeHandler{jwtCfg: jwtCfg, userRepo: userRepo, msgRepo: msgRepo, views: views, broker: broker}
}

// subscribeFrame is a client request. ID names the subscription to drop on
// unsubscribe; on subscribe it is an optional client-chosen correlation id,
// echoed back on error so the client can tell which of several pending
// subscribes failed.
type subscribeFrame struct {
	Action         string `json:"action"`
	ID             string `json:"id,omitempty"`
	Query          string `json:"query,omitempty"`
	ConversationID uint   `json:"conversation_id,omitempty"`
	UserIDs        []uint `json:"user_ids,omitempty"`
}

type queryResult struct {
	ID    string      `json:"id"`
	Query string      `json:"query"`
	Data  interface{} `json:"data"`
}

type queryError struct {
	ID    string `json:"id,omitempty"`
	Query string `json:"query"`
	Error string `json:"error"`
}

// Upgrade authenticates via the token query param (headers are awkward from
// browser websockets) and enters the subscribe loop.
func (h *SubscribeHandler) Upgrade(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
		return
	}
	claims, err := auth.ParseToken(h.jwtCfg, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	user, err := h.userRepo.GetByExternalID(claims.ExternalID)
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "user not registered"})
		return
	}
	sock, err := subscribeUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer sock.Close()

	conn := ws.NewConn(sock)
	go conn.WritePump(subWriteWait, subPingPeriod)
	defer conn.Close()

	active := make(map[string]*live.Subscription)
	defer func() {
		for _, sub := range active {
			h.broker.Unsubscribe(sub)
		}
	}()

	sock.SetReadDeadline(time.Now().Add(subPongWait))
	sock.SetPongHandler(func(string) error {
		sock.SetReadDeadline(time.Now().Add(subPongWait))
		return nil
	})
	for {
		_, raw, err := sock.ReadMessage()
		if err != nil {
			return
		}
		var frame subscribeFrame
		if json.Unmarshal(raw, &frame) != nil {
			continue
		}
		switch frame.Action {
		case "subscribe":
			h.subscribe(conn, active, user, frame)
		case "unsubscribe":
			if sub, ok := active[frame.ID]; ok {
				h.broker.Unsubscribe(sub)
				delete(active, frame.ID)
			}
		}
	}
}

func (h *SubscribeHandler) subscribe(conn *ws.Conn, active map[string]*live.Subscription, user *models.User, frame subscribeFrame) {
	topics, run, err := h.buildQuery(user, frame)
	if err != nil {
		conn.Queue(queryError{ID: frame.ID, Query: frame.Query, Error: err.Error()})
		return
	}
	data, err := run()
	if err != nil {
		conn.Queue(queryError{ID: frame.ID, Query: frame.Query, Error: "query failed"})
		return
	}
	sub := h.broker.Subscribe(topics...)
	active[sub.ID] = sub
	conn.Queue(queryResult{ID: sub.ID, Query: frame.Query, Data: data})

	// one refresher per subscription; exits when the broker closes sub.C
	go func() {
		for range sub.C {
			data, err := run()
			if err != nil {
				continue
			}
			conn.Queue(queryResult{ID: sub.ID, Query: frame.Query, Data: data})
		}
	}()
}

// buildQuery maps a subscribe frame to the topics that invalidate it and a
// closure that recomputes its payload. Message and conversation views embed
// user records, so those also listen on the directory topic.
func (h *SubscribeHandler) buildQuery(user *models.User, frame subscribeFrame) ([]string, func() (interface{}, error), error) {
	switch frame.Query {
	case "messages":
		if frame.ConversationID == 0 {
			return nil, nil, errors.New("conversation_id required")
		}
		convID := frame.ConversationID
		topics := []string{live.ConversationTopic(convID), live.UsersTopic}
		return topics, func() (interface{}, error) {
			return h.views.MessageList(convID)
		}, nil
	case "conversations":
		topics := []string{live.InboxTopic(user.ID), live.UsersTopic}
		return topics, func() (interface{}, error) {
			return h.views.ConversationList(user.ID)
		}, nil
	case "unread":
		if frame.ConversationID == 0 {
			return nil, nil, errors.New("conversation_id required")
		}
		convID := frame.ConversationID
		userID := user.ID
		return []string{live.ConversationTopic(convID)}, func() (interface{}, error) {
			count, err := h.msgRepo.UnreadCount(convID, userID)
			if err != nil {
				return nil, err
			}
			return gin.H{"count": count}, nil
		}, nil
	case "presence":
		if len(frame.UserIDs) == 0 {
			return nil, nil, errors.New("user_ids required")
		}
		ids := append([]uint(nil), frame.UserIDs...)
		topics := make([]string, 0, len(ids))
		for _, uid := range ids {
			topics = append(topics, live.PresenceTopic(uid))
		}
		return topics, func() (interface{}, error) {
			return h.views.PresenceList(ids)
		}, nil
	default:
		return nil, nil, errors.New("unknown query")
	}
}
