package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/okabe-dev/opsbridge/internal/config"
	"github.com/okabe-dev/opsbridge/internal/engine"
	"github.com/okabe-dev/opsbridge/internal/models"
	"github.com/okabe-dev/opsbridge/internal/router"
)

// ChatRequest carries one conversational input over NATS.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// ActionRequest carries a fully-specified action that skips planning
// and goes straight through the action engine.
type ActionRequest struct {
	Action     string         `json:"action"`
	Parameters map[string]any `json:"parameters"`
}

// NATSTransport exposes the router and the action engine over NATS
// request/reply: one subject for conversational resolution, one for
// direct action execution.
type NATSTransport struct {
	conn   *nats.Conn
	cfg    *config.Config
	router *router.Router
	engine *engine.Engine
}

func NewNATSTransport(cfg *config.Config, rt *router.Router, eng *engine.Engine) (*NATSTransport, error) {
	conn, err := nats.Connect(cfg.NatsURL,
		nats.Name(cfg.ServiceName),
		nats.Timeout(cfg.NatsTimeout),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Printf("Connected to NATS server: %s", cfg.NatsURL)

	return &NATSTransport{conn: conn, cfg: cfg, router: rt, engine: eng}, nil
}

// Start subscribes both subjects. Handlers run on NATS library
// goroutines; shared state behind the router and engine is synchronized
// for that reason.
func (nt *NATSTransport) Start() error {
	if _, err := nt.conn.Subscribe(nt.cfg.NatsChatSubject, nt.handleChat); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", nt.cfg.NatsChatSubject, err)
	}
	log.Printf("Subscribed to subject: %s", nt.cfg.NatsChatSubject)

	if _, err := nt.conn.Subscribe(nt.cfg.NatsActionSubject, nt.handleAction); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", nt.cfg.NatsActionSubject, err)
	}
	log.Printf("Subscribed to subject: %s", nt.cfg.NatsActionSubject)
	return nil
}

func (nt *NATSTransport) handleChat(msg *nats.Msg) {
	var req ChatRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		log.Printf("Error parsing chat request: %v", err)
		nt.respond(msg, &models.Response{
			Type:   models.TypeError,
			Intent: models.ErrorIntent(models.ErrInputParse, "", "invalid request format"),
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), nt.cfg.LLMTimeout)
	defer cancel()

	resp := nt.router.Route(ctx, req.SessionID, req.Text)
	nt.respond(msg, resp)
}

func (nt *NATSTransport) handleAction(msg *nats.Msg) {
	var req ActionRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		log.Printf("Error parsing action request: %v", err)
		nt.respond(msg, &models.Response{
			Type:   models.TypeError,
			Result: models.FailureResult(models.StatusFailure, "", "invalid request format"),
		})
		return
	}

	result := nt.engine.Execute(context.Background(), req.Action, req.Parameters)
	respType := models.TypeSuccess
	if result.Status == models.StatusFailure || result.Status == models.StatusTimeout {
		respType = models.TypeError
	}
	nt.respond(msg, &models.Response{Type: respType, Result: result})
}

func (nt *NATSTransport) respond(msg *nats.Msg, resp *models.Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		log.Printf("Error marshaling response: %v", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		log.Printf("Error sending response: %v", err)
	}
}

// Close drains the NATS connection on shutdown.
func (nt *NATSTransport) Close() error {
	if nt.conn != nil {
		nt.conn.Close()
		log.Println("NATS connection closed")
	}
	return nil
}
