package ingress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rinkworks/puckpulse/pkg/protocol"
	"github.com/rinkworks/puckpulse/pkg/scoreboard"
	"github.com/rinkworks/puckpulse/pkg/teams"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/sasha-s/go-deadlock"
	"golang.org/x/time/rate"
	"nhooyr.io/websocket"
)

const (
	// Outbound queue per connection. A client that cannot drain this many
	// snapshots is too slow to be worth keeping.
	clientSendLimit = 64

	writeTimeout = 5 * time.Second
)

type Client struct {
	id        uuid.UUID
	host      string
	send      chan []byte
	limiter   *rate.Limiter
	closeSlow func()
}

func newClient(host string) *Client {
	return &Client{
		id:   uuid.New(),
		host: host,
		send: make(chan []byte, clientSendLimit),
		// Bursty control surfaces are fine; a runaway one is not.
		limiter: rate.NewLimiter(rate.Limit(50), 100),
	}
}

// Send queues an outbound frame. A client whose queue is full is closed
// rather than allowed to stall everyone else.
func (c *Client) Send(msg []byte) {
	select {
	case c.send <- msg:
	default:
		go c.closeSlow()
	}
}

// Server owns the fleet of control connections. Every successful mutation is
// broadcast to all open connections; a newly opened connection gets a full
// state and roster catch-up first.
type Server struct {
	engine *scoreboard.Engine
	roster *teams.Manager

	mutex      deadlock.Mutex
	clients    map[*Client]struct{}
	httpServer *http.Server
}

func NewServer(engine *scoreboard.Engine, roster *teams.Manager) *Server {
	return &Server{
		engine:  engine,
		roster:  roster,
		clients: make(map[*Client]struct{}),
	}
}

func (server *Server) AddClient(client *Client) {
	server.mutex.Lock()
	server.clients[client] = struct{}{}
	server.mutex.Unlock()
	connectedClients.Inc()
}

// joinClient registers the connection and queues its catch-up as one atomic
// step. Snapshotting, registering and queueing all happen under the broadcast
// mutex, so no fleet broadcast can land on the new client's queue ahead of a
// catch-up built from older state.
func (server *Server) joinClient(ctx context.Context, client *Client) error {
	server.mutex.Lock()
	defer server.mutex.Unlock()

	state, err := json.Marshal(protocol.NewStateMessage(server.engine.Snapshot()))
	if err != nil {
		return err
	}

	roster, rosterErr := server.buildTeamsMessage(ctx)

	server.clients[client] = struct{}{}
	connectedClients.Inc()

	// State first, roster second, so clients can bind player numbers
	// against a current roster.
	client.Send(state)
	if rosterErr != nil {
		log.Error().Err(rosterErr).Msg("could not send roster catch-up")
	} else {
		client.Send(roster)
	}

	return nil
}

func (server *Server) RemoveClient(client *Client) {
	server.mutex.Lock()
	delete(server.clients, client)
	server.mutex.Unlock()
	connectedClients.Dec()
}

// Broadcast queues msg on every open connection. A slow client is scheduled
// for disconnection instead of blocking the rest of the fleet.
func (server *Server) Broadcast(msg []byte) {
	server.mutex.Lock()
	defer server.mutex.Unlock()

	for client := range server.clients {
		client.Send(msg)
	}
	broadcastsSent.Inc()
}

// BroadcastState serializes a snapshot and fans it out to every connection.
func (server *Server) BroadcastState(state scoreboard.State) {
	msg, err := json.Marshal(protocol.NewStateMessage(state))
	if err != nil {
		log.Error().Err(err).Msg("could not serialize state snapshot")
		return
	}
	server.Broadcast(msg)
}

// BroadcastTeams fans the current roster out to every connection.
func (server *Server) BroadcastTeams(ctx context.Context) {
	msg, err := server.buildTeamsMessage(ctx)
	if err != nil {
		log.Error().Err(err).Msg("could not build roster snapshot")
		return
	}
	server.Broadcast(msg)
}

func (server *Server) buildTeamsMessage(ctx context.Context) ([]byte, error) {
	roster, err := server.roster.Teams(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(protocol.NewTeamsMessage(roster))
}

// StartBroadcasts follows the engine's change feed for the lifetime of the
// process. Tick-driven expirations and command mutations all arrive here, so
// every observable change reaches every client exactly once.
func (server *Server) StartBroadcasts(ctx context.Context) {
	sub := server.engine.Changes().SubscribeBuffered(clientSendLimit)

	go func() {
		defer sub.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case state := <-sub.Recv():
				server.BroadcastState(state)
			}
		}
	}()
}

func writeWithTimeout(ctx context.Context, c *websocket.Conn, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return c.Write(ctx, websocket.MessageText, msg)
}

func (server *Server) HandleClient(ctx context.Context, c *websocket.Conn, host string) error {
	client := newClient(host)
	client.closeSlow = func() {
		c.Close(websocket.StatusPolicyViolation, "connection too slow to keep up with messages")
	}

	if err := server.joinClient(ctx, client); err != nil {
		return err
	}
	defer server.RemoveClient(client)

	logger := log.With().Str("clientId", client.id.String()).Str("host", host).Logger()
	logger.Info().Msg("client joined")

	receive := make(chan []byte)
	go func() {
		for {
			if ctx.Err() != nil {
				return
			}

			typ, message, err := c.Read(ctx)
			if err != nil {
				return
			}
			if typ != websocket.MessageText {
				continue
			}

			select {
			case receive <- message:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case msg := <-receive:
			if !client.limiter.Allow() {
				logger.Warn().Msg("client exceeded message rate; dropping message")
				commandsRejected.Inc()
				continue
			}

			// Malformed input never closes the connection.
			if err := server.dispatch(ctx, client, msg); err != nil {
				logger.Warn().Err(err).Msg("rejected inbound message")
				commandsRejected.Inc()
			}
		case msg := <-client.send:
			if err := writeWithTimeout(ctx, c, msg); err != nil {
				logger.Error().Msg("client missed write timeout; disconnecting")
				return err
			}
		case <-ctx.Done():
			logger.Info().Msg("client left")
			return ctx.Err()
		}
	}
}

func (server *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Error().Err(err).Msg("error accepting client connection")
		return
	}

	defer c.Close(websocket.StatusInternalError, "operational fault during session")

	hostname := r.RemoteAddr
	if original, ok := r.Header["X-Forwarded-For"]; ok {
		hostname = original[0]
	}

	err = server.HandleClient(r.Context(), c, hostname)
	if errors.Is(err, context.Canceled) {
		return
	}
	if websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
		websocket.CloseStatus(err) == websocket.StatusGoingAway {
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("client session ended")
	}
}

func (server *Server) Serve(ctx context.Context, listenAddr string) error {
	listen, err := net.Listen("tcp", listenAddr)
	if err != nil {
		log.Error().Err(err).Msg("failed to bind WebSocket port")
		return err
	}

	log.Info().Msg(fmt.Sprintf("listening on http://%v", listen.Addr()))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", server)

	server.httpServer = &http.Server{
		Handler: mux,
	}

	server.StartBroadcasts(ctx)

	go func() {
		<-ctx.Done()
		server.httpServer.Close()
	}()

	err = server.httpServer.Serve(listen)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (server *Server) Shutdown(ctx context.Context) {
	if server.httpServer != nil {
		server.httpServer.Shutdown(ctx)
	}
}
