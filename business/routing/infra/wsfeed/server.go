package wsfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/swap-router/business/routing/app"
	"github.com/fd1az/swap-router/business/routing/domain"
	"github.com/fd1az/swap-router/internal/apperror"
	"github.com/fd1az/swap-router/internal/asset"
	"github.com/fd1az/swap-router/internal/logger"
	"github.com/fd1az/swap-router/internal/pubsub"
)

const meterName = "wsfeed"

// Router receives client commands.
type Router interface {
	SetInput(req domain.SwapRequest)
	SelectTrade(p domain.ProviderType) error
	Refresh()
	OnSettingsChanged()
}

var _ Router = (*app.RoutingService)(nil)

// Topics are the state streams forwarded to every client.
type Topics struct {
	Trades     *pubsub.Topic[[]domain.Candidate]
	Progress   *pubsub.Topic[domain.Progress]
	TradeState *pubsub.Topic[domain.SelectedTrade]
	Action     *pubsub.Topic[domain.ActionState]
	Refresh    *pubsub.Topic[domain.RefreshState]
	Page       *pubsub.Topic[domain.PageState]
	Wallet     *pubsub.Topic[domain.WalletState]
	Output     *pubsub.Topic[asset.Amount]
}

// TopicsOf collects the streams of a routing service.
func TopicsOf(s *app.RoutingService) Topics {
	st := s.Streams()
	return Topics{
		Trades:     st.Trades,
		Progress:   st.Progress,
		TradeState: s.TradeState,
		Action:     s.ActionButton,
		Refresh:    st.Refresh,
		Page:       st.Page,
		Wallet:     s.Wallet,
		Output:     st.OutputAmount,
	}
}

// Config holds server settings.
type Config struct {
	Port         int
	WriteTimeout time.Duration
	BufferSize   int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(port int) Config {
	return Config{
		Port:         port,
		WriteTimeout: 5 * time.Second,
		BufferSize:   64,
	}
}

type serverMetrics struct {
	clients  metric.Int64UpDownCounter
	commands metric.Int64Counter
}

// Server streams routing state over WebSocket.
type Server struct {
	cfg      Config
	topics   Topics
	router   Router
	registry *asset.Registry
	logger   logger.LoggerInterface
	metrics  serverMetrics
	server   *http.Server
	clients  atomic.Int64
}

// NewServer creates a feed server. registry resolves SYMBOL@CHAIN references in commands.
func NewServer(cfg Config, topics Topics, router Router, registry *asset.Registry, log logger.LoggerInterface) (*Server, error) {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 64
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	s := &Server{
		cfg:      cfg,
		topics:   topics,
		router:   router,
		registry: registry,
		logger:   log,
	}
	if err := s.initMetrics(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) initMetrics() error {
	meter := otel.Meter(meterName)

	var err error
	s.metrics.clients, err = meter.Int64UpDownCounter(
		"wsfeed_clients",
		metric.WithDescription("Connected feed clients"),
	)
	if err != nil {
		return err
	}

	s.metrics.commands, err = meter.Int64Counter(
		"wsfeed_commands_total",
		metric.WithDescription("Commands received from feed clients"),
	)
	return err
}

// Handler returns the feed routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	return mux
}

// Start listens in the background.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(context.Background(), "feed server stopped", "port", s.cfg.Port, "error", err)
		}
	}()

	s.logger.Info(context.Background(), "feed server listening", "port", s.cfg.Port)
	return nil
}

// Stop shuts the listener down. Open connections end when their topics close.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int64 {
	return s.clients.Load()
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		s.logger.Warn(r.Context(), "websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	s.clients.Add(1)
	s.metrics.clients.Add(r.Context(), 1)
	defer func() {
		s.clients.Add(-1)
		s.metrics.clients.Add(context.Background(), -1)
	}()

	out := make(chan []byte, s.cfg.BufferSize)
	g, ctx := errgroup.WithContext(r.Context())

	g.Go(func() error { return s.writeLoop(ctx, conn, out) })
	g.Go(func() error { return s.readLoop(ctx, conn, out) })

	forward(ctx, g, s.topics.Trades, TopicTrades, out, func(cs []domain.Candidate) any { return CandidatesView(cs) })
	forward(ctx, g, s.topics.Progress, TopicProgress, out, func(p domain.Progress) any {
		return ProgressView{Total: p.Total, Calculated: p.Calculated}
	})
	forward(ctx, g, s.topics.TradeState, TopicTradeState, out, func(st domain.SelectedTrade) any { return tradeStateView(st) })
	forward(ctx, g, s.topics.Action, TopicAction, out, func(a domain.ActionState) any {
		return ActionView{Kind: string(a.Kind), Label: a.Label, Handler: string(a.Handler)}
	})
	forward(ctx, g, s.topics.Refresh, TopicRefresh, out, func(r domain.RefreshState) any { return string(r) })
	forward(ctx, g, s.topics.Page, TopicPage, out, func(p domain.PageState) any { return string(p) })
	forward(ctx, g, s.topics.Wallet, TopicWallet, out, func(w domain.WalletState) any {
		return WalletView{Address: w.Address, Network: string(w.Network)}
	})
	forward(ctx, g, s.topics.Output, TopicOutput, out, func(a asset.Amount) any { return a.String() })

	err = g.Wait()
	if websocket.CloseStatus(err) == websocket.StatusNormalClosure || errors.Is(err, context.Canceled) {
		conn.Close(websocket.StatusNormalClosure, "")
		return
	}
	s.logger.Debug(context.Background(), "feed client disconnected", "error", err)
	conn.Close(websocket.StatusInternalError, "feed closed")
}

// forward encodes every value of topic onto out until ctx is done or the topic closes.
func forward[T any](ctx context.Context, g *errgroup.Group, topic *pubsub.Topic[T], name string, out chan<- []byte, view func(T) any) {
	if topic == nil {
		return
	}
	g.Go(func() error {
		sub := topic.Subscribe(1)
		defer sub.Unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return nil
			case v, ok := <-sub.C():
				if !ok {
					return errFeedClosed
				}
				msg, err := encode(name, view(v))
				if err != nil {
					return err
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
}

var errFeedClosed = errors.New("wsfeed: topic closed")

func (s *Server) writeLoop(ctx context.Context, conn *websocket.Conn, out <-chan []byte) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-out:
			writeCtx, cancel := context.WithTimeout(ctx, s.cfg.WriteTimeout)
			err := conn.Write(writeCtx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}

func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, out chan<- []byte) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			s.reply(ctx, out, apperror.New(apperror.CodeInvalidFormat, apperror.WithCause(err)))
			continue
		}
		s.metrics.commands.Add(ctx, 1)

		if err := s.handle(cmd); err != nil {
			s.reply(ctx, out, toAppError(err))
		}
	}
}

func (s *Server) handle(cmd Command) error {
	switch cmd.Type {
	case CommandInput:
		req, err := s.parseInput(cmd)
		if err != nil {
			return err
		}
		s.router.SetInput(req)
	case CommandSelect:
		return s.router.SelectTrade(domain.ProviderType(cmd.Provider))
	case CommandRefresh:
		s.router.Refresh()
	case CommandSettings:
		s.router.OnSettingsChanged()
	default:
		return apperror.New(apperror.CodeInvalidInput, apperror.WithContext("unknown command "+cmd.Type))
	}
	return nil
}

// parseInput builds a form snapshot; missing fields stay empty.
func (s *Server) parseInput(cmd Command) (domain.SwapRequest, error) {
	req := domain.SwapRequest{ReceiverAddress: cmd.Receiver}

	if cmd.From != "" {
		a, err := s.registry.Resolve(cmd.From)
		if err != nil {
			return req, apperror.New(apperror.CodeInvalidInput, apperror.WithCause(err))
		}
		req.FromAsset = a
	}
	if cmd.To != "" {
		a, err := s.registry.Resolve(cmd.To)
		if err != nil {
			return req, apperror.New(apperror.CodeInvalidInput, apperror.WithCause(err))
		}
		req.ToAsset = a
	}
	if cmd.Amount != "" {
		d, err := decimal.NewFromString(cmd.Amount)
		if err != nil {
			return req, apperror.New(apperror.CodeInvalidInput, apperror.WithCause(err))
		}
		req.Amount = d
	}
	return req, nil
}

func (s *Server) reply(ctx context.Context, out chan<- []byte, err *apperror.AppError) {
	msg, encErr := encode(TopicError, ErrorView{Code: string(err.Code), Message: err.Message})
	if encErr != nil {
		return
	}
	select {
	case out <- msg:
	case <-ctx.Done():
	}
}

func toAppError(err error) *apperror.AppError {
	if appErr, ok := apperror.As(err); ok {
		return appErr
	}
	return apperror.New(apperror.CodeInvalidInput, apperror.WithCause(err))
}
