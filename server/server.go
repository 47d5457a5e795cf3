package server

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"
	"nhooyr.io/websocket"

	"tankroyale/replay"
	"tankroyale/utils"
	"tankroyale/world"
)

const subscriberBuffer = 1024

type frame struct {
	turnNumber int
	data       []byte
}

type subscriber struct {
	Messages  chan frame
	closeSlow func()
	closeOnce sync.Once
}

// drop closes a subscriber that cannot keep up. Only the first call closes.
func (sub *subscriber) drop() {
	sub.closeOnce.Do(sub.closeSlow)
}

type Server struct {
	subscribers map[*subscriber]struct{}
	mu          sync.RWMutex
	serveMux    http.ServeMux

	battleID     string
	battle       *world.Battle
	history      *world.History
	recorder     *replay.Recorder
	flushTurns   int
	tickInterval time.Duration
	origins      []string

	log     zerolog.Logger
	metrics *metrics
}

// NewServer sets up a battle with cfg.Battle.Bots bots spread across the
// arena. Turns are archived when cfg.Replay.Dir is set.
func NewServer(cfg *utils.Config, log zerolog.Logger) (*Server, error) {
	battleID := ksuid.New().String()
	arena := world.Arena{Width: cfg.Arena.Width, Height: cfg.Arena.Height}

	s := &Server{
		subscribers:  make(map[*subscriber]struct{}),
		battleID:     battleID,
		battle:       world.NewBattle(arena, cfg.Battle.GunCoolingRate, startingBots(arena, cfg.Battle.Bots)),
		history:      world.NewHistory(cfg.Battle.HistoryCapacity),
		flushTurns:   cfg.Replay.FlushTurns,
		tickInterval: cfg.Battle.TickInterval.Duration,
		origins:      cfg.Server.OriginPatterns,
		log:          log.With().Str("battle", battleID).Logger(),
		metrics:      newMetrics(),
	}
	if cfg.Replay.Dir != "" {
		recorder, err := replay.NewRecorder(cfg.Replay.Dir, battleID)
		if err != nil {
			return nil, err
		}
		s.recorder = recorder
	}
	s.onTurn(s.battle.Current())

	s.serveMux.HandleFunc("/", s.onConnection)
	s.serveMux.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{}))
	s.serveMux.HandleFunc("/debug/pprof/", pprof.Index)
	s.serveMux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	s.serveMux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	s.serveMux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	s.serveMux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return s, nil
}

// startingBots places n bots on a circle around the arena centre, each facing
// the centre.
func startingBots(arena world.Arena, n int) []world.Bot {
	centre := world.Vector{X: arena.Width / 2, Y: arena.Height / 2}
	radius := math.Min(arena.Width, arena.Height) / 3
	bots := make([]world.Bot, 0, n)
	for i := 0; i < n; i++ {
		angle := 2 * math.Pi * float64(i) / float64(n)
		facing := math.Mod(angle+math.Pi, 2*math.Pi)
		bots = append(bots, world.Bot{
			ID:           i + 1,
			Energy:       100,
			Position:     centre.Add(world.Heading(angle, radius)),
			Direction:    facing,
			Speed:        1,
			GunDirection: facing,
		})
	}
	return bots
}

func (s *Server) BattleID() string {
	return s.battleID
}

func (s *Server) History() *world.History {
	return s.history
}

// Fire queues a shot for the next turn.
func (s *Server) Fire(botID int, power float64) error {
	return s.battle.Fire(botID, power)
}

// Run steps the battle every tick until ctx is done, then flushes any
// buffered replay turns.
func (s *Server) Run(ctx context.Context) error {
	tick := time.NewTicker(s.tickInterval)
	defer tick.Stop()

	for {
		select {
		case <-tick.C:
			s.Step()
		case <-ctx.Done():
			s.flush()
			return ctx.Err()
		}
	}
}

// Step advances the battle one turn and publishes it.
func (s *Server) Step() *world.Turn {
	turn := s.battle.Step()
	s.onTurn(turn)
	return turn
}

func (s *Server) onTurn(turn *world.Turn) {
	if err := s.history.Append(turn); err != nil {
		s.log.Error().Err(err).Msg("append turn")
		return
	}
	s.metrics.turns.Inc()
	s.metrics.bullets.Set(float64(turn.BulletCount()))
	if e := s.log.Debug(); e.Enabled() {
		damage := 0.0
		for _, bullet := range turn.Bullets() {
			damage += bullet.Damage()
		}
		e.Int("turn", turn.TurnNumber()).Int("bullets", turn.BulletCount()).Float64("damage", damage).Msg("turn")
	}

	if s.recorder != nil {
		s.recorder.Record(turn)
		if s.recorder.Buffered() >= s.flushTurns {
			s.flush()
		}
	}
	s.publish(frame{turnNumber: turn.TurnNumber(), data: world.MarshalTurn(turn)})
}

func (s *Server) flush() {
	if s.recorder == nil {
		return
	}
	path, err := s.recorder.Flush()
	if err != nil {
		s.log.Error().Err(err).Msg("flush replay")
		return
	}
	if path != "" {
		s.log.Info().Str("path", path).Msg("replay flushed")
	}
}

func (s *Server) addSubscriber(sub *subscriber) {
	s.mu.Lock()
	s.subscribers[sub] = struct{}{}
	s.mu.Unlock()
	s.metrics.subscribers.Inc()
}

func (s *Server) removeSubscriber(sub *subscriber) {
	s.mu.Lock()
	if _, ok := s.subscribers[sub]; ok {
		delete(s.subscribers, sub)
		s.metrics.subscribers.Dec()
	}
	s.mu.Unlock()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.serveMux.ServeHTTP(w, r)
}

func (s *Server) onConnection(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.origins,
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("accept")
		return
	}
	defer c.Close(websocket.StatusInternalError, "")

	if err := s.handleConnection(r.Context(), c); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Info().Err(err).Str("remote", r.RemoteAddr).Msg("subscriber disconnected")
	}
}

// handleConnection sends the retained history, then live turns, until the
// client goes away. Frames from the client are fire commands.
func (s *Server) handleConnection(ctx context.Context, c *websocket.Conn) error {
	sub := &subscriber{
		Messages: make(chan frame, subscriberBuffer),
		closeSlow: func() {
			go c.Close(websocket.StatusPolicyViolation, "write would block")
		},
	}

	// Registered before reading history so no turn falls in between; turns
	// queued twice are skipped by number.
	s.addSubscriber(sub)
	defer s.removeSubscriber(sub)

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	go func() {
		cancel(s.readCommands(ctx, c))
	}()

	last := world.NilTurn
	for _, turn := range s.history.Since(0) {
		if err := c.Write(ctx, websocket.MessageBinary, world.MarshalTurn(turn)); err != nil {
			return err
		}
		last = turn.TurnNumber()
	}

	for {
		select {
		case msg := <-sub.Messages:
			if msg.turnNumber <= last {
				continue
			}
			last = msg.turnNumber
			if err := c.Write(ctx, websocket.MessageBinary, msg.data); err != nil {
				return err
			}
		case <-ctx.Done():
			return context.Cause(ctx)
		}
	}
}

func (s *Server) readCommands(ctx context.Context, c *websocket.Conn) error {
	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageBinary {
			continue
		}
		cmd, err := UnmarshalFire(data)
		if err != nil {
			s.log.Warn().Err(err).Msg("bad command")
			continue
		}
		if err := s.Fire(cmd.BotID, cmd.Power); err != nil {
			s.log.Debug().Err(err).Int("bot", cmd.BotID).Msg("fire rejected")
		}
	}
}

func (s *Server) publish(msg frame) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for sub := range s.subscribers {
		select {
		case sub.Messages <- msg:
		default:
			sub.drop()
		}
	}
}

// Serve listens on cfg.Server.Address and runs the battle until ctx is done
// or the process is interrupted.
func Serve(ctx context.Context, cfg *utils.Config, log zerolog.Logger) error {
	server, err := NewServer(cfg, log)
	if err != nil {
		return err
	}
	l, err := net.Listen("tcp", cfg.Server.Address)
	if err != nil {
		return err
	}
	log.Info().Str("addr", fmt.Sprintf("http://%v", l.Addr())).Str("battle", server.BattleID()).Msg("listening")

	s := &http.Server{
		Handler:     server,
		ReadTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.Serve(l)
	}()
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		_ = server.Run(ctx)
	}()

	select {
	case err = <-serveErr:
		log.Error().Err(err).Msg("server stopped")
	case <-ctx.Done():
		log.Info().Msg("terminating")
	}
	stop()
	<-runDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownErr := s.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
