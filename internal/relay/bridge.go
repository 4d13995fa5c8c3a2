// Package relay bridges browser voice connections to the upstream
// realtime speech API: one upstream socket per client, audio frames
// re-chunked on the way up, transcript events translated on the way down.
package relay

import (
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/prasetya/voicerelay/internal/audio"
	"github.com/prasetya/voicerelay/internal/config"
	"github.com/prasetya/voicerelay/internal/metrics"
	"github.com/prasetya/voicerelay/internal/protocol"
	"github.com/prasetya/voicerelay/internal/session"
	"github.com/prasetya/voicerelay/internal/storage"
)

// terminateDrain is how long Close waits after sending the Terminate
// command so the upstream has a chance to read it before the socket drops.
const terminateDrain = 100 * time.Millisecond

// estimatedTurnWindow is the assumed turn length used for transcript
// timestamps when the upstream sends no word timings.
const estimatedTurnWindow = 2 * time.Second

// Dialer establishes upstream WebSocket connections. It exists so tests
// can point a bridge at a local server.
type Dialer interface {
	Dial(urlStr string, requestHeader http.Header) (*websocket.Conn, *http.Response, error)
}

// Bridge ties one client connection to one upstream connection and owns
// all per-connection state: the audio chunker, the session record, and
// the artifact recorder.
type Bridge struct {
	ID string

	cfg    *config.Config
	logger *zap.Logger

	clientWS   *websocket.Conn
	upstreamWS *websocket.Conn
	dialer     Dialer

	// mu guards socket writes and the chunker. Reads stay lock-free:
	// each socket has a single reader goroutine.
	mu sync.Mutex

	chunker *audio.Chunker
	sess    *session.Session
	rec     *storage.Recorder

	done      chan struct{}
	closeOnce sync.Once
}

// NewBridge wires a bridge for an upgraded client connection. DialUpstream
// must be called before any audio is handled.
func NewBridge(clientWS *websocket.Conn, id string, cfg *config.Config, store *session.Store, dialer Dialer, logger *zap.Logger) *Bridge {
	sess := store.GetOrCreate(id)
	logger = logger.With(zap.String("session_id", id))

	return &Bridge{
		ID:       id,
		cfg:      cfg,
		logger:   logger,
		clientWS: clientWS,
		dialer:   dialer,
		chunker:  audio.NewChunker(cfg.MinChunkBytes(), cfg.MaxChunkBytes(), cfg.BytesPerSecond()),
		sess:     sess,
		rec:      storage.NewRecorder(cfg.ArtifactDir, id, cfg.SampleRate, logger),
		done:     make(chan struct{}),
	}
}

// DialUpstream opens the upstream connection with the session parameters
// in the query string and the static credential in the Authorization
// header, then starts the upstream read loop.
func (b *Bridge) DialUpstream() error {
	u, err := url.Parse(b.cfg.UpstreamURL)
	if err != nil {
		return fmt.Errorf("parse upstream URL: %w", err)
	}

	q := u.Query()
	q.Set("sample_rate", fmt.Sprintf("%d", b.cfg.SampleRate))
	q.Set("format_turns", fmt.Sprintf("%t", b.cfg.FormatTurns))
	u.RawQuery = q.Encode()

	headers := http.Header{}
	headers.Set("Authorization", b.cfg.APIKey)

	upstreamWS, _, err := b.dialer.Dial(u.String(), headers)
	if err != nil {
		metrics.UpstreamDialFailuresTotal.Inc()
		return fmt.Errorf("dial upstream: %w", err)
	}

	b.upstreamWS = upstreamWS
	b.logger.Info("upstream connected", zap.String("url", u.Redacted()))

	go b.listenUpstream()
	return nil
}

// listenUpstream pumps upstream events to the client until the upstream
// socket closes or a terminal event arrives.
func (b *Bridge) listenUpstream() {
	conn := b.upstreamWS
	defer conn.Close()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-b.done:
				// Expected after Close.
			default:
				metrics.RelayErrorsTotal.WithLabelValues("upstream_read").Inc()
				b.logger.Warn("upstream read failed", zap.Error(err))
			}
			return
		}

		ev, err := protocol.ParseEvent(message)
		if err != nil {
			b.logger.Warn("unparseable upstream event", zap.Error(err))
			continue
		}

		switch ev := ev.(type) {
		case *protocol.BeginEvent:
			metrics.UpstreamEventsTotal.WithLabelValues(protocol.TypeBegin).Inc()
			b.logger.Info("upstream session began",
				zap.String("upstream_id", ev.ID),
				zap.Time("expires_at", ev.ExpiresAt))

		case *protocol.TurnEvent:
			metrics.UpstreamEventsTotal.WithLabelValues(protocol.TypeTurn).Inc()
			b.handleTurn(ev)

		case *protocol.TerminationEvent:
			metrics.UpstreamEventsTotal.WithLabelValues(protocol.TypeTermination).Inc()
			b.logger.Info("upstream session terminated",
				zap.Float64("audio_duration_s", ev.AudioDurationSeconds),
				zap.Float64("session_duration_s", ev.SessionDurationSeconds))
			b.sess.Complete(ev.AudioDurationSeconds)
			return

		case *protocol.ErrorEvent:
			metrics.UpstreamEventsTotal.WithLabelValues(protocol.TypeError).Inc()
			b.handleUpstreamError(ev)
			return

		case *protocol.RawEvent:
			b.logger.Debug("ignoring upstream event", zap.String("type", ev.Type))
		}
	}
}

// handleTurn forwards formatted turns to the client and records them in
// the session log. Unformatted partials are logged only.
func (b *Bridge) handleTurn(ev *protocol.TurnEvent) {
	if !ev.TurnIsFormatted {
		b.logger.Debug("partial transcript",
			zap.Int("turn_order", ev.TurnOrder),
			zap.String("transcript", ev.Transcript))
		return
	}

	start, end := b.turnWindow(ev)

	b.sess.AppendTranscript(session.Transcript{
		Text:      ev.Transcript,
		Start:     start,
		End:       end,
		Timestamp: time.Now(),
	})

	payload := protocol.TranscriptPayload{Text: ev.Transcript, Start: start, End: end}
	if err := b.sendClientJSON(payload); err != nil {
		metrics.RelayErrorsTotal.WithLabelValues("client_write").Inc()
		b.logger.Warn("send transcript to client failed", zap.Error(err))
		return
	}

	b.logger.Info("formatted transcript",
		zap.Int("turn_order", ev.TurnOrder),
		zap.Float64("start_s", start),
		zap.Float64("end_s", end),
		zap.String("transcript", ev.Transcript))
}

// turnWindow derives second offsets for a turn from its word timings,
// falling back to a window estimated from the audio relayed so far.
func (b *Bridge) turnWindow(ev *protocol.TurnEvent) (start, end float64) {
	if len(ev.Words) > 0 {
		return ev.Words[0].Start / 1000.0, ev.Words[len(ev.Words)-1].End / 1000.0
	}

	total := b.total()
	end = total.Seconds()
	start = (total - estimatedTurnWindow).Seconds()
	if start < 0 {
		start = 0
	}
	return start, end
}

func (b *Bridge) handleUpstreamError(ev *protocol.ErrorEvent) {
	b.logger.Warn("upstream error",
		zap.String("code", ev.ErrorCode),
		zap.String("message", ev.ErrorMessage))

	b.sess.Fail(fmt.Sprintf("code=%s message=%s", ev.ErrorCode, ev.ErrorMessage))

	payload := protocol.ErrorPayload{
		Error:   true,
		Message: fmt.Sprintf("transcription error: %s", ev.ErrorMessage),
	}
	if err := b.sendClientJSON(payload); err != nil {
		b.logger.Warn("send error to client failed", zap.Error(err))
	}
}

// HandleAudio buffers a binary frame from the client, records it for the
// session artifact, and relays any chunks that are ready upstream.
func (b *Bridge) HandleAudio(data []byte) error {
	if b.upstreamWS == nil {
		return fmt.Errorf("upstream connection not established")
	}

	metrics.AudioBytesTotal.WithLabelValues("client_in").Add(float64(len(data)))
	b.rec.Record(data)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.chunker.Write(data)
	for {
		chunk := b.chunker.Next()
		if chunk == nil {
			return nil
		}
		if err := b.upstreamWS.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
			metrics.RelayErrorsTotal.WithLabelValues("upstream_write").Inc()
			return fmt.Errorf("send audio upstream: %w", err)
		}
		metrics.AudioBytesTotal.WithLabelValues("upstream_out").Add(float64(len(chunk)))
		metrics.ChunkBytes.Observe(float64(len(chunk)))

		b.logger.Debug("relayed chunk",
			zap.Int("chunk_bytes", len(chunk)),
			zap.Int("pending_bytes", b.chunker.Pending()))
	}
}

// HandleControl translates a JSON control frame from the client into the
// matching upstream command.
func (b *Bridge) HandleControl(data []byte) error {
	ctl, err := protocol.ParseClientControl(data)
	if err != nil {
		metrics.RelayErrorsTotal.WithLabelValues("control").Inc()
		return err
	}

	cmd, err := ctl.UpstreamCommand()
	if err != nil {
		return err
	}

	if err := b.sendUpstreamJSON(cmd); err != nil {
		metrics.RelayErrorsTotal.WithLabelValues("upstream_write").Inc()
		return fmt.Errorf("send %s upstream: %w", ctl.Type, err)
	}

	b.logger.Info("forwarded control event", zap.String("type", ctl.Type))
	return nil
}

// total is the duration of audio relayed upstream so far.
func (b *Bridge) total() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.chunker.Total()
}

func (b *Bridge) sendClientJSON(v any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.clientWS == nil {
		return fmt.Errorf("client connection closed")
	}
	return b.clientWS.WriteJSON(v)
}

func (b *Bridge) sendUpstreamJSON(v any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.upstreamWS == nil {
		return fmt.Errorf("upstream connection closed")
	}
	return b.upstreamWS.WriteJSON(v)
}

// Close tears down both legs: residual audio is discarded (there is no
// one left to receive its transcript), the upstream gets a Terminate
// command, the session record is finalized, and artifacts are flushed in
// the background. Safe to call more than once.
func (b *Bridge) Close() {
	b.closeOnce.Do(b.close)
}

func (b *Bridge) close() {
	close(b.done)

	b.mu.Lock()

	if n := b.chunker.Discard(); n > 0 {
		b.logger.Debug("discarded residual audio", zap.Int("bytes", n))
	}

	if b.upstreamWS != nil {
		cmd := protocol.TerminateCommand{Type: protocol.TypeTerminate}
		if err := b.upstreamWS.WriteJSON(&cmd); err != nil {
			b.logger.Warn("send terminate upstream failed", zap.Error(err))
		}
		// Let the command reach the wire before dropping the socket.
		time.Sleep(terminateDrain)
		b.upstreamWS.Close()
		b.upstreamWS = nil
	}

	if b.clientWS != nil {
		b.clientWS.Close()
		b.clientWS = nil
	}

	total := b.chunker.Total()
	b.mu.Unlock()

	b.sess.Complete(total.Seconds())
	go b.rec.Flush(b.sess.Snapshot())

	b.logger.Info("bridge closed", zap.Duration("audio_relayed", total))
}
