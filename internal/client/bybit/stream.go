package bybit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

const (
	DefaultLinearWSURL = "wss://stream.bybit.com/v5/public/linear"
	DefaultSpotWSURL   = "wss://stream.bybit.com/v5/public/spot"
)

// TickerTopic names the public ticker topic for a symbol.
func TickerTopic(symbol string) string {
	return "tickers." + symbol
}

type wsRequest struct {
	Op   string   `json:"op"`
	Args []string `json:"args,omitempty"`
}

type wsMessage struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"`
	Op      string          `json:"op"`
	RetMsg  string          `json:"ret_msg"`
	Success *bool           `json:"success,omitempty"`
	Data    json.RawMessage `json:"data"`
	TS      int64           `json:"ts"`
}

type wsTickerData struct {
	Symbol     string `json:"symbol"`
	LastPrice  string `json:"lastPrice"`
	MarkPrice  string `json:"markPrice"`
	IndexPrice string `json:"indexPrice"`
}

// TickerUpdate is one streamed ticker event. Linear deltas carry only the
// fields that changed; anything absent is zero and must not overwrite a
// cached price.
type TickerUpdate struct {
	Topic      string
	Symbol     string
	LastPrice  float64
	MarkPrice  float64
	IndexPrice float64
	ObservedAt time.Time
}

type StreamOptions struct {
	URL               string
	Topics            []string
	HeartbeatInterval time.Duration
	BackoffMin        time.Duration
	BackoffMax        time.Duration
	Logger            *zap.Logger
}

// TickerStream keeps one public stream subscribed to its topics, sending
// the venue's JSON keepalive and reconnecting with jittered backoff until
// the context ends.
type TickerStream struct {
	opts      StreamOptions
	seenFirst bool
}

func NewTickerStream(opts StreamOptions) *TickerStream {
	if opts.URL == "" {
		opts.URL = DefaultLinearWSURL
	}
	if opts.HeartbeatInterval == 0 {
		opts.HeartbeatInterval = 20 * time.Second
	}
	if opts.BackoffMin == 0 {
		opts.BackoffMin = 1 * time.Second
	}
	if opts.BackoffMax == 0 {
		opts.BackoffMax = 30 * time.Second
	}
	return &TickerStream{opts: opts}
}

func (s *TickerStream) Run(ctx context.Context, onTicker func(TickerUpdate)) error {
	if s == nil {
		return fmt.Errorf("stream is nil")
	}
	if len(s.opts.Topics) == 0 {
		return fmt.Errorf("stream has no topics")
	}

	backoff := s.opts.BackoffMin
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		conn, _, err := websocket.Dial(ctx, s.opts.URL, nil)
		if err != nil {
			if s.opts.Logger != nil {
				s.opts.Logger.Warn("bybit ws connect failed", zap.Error(err))
			}
			if err := sleepWithJitter(ctx, backoff); err != nil {
				return err
			}
			backoff = nextBackoff(backoff, s.opts.BackoffMax)
			continue
		}
		conn.SetReadLimit(1 << 20)

		if err := writeJSON(ctx, conn, wsRequest{Op: "subscribe", Args: s.opts.Topics}); err != nil {
			if s.opts.Logger != nil {
				s.opts.Logger.Warn("bybit ws subscribe failed", zap.Error(err))
			}
			_ = conn.Close(websocket.StatusInternalError, "subscribe failed")
			if err := sleepWithJitter(ctx, backoff); err != nil {
				return err
			}
			backoff = nextBackoff(backoff, s.opts.BackoffMax)
			continue
		}
		if s.opts.Logger != nil {
			s.opts.Logger.Info("bybit ws subscribed",
				zap.String("url", s.opts.URL),
				zap.Int("topics", len(s.opts.Topics)))
		}
		backoff = s.opts.BackoffMin

		err = s.consume(ctx, conn, onTicker)
		_ = conn.Close(websocket.StatusNormalClosure, "reconnect")
		if err == nil || errors.Is(err, context.Canceled) {
			return err
		}
		if err := sleepWithJitter(ctx, backoff); err != nil {
			return err
		}
		backoff = nextBackoff(backoff, s.opts.BackoffMax)
	}
}

func (s *TickerStream) consume(ctx context.Context, conn *websocket.Conn, onTicker func(TickerUpdate)) error {
	heartbeatErr := make(chan error, 1)
	heartbeatCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The venue expects {"op":"ping"} as a JSON message, not a protocol
	// ping frame. The heartbeat goroutine is the only writer once the
	// subscription is in place.
	go func() {
		ticker := time.NewTicker(s.opts.HeartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-heartbeatCtx.Done():
				heartbeatErr <- heartbeatCtx.Err()
				return
			case <-ticker.C:
				pingCtx, cancelPing := context.WithTimeout(heartbeatCtx, 5*time.Second)
				err := writeJSON(pingCtx, conn, wsRequest{Op: "ping"})
				cancelPing()
				if err != nil {
					heartbeatErr <- err
					return
				}
			}
		}
	}()

	for {
		select {
		case err := <-heartbeatErr:
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		default:
		}

		_, data, err := conn.Read(ctx)
		if err != nil {
			if s.opts.Logger != nil && !errors.Is(err, context.Canceled) {
				s.opts.Logger.Warn("bybit ws read failed", zap.Error(err))
			}
			return err
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		// Pong and subscribe acks carry op/ret_msg but no topic.
		if msg.Topic == "" || !strings.HasPrefix(msg.Topic, "tickers.") {
			if msg.Success != nil && !*msg.Success && s.opts.Logger != nil {
				s.opts.Logger.Warn("bybit ws op rejected",
					zap.String("op", msg.Op),
					zap.String("ret_msg", msg.RetMsg))
			}
			continue
		}

		var tick wsTickerData
		if err := json.Unmarshal(msg.Data, &tick); err != nil {
			continue
		}
		observedAt := time.Now().UTC()
		if msg.TS > 0 {
			observedAt = time.UnixMilli(msg.TS).UTC()
		}
		if s.opts.Logger != nil && !s.seenFirst {
			s.seenFirst = true
			s.opts.Logger.Info("bybit ws first ticker", zap.String("topic", msg.Topic))
		}
		if onTicker != nil {
			onTicker(TickerUpdate{
				Topic:      msg.Topic,
				Symbol:     tick.Symbol,
				LastPrice:  parseFloat(tick.LastPrice),
				MarkPrice:  parseFloat(tick.MarkPrice),
				IndexPrice: parseFloat(tick.IndexPrice),
				ObservedAt: observedAt,
			})
		}
	}
}

func writeJSON(ctx context.Context, conn *websocket.Conn, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, payload)
}

func nextBackoff(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func sleepWithJitter(ctx context.Context, base time.Duration) error {
	if base <= 0 {
		return nil
	}
	jitter := time.Duration(rand.Int63n(int64(base / 2)))
	timer := time.NewTimer(base + jitter)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
