package transcribe

import (
	"context"
	"log/slog"
	"time"
)

// PumpConfig controls how captured audio is fed into a session.
type PumpConfig struct {
	// ChunkInterval is how often buffered frames are flushed to the channel.
	ChunkInterval time.Duration
	// KeepAlive is how often an idle-suppression frame is sent.
	KeepAlive time.Duration
}

func (c PumpConfig) withDefaults() PumpConfig {
	if c.ChunkInterval <= 0 {
		c.ChunkInterval = time.Second
	}
	if c.KeepAlive <= 0 {
		c.KeepAlive = 8 * time.Second
	}
	return c
}

// Pump forwards capture frames into the streaming session, flushing on a
// fixed interval and keeping the channel alive while the speaker pauses.
// It returns when ctx is cancelled, the frame source closes, or a send
// fails. The session is left open; closing it is the caller's decision.
func Pump(ctx context.Context, frames <-chan []byte, session Session, cfg PumpConfig) error {
	cfg = cfg.withDefaults()

	flush := time.NewTicker(cfg.ChunkInterval)
	defer flush.Stop()
	keepAlive := time.NewTicker(cfg.KeepAlive)
	defer keepAlive.Stop()

	var pending []byte
	send := func() error {
		if len(pending) == 0 {
			return nil
		}
		err := session.SendAudio(pending)
		pending = pending[:0]
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return send()

		case frame, ok := <-frames:
			if !ok {
				return send()
			}
			pending = append(pending, frame...)

		case <-flush.C:
			if err := send(); err != nil {
				return err
			}

		case <-keepAlive.C:
			if err := session.KeepAlive(); err != nil {
				slog.Debug("keep-alive failed", "error", err)
				return err
			}
		}
	}
}
