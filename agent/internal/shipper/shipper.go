package shipper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/aquamind/aquamind/agent/internal/config"
	"github.com/aquamind/aquamind/pkg/types"
)

const (
	ingestPath = "/ingest/v1/readings"

	backoffInitial    = 1 * time.Second
	backoffMax        = 60 * time.Second
	backoffMultiplier = 2.0
	sendTimeout       = 10 * time.Second
)

// Shipper buffers snapshots and ships them to aquamind-server over HTTP.
// Ship() is non-blocking; when the buffer is full the oldest snapshot is
// evicted. Run() must be called in a goroutine to drain the buffer and
// handle retries.
type Shipper struct {
	cfg      config.AgentConfig
	endpoint string
	client   *http.Client
	buf      chan *types.PlantReadings
}

// New creates a Shipper using the given agent config.
func New(cfg config.AgentConfig) *Shipper {
	return &Shipper{
		cfg:      cfg,
		endpoint: strings.TrimSuffix(cfg.ServerEndpoint, "/") + ingestPath,
		client:   &http.Client{Timeout: sendTimeout},
		buf:      make(chan *types.PlantReadings, cfg.BufferSize),
	}
}

// Ship enqueues a snapshot for delivery. If the buffer is full the oldest
// entry is evicted to make room.
func (s *Shipper) Ship(snap *types.PlantReadings) {
	select {
	case s.buf <- snap:
	default:
		// Buffer full — drop the oldest snapshot, keep the newest.
		select {
		case <-s.buf:
			slog.Warn("shipper: buffer full, evicted oldest snapshot",
				"source", snap.SourceID, "buffer_cap", cap(s.buf))
		default:
		}
		s.buf <- snap
	}
}

// Run drains the buffer, sending snapshots to the server. Failed sends are
// retried with exponential backoff; permanently rejected snapshots are
// discarded. Run blocks until ctx is cancelled.
func (s *Shipper) Run(ctx context.Context) {
	bo := newBackoff()

	for {
		select {
		case <-ctx.Done():
			return

		case snap := <-s.buf:
			err := s.send(ctx, snap)
			if err == nil {
				bo.reset()
				slog.Debug("shipper: snapshot delivered", "source", snap.SourceID)
				continue
			}

			// Permanent rejections mean the snapshot itself is bad; retrying
			// the same payload would loop forever.
			if isPermanent(err) {
				slog.Error("shipper: permanent send error, discarding snapshot",
					"source", snap.SourceID, "err", err)
				continue
			}

			// Put the snapshot back if there's room; the next cycle's data
			// replaces it otherwise.
			select {
			case s.buf <- snap:
			default:
			}

			wait := bo.next()
			slog.Warn("shipper: send failed, will retry",
				"endpoint", s.endpoint, "err", err, "retry_in", wait)
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}
	}
}

// send POSTs one snapshot to the ingest endpoint.
func (s *Shipper) send(ctx context.Context, snap *types.PlantReadings) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return &permanentError{fmt.Errorf("marshal snapshot: %w", err)}
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(sendCtx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return &permanentError{fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.ServerAuth.Mode == "apikey" {
		req.Header.Set(s.cfg.ServerAuth.EffectiveHeader(), s.cfg.ServerAuth.Key())
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusBadRequest ||
		resp.StatusCode == http.StatusUnauthorized ||
		resp.StatusCode == http.StatusForbidden ||
		resp.StatusCode == http.StatusUnprocessableEntity:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &permanentError{fmt.Errorf("server rejected snapshot: HTTP %d: %s",
			resp.StatusCode, strings.TrimSpace(string(msg)))}
	default:
		return fmt.Errorf("server returned HTTP %d", resp.StatusCode)
	}
}

// permanentError marks a send failure that must not be retried.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func isPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// backoff implements truncated exponential backoff with jitter.
type backoff struct {
	current time.Duration
}

func newBackoff() *backoff {
	return &backoff{current: backoffInitial}
}

// next returns the current backoff duration and advances the internal state.
func (b *backoff) next() time.Duration {
	d := b.current
	// Apply ±25 % jitter.
	jitter := time.Duration(float64(b.current) * 0.25 * (rand.Float64()*2 - 1)) //nolint:gosec // not crypto
	d += jitter
	if d < 0 {
		d = 0
	}

	// Advance for next call.
	b.current = time.Duration(float64(b.current) * backoffMultiplier)
	if b.current > backoffMax {
		b.current = backoffMax
	}
	return d
}

func (b *backoff) reset() {
	b.current = backoffInitial
}
