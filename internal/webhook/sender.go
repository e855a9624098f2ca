// Package webhook delivers job lifecycle events to a configured HTTP endpoint.
// Delivery is best-effort and fully decoupled from the job pipeline.
package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"printquote/internal/core"
)

type Payload struct {
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Job       *core.Job `json:"job"`
}

// Sender posts events to a single webhook URL. Events are queued on a buffered
// channel and delivered by one goroutine; when the buffer is full the event is
// dropped rather than stalling the job worker.
type Sender struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
	queue      chan Payload
	stopCh     chan struct{}
}

func NewSender(url string, timeout time.Duration, logger *zap.Logger) *Sender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	s := &Sender{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		queue:      make(chan Payload, 100),
		stopCh:     make(chan struct{}),
	}
	go s.deliver()
	return s
}

// SendJobEvent queues an event for delivery. Never blocks.
func (s *Sender) SendJobEvent(event string, job *core.Job) {
	p := Payload{Event: event, Timestamp: time.Now().UTC(), Job: job}
	select {
	case s.queue <- p:
	default:
		s.logger.Warn("webhook queue full, dropping event",
			zap.String("event", event), zap.String("job_id", job.ID))
	}
}

func (s *Sender) Stop() {
	close(s.stopCh)
}

func (s *Sender) deliver() {
	for {
		select {
		case <-s.stopCh:
			return
		case p := <-s.queue:
			if err := s.post(p); err != nil {
				s.logger.Warn("webhook delivery failed",
					zap.String("event", p.Event),
					zap.String("job_id", p.Job.ID),
					zap.Error(err))
			}
		}
	}
}

func (s *Sender) post(p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	resp, err := s.httpClient.Post(s.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
