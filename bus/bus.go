package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/jonwraymond/checkops/engine"
	"github.com/jonwraymond/checkops/health"
	"github.com/jonwraymond/checkops/observe"
	"github.com/jonwraymond/checkops/probe"
)

const (
	TriggerSubject   = "checkops.trigger"
	CompletedSubject = "checkops.run.completed"
)

// Conn is the part of *nats.Conn the bus uses.
type Conn interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
}

var _ Conn = (*nats.Conn)(nil)

// Connect dials url and names the connection.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("checkd"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("bus: connect %s: %w", url, err)
	}
	return conn, nil
}

// Trigger asks for one check run.
type Trigger struct {
	ConfigurationID string `json:"configurationId"`
	SystemID        string `json:"systemId"`
}

// RunSummary is the published form of a run. Results are left out.
type RunSummary struct {
	RunID           string        `json:"runId"`
	ConfigurationID string        `json:"configurationId"`
	SystemID        string        `json:"systemId"`
	StrategyID      string        `json:"strategyId"`
	Status          health.Status `json:"status"`
	Message         string        `json:"message,omitempty"`
	TimedOut        bool          `json:"timedOut,omitempty"`
	LatencyMs       float64       `json:"latencyMs"`
	Timestamp       time.Time     `json:"timestamp"`
	Error           string        `json:"error,omitempty"`
}

// Summarize converts a run.
func Summarize(run probe.Run) RunSummary {
	return RunSummary{
		RunID:           run.ID,
		ConfigurationID: run.ConfigurationID,
		SystemID:        run.SystemID,
		StrategyID:      run.StrategyID,
		Status:          run.Status,
		Message:         run.Message,
		TimedOut:        run.TimedOut,
		LatencyMs:       run.LatencyMs(),
		Timestamp:       run.Timestamp,
	}
}

// Publisher publishes completed runs.
type Publisher struct {
	conn   Conn
	logger observe.Logger
}

var _ engine.RunListener = (*Publisher)(nil)

// NewPublisher creates a Publisher. A nil logger is a no-op.
func NewPublisher(conn Conn, logger observe.Logger) *Publisher {
	if logger == nil {
		logger = observe.NopLogger()
	}
	return &Publisher{conn: conn, logger: logger}
}

// RunCompleted publishes run on CompletedSubject. Failures are logged.
func (p *Publisher) RunCompleted(ctx context.Context, run probe.Run) {
	data, err := json.Marshal(Summarize(run))
	if err != nil {
		p.logger.Error(ctx, "encode run summary", observe.F("run_id", run.ID), observe.F("error", err.Error()))
		return
	}
	if err := p.conn.Publish(CompletedSubject, data); err != nil {
		p.logger.Warn(ctx, "publish run summary", observe.F("run_id", run.ID), observe.F("error", err.Error()))
	}
}

// CheckRunner runs one check. *engine.Engine implements it.
type CheckRunner interface {
	RunCheck(ctx context.Context, configurationID, systemID string) (probe.Run, error)
}

var _ CheckRunner = (*engine.Engine)(nil)

// SubscriberConfig configures a Subscriber.
type SubscriberConfig struct {
	// Subject to listen on. Default: TriggerSubject.
	Subject string

	// Queue group shared by replicas so each trigger runs once. Empty
	// means every subscriber runs every trigger.
	Queue string

	// Timeout bounds one triggered run. Default: 2 minutes.
	Timeout time.Duration

	// Logger. Default: no-op.
	Logger observe.Logger
}

// Subscriber runs checks on trigger messages.
//
// Contract:
//   - Each message is handled on the connection's delivery goroutine and
//     runs its check synchronously.
//   - Requests (messages with a reply subject) receive a RunSummary, with
//     Error set when the run could not be performed.
type Subscriber struct {
	conn    Conn
	queue   *nats.Conn
	runner  CheckRunner
	config  SubscriberConfig
	sub     *nats.Subscription
	baseCtx context.Context
}

// NewSubscriber creates a Subscriber. Call Start to begin receiving.
func NewSubscriber(conn Conn, runner CheckRunner, config SubscriberConfig) *Subscriber {
	if config.Subject == "" {
		config.Subject = TriggerSubject
	}
	if config.Timeout <= 0 {
		config.Timeout = 2 * time.Minute
	}
	if config.Logger == nil {
		config.Logger = observe.NopLogger()
	}
	s := &Subscriber{conn: conn, runner: runner, config: config}
	if nc, ok := conn.(*nats.Conn); ok {
		s.queue = nc
	}
	return s
}

// Start subscribes. Runs inherit ctx values and cancellation.
func (s *Subscriber) Start(ctx context.Context) error {
	s.baseCtx = ctx
	var (
		sub *nats.Subscription
		err error
	)
	if s.config.Queue != "" && s.queue != nil {
		sub, err = s.queue.QueueSubscribe(s.config.Subject, s.config.Queue, s.handle)
	} else {
		sub, err = s.conn.Subscribe(s.config.Subject, s.handle)
	}
	if err != nil {
		return fmt.Errorf("bus: subscribe %s: %w", s.config.Subject, err)
	}
	s.sub = sub
	return nil
}

// Stop unsubscribes.
func (s *Subscriber) Stop() error {
	if s.sub == nil {
		return nil
	}
	return s.sub.Unsubscribe()
}

func (s *Subscriber) handle(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(s.baseCtx, s.config.Timeout)
	defer cancel()

	var trig Trigger
	if err := json.Unmarshal(msg.Data, &trig); err != nil {
		s.reply(ctx, msg, RunSummary{Status: health.StatusUnknown, Error: fmt.Sprintf("%v: %v", ErrInvalidTrigger, err)})
		s.config.Logger.Warn(ctx, "decode trigger", observe.F("error", err.Error()))
		return
	}
	if trig.ConfigurationID == "" || trig.SystemID == "" {
		s.reply(ctx, msg, RunSummary{
			ConfigurationID: trig.ConfigurationID,
			SystemID:        trig.SystemID,
			Status:          health.StatusUnknown,
			Error:           ErrInvalidTrigger.Error(),
		})
		return
	}

	run, err := s.runner.RunCheck(ctx, trig.ConfigurationID, trig.SystemID)
	summary := Summarize(run)
	summary.ConfigurationID = trig.ConfigurationID
	summary.SystemID = trig.SystemID
	if err != nil {
		summary.Error = err.Error()
		if run.ID == "" {
			summary.Status = health.StatusUnknown
		}
		s.config.Logger.Warn(ctx, "triggered run failed",
			observe.F("configuration_id", trig.ConfigurationID),
			observe.F("system_id", trig.SystemID),
			observe.F("error", err.Error()))
	}
	s.reply(ctx, msg, summary)
}

func (s *Subscriber) reply(ctx context.Context, msg *nats.Msg, summary RunSummary) {
	if msg.Reply == "" {
		return
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := s.conn.Publish(msg.Reply, data); err != nil {
		s.config.Logger.Warn(ctx, "reply to trigger", observe.F("error", err.Error()))
	}
}
