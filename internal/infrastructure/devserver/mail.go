package devserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Mail task types.
const (
	TypeOrganizationCreated = "mail:organization_created"
	TypeMemberAdded         = "mail:member_added"
)

// Mail is a notification for one user.
type Mail struct {
	Kind         string `json:"kind"`
	To           string `json:"to"`
	Username     string `json:"username"`
	Organization string `json:"organization"`
}

// Subject and Body render the notification text.
func (m Mail) Subject() string {
	if m.Kind == TypeOrganizationCreated {
		return "You have created a new organization"
	}
	return "You have been added to an organization"
}

func (m Mail) Body() string {
	if m.Kind == TypeOrganizationCreated {
		return fmt.Sprintf("Hello %s,\n\nYou have successfully created the organization: %s. You are now the admin of this organization.", m.Username, m.Organization)
	}
	return fmt.Sprintf("Hello %s,\n\nYou have been added as a member to the organization: %s.", m.Username, m.Organization)
}

// Mailer hands notifications off for delivery.
type Mailer interface {
	Enqueue(ctx context.Context, m Mail) error
}

// LogMailer delivers in process by writing the mail to the log.
type LogMailer struct {
	log zerolog.Logger
}

func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log.With().Str("component", "mail").Logger()}
}

func (l *LogMailer) Enqueue(ctx context.Context, m Mail) error {
	deliver(l.log, m)
	return nil
}

func deliver(log zerolog.Logger, m Mail) {
	log.Info().
		Str("to", m.To).
		Str("subject", m.Subject()).
		Str("body", m.Body()).
		Msg("mail (log only)")
}

// QueueMailer enqueues mails on asynq; Worker delivers them.
type QueueMailer struct {
	client *asynq.Client
	log    zerolog.Logger
}

// RedisOpt converts a go-redis URL into asynq connection options.
func RedisOpt(url string) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return asynq.RedisClientOpt{}, fmt.Errorf("parse redis url: %w", err)
	}
	return asynq.RedisClientOpt{Addr: opt.Addr, Password: opt.Password, DB: opt.DB}, nil
}

func NewQueueMailer(opt asynq.RedisClientOpt, log zerolog.Logger) *QueueMailer {
	return &QueueMailer{client: asynq.NewClient(opt), log: log.With().Str("component", "mail").Logger()}
}

func (q *QueueMailer) Enqueue(ctx context.Context, m Mail) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return err
	}
	if _, err := q.client.EnqueueContext(ctx, asynq.NewTask(m.Kind, payload)); err != nil {
		q.log.Warn().Err(err).Str("to", m.To).Str("kind", m.Kind).Msg("enqueue mail failed")
		return err
	}
	return nil
}

func (q *QueueMailer) Close() error { return q.client.Close() }

// Worker runs the asynq handlers for mail tasks.
type Worker struct {
	srv *asynq.Server
	mux *asynq.ServeMux
	log zerolog.Logger
}

func NewWorker(opt asynq.RedisClientOpt, log zerolog.Logger) *Worker {
	w := &Worker{
		srv: asynq.NewServer(opt, asynq.Config{Concurrency: 2, LogLevel: asynq.WarnLevel}),
		mux: asynq.NewServeMux(),
		log: log.With().Str("component", "mail-worker").Logger(),
	}
	w.mux.HandleFunc(TypeOrganizationCreated, w.handle)
	w.mux.HandleFunc(TypeMemberAdded, w.handle)
	return w
}

func (w *Worker) handle(ctx context.Context, t *asynq.Task) error {
	var m Mail
	if err := json.Unmarshal(t.Payload(), &m); err != nil {
		w.log.Error().Err(err).Str("type", t.Type()).Msg("mail payload invalid")
		return err
	}
	deliver(w.log, m)
	return nil
}

// Run blocks until Shutdown.
func (w *Worker) Run() error { return w.srv.Run(w.mux) }

func (w *Worker) Shutdown() { w.srv.Shutdown() }
