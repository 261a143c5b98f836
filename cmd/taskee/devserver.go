package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/Nathan-Yinka/Project-management-application/internal/infrastructure/devserver"
)

func (c *cli) devserverCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Run an in-memory Taskee API for local development",
		Long: `Serves every endpoint the client uses from memory. With TASKEE_REDIS_URL
set, notification mails go through an asynq queue and /health pings Redis;
otherwise mails are logged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dc := c.cfg.DevServer
			if addr == "" {
				addr = dc.Addr
			}
			secret := dc.JWTSecret
			if secret == "" {
				secret = uuid.NewString()
				c.log.Warn().Msg("TASKEE_DEVSERVER_JWT_SECRET not set, tokens will not survive a restart")
			}
			cfg := devserver.Config{
				JWTSecret:       secret,
				TokenTTL:        dc.TokenTTL,
				RateLimit:       dc.RateLimit,
				CORSOrigins:     dc.CORSOrigins,
				LockoutAttempts: dc.LockoutAttempts,
				LockoutCooldown: dc.LockoutCooldown,
				Metrics:         true,
				Log:             c.log,
			}

			if url := c.cfg.Redis.URL; url != "" {
				opt, err := redis.ParseURL(url)
				if err != nil {
					return fmt.Errorf("parse TASKEE_REDIS_URL: %w", err)
				}
				rdb := redis.NewClient(opt)
				defer rdb.Close()
				if err := rdb.Ping(cmd.Context()).Err(); err != nil {
					c.log.Warn().Err(err).Msg("redis ping failed; mails will be logged")
				} else {
					qopt, err := devserver.RedisOpt(url)
					if err != nil {
						return err
					}
					mailer := devserver.NewQueueMailer(qopt, c.log)
					defer mailer.Close()
					worker := devserver.NewWorker(qopt, c.log)
					go func() {
						if err := worker.Run(); err != nil {
							c.log.Warn().Err(err).Msg("mail worker stopped")
						}
					}()
					defer worker.Shutdown()
					cfg.Mailer = mailer
					cfg.Redis = rdb
				}
			}

			srv, err := devserver.New(cfg)
			if err != nil {
				return err
			}
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default TASKEE_DEVSERVER_ADDR)")
	return cmd
}
