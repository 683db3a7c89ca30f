package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/mathibot/internal/server"
	"github.com/abhisek/mathibot/internal/session"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the chat HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		cmd.SetContext(ctx)

		rt, err := openRuntime(cmd, logger)
		if err != nil {
			return err
		}
		defer rt.Close()

		if err := rt.probe(ctx); err != nil {
			return err
		}

		sweeper := session.NewSweeper(rt.sessions, rt.locker, rt.cfg.Sessions.IdleTTL, logger)
		if err := sweeper.Start(rt.cfg.Sessions.SweepSchedule); err != nil {
			return fmt.Errorf("start session sweeper: %w", err)
		}
		defer sweeper.Stop()

		addr := rt.cfg.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}
		srv, err := server.New(rt.chat, server.Options{
			Addr:            addr,
			ReadTimeout:     rt.cfg.Server.ReadTimeout,
			WriteTimeout:    rt.cfg.Server.WriteTimeout,
			ShutdownTimeout: rt.cfg.Server.ShutdownTimeout,
			Logger:          logger,
		})
		if err != nil {
			return err
		}

		logger.Info("starting mathibot",
			zap.String("addr", addr),
			zap.String("lessons", rt.cfg.Lessons.Driver),
			zap.String("sessions", rt.cfg.Sessions.Driver),
			zap.Bool("semantic", rt.semantic != nil),
			zap.Bool("llm", rt.provider != nil),
		)
		if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
}

