package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/api"
	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/engine"
	"github.com/gyaneshwarpardhi/ticketsupervisor/internal/logging"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Supervise tickets, continuously or once",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := loadConfig()
			if err != nil {
				return err
			}
			log, hook, err := setupLogging(file)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			eng := engine.New(engine.Options{
				Config:  file,
				Robots:  robots(file),
				DryRun:  viper.GetBool("dry-run"),
				Quiet:   viper.GetBool("quiet"),
				Once:    viper.GetBool("once"),
				Version: Version,
			}, newSource(log), log, engine.WithActionFiles(hook))

			if addr := viper.GetString("listen"); addr != "" {
				srv := &http.Server{
					Addr:         addr,
					Handler:      api.New(eng, log),
					ReadTimeout:  10 * time.Second,
					WriteTimeout: 30 * time.Second,
					IdleTimeout:  60 * time.Second,
				}
				go func() {
					log.Infof("ops server listening on %s", addr)
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.Errorf("ops server: %v", err)
					}
				}()
				defer func() {
					shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutCtx)
				}()
			}

			if err := eng.Run(ctx); err != nil {
				log.WithField(logging.FieldCode, "091").Errorf("Something went wrong, supervisor stopped: %v", err)
				return err
			}
			return nil
		},
	}
	cmd.Flags().Bool("once", false, "run a single cycle instead of looping")
	cmd.Flags().Bool("dry-run", false, "read-only: log intended changes without performing them")
	cmd.Flags().Bool("simulate", false, "alias of --dry-run")
	cmd.Flags().Bool("quiet", false, "do not log tickets no rule applies to")
	cmd.Flags().String("listen", "", "address of the ops HTTP server (/healthz, /readyz, /v1/status, /metrics)")
	_ = viper.BindPFlag("once", cmd.Flags().Lookup("once"))
	_ = viper.BindPFlag("quiet", cmd.Flags().Lookup("quiet"))
	_ = viper.BindPFlag("listen", cmd.Flags().Lookup("listen"))
	_ = viper.BindPFlag("dry-run", cmd.Flags().Lookup("dry-run"))
	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		if sim, _ := cmd.Flags().GetBool("simulate"); sim {
			viper.Set("dry-run", true)
		}
	}
	return cmd
}
