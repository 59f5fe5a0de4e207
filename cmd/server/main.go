package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"crystal-ball/internal/config"
	"crystal-ball/internal/db"
	"crystal-ball/internal/logging"
	"crystal-ball/internal/server"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

const shutdownTimeout = 5 * time.Second

type options struct {
	bind        string
	port        int
	envFile     string
	autoMigrate bool
	pretty      bool
	verbose     bool
}

func main() {
	opts := &options{}
	cobra.CheckErr(newCmd(opts).Execute())
}

func newCmd(opts *options) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("PREDICT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "crystal-ball",
		Short: "Host prediction games whose answers are revealed all at once.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.port < 1 || opts.port > 65535 {
				return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", opts.port)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts)
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&opts.bind, "bind", "b", "0.0.0.0", "address to bind to (env: PREDICT_BIND)")
	fs.IntVarP(&opts.port, "port", "p", 8080, "port to listen on (env: PREDICT_PORT)")
	fs.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading configuration (env: PREDICT_ENV_FILE)")
	fs.BoolVar(&opts.autoMigrate, "auto-migrate", false, "run GORM auto-migrations on startup (env: PREDICT_AUTO_MIGRATE)")
	fs.BoolVar(&opts.pretty, "pretty", false, "human readable console logs (env: PREDICT_PRETTY)")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level (env: PREDICT_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	return cmd
}

func run(ctx context.Context, opts *options) error {
	envErr := config.LoadDotEnv(opts.envFile)
	cfg := config.Load()
	level := cfg.LogLevel
	if opts.verbose {
		level = "debug"
	}
	logging.Setup(level, opts.pretty)
	if envErr != nil {
		log.Warn().Err(envErr).Str("path", opts.envFile).Msg("failed to load env file")
	}

	var conn *gorm.DB
	if cfg.DatabaseURL != "" {
		var err error
		conn, err = db.Open(cfg.DatabaseURL, cfg.Pool())
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		if opts.autoMigrate {
			if err := db.Migrate(conn); err != nil {
				return fmt.Errorf("migrate database: %w", err)
			}
		}
		if sqlDB, err := conn.DB(); err == nil {
			defer sqlDB.Close()
		}
	} else {
		log.Warn().Msg("DATABASE_URL is not set; games are kept in memory")
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(opts.bind, strconv.Itoa(opts.port)),
		Handler:           server.New(conn, cfg).Handler(),
		IdleTimeout:       10 * time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Bool("database", conn != nil).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
