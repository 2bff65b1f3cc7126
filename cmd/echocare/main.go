// Command echocare runs the EchoCare pages in a terminal.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/suPer8Hu/echocare/internal/apiclient"
	"github.com/suPer8Hu/echocare/internal/config"
	"github.com/suPer8Hu/echocare/internal/kv"
	"github.com/suPer8Hu/echocare/internal/logging"
)

type options struct {
	server   string
	storage  string
	logLevel string
}

// env is what every page command needs.
type env struct {
	client  *apiclient.Client
	storage kv.Store
	log     *zap.Logger
	term    *terminal
}

func (e *env) close() {
	if err := e.storage.Close(); err != nil {
		e.log.Warn("close local storage", zap.Error(err))
	}
	_ = e.log.Sync()
}

func (o *options) open(cmd *cobra.Command) (*env, error) {
	log, err := logging.NewConsole(o.logLevel)
	if err != nil {
		return nil, errors.Wrap(err, "logger")
	}
	store, err := kv.Open(o.storage)
	if err != nil {
		return nil, errors.Wrapf(err, "open storage %q", o.storage)
	}
	return &env{
		client:  apiclient.New(o.server),
		storage: store,
		log:     log,
		term:    newTerminal(cmd.InOrStdin(), cmd.OutOrStdout()),
	}, nil
}

func newRootCmd() *cobra.Command {
	cfg := config.Load()
	opts := &options{}

	root := &cobra.Command{
		Use:           "echocare",
		Short:         "EchoCare companion chat in your terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.server, "server", cfg.ServerURL, "backend base URL")
	root.PersistentFlags().StringVar(&opts.storage, "storage", cfg.Storage, "local storage (memory://, sqlite://path, mysql://dsn, redis://...)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level")

	root.AddCommand(
		newAuthCmd(opts, "login", false),
		newAuthCmd(opts, "register", true),
		newChatCmd(opts),
		newLegacyCmd(opts),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Stderr.WriteString("echocare: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}
