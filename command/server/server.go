package server

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/toncell-lab/emubridge/command"
	"github.com/toncell-lab/emubridge/emulator"
	"github.com/toncell-lab/emubridge/server"
)

func GetCommand() *cobra.Command {
	serverCmd := &cobra.Command{
		Use:     "server",
		Short:   "Starts the emulator boundary service",
		PreRunE: runPreRun,
		RunE:    runCommand,
	}

	setFlags(serverCmd)

	return serverCmd
}

func setFlags(cmd *cobra.Command) {
	defaults := defaultParams()

	cmd.Flags().StringVar(
		&params.logLevel,
		command.LogLevelFlag,
		defaults.logLevel,
		"the log level for console output",
	)

	cmd.Flags().StringVar(
		&params.rawListenAddr,
		command.ListenAddrFlag,
		defaults.rawListenAddr,
		"the address and port the service listens on",
	)

	cmd.Flags().StringArrayVar(
		&params.corsAllowedOrigins,
		command.CORSOriginFlag,
		[]string{"*"},
		"the CORS header indicating whether any response can be shared with requesting code from the given origin",
	)

	cmd.Flags().BoolVar(
		&params.enableWS,
		command.EnableWSFlag,
		false,
		"whether the websocket endpoint is enabled or not",
	)

	cmd.Flags().StringVar(
		&params.rawPrometheusAddr,
		command.PrometheusAddressFlag,
		"",
		"the address and port for the prometheus instrumentation service (address:port)",
	)
}

func runPreRun(*cobra.Command, []string) error {
	return params.initRawParams()
}

func runCommand(cmd *cobra.Command, _ []string) error {
	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "emubridge",
		Level: hclog.LevelFromString(params.logLevel),
	})

	var metrics *server.Metrics

	if params.prometheusAddr != nil {
		metrics = server.GetPrometheusMetrics("emubridge")

		go func() {
			srv := &http.Server{
				Addr:    params.prometheusAddr.String(),
				Handler: promhttp.Handler(),
			}

			if err := srv.ListenAndServe(); err != nil {
				logger.Error("prometheus http server closed", "err", err)
			}
		}()
	}

	srv, err := server.NewServer(logger, &server.Config{
		Engine:                   emulator.UnimplementedEngine{},
		Addr:                     params.listenAddr,
		AccessControlAllowOrigin: params.corsAllowedOrigins,
		EnableWS:                 params.enableWS,
		Metrics:                  metrics,
	})
	if err != nil {
		return err
	}

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	<-signalCh

	logger.Info("shutting down")

	return srv.Close()
}
