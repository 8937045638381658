package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dshills/t32remote/internal/remote/client"
	"github.com/dshills/t32remote/internal/scriptwatch"
	"github.com/dshills/t32remote/internal/session"
)

// serveMetrics serves the client metrics on addr until ctx is done.
func (a *app) serveMetrics(ctx context.Context, addr string) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.WithError(err).Error("metrics server failed")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	a.log.WithField("addr", ln.Addr().String()).Info("serving metrics")
	return ln.Addr(), nil
}

func (a *app) watchCommand() *cobra.Command {
	var metricsAddr string
	var delay time.Duration
	cmd := &cobra.Command{
		Use:   "watch <path>...",
		Short: "Re-run scripts whenever they change",
		Long: `watch runs a PRACTICE or Lua script each time it is saved. Paths may be
scripts or directories of scripts. Stop with Ctrl-C; the debugger
connection is released on exit.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("metrics-addr") {
				metricsAddr = a.cfg.Metrics.Addr
			}
			if !cmd.Flags().Changed("delay") {
				delay = time.Duration(a.cfg.Watch.DebounceMs) * time.Millisecond
			}

			return a.withClient(cmd, func(ctx context.Context, c *client.Client) error {
				s := session.New(c, a.log)
				s.SetHandlers(session.Handlers{
					OnStateChanged: func(old, new client.TargetState) {
						a.log.WithFields(logrus.Fields{"from": old.String(), "to": new.String()}).Info("target state changed")
					},
				})

				w, err := scriptwatch.New(scriptwatch.RunFiles(s, a.log), scriptwatch.Options{
					Delay:      delay,
					Extensions: a.cfg.Watch.Extensions,
					Logger:     a.log,
				})
				if err != nil {
					return err
				}
				defer w.Close()

				for _, p := range args {
					if err := w.Add(p); err != nil {
						return err
					}
				}

				if metricsAddr != "" {
					if _, err := a.serveMetrics(ctx, metricsAddr); err != nil {
						return err
					}
				}

				a.log.WithField("paths", args).Info("watching scripts")
				err = w.Run(ctx)
				st := w.Stats()
				a.log.WithFields(logrus.Fields{"events": st.Events, "runs": st.Runs, "errors": st.Errors}).Info("watch stopped")
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9132")
	cmd.Flags().DurationVar(&delay, "delay", scriptwatch.DefaultDelay, "Debounce delay after a change")
	return cmd
}
