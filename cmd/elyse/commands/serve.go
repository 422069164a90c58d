package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/elyseproject/elyse/internal/build"
	"github.com/elyseproject/elyse/internal/config"
	"github.com/elyseproject/elyse/internal/logfields"
	"github.com/elyseproject/elyse/internal/metrics"
	"github.com/elyseproject/elyse/internal/server"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Source string `short:"s" help:"Site source directory" default:"."`
	Addr   string `help:"Listen address, overrides serve.addr"`
	Open   bool   `help:"Open the site in a browser once it is up"`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	sigctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	src, err := filepath.Abs(s.Source)
	if err != nil {
		return fmt.Errorf("resolve source directory: %w", err)
	}
	cfg, err := loadConfig(src, root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if s.Addr != "" {
		cfg.Serve.Addr = s.Addr
	}

	registry := prometheus.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	sk := openSinks(src, cfg)
	defer sk.Close()

	factory := func(c *config.Config) *build.Builder {
		return sk.apply(build.New(src, c).WithRecorder(recorder))
	}

	srv := server.New(src, resolveConfig(src, root.Config), cfg, factory).
		WithMetricsRegistry(registry)
	if sk.store != nil {
		srv = srv.WithStore(sk.store)
	}

	if s.Open {
		go openBrowser(sigctx, siteURL(cfg.Serve.Addr))
	}

	return srv.Run(sigctx)
}

// siteURL converts a listen address into something a browser accepts.
func siteURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://localhost:8080/"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + "/"
}

// openBrowser launches the platform browser once the server answers.
func openBrowser(ctx context.Context, url string) {
	client := &http.Client{Timeout: time.Second}
	for i := 0; i < 50; i++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(100 * time.Millisecond):
		}
		resp, err := client.Get(url)
		if err == nil {
			resp.Body.Close()
			break
		}
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		slog.Warn("Could not open browser", logfields.URL(url), logfields.Error(err))
	}
}
