// Command turbomcp-server runs a TurboMCP server over either stdio or
// the Streamable HTTP transport, wired with a middleware pipeline
// (security, timeout, bearer auth, authorization, rate limiting, audit
// logging; no schema validation stage) and an in-memory registry exposing
// one demonstration tool.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/viant/turbomcp/authstore"
	"github.com/viant/turbomcp/mcpproto"
	"github.com/viant/turbomcp/middleware"
	"github.com/viant/turbomcp/protocol"
	"github.com/viant/turbomcp/server"
	"github.com/viant/turbomcp/session"
	"github.com/viant/turbomcp/transport"
	"github.com/viant/turbomcp/transport/httpstream"
	"github.com/viant/turbomcp/transport/resilience"
	"github.com/viant/turbomcp/transport/stdio"
)

var cli struct {
	Transport string `default:"stdio" enum:"stdio,http" help:"stdio or http"`
	Addr      string `default:":8765" help:"listen address for the http transport"`
	Path      string `default:"/mcp" help:"endpoint path for the http transport"`

	LogsDir  string `default:"" help:"directory to write rotating logs to; stderr if empty"`
	Debug    bool   `default:"false" help:"also log to stdout"`

	JWTSecret   string `env:"TURBOMCP_JWT_SECRET" help:"HMAC secret validating bearer tokens; auth disabled if empty"`
	AuthRequired bool  `default:"false" help:"reject unauthenticated requests once JWTSecret is set"`

	RedisAddr string `default:"" help:"redis address backing the auth grant store; in-memory if empty"`

	RateLimitRPS   float64 `default:"20" help:"requests per second allowed per identity"`
	RateLimitBurst int     `default:"40" help:"burst size for the rate limiter"`

	MetricsAddr string `default:"" help:"address to expose Prometheus metrics on; disabled if empty"`

	AllowedOrigins []string `help:"Origin header values allowed on the http transport (repeatable); unset allows all"`
}

func main() {
	kong.Parse(&cli, kong.Description("TurboMCP server"))

	logger := buildLogger()
	registry := buildRegistry()
	metrics := resilience.NewMetrics("turbomcp_server")

	if cli.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			if err := http.ListenAndServe(cli.MetricsAddr, mux); err != nil {
				logger.Errorf("metrics listener stopped: %v", err)
			}
		}()
	}

	newHandler := func(ctx context.Context, t transport.Transport) transport.Handler {
		inner := server.New(server.Info{Name: "turbomcp-server", Version: "0.1.0"}, registry, t)
		return middleware.NewPipeline(inner, buildStages(logger)...)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch cli.Transport {
	case "http":
		runHTTP(ctx, newHandler, logger)
	default:
		runStdio(ctx, newHandler, logger)
	}
}

func runStdio(ctx context.Context, newHandler transport.NewHandler, logger protocol.Logger) {
	if err := stdio.ListenAndServe(ctx, newHandler); err != nil {
		logger.Errorf("stdio transport stopped: %v", err)
	}
}

func runHTTP(ctx context.Context, newHandler transport.NewHandler, logger protocol.Logger) {
	handler := httpstream.New(newHandler, session.WithAllowedOrigins(cli.AllowedOrigins...))
	handler.Path = cli.Path

	listener := httpstream.NewListener(cli.Addr, handler)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = listener.Shutdown(shutdownCtx)
	}()

	logger.Errorf("listening on %s%s", cli.Addr, cli.Path)
	if err := listener.Start(); err != nil && err != http.ErrServerClosed {
		logger.Errorf("http transport stopped: %v", err)
	}
}

func buildStages(logger protocol.Logger) []middleware.Stage {
	stages := []middleware.Stage{
		middleware.NewSecurityHeaders(nil).Stage(),
		middleware.NewTimeout(30 * time.Second).Stage(),
	}

	if cli.JWTSecret != "" {
		secret := []byte(cli.JWTSecret)
		keyfunc := func(*jwt.Token) (interface{}, error) { return secret, nil }
		auth := middleware.NewAuthentication(extractBearer, keyfunc, cli.AuthRequired)
		auth.Grants = buildGrantStore()
		stages = append(stages, auth.Stage())
		stages = append(stages, middleware.NewAuthorization(middleware.AllowAllDecider{}).Stage())
	}

	stages = append(stages,
		middleware.NewRateLimit(middleware.IdentityKey, rate.Limit(cli.RateLimitRPS), cli.RateLimitBurst).Stage(),
		middleware.NewAudit(logger).Stage(),
	)
	return stages
}

func extractBearer(ctx context.Context) (string, bool) {
	return httpstream.AuthHeaderFromContext(ctx)
}

func buildGrantStore() authstore.Store {
	if cli.RedisAddr == "" {
		return authstore.NewMemoryStore(30*time.Minute, 24*time.Hour, time.Minute)
	}
	client := redis.NewClient(&redis.Options{Addr: cli.RedisAddr})
	return authstore.NewRedisStore(client, "", 30*time.Minute, 24*time.Hour, time.Minute)
}

func buildRegistry() *server.Registry {
	registry := server.NewRegistry()
	registry.RegisterTool(mcpproto.Tool{
		Name:        "echo",
		Description: "Echoes back the provided message.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"message":{"type":"string"}},"required":["message"]}`),
	}, echoTool)
	return registry
}

func echoTool(_ context.Context, params *mcpproto.CallToolParams) (*mcpproto.CallToolResult, error) {
	var args struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(params.Arguments, &args); err != nil {
		return &mcpproto.CallToolResult{
			Content: []mcpproto.Content{&mcpproto.TextContent{Text: fmt.Sprintf("invalid arguments: %v", err)}},
			IsError: true,
		}, nil
	}
	return &mcpproto.CallToolResult{
		Content: []mcpproto.Content{&mcpproto.TextContent{Text: args.Message}},
	}, nil
}

func buildLogger() protocol.Logger {
	if cli.LogsDir == "" {
		return protocol.NewStdLogger(os.Stderr)
	}
	sink := &lumberjack.Logger{
		Filename:   filepath.Join(cli.LogsDir, "turbomcp-server.log"),
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     28,
		Compress:   true,
	}
	if cli.Debug {
		return protocol.NewStdLogger(multiWriter{sink, os.Stdout})
	}
	return protocol.NewStdLogger(sink)
}

type multiWriter []interface {
	Write([]byte) (int, error)
}

func (m multiWriter) Write(p []byte) (int, error) {
	for _, w := range m {
		if _, err := w.Write(p); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}
