// Command turbomcp-client launches an MCP server subprocess over stdio,
// completes the initialize handshake, lists its tools, and calls one by
// name with the given JSON arguments.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/viant/turbomcp/client"
	"github.com/viant/turbomcp/mcpproto"
	"github.com/viant/turbomcp/protocol"
	"github.com/viant/turbomcp/transport/resilience"
	"github.com/viant/turbomcp/transport/stdio"
)

var cli struct {
	Command string   `arg:"" help:"server command to launch"`
	Args    []string `arg:"" optional:"" help:"arguments passed to the server command"`

	Call string `help:"tool name to invoke after listing tools; lists only when empty"`
	With string `default:"{}" help:"JSON arguments for the tool call"`

	Timeout time.Duration `default:"30s" help:"deadline for the whole session"`
}

func main() {
	kong.Parse(&cli)

	ctx, cancel := context.WithTimeout(context.Background(), cli.Timeout)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "turbomcp-client:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	mcpClient := client.New(mcpproto.Implementation{Name: "turbomcp-client", Version: "0.1.0"})

	dialer := stdio.NewDialer(cli.Command, stdio.WithArguments(cli.Args...))
	rawTransport, err := dialer.Dial(ctx, client.RegisterHandler(mcpClient))
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	wrapped := resilience.Wrap(rawTransport, resilience.Config{
		Retry:   resilience.NetworkRetryConfig(),
		Circuit: resilience.DefaultCircuitBreakerConfig(),
	})
	defer wrapped.Close()

	initResult, err := initialize(ctx, wrapped)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	fmt.Printf("connected to %s %s\n", initResult.ServerInfo.Name, initResult.ServerInfo.Version)
	if err := notifyInitialized(ctx, wrapped); err != nil {
		return fmt.Errorf("notifications/initialized: %w", err)
	}

	tools, err := listTools(ctx, wrapped)
	if err != nil {
		return fmt.Errorf("tools/list: %w", err)
	}
	for _, tool := range tools.Tools {
		fmt.Printf("tool: %-20s %s\n", tool.Name, tool.Description)
	}

	if cli.Call == "" {
		return nil
	}
	result, err := callTool(ctx, wrapped, cli.Call, []byte(cli.With))
	if err != nil {
		return fmt.Errorf("tools/call: %w", err)
	}
	for _, content := range result.Content {
		if text, ok := content.(*mcpproto.TextContent); ok {
			fmt.Println(text.Text)
		}
	}
	if result.IsError {
		return fmt.Errorf("tool reported an error")
	}
	return nil
}

func initialize(ctx context.Context, w *resilience.Wrapped) (*mcpproto.InitializeResult, error) {
	params := mcpproto.InitializeParams{
		ProtocolVersion: "2025-06-18",
		ClientInfo:      mcpproto.Implementation{Name: "turbomcp-client", Version: "0.1.0"},
	}
	result := &mcpproto.InitializeResult{}
	if err := call(ctx, w, "initialize", params, result); err != nil {
		return nil, err
	}
	return result, nil
}

func notifyInitialized(ctx context.Context, w *resilience.Wrapped) error {
	notification := &protocol.Notification{Jsonrpc: protocol.Version, Method: "notifications/initialized"}
	return w.Notify(ctx, notification)
}

func listTools(ctx context.Context, w *resilience.Wrapped) (*mcpproto.ListToolsResult, error) {
	result := &mcpproto.ListToolsResult{}
	if err := call(ctx, w, "tools/list", mcpproto.ListToolsParams{}, result); err != nil {
		return nil, err
	}
	return result, nil
}

func callTool(ctx context.Context, w *resilience.Wrapped, name string, args []byte) (*mcpproto.CallToolResult, error) {
	params := mcpproto.CallToolParams{Name: name, Arguments: args}
	result := &mcpproto.CallToolResult{}
	if err := call(ctx, w, "tools/call", params, result); err != nil {
		return nil, err
	}
	return result, nil
}

func call(ctx context.Context, w *resilience.Wrapped, method string, params, result any) error {
	request, err := protocol.NewRequest(method, params)
	if err != nil {
		return err
	}
	request.Id = int64(time.Now().UnixNano())
	response, err := w.Send(ctx, request)
	if err != nil {
		return err
	}
	if response.Error != nil {
		return response.Error
	}
	return json.Unmarshal(response.Result, result)
}
