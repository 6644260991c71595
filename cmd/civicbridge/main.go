package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/civicbridge/civicbridge/agent"
	"github.com/civicbridge/civicbridge/config"
	"github.com/civicbridge/civicbridge/errors"
	"github.com/civicbridge/civicbridge/llm"
	"github.com/civicbridge/civicbridge/session"
	"github.com/civicbridge/civicbridge/tokens"
	"github.com/civicbridge/civicbridge/tools"
)

func main() {
	os.Exit(run())
}

// run holds the whole session lifetime so deferred cleanup fires on
// every exit path, including errors after the server is connected.
func run() int {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: civicbridge <path_to_server_script>")
		return 1
	}
	scriptPath := os.Args[1]

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %+v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry, err := tools.Connect(ctx, scriptPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to server: %+v\n", err)
		return 1
	}
	defer registry.Close()

	snap, err := registry.Snapshot(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing tools: %+v\n", err)
		return 1
	}
	names := make([]string, 0, len(snap.Descriptors))
	for _, d := range snap.Descriptors {
		names = append(names, d.Name)
	}
	fmt.Printf("\nConnected to server %s with tools: %v\n", scriptPath, names)

	client := buildClient(ctx, cfg, registry)

	guidance := config.LoadPrompts(cfg.PromptGlobs)
	if intro := config.LoadPrompts(cfg.IntroGlobs); intro != "" {
		fmt.Printf("\n%s\n", intro)
	}

	runCtx := session.NewRunningContext(guidance)

	var sess *session.Session
	if cfg.ResumeSession != "" {
		sess, err = session.Load(cfg.ResumeSession)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not resume session %q: %v\n", cfg.ResumeSession, err)
			sess = nil
		} else {
			replayTranscript(sess, runCtx)
			fmt.Printf("Resumed session %q with %d messages.\n", sess.Name, len(sess.Messages))
		}
	}
	if sess == nil && cfg.SaveSessions {
		sess, err = session.New(defaultSessionName())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: session persistence disabled: %v\n", err)
			sess = nil
		}
	}

	shell := &agent.Shell{
		Engine: &agent.Engine{
			Client:    client,
			Tools:     registry,
			MaxRounds: cfg.MaxRounds,
		},
		Context: runCtx,
		Monitor: tokens.Monitor{
			Window:  cfg.ContextWindow,
			Divisor: cfg.WindowDivisor,
			Model:   cfg.Model,
		},
		In:      os.Stdin,
		Out:     os.Stdout,
		Session: sess,
	}

	fmt.Println("\nMCP client started. Type your queries or 'quit' to exit.")
	if err := shell.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Session stopped with an error: %+v\n", err)
		return 1
	}
	return 0
}

// buildClient constructs the configured backend client. A missing
// credential is not fatal here; the session starts and the failure is
// reported on first use.
func buildClient(ctx context.Context, cfg *config.Config, registry *tools.Registry) llm.Client {
	var client llm.Client
	var err error

	switch cfg.Backend {
	case "openai":
		client, err = llm.NewOpenAIClient(ctx, cfg.Model)
	case "anthropic":
		client, err = llm.NewAnthropicClient(ctx, cfg.Model)
	case "gemini":
		client, err = llm.NewGeminiClient(ctx, cfg.Model, registry)
	case "bedrock":
		client, err = llm.NewBedrockClient(ctx, cfg.Model)
	default:
		fmt.Fprintf(os.Stderr, "Warning: unknown backend %q, using mock client\n", cfg.Backend)
		return &llm.MockClient{}
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %s backend unavailable: %v\n", cfg.Backend, err)
		return &llm.Unconfigured{Err: err}
	}
	return client
}

// replayTranscript reseeds the running context from a resumed session so
// the next query carries the prior exchanges as its prefix.
func replayTranscript(sess *session.Session, rc *session.RunningContext) {
	for _, m := range sess.Messages {
		switch m.Role {
		case "user":
			rc.AddUser(m.Content)
		case "assistant":
			rc.AddAssistant(m.Content)
		}
	}
}

func defaultSessionName() string {
	wd, err := os.Getwd()
	if err != nil {
		wd = "civicbridge"
	}
	dirName := filepath.Base(wd)
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return fmt.Sprintf("%s_%s", dirName, timestamp)
}
