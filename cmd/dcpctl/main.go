// Command dcpctl exercises the pruning engine end to end against a
// recorded transcript fixture, without a real host attached — a
// single one-shot run for local testing and debugging.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/config"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/model"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/session"
)

func main() {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("dcpctl", flag.ExitOnError)
	fixturePath := fs.String("fixture", "", "path to a recorded transcript fixture (JSON)")
	configDir := fs.String("config-dir", "", "directory holding dcp.json (defaults to in-memory defaults)")
	statePath := fs.String("state-dir", "", "directory for the per-session sidecar store (defaults to no persistence)")
	command := fs.String("command", "", "run a /dcp sub-command (context|stats|sweep|manual|prune|distill|compress) instead of a transform")

	if err := fs.Parse(os.Args[1:]); err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	if *fixturePath == "" {
		log.Fatal("-fixture is required")
	}

	cfg := config.Default()
	if *configDir != "" {
		loaded, err := config.NewManager(*configDir).Load()
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}

	var store *session.Store
	if *statePath != "" {
		store = session.NewStore(*statePath)
	}

	engine := dcp.New(cfg, store)

	doc, err := loadFixture(*fixturePath)
	if err != nil {
		log.Fatalf("load fixture: %v", err)
	}
	messages := toMessages(doc)

	if *command != "" {
		runCommand(engine, doc.SessionID, doc.IsSubAgent, messages, *command)
		return
	}

	result := engine.TransformMessages(doc.SessionID, doc.IsSubAgent, messages)

	fmt.Printf("--- rewritten transcript (%d message(s)) ---\n", len(result.Messages))
	for _, msg := range result.Messages {
		printMessage(msg)
	}

	if len(result.Notifications) == 0 {
		return
	}
	fmt.Println("\n--- notifications ---")
	for _, n := range result.Notifications {
		fmt.Printf("[%s/%s] %s\n%s\n", n.Channel, n.Reason, n.Title, n.Body)
	}
}

func runCommand(engine *dcp.Engine, sessionID string, isSubAgent bool, messages []model.Message, arguments string) {
	st := engine.Sessions.EnsureInitialized(sessionID, isSubAgent)
	engine.Sessions.SyncToolCache(st, messages)
	engine.Sessions.RebuildToolIDList(st, messages)
	engine.Sessions.UpdateTurn(st, messages)

	text, err := engine.HandleCommand(st, messages, strings.Fields(arguments))
	fmt.Println(text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "(sentinel: %v)\n", err)
	}
}

func printMessage(msg model.Message) {
	fmt.Printf("[%s] %s\n", msg.Info.Role, msg.Info.ID)
	for _, p := range msg.Parts {
		switch part := p.(type) {
		case *model.TextPart:
			fmt.Printf("  text: %s\n", part.Text)
		case *model.ToolPart:
			fmt.Printf("  tool: %s(%s) status=%s output=%q\n", part.Tool, part.CallID, part.State.Status, truncate(part.State.Output, 80))
		case *model.StepStartPart:
			fmt.Printf("  step_start\n")
		case *model.StepFinishPart:
			fmt.Printf("  step_finish\n")
		}
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
