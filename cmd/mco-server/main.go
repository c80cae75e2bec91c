package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/paradiselabs/mco-server/internal/config"
	"github.com/paradiselabs/mco-server/internal/mcp"
	"github.com/paradiselabs/mco-server/internal/orchestrator"
	"github.com/paradiselabs/mco-server/internal/workflow"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "mco-server",
	Short: "MCO workflow orchestration server (MCP stdio mode)",
	Run: func(cmd *cobra.Command, args []string) {
		runServer()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdio",
	Run: func(cmd *cobra.Command, args []string) {
		runServer()
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <dir>",
	Short: "Load a workflow configuration directory and print a summary",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		validateDir(args[0])
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configDir, "config-dir", "c", "", "Default workflow configuration directory")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(validateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer() {
	// MCP uses stdout for the protocol, so diagnostics go to stderr.
	log.SetOutput(os.Stderr)

	store, err := config.NewStore()
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}
	settings := store.Get()

	dir := configDir
	if dir == "" {
		dir = settings.ConfigDir
	}

	engine := orchestrator.NewEngine(orchestrator.NewStore(), nil, dir)
	srv := mcp.NewServer(engine, settings.ServerName, settings.ServerVersion)

	log.Printf("Starting %s %s on stdio", settings.ServerName, settings.ServerVersion)
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func validateDir(dir string) {
	wf, err := workflow.Load(dir)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}

	ctx := wf.PersistentContext()
	fmt.Printf("✅ Valid workflow configuration: %s\n", dir)
	if ctx.WorkflowName != "" {
		fmt.Printf("Workflow: %s\n", ctx.WorkflowName)
	}
	if ctx.Goal != "" {
		fmt.Printf("Goal: %s\n", ctx.Goal)
	}

	fmt.Println("\nDocuments:")
	fmt.Printf("  %s  (required)\n", workflow.CoreFile)
	fmt.Printf("  %s  (required)\n", workflow.SuccessCriteriaFile)
	if wf.Features != nil {
		fmt.Printf("  %s\n", workflow.FeaturesFile)
	}
	if wf.Styles != nil {
		fmt.Printf("  %s\n", workflow.StylesFile)
	}

	steps := workflow.ExtractSteps(wf)
	fmt.Printf("\nSteps (%d):\n", len(steps))
	for _, step := range steps {
		fmt.Printf("  %-24s [%s] %s\n", step.ID, step.Category, step.Description)
	}
}
