package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dbcopilot/internal/backends"
	"dbcopilot/internal/config"
	"dbcopilot/internal/copilot"
	"dbcopilot/internal/engine"
	"dbcopilot/internal/logging"
	"dbcopilot/internal/session"
)

var (
	// Global flags
	configPath   string
	workspace    string
	conversation string
	verbose      bool
	attachFiles  []string

	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "dbcopilot",
	Short: "dbcopilot - multi-backend database console copilot",
	Long: `dbcopilot is a conversational assistant for database consoles.

A generic dispatcher triages each request across the workspace's connected
backends (MongoDB, BigQuery, PostgreSQL) and hands the conversation to the
matching specialist, which answers with live tool calls against the data
source.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// backendsCmd lists the registered backend capabilities
var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List the registered backend capabilities",
	RunE:  runBackends,
}

// routeCmd shows the routing decision for a message without running it
var routeCmd = &cobra.Command{
	Use:   "route [message]",
	Short: "Explain which specialist a message would route to",
	Long: `Runs content classification over the message and any attached files and
prints the chosen capability kind with its confidence, without invoking the
model or any backend.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRoute,
}

// toolsCmd prints the dispatcher's aggregated toolset
var toolsCmd = &cobra.Command{
	Use:   "tools [kind]",
	Short: "Print an agent's toolset (defaults to the triage dispatcher)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTools,
}

// askCmd runs one conversation turn
var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Ask the copilot a question against the workspace's backends",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "dbcopilot.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&workspace, "workspace", "", "Workspace ID (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	routeCmd.Flags().StringSliceVar(&attachFiles, "attach", nil, "Files whose content is classified alongside the message")
	askCmd.Flags().StringSliceVar(&attachFiles, "attach", nil, "Files attached to the request")
	askCmd.Flags().StringVar(&conversation, "conversation", "default", "Conversation ID for sticky routing")

	rootCmd.AddCommand(backendsCmd)
	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(askCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads config and registers every backend capability. Connectors are
// lazy: nothing dials out until a tool executes.
func setup() (*config.Config, *copilot.Registry, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if workspace != "" {
		cfg.Workspace = workspace
	}

	reg := copilot.NewRegistry()
	backends.RegisterAll(reg, connectorsFrom(cfg))
	return cfg, reg, nil
}

// connectorsFrom builds one connector per configured connection. Kinds with no
// connection stay registered with a nil connector, so discovery still lists
// them and only execution fails.
func connectorsFrom(cfg *config.Config) backends.Connectors {
	var conns backends.Connectors
	if c, ok := cfg.Connection("mongo"); ok {
		conns.Mongo = backends.NewMongoConnector(c.URI, c.Database)
	}
	if c, ok := cfg.Connection("bigquery"); ok {
		conns.BigQuery = backends.NewBigQueryConnector(c.ProjectID)
	}
	if c, ok := cfg.Connection("postgres"); ok {
		conns.Postgres = backends.NewPostgresConnector(c.DSN)
	}
	return conns
}

func capabilities(cfg *config.Config) []copilot.Kind {
	kinds := make([]copilot.Kind, 0, len(cfg.Connections))
	for _, name := range cfg.Capabilities() {
		kinds = append(kinds, copilot.Kind(name))
	}
	return kinds
}

func readAttachments() ([]string, error) {
	var contents []string
	for _, path := range attachFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read attachment %s: %w", path, err)
		}
		contents = append(contents, string(data))
	}
	return contents, nil
}

func runBackends(cmd *cobra.Command, args []string) error {
	_, reg, err := setup()
	if err != nil {
		return err
	}

	for _, r := range reg.All() {
		fmt.Printf("%-10s %-12s %s\n", r.Kind, r.DisplayName, r.HandoffBlurb)
	}
	return nil
}

func runRoute(cmd *cobra.Command, args []string) error {
	cfg, reg, err := setup()
	if err != nil {
		return err
	}
	attachments, err := readAttachments()
	if err != nil {
		return err
	}

	sc := copilot.SelectionContext{
		UserText:              strings.Join(args, " "),
		AttachedContents:      attachments,
		WorkspaceCapabilities: capabilities(cfg),
	}
	kind := copilot.Select(reg, sc)
	exp := copilot.Explain(reg, sc, kind)

	out, err := json.MarshalIndent(exp, "", "  ")
	if err != nil {
		return fmt.Errorf("encode explanation: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func runTools(cmd *cobra.Command, args []string) error {
	cfg, reg, err := setup()
	if err != nil {
		return err
	}

	kind := copilot.KindTriage
	if len(args) == 1 {
		kind = copilot.Kind(args[0])
	}

	factory := copilot.NewFactory(reg)
	if !factory.IsSupported(kind) {
		return fmt.Errorf("unsupported kind %q (supported: %v)", kind, factory.SupportedKinds())
	}

	handle, err := factory.Build(kind, copilot.NewRequestContext(cfg.Workspace))
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s)\n", handle.DisplayName, handle.Kind)
	for _, t := range handle.Tools.Tools() {
		fmt.Printf("  %-24s %s\n", t.Name(), t.Description())
	}
	for _, edge := range handle.Handoffs {
		fmt.Printf("  %-24s %s\n", edge.ToolName, edge.Description)
	}
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, reg, err := setup()
	if err != nil {
		return err
	}
	attachments, err := readAttachments()
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, err := session.Open(ctx, cfg.Session.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()

	eng, err := engine.New(ctx, engine.Options{
		APIKey:       cfg.LLM.APIKey,
		Model:        cfg.LLM.Model,
		Registry:     reg,
		Store:        store,
		Capabilities: capabilities(cfg),
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	res, err := eng.Turn(ctx, cfg.Workspace, conversation, strings.Join(args, " "), attachments)
	if err != nil {
		return err
	}

	fmt.Printf("[%s] %s\n", res.Kind, res.Text)
	return nil
}
