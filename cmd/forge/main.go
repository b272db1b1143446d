package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"appforge/internal/artifact"
	"appforge/internal/config"
	"appforge/internal/inference"
	"appforge/internal/llm"
	"appforge/internal/registry"
	"appforge/internal/schema"
	"appforge/internal/server"
	"appforge/internal/synth"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Logger
	logger *zap.Logger
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	fileStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

var rootCmd = &cobra.Command{
	Use:   "forge",
	Short: "appforge - natural-language CRUD application generator",
	Long: `appforge turns a natural-language application description into a
runnable CRUD application: it infers a data schema through an LLM, lets you
refine it, then deterministically synthesizes a complete Go project.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
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

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

var generateCmd = &cobra.Command{
	Use:   "generate [description]",
	Short: "Generate an application from a description in one shot",
	Long: `Runs the full pipeline from the terminal: infer a schema from the
description, then synthesize the project.

Example:
  forge generate "an app to track my book collection with title and author"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List generated projects",
	RunE:  runProjects,
}

var (
	modelFlag  string
	entityFlag string
	opsFlag    []string
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "forge.yaml", "path to config file")

	generateCmd.Flags().StringVarP(&modelFlag, "model", "m", "", "model identifier (default from config)")
	generateCmd.Flags().StringVar(&entityFlag, "entity", "", "entity name hint")
	generateCmd.Flags().StringSliceVar(&opsFlag, "operations", nil, "enabled operations (default all)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(projectsCmd)
}

// wiring holds the assembled service components.
type wiring struct {
	cfg    *config.Config
	engine *inference.Engine
	synth  *synth.Synthesizer
	store  *artifact.Store
	reg    *registry.Registry
}

func buildWiring() (*wiring, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	router, err := llm.NewRouter(llm.RouterConfig{
		OpenAIKey:     cfg.LLM.OpenAIKey,
		OpenAIBaseURL: cfg.LLM.OpenAIBaseURL,
		AnthropicKey:  cfg.LLM.AnthropicKey,
		GeminiKey:     cfg.LLM.GeminiKey,
		Timeout:       cfg.LLM.Timeout,
	})
	if err != nil {
		return nil, err
	}

	store, err := artifact.NewStore(cfg.Storage.GeneratedDir)
	if err != nil {
		return nil, err
	}
	reg, err := registry.Open(cfg.Storage.RegistryPath)
	if err != nil {
		return nil, err
	}

	return &wiring{
		cfg:    cfg,
		engine: inference.NewEngine(router, logger),
		synth:  synth.NewSynthesizer(router, store, reg, logger),
		store:  store,
		reg:    reg,
	}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	w, err := buildWiring()
	if err != nil {
		return err
	}
	defer w.reg.Close()

	srv := server.New(w.engine, w.synth, w.store, w.reg, logger, server.Options{
		DefaultModel:   w.cfg.LLM.DefaultModel,
		AllowedOrigins: w.cfg.Server.AllowedOrigins,
	})
	return srv.Run(w.cfg.Server.Addr)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	w, err := buildWiring()
	if err != nil {
		return err
	}
	defer w.reg.Close()

	model := modelFlag
	if model == "" {
		model = w.cfg.LLM.DefaultModel
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
	defer cancel()

	prompt := strings.Join(args, " ")
	fmt.Println(headerStyle.Render("Inferring schema..."))
	def, err := w.engine.Infer(ctx, inference.InferRequest{
		Prompt:     prompt,
		EntityName: entityFlag,
		Operations: opsFlag,
		Model:      model,
	})
	if err != nil {
		return err
	}
	printSchema(def)

	fmt.Println(headerStyle.Render("Synthesizing application..."))
	res, err := w.synth.Synthesize(ctx, *def, synth.Options{Model: model})
	if err != nil {
		return err
	}

	fmt.Println(successStyle.Render(fmt.Sprintf("Project %s generated", res.ProjectID)))
	for kind, path := range res.GeneratedFiles {
		fmt.Printf("  %s %s\n", kind, fileStyle.Render(path))
	}
	for _, warning := range res.Warnings {
		fmt.Println(warnStyle.Render("warning: " + warning))
	}
	return nil
}

func runProjects(cmd *cobra.Command, args []string) error {
	w, err := buildWiring()
	if err != nil {
		return err
	}
	defer w.reg.Close()

	records, err := w.reg.List()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No projects yet.")
		return nil
	}
	for _, rec := range records {
		fmt.Printf("%s  %-20s %s  %s\n",
			rec.ID, rec.EntityName, rec.CreatedAt.Format(time.RFC3339), rec.Path)
	}
	return nil
}

func printSchema(def *schema.SchemaDefinition) {
	fmt.Printf("Entity: %s\n", def.EntityName)
	for _, f := range def.Fields {
		required := ""
		if f.Required {
			required = " (required)"
		}
		fmt.Printf("  %-20s %s%s\n", f.Name, f.Type, required)
	}
	ops, _ := json.Marshal(def.Operations)
	fmt.Printf("Operations: %s\n", ops)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
