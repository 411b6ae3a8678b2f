package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/refcat/mcp-server/internal/config"
	"github.com/refcat/mcp-server/internal/transport"
	"github.com/refcat/mcp-server/tools"
)

const (
	version     = "0.1.0"
	serverName  = "refcat-mcp-server"
	description = "MCP server for browsing and searching a reference catalog of concepts, APIs and code examples"
)

var (
	cfgFile    string
	catalogDir string
	httpAddr   string
	watch      bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           serverName,
	Short:         description,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return run(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("%s version {{.Version}}\n", serverName))
	rootCmd.Flags().StringVar(&cfgFile, "config", "refcat.yml", "config file path")
	rootCmd.Flags().StringVar(&catalogDir, "catalog-dir", "", "directory of section files (defaults to the embedded catalog)")
	rootCmd.Flags().StringVar(&httpAddr, "http", "", "serve MCP over HTTP on this address instead of stdio")
	rootCmd.Flags().BoolVar(&watch, "watch", false, "reload the catalog when files in --catalog-dir change")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log every query")
}

func main() {
	// Set up logging to stderr (MCP uses stdout for protocol)
	log.SetOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// loadConfig reads file and env settings, then applies explicitly set flags
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("catalog-dir") {
		cfg.CatalogDir = catalogDir
	}
	if flags.Changed("http") {
		cfg.HTTPAddr = httpAddr
	}
	if flags.Changed("watch") {
		cfg.Watch = watch
	}
	if flags.Changed("verbose") {
		cfg.Verbose = verbose
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config) error {
	log.Printf("%s v%s starting...", serverName, version)

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	cat.SetVerbose(cfg.Verbose)

	// Set up cleanup on shutdown
	defer func() {
		if err := cat.Close(); err != nil {
			log.Printf("Error closing catalog: %v", err)
		}
	}()

	if cfg.Watch {
		watcher, err := tools.NewWatcher(cfg.CatalogDir, cat)
		if err != nil {
			return err
		}
		if err := watcher.Start(ctx); err != nil {
			return fmt.Errorf("failed to watch %s: %w", cfg.CatalogDir, err)
		}
		defer watcher.Stop()
	}

	server := createMCPServer()
	tools.RegisterCatalogTools(server, cat)
	tools.RegisterCatalogResources(server, cat)
	log.Printf("✓ Registered 8 tools and 3 resources")

	if cfg.HTTPAddr != "" {
		log.Printf("✓ Server ready, serving HTTP on %s", cfg.HTTPAddr)
		return transport.Serve(ctx, cfg.HTTPAddr, transport.NewRouter(server, cat, cfg.CORSOrigins))
	}

	log.Printf("✓ Server ready and waiting for connections")

	// Run server with stdio transport
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// loadCatalog loads the configured directory, falling back to the embedded
// catalog when the directory cannot be loaded
func loadCatalog(cfg *config.Config) (*tools.Catalog, error) {
	if cfg.CatalogDir == "" {
		return tools.NewCatalog(tools.NewEmbeddedDataProvider(), cfg.CatalogPattern, cfg.RenderCacheSize)
	}

	cat, err := tools.NewCatalog(tools.NewDirDataProvider(cfg.CatalogDir), cfg.CatalogPattern, cfg.RenderCacheSize)
	if err == nil {
		return cat, nil
	}
	if cfg.Watch {
		// Watching only makes sense for the directory
		return nil, err
	}

	log.Printf("Warning: Failed to load catalog from %s: %v", cfg.CatalogDir, err)
	log.Printf("Falling back to the embedded catalog")
	return tools.NewCatalog(tools.NewEmbeddedDataProvider(), "", cfg.RenderCacheSize)
}

// createMCPServer initializes the MCP server
func createMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    serverName,
			Version: version,
		},
		nil, // Default options
	)

	log.Printf("Server initialized: %s v%s", serverName, version)
	return server
}
