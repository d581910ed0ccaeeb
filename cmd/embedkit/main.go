// Package main provides the embedkit compatibility probe. It opens a
// browser session against a host page, runs framework detection,
// discovers editable images, and prints a compatibility report.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/entrhq/embedkit/pkg/compat"
	"github.com/entrhq/embedkit/pkg/compat/detect"
	appconfig "github.com/entrhq/embedkit/pkg/config"
	"github.com/entrhq/embedkit/pkg/logging"
	"github.com/entrhq/embedkit/pkg/page"
)

const (
	version = "0.1.0" // Version of the embedkit probe

	sessionName = "probe"
)

// Config holds the application configuration
type Config struct {
	URL              string
	ConfigPath       string
	Framework        string
	CustomSelectors  string
	ExcludeSelectors string
	ExcludeSources   string
	WaitSelector     string
	Timeout          float64
	Headful          bool
	JSON             bool
	ShowVersion      bool
}

func main() {
	// Parse command line flags
	config := parseFlags()

	// Show version if requested
	if config.ShowVersion {
		fmt.Printf("embedkit v%s\n", version)
		return
	}

	// Validate configuration
	if err := config.validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	// Create context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\nShutting down gracefully...")
		cancel()
	}()

	// Run the application
	if runErr := run(ctx, config); runErr != nil {
		cancel()
		log.Fatalf("Application error: %v", runErr)
	}
}

// parseFlags parses command line flags
func parseFlags() *Config {
	config := &Config{}

	flag.StringVar(&config.URL, "url", "", "Host page URL to probe (required)")
	flag.StringVar(&config.ConfigPath, "config", "", "Path to configuration file (default: ~/.embedkit/config.yaml)")
	flag.StringVar(&config.Framework, "framework", "", "Force a framework variant instead of detecting (wordpress, react, vue, html, custom)")
	flag.StringVar(&config.CustomSelectors, "selectors", "", "Comma-separated CSS selectors always included in image discovery")
	flag.StringVar(&config.ExcludeSelectors, "exclude", "", "Comma-separated CSS selectors excluded from image discovery")
	flag.StringVar(&config.ExcludeSources, "exclude-src", "", "Comma-separated glob patterns matched against image src attributes")
	flag.StringVar(&config.WaitSelector, "wait-for", "", "CSS selector to wait for before probing (optional)")
	flag.Float64Var(&config.Timeout, "timeout", page.DefaultTimeout, "Navigation timeout in milliseconds")
	flag.BoolVar(&config.Headful, "headful", false, "Run the browser with a visible window")
	flag.BoolVar(&config.JSON, "json", false, "Print the report as JSON")
	flag.BoolVar(&config.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "embedkit - host page compatibility probe\n\n")
		fmt.Fprintf(os.Stderr, "Usage: embedkit -url <page> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  embedkit -url https://blog.example.com\n")
		fmt.Fprintf(os.Stderr, "  embedkit -url https://app.example.com -framework react\n")
		fmt.Fprintf(os.Stderr, "  embedkit -url https://shop.example.com -selectors '.product img' -exclude-src '*/sprites/*'\n")
		fmt.Fprintf(os.Stderr, "  embedkit -url https://blog.example.com -json\n")
	}

	flag.Parse()
	return config
}

// validate checks that the configuration is valid
func (c *Config) validate() error {
	if c.URL == "" {
		return fmt.Errorf("a host page URL is required (use -url flag)")
	}

	if c.Framework != "" {
		if _, err := detect.ParseFramework(c.Framework); err != nil {
			return err
		}
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}

	return nil
}

// run executes the main application logic
func run(ctx context.Context, config *Config) error {
	// Initialize global configuration
	if err := appconfig.Initialize(config.ConfigPath); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	logger, err := logging.NewLogger("main")
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	// Resolve compatibility settings: config file first, flags override
	compatCfg := buildCompatConfig(config)

	// Start the browser session
	sessions := page.NewSessionManager()
	if err := sessions.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize browser runtime: %w", err)
	}
	defer sessions.Shutdown()

	browserCfg := appconfig.GetBrowser()
	opts := page.SessionOptions{
		Headless: !config.Headful,
		Timeout:  config.Timeout,
	}
	if browserCfg != nil {
		opts.Viewport = &page.Viewport{
			Width:  browserCfg.ViewportWidth,
			Height: browserCfg.ViewportHeight,
		}
	}

	session, err := sessions.StartSession(sessionName, opts)
	if err != nil {
		return fmt.Errorf("failed to start browser session: %w", err)
	}

	if err := session.Navigate(config.URL, page.NavigateOptions{
		WaitUntil: "load",
		Timeout:   config.Timeout,
	}); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", config.URL, err)
	}

	if config.WaitSelector != "" {
		if err := session.Wait(page.WaitOptions{
			Selector: config.WaitSelector,
			State:    "visible",
			Timeout:  config.Timeout,
		}); err != nil {
			return fmt.Errorf("failed waiting for %q: %w", config.WaitSelector, err)
		}
	}

	// Run detection and image discovery
	manager, err := compat.NewManager(session.Host(), compatCfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create compatibility manager: %w", err)
	}
	defer manager.Cleanup()

	if err := manager.Initialize(ctx); err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	info := manager.GetFrameworkInfo()
	if info == nil {
		return fmt.Errorf("detection produced no result")
	}

	images := manager.FindEditableImages()

	report := buildReport(config.URL, info, len(images))
	if config.JSON {
		return report.WriteJSON(os.Stdout)
	}
	fmt.Println(report.Render())
	return nil
}

// buildCompatConfig merges file-backed settings with CLI overrides.
func buildCompatConfig(config *Config) compat.Config {
	cfg := compat.DefaultConfig()
	if section := appconfig.GetCompat(); section != nil {
		cfg = section.ToCompat()
	}

	if config.Framework != "" {
		cfg.AutoDetect = false
		cfg.Framework = detect.Framework(config.Framework)
	}
	if config.CustomSelectors != "" {
		cfg.CustomSelectors = splitList(config.CustomSelectors)
	}
	if config.ExcludeSelectors != "" {
		cfg.ExcludeSelectors = splitList(config.ExcludeSelectors)
	}
	if config.ExcludeSources != "" {
		cfg.ExcludeSources = splitList(config.ExcludeSources)
	}

	return cfg
}

// splitList splits a comma-separated flag value, trimming whitespace
// and dropping empty entries.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
