package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/okian/lensfit/internal/fitclient"
)

// Default configuration constants.
const (
	defaultTimeout    = 10 * time.Second
	defaultRunTimeout = 2 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		scenario = flag.String("scenario", "", "YAML scenario file (default: built-in seed scenario)")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		verbose  = flag.Bool("verbose", false, "Enable verbose logging")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		fitclient.ShowHelp()
		return
	}

	if err := fitclient.SetupLogging(*verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	config := &fitclient.Config{
		BaseURL:      *baseURL,
		ScenarioFile: *scenario,
		Timeout:      *timeout,
		Verbose:      *verbose,
	}

	if _, err := fitclient.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Scenario failed: " + err.Error() + "\n")
		cancel()
		os.Exit(1)
	}
}
