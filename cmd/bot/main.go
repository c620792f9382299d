package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/Adamcza88/ai-matic-bot-sub001/internal/bot"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/config"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/execution"
	"github.com/Adamcza88/ai-matic-bot-sub001/internal/version"
	"github.com/Adamcza88/ai-matic-bot-sub001/pkg/schema"
)

// runAction is the core logic executed by the run command. It loads the
// configuration, assembles the bot and blocks until shutdown.
func runAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	// Setup callbacks
	onOrderPlaced := bot.OnOrderPlacedCallback(func(plan execution.OrderPlan, result execution.PlaceOrderResult) {
		fmt.Printf("Order placed: %s %s %.4f @ %.4f, filled %.4f\n",
			plan.Side, plan.Symbol, plan.Quantity, plan.Entry, result.FilledQty)
	})
	onError := bot.OnErrorCallback(func(err error) {
		fmt.Printf("Error: %v\n", err)
	})

	callbacks := bot.Callbacks{
		OnOrderPlaced: &onOrderPlaced,
		OnError:       &onError,
	}

	b, err := bot.NewBot(*cfg, callbacks)
	if err != nil {
		return err
	}

	// Setup signal handling
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, stopping...")
		cancel()
	}()

	fmt.Printf("Starting bot with %d symbols...\n", len(cfg.Symbols))
	if err := b.Run(runCtx); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Println("Bot stopped by user")
			return nil
		}

		return err
	}

	return nil
}

// schemaAction writes the configuration JSON schema, plus a sample
// config next to it when none exists yet.
func schemaAction(ctx context.Context, cmd *cli.Command) error {
	schemaJSON, err := schema.ToJSONSchema(config.Config{})
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	outputDir := cmd.String("output")
	schemaName := "bot-config.json"
	schemaPath := filepath.Join(outputDir, schemaName)
	sampleConfigPath := filepath.Join(outputDir, "bot-config.yaml")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(schemaPath, []byte(schemaJSON), 0644); err != nil {
		return fmt.Errorf("failed to write schema to file: %w", err)
	}

	// Write a sample config if none exists yet
	if _, err := os.Stat(sampleConfigPath); os.IsNotExist(err) {
		sample := config.Config{
			Version: version.GetVersion(),
			Symbols: []string{"BTCUSDT"},
		}
		yamlBytes, err := yaml.Marshal(sample)
		if err != nil {
			return fmt.Errorf("failed to marshal sample config: %w", err)
		}
		yamlBytes = append([]byte("# yaml-language-server: $schema="+schemaName+"\n"), yamlBytes...)
		if err := os.WriteFile(sampleConfigPath, yamlBytes, 0644); err != nil {
			return fmt.Errorf("failed to write sample config: %w", err)
		}
		log.Printf("Sample config successfully generated at %s", sampleConfigPath)
	}

	log.Printf("Schema successfully generated at %s", schemaPath)

	return nil
}

func main() {
	// Define the CLI application
	cmd := &cli.Command{
		Name:  "bot",
		Usage: "Semi-automated derivatives execution bot",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the bot with the given configuration",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to the YAML configuration file",
						Value:    "config/bot-config.yaml",
						Required: false,
					},
				},
				Action: runAction,
			},
			{
				Name:  "schema",
				Usage: "Generate the configuration JSON schema and a sample config",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "Directory the schema and sample config are written to",
						Value:    "config",
						Required: false,
					},
				},
				Action: schemaAction,
			},
			{
				Name:  "version",
				Usage: "Print the bot version",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					fmt.Println(version.GetVersion())
					return nil
				},
			},
		},
	}

	// Run the CLI application
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
