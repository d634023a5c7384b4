package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/planinsta/internal"
	"github.com/starford/planinsta/internal/access"
	"github.com/starford/planinsta/internal/parser"
	"github.com/starford/planinsta/internal/seed"
	pkgconfig "github.com/starford/planinsta/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	tier, err := access.ParseTier(cmd.String("tier"))
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, tier, internal.WithConfig(cfg))
}

func parse(_ context.Context, cmd *cli.Command) error {
	var (
		data []byte
		err  error
	)
	if path := cmd.Args().First(); path == "" || path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read markdown: %w", err)
	}
	return printJSON(parser.ParseSections(string(data)))
}

func token(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Access.Secret == "" {
		return fmt.Errorf("access.secret must be set to mint tokens the server accepts")
	}
	tier, err := access.ParseTier(cmd.String("tier"))
	if err != nil {
		return err
	}
	issuer, err := internal.NewIssuer(cfg.Access)
	if err != nil {
		return err
	}
	tok, _, err := issuer.Issue(tier)
	if err != nil {
		return err
	}
	fmt.Println(tok)
	return nil
}

func templates(_ context.Context, _ *cli.Command) error {
	return printJSON(seed.Industries())
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}
	tierFlag := func(def string) *cli.StringFlag {
		return &cli.StringFlag{Name: "tier", Usage: "Access tier (free or paid)", Value: def}
	}

	cmd := &cli.Command{
		Name:   "planinsta",
		Usage:  "AI-assisted business plan generator, editor, and translator",
		Action: serve,
		Flags:  []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API (default)",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Flags:  []cli.Flag{tierFlag(string(access.TierPaid))},
				Action: serveMCP,
			},
			{
				Name:      "parse",
				Usage:     "Split a Markdown file into plan sections and print them as JSON",
				ArgsUsage: "[file|-]",
				Action:    parse,
			},
			{
				Name:   "token",
				Usage:  "Mint a signed access token",
				Flags:  []cli.Flag{tierFlag(string(access.TierPaid))},
				Action: token,
			},
			{
				Name:   "templates",
				Usage:  "List industry templates",
				Action: templates,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
