package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/casedesk/internal"
	"github.com/starford/casedesk/internal/backup"
	pkgconfig "github.com/starford/casedesk/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	found, err := pkgconfig.LoadOptional(configPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if !found {
		slog.Warn("config file not found, using defaults", slog.String("path", configPath))
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
	return internal.RunMCP(ctx, internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
}

func backupManager(cmd *cli.Command) (*backup.Manager, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))
	return backup.New(cfg.Backup.Manager(cfg.SQLite.Path), logger)
}

func backupKeygen(_ context.Context, _ *cli.Command) error {
	key, err := backup.GenerateKey()
	if err != nil {
		return err
	}
	fmt.Println(key)
	fmt.Fprintln(os.Stderr, "Store this key securely and set it as backup.key; backups cannot be restored without it.")
	return nil
}

func backupCreate(ctx context.Context, cmd *cli.Command) error {
	m, err := backupManager(cmd)
	if err != nil {
		return err
	}
	res, err := m.Create(ctx)
	for _, f := range res.Failed {
		fmt.Printf("FAILED  %-8s %s: %v\n", f.Location.Kind, f.Location.Dir, f.Err)
	}
	if err != nil {
		return err
	}
	for _, loc := range res.Saved {
		fmt.Printf("OK      %-8s %s\n", loc.Kind, loc.Dir)
	}
	switch {
	case res.Partial():
		fmt.Printf("Partial success: %d/%d locations, backup %s\n", len(res.Saved), len(res.Saved)+len(res.Failed), res.Filename)
	default:
		fmt.Printf("Backup %s written to %d location(s)\n", res.Filename, len(res.Saved))
	}
	if res.Pruned > 0 {
		fmt.Printf("Removed %d old backup(s)\n", res.Pruned)
	}
	return nil
}

func backupList(_ context.Context, cmd *cli.Command) error {
	m, err := backupManager(cmd)
	if err != nil {
		return err
	}
	listings := m.List()
	if len(listings) == 0 {
		return errors.New("no backup locations accessible")
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, l := range listings {
		fmt.Fprintf(tw, "%s\t%s\n", l.Location.Kind, l.Location.Dir)
		if l.Err != "" {
			fmt.Fprintf(tw, "\terror: %s\n", l.Err)
			continue
		}
		if len(l.Backups) == 0 {
			fmt.Fprintln(tw, "\tno backups found")
			continue
		}
		for _, b := range l.Backups {
			date := "unknown date"
			if !b.Date.IsZero() {
				date = b.Date.Format("2006-01-02 03:04:05 PM")
			}
			fmt.Fprintf(tw, "\t%s\t%s\t%.1f KB\n", b.Path, date, float64(b.Size)/1024)
		}
	}
	return tw.Flush()
}

func backupRestore(ctx context.Context, cmd *cli.Command) error {
	file := cmd.Args().First()
	if file == "" {
		return errors.New("usage: backup restore <backup file>")
	}
	m, err := backupManager(cmd)
	if err != nil {
		return err
	}
	res, err := m.Restore(ctx, file)
	if res.SafetyCopy != "" {
		fmt.Printf("Current database copied to %s\n", res.SafetyCopy)
	}
	if err != nil {
		return err
	}
	fmt.Printf("Restored %.1f KB. Restart the server to load the restored data.\n", float64(res.Bytes)/1024)
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "casedesk",
		Usage:  "Workplace-safety case management with evidence custody, ranked search and encrypted backups",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API (default)",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the MCP tools over stdio",
				Action: serveMCP,
			},
			{
				Name:  "backup",
				Usage: "Encrypted database backups",
				Commands: []*cli.Command{
					{Name: "keygen", Usage: "Print a new backup key", Action: backupKeygen},
					{Name: "create", Usage: "Back up to the local and network locations", Action: backupCreate},
					{Name: "list", Usage: "List backups, newest first", Action: backupList},
					{Name: "restore", Usage: "Restore the database from a backup file", ArgsUsage: "<backup file>", Action: backupRestore},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
