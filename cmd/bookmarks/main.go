package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/dastanaron/bookmark-transfer/internal/commands"
	"github.com/dastanaron/bookmark-transfer/internal/config"
	"github.com/dastanaron/bookmark-transfer/internal/favicon"
	"github.com/dastanaron/bookmark-transfer/internal/format"
	"github.com/dastanaron/bookmark-transfer/internal/normalize"
	"github.com/dastanaron/bookmark-transfer/internal/repository"
	"github.com/dastanaron/bookmark-transfer/internal/service"
	"github.com/dastanaron/bookmark-transfer/internal/ui"
)

// env is what every command needs, built from the global flags.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
}

func setup(cmd *cli.Command) (*env, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if db := cmd.String("db"); db != "" {
		cfg.WithDBPath(db)
	}

	level := cfg.LogLevel
	if cmd.Bool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	return &env{cfg: cfg, logger: logger}, nil
}

// openStore opens the SQLite database and a service whose favicons come from the
// database first and the favicon service second. refreshIcons empties the favicon
// cache first.
func (e *env) openStore(refreshIcons bool) (*repository.SQLiteRepository, *service.BookmarkService, error) {
	if err := os.MkdirAll(filepath.Dir(e.cfg.DBPath), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	repo, err := repository.NewSQLiteRepository(e.cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	icons := favicon.Chain(favicon.FetcherFunc(repo.StoredIcon), e.httpFetcher(refreshIcons))
	return repo, service.NewBookmarkService(repo, e.normalizer(icons), e.logger), nil
}

func (e *env) httpFetcher(refresh bool) favicon.Fetcher {
	opts := favicon.HTTPOptions{
		Endpoint: e.cfg.Favicon.Endpoint,
		RetryMax: e.cfg.Favicon.RetryMax,
		Timeout:  e.cfg.Favicon.Timeout,
		Logger:   e.logger,
	}
	cache, err := favicon.NewFileCache(e.cfg.Favicon.CacheDir)
	if err != nil {
		e.logger.Warn("favicon cache disabled", "error", err)
	} else {
		if refresh {
			if err := cache.Clear(); err != nil {
				e.logger.Warn("failed to clear favicon cache", "error", err)
			}
		}
		opts.Cache = cache
	}
	return favicon.NewHTTPFetcher(opts)
}

func (e *env) normalizer(icons favicon.Fetcher) *normalize.Normalizer {
	return normalize.NewNormalizer(icons, e.cfg.Favicon.Size, e.cfg.Favicon.Concurrency)
}

// exportOptions applies the export flags on top of the persisted settings.
func (e *env) exportOptions(cmd *cli.Command) normalize.Options {
	opts := e.cfg.Settings.ExportOptions()
	if cmd.IsSet("icons") {
		opts.IncludeIconData = cmd.Bool("icons")
	}
	if cmd.IsSet("no-dates") {
		opts.IncludeDates = !cmd.Bool("no-dates")
	}
	if cmd.IsSet("show-other") {
		opts.HideOtherBookmarks = !cmd.Bool("show-other")
	}
	if cmd.IsSet("hide-parents") {
		opts.HideParentFolder = cmd.Bool("hide-parents")
	}
	return opts
}

func runUI(ctx context.Context, cmd *cli.Command) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	repo, svc, err := e.openStore(false)
	if err != nil {
		return err
	}
	defer repo.Close()

	return ui.NewApp(ctx, svc, e.cfg, e.logger).Run()
}

func runExport(ctx context.Context, cmd *cli.Command) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}

	f := format.Format(cmd.String("format"))
	if f != "" && f != format.HTML && f != format.JSON {
		return fmt.Errorf("unsupported format %q, want html or json", f)
	}

	repo, svc, err := e.openStore(cmd.Bool("refresh-icons"))
	if err != nil {
		return err
	}
	defer repo.Close()

	return commands.NewExportCommand(svc, os.Stdout).Execute(ctx, commands.ExportRequest{
		Path:     cmd.String("output"),
		Format:   f,
		Options:  e.exportOptions(cmd),
		Selected: cmd.StringSlice("select"),
	})
}

func runImport(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 1 {
		return fmt.Errorf("import takes exactly one file")
	}
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	repo, svc, err := e.openStore(false)
	if err != nil {
		return err
	}
	defer repo.Close()

	return commands.NewImportCommand(svc, os.Stdout).Execute(ctx, cmd.Args().First(), cmd.String("type"))
}

func runConvert(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 2 {
		return fmt.Errorf("convert takes an input and an output file")
	}
	e, err := setup(cmd)
	if err != nil {
		return err
	}

	return commands.NewConvertCommand(e.httpFetcher(cmd.Bool("refresh-icons")), e.cfg.Favicon.Size, e.cfg.Favicon.Concurrency, e.logger, os.Stdout).
		Execute(ctx, cmd.Args().Get(0), cmd.String("type"), cmd.Args().Get(1), e.exportOptions(cmd))
}

func runDetect(_ context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 1 {
		return fmt.Errorf("detect takes exactly one file")
	}
	_, err := commands.NewDetectCommand(os.Stdout).Execute(cmd.Args().First(), cmd.String("type"))
	return err
}

func exportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "icons", Usage: "Embed favicons as base64 data"},
		&cli.BoolFlag{Name: "no-dates", Usage: "Leave out creation and modification dates"},
		&cli.BoolFlag{Name: "show-other", Usage: "Keep the Other bookmarks folder as a folder"},
		&cli.BoolFlag{Name: "hide-parents", Usage: "Flatten every folder except the Bookmarks bar and Other bookmarks"},
		&cli.BoolFlag{Name: "refresh-icons", Usage: "Empty the favicon cache and download icons again"},
	}
}

func typeFlag() cli.Flag {
	return &cli.StringFlag{Name: "type", Aliases: []string{"t"}, Usage: "MIME type of the file, guessed from its extension when empty"}
}

func main() {
	cmd := &cli.Command{
		Name:   "bookmarks",
		Usage:  "Export and import browser bookmarks as Netscape HTML or JSON",
		Action: runUI,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "~/.bookmarks/config.yaml",
				Value:       config.DefaultPath(),
				Sources:     cli.EnvVars("BOOKMARKS_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "Path to database file (default: ~/.bookmarks/bookmarks.db)",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log debug messages",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "ui",
				Usage:  "Browse bookmarks and export a selection",
				Action: runUI,
			},
			{
				Name:  "export",
				Usage: "Export bookmarks",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "html or json, guessed from --output when empty"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output file, standard output when empty"},
					&cli.StringSliceFlag{Name: "select", Aliases: []string{"s"}, Usage: "Export only these node ids"},
				}, exportFlags()...),
				Action: runExport,
			},
			{
				Name:      "import",
				Usage:     "Import a bookmarks file",
				ArgsUsage: "FILE",
				Flags:     []cli.Flag{typeFlag()},
				Action:    runImport,
			},
			{
				Name:      "convert",
				Usage:     "Convert a bookmarks file to the format of OUT without touching the database",
				ArgsUsage: "IN OUT",
				Flags:     append([]cli.Flag{typeFlag()}, exportFlags()...),
				Action:    runConvert,
			},
			{
				Name:      "detect",
				Usage:     "Print the format of a bookmarks file",
				ArgsUsage: "FILE",
				Flags:     []cli.Flag{typeFlag()},
				Action:    runDetect,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
