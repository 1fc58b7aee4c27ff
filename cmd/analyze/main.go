// Package main provides a command line front end for the BOM requirement analysis.
// Usage: analyze run --mode quick --format xlsx --out req.xlsx SO-0001 SO-0002
//        analyze material-requests SO-0001
//        analyze ping
//        analyze token --user planner --admin
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"nedlog/internal/config"
	appctx "nedlog/internal/core/context"
	"nedlog/internal/domain/analysis"
	"nedlog/internal/domain/auth"
	"nedlog/internal/domain/export"
	"nedlog/internal/domain/session"
	"nedlog/internal/infrastructure/frappe"
	"nedlog/internal/infrastructure/storage/sessionstore"
	"nedlog/internal/metadata"
	"nedlog/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "run":
		err = runAnalysis(ctx, os.Args[2:])
	case "material-requests":
		err = createMaterialRequests(ctx, os.Args[2:])
	case "ping":
		err = ping(ctx)
	case "token":
		err = mintToken(os.Args[2:])
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`nedlog BOM requirement analysis CLI

Usage:
  analyze <command> [options]

Commands:
  run                 Analyze sales orders and print the requirement table
  material-requests   Create grouped material requests for sales orders
  ping                Check the ERP connection
  token               Mint an API access token
  help                Show this help

Run options:
  --mode full|quick        Analysis mode (default full)
  --format html|xlsx       Output format (default html)
  --out <file>             Write to a file instead of stdout
  --columns a,b,c          Visible column keys
  --preset <name>          Column preset (default, simple)
  --filter <expr>          Row filter expression, e.g. status == "shortage"

Token options:
  --user <id>              Subject of the token (required)
  --email <email>
  --admin                  Let the user see every session

Configuration is read from config.yaml, .env and NEDLOG_* variables.

Examples:
  analyze run SO-0001 SO-0002
  analyze run --mode quick --format xlsx --out req.xlsx SO-0001
  analyze run --filter 'status == "shortage"' SO-0001
  analyze token --user planner`)
}

// args is a minimal --flag value scanner; positional values are collected in order.
type args struct {
	values     map[string]string
	flags      map[string]bool
	positional []string
}

func parseArgs(raw []string, booleans ...string) args {
	a := args{values: map[string]string{}, flags: map[string]bool{}}
	isBool := make(map[string]bool, len(booleans))
	for _, b := range booleans {
		isBool[b] = true
	}

	for i := 0; i < len(raw); i++ {
		name, ok := strings.CutPrefix(raw[i], "--")
		if !ok {
			a.positional = append(a.positional, raw[i])
			continue
		}
		if name, value, found := strings.Cut(name, "="); found {
			a.values[name] = value
			continue
		}
		if isBool[name] {
			a.flags[name] = true
			continue
		}
		if i+1 < len(raw) {
			a.values[name] = raw[i+1]
			i++
		}
	}
	return a
}

func newLogger() *logger.Logger {
	log, err := logger.New(logger.Config{Level: "warn", Development: true})
	if err != nil {
		return logger.Nop()
	}
	logger.SetDefault(log)
	return log
}

func newClient() (*frappe.Client, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	client, err := frappe.NewClient(frappe.Config{
		BaseURL:   cfg.ERP.BaseURL,
		APIKey:    cfg.ERP.APIKey,
		APISecret: cfg.ERP.APISecret,
		App:       cfg.ERP.App,
		Timeout:   cfg.ERP.Timeout,
	})
	if err != nil {
		return nil, nil, err
	}
	return client, cfg, nil
}

func cliUser() *appctx.UserContext {
	name := os.Getenv("USER")
	if name == "" {
		name = "cli"
	}
	return &appctx.UserContext{UserID: name, FullName: name, IsAdmin: true}
}

func runAnalysis(ctx context.Context, raw []string) error {
	a := parseArgs(raw)
	mode, err := analysis.ParseMode(a.values["mode"])
	if err != nil {
		return err
	}
	format := strings.ToLower(a.values["format"])
	if format == "" {
		format = "html"
	}
	if format != "html" && format != "xlsx" {
		return fmt.Errorf("unknown format %q", format)
	}

	log := newLogger()
	defer func() { _ = log.Sync() }()

	client, cfg, err := newClient()
	if err != nil {
		return err
	}

	codec, err := sessionstore.NewCodec(0)
	if err != nil {
		return err
	}
	store := sessionstore.NewMemoryStore(codec, cfg.Session.TTL)
	sessions := session.NewService(
		analysis.NewAnalyzer(client),
		store,
		metadata.DefaultRegistry(),
		export.NewService(client),
	)

	ctx = appctx.WithUser(ctx, cliUser())
	sess, err := sessions.Open(ctx, a.positional, mode)
	if err != nil {
		return err
	}
	defer func() { _ = sessions.Delete(ctx, sess.ID) }()

	if name := a.values["preset"]; name != "" {
		if _, err := sessions.ApplyPreset(ctx, sess.ID, name); err != nil {
			return err
		}
	}
	if cols := a.values["columns"]; cols != "" {
		if _, err := sessions.SetColumns(ctx, sess.ID, strings.Split(cols, ",")); err != nil {
			return err
		}
	}
	if expr := a.values["filter"]; expr != "" {
		if _, err := sessions.SetRowFilter(ctx, sess.ID, expr); err != nil {
			return err
		}
	}

	out, closeOut, err := output(a.values["out"])
	if err != nil {
		return err
	}
	defer closeOut()

	if format == "xlsx" {
		return sessions.WriteXLSX(ctx, sess.ID, out)
	}
	return sessions.WritePrint(ctx, sess.ID, out)
}

func output(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

func createMaterialRequests(ctx context.Context, raw []string) error {
	a := parseArgs(raw)

	log := newLogger()
	defer func() { _ = log.Sync() }()

	client, _, err := newClient()
	if err != nil {
		return err
	}

	results, err := analysis.NewAnalyzer(client).CreateMaterialRequests(ctx, a.positional)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No material request was needed")
		return nil
	}
	for _, r := range results {
		fmt.Printf("%s\t%s\t%s\t%d items\n", r.Name, r.MaterialRequestType, r.ProviderName, r.ItemsCount)
	}
	return nil
}

func ping(ctx context.Context) error {
	client, cfg, err := newClient()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx); err != nil {
		return err
	}
	fmt.Printf("%s is reachable\n", cfg.ERP.BaseURL)
	return nil
}

func mintToken(raw []string) error {
	a := parseArgs(raw, "admin")
	if a.values["user"] == "" {
		return fmt.Errorf("--user is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	svc := auth.NewJWTService(auth.JWTConfig{
		Secret:         cfg.JWT.Secret,
		Issuer:         cfg.JWT.Issuer,
		AccessTokenTTL: cfg.JWT.AccessTokenTTL,
	})

	token, expiresAt, err := svc.GenerateAccessToken(auth.Identity{
		UserID:      a.values["user"],
		Email:       a.values["email"],
		Permissions: auth.AllPermissions(),
		IsAdmin:     a.flags["admin"],
	})
	if err != nil {
		return err
	}
	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires at %s\n", expiresAt.Format(time.RFC3339))
	return nil
}
