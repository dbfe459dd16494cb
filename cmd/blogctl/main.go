// cmd/blogctl/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexflint/go-arg"
	"github.com/rs/zerolog"

	"github.com/briangreenhill/blogfront/blog"
	"github.com/briangreenhill/blogfront/internal/config"
)

type listCmd struct {
	Page    int  `arg:"--page" default:"0" help:"page index, starting at 0"`
	Size    int  `arg:"--size" help:"page size [default: BLOG_PAGE_SIZE]"`
	Refresh bool `arg:"--refresh" help:"bypass the cache"`
}

type idCmd struct {
	ID int64 `arg:"positional,required" help:"entry id"`
}

type addCmd struct {
	Title       string `arg:"--title,required"`
	Content     string `arg:"--content,required"`
	HeaderImage string `arg:"--header-image" help:"header image URL"`
}

type serveCmd struct {
	Addr string `arg:"--addr" help:"listen address [default: METRICS_ADDR]"`
}

type metricsCmd struct {
	Name string `arg:"--name" help:"only show samples with this name"`
}

type cliArgs struct {
	List    *listCmd    `arg:"subcommand:list" help:"list entries"`
	Get     *idCmd      `arg:"subcommand:get" help:"show one entry"`
	Add     *addCmd     `arg:"subcommand:add" help:"create an entry"`
	Like    *idCmd      `arg:"subcommand:like" help:"like an entry"`
	Delete  *idCmd      `arg:"subcommand:delete" help:"delete an entry"`
	Serve   *serveCmd   `arg:"subcommand:serve" help:"preload the cache and serve metrics over HTTP"`
	Metrics *metricsCmd `arg:"subcommand:metrics" help:"fetch the first page and print the recorded metrics"`

	EnvFile string `arg:"--env-file" default:".env" help:"dotenv file to load if present"`
}

func (cliArgs) Description() string {
	return "blogfront client for the blog entries API, with caching and performance metrics"
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context, argv []string, stdout, stderr io.Writer) error {
	var args cliArgs
	p, err := arg.NewParser(arg.Config{Program: "blogctl"}, &args)
	if err != nil {
		return err
	}
	if err := p.Parse(argv); err != nil {
		if errors.Is(err, arg.ErrHelp) {
			return p.WriteHelpForSubcommand(stdout, p.SubcommandNames()...)
		}
		return err
	}
	if p.Subcommand() == nil {
		p.WriteHelp(stderr)
		return errors.New("missing command")
	}

	cfg, err := config.Load(args.EnvFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(cfg, stderr)
	if err != nil {
		return err
	}
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}

	out := json.NewEncoder(stdout)
	out.SetIndent("", "  ")

	switch {
	case args.List != nil:
		page, err := a.svc.FetchPage(ctx, args.List.Page, args.List.Size, args.List.Refresh)
		if err != nil {
			return err
		}
		return out.Encode(page)
	case args.Get != nil:
		e, err := a.svc.FetchOne(ctx, args.Get.ID)
		if err != nil {
			return err
		}
		return out.Encode(e)
	case args.Add != nil:
		e := blog.NewEntry{Title: args.Add.Title, Content: args.Add.Content, HeaderImageURL: args.Add.HeaderImage}
		if err := a.svc.AddEntry(ctx, e); err != nil {
			return err
		}
		return out.Encode(map[string]any{"created": true, "title": e.Title})
	case args.Like != nil:
		if err := a.svc.LikeEntry(ctx, args.Like.ID); err != nil {
			return err
		}
		return out.Encode(map[string]any{"liked": args.Like.ID})
	case args.Delete != nil:
		if err := a.svc.DeleteEntry(ctx, args.Delete.ID); err != nil {
			return err
		}
		return out.Encode(map[string]any{"deleted": args.Delete.ID})
	case args.Serve != nil:
		addr := args.Serve.Addr
		if addr == "" {
			addr = cfg.Telemetry.MetricsAddr
		}
		return a.serve(ctx, addr)
	case args.Metrics != nil:
		if _, err := a.svc.FetchPage(ctx, 0, 0, false); err != nil {
			a.log.Warn().Err(err).Msg("warm-up fetch failed")
		}
		return out.Encode(a.report(args.Metrics.Name))
	}
	return nil
}

func newLogger(cfg *config.Config, w io.Writer) (zerolog.Logger, error) {
	lvl, err := cfg.Level()
	if err != nil {
		return zerolog.Nop(), err
	}
	if cfg.LogFormat == "console" {
		w = zerolog.ConsoleWriter{Out: w}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}
