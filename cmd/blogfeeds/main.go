package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/alecthomas/kong"

	blog "github.com/goliatone/go-blog"
	staticcmd "github.com/goliatone/go-blog/internal/commands/static"
)

type commandExecutor[T any] interface {
	Execute(ctx context.Context, msg T) error
}

type handlerSet struct {
	build commandExecutor[staticcmd.BuildFeedsCommand]
	check commandExecutor[staticcmd.CheckPostsCommand]
	list  commandExecutor[staticcmd.ListPostsCommand]
}

type moduleOptions struct {
	ConfigPath string
	EnvFiles   []string
	Verbose    bool
}

type moduleResources struct {
	handlers handlerSet
	watch    func(ctx context.Context) error
}

var moduleBuilder = buildModule

type cli struct {
	Config  string   `short:"c" help:"Configuration file path" default:"blog.yaml"`
	Env     []string `help:"Additional .env files loaded before the configuration"`
	Verbose bool     `short:"v" help:"Enable debug logging"`

	Build buildCmd `cmd:"" help:"Build the global and per-category RSS feeds"`
	Check checkCmd `cmd:"" help:"Parse and validate every post without writing"`
	List  listCmd  `cmd:"" help:"List posts grouped by category"`
	Watch watchCmd `cmd:"" help:"Rebuild feeds whenever content changes"`
}

type runContext struct {
	ctx  context.Context
	root *cli
	out  io.Writer
	res  *moduleResources
}

func (rc *runContext) resources() (*moduleResources, error) {
	if rc.res != nil {
		return rc.res, nil
	}
	res, err := moduleBuilder(moduleOptions{
		ConfigPath: rc.root.Config,
		EnvFiles:   rc.root.Env,
		Verbose:    rc.root.Verbose,
	})
	if err != nil {
		return nil, fmt.Errorf("bootstrap module: %w", err)
	}
	if res == nil {
		return nil, errors.New("module not configured")
	}
	rc.res = res
	return res, nil
}

type buildCmd struct {
	DryRun bool   `name:"dry-run" help:"Compute feeds without writing them"`
	Output string `short:"o" help:"Override the configured output directory"`
}

func (c *buildCmd) Run(rc *runContext) error {
	res, err := rc.resources()
	if err != nil {
		return err
	}
	if res.handlers.build == nil {
		return errors.New("build handler not configured")
	}
	var result *blog.BuildResult
	err = res.handlers.build.Execute(rc.ctx, staticcmd.BuildFeedsCommand{
		DryRun:    c.DryRun,
		OutputDir: c.Output,
		ResultCallback: func(env staticcmd.ResultEnvelope) {
			result = env.Result
		},
	})
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	log.Printf("module=blogfeeds operation=build summary posts=%d feeds=%d artifacts=%d removed=%d dry_run=%t duration=%s",
		len(result.Posts), len(result.Paths), len(result.Artifacts), len(result.Removed), result.DryRun, result.Duration)
	for _, path := range result.Paths {
		fmt.Fprintln(rc.out, path)
	}
	return nil
}

type checkCmd struct{}

func (c *checkCmd) Run(rc *runContext) error {
	res, err := rc.resources()
	if err != nil {
		return err
	}
	if res.handlers.check == nil {
		return errors.New("check handler not configured")
	}
	var result *blog.BuildResult
	err = res.handlers.check.Execute(rc.ctx, staticcmd.CheckPostsCommand{
		ResultCallback: func(env staticcmd.ResultEnvelope) {
			result = env.Result
		},
	})
	if err != nil {
		return err
	}
	posts := 0
	if result != nil {
		posts = len(result.Posts)
	}
	log.Printf("module=blogfeeds operation=check posts=%d", posts)
	fmt.Fprintf(rc.out, "%d posts ok\n", posts)
	return nil
}

type listCmd struct {
	Category string `help:"Only list posts for this category key"`
}

func (c *listCmd) Run(rc *runContext) error {
	res, err := rc.resources()
	if err != nil {
		return err
	}
	if res.handlers.list == nil {
		return errors.New("list handler not configured")
	}
	var listings []blog.Listing
	err = res.handlers.list.Execute(rc.ctx, staticcmd.ListPostsCommand{
		Category: strings.TrimSpace(c.Category),
		ResultCallback: func(env staticcmd.ResultEnvelope) {
			if env.Result != nil {
				listings = env.Result.Listings
			}
		},
	})
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(rc.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tDATE\tTITLE\tURL")
	for _, listing := range listings {
		for _, post := range listing.Posts {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
				listing.Category.Key, post.PublishedAt().Format("2006-01-02"), post.Title(), post.URL)
		}
	}
	return tw.Flush()
}

type watchCmd struct{}

func (c *watchCmd) Run(rc *runContext) error {
	res, err := rc.resources()
	if err != nil {
		return err
	}
	if res.watch == nil {
		return errors.New("watcher not configured")
	}
	log.Printf("module=blogfeeds operation=watch started")
	return res.watch(rc.ctx)
}

func buildModule(opts moduleOptions) (*moduleResources, error) {
	cfg, err := blog.LoadConfig(opts.ConfigPath, opts.EnvFiles...)
	if errors.Is(err, blog.ErrConfigNotFound) {
		log.Printf("module=blogfeeds config=%s not found, using defaults", opts.ConfigPath)
		cfg, err = blog.DefaultConfig(), nil
	}
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		cfg.Logging.Level = "debug"
	}

	module, err := blog.New(cfg)
	if err != nil {
		return nil, err
	}
	container := module.Container()
	return &moduleResources{
		handlers: handlerSet{
			build: container.BuildFeedsHandler(),
			check: container.CheckPostsHandler(),
			list:  container.ListPostsHandler(),
		},
		watch: module.Watch,
	}, nil
}

func run(ctx context.Context, args []string, out io.Writer) error {
	var root cli
	parser, err := kong.New(&root,
		kong.Name("blogfeeds"),
		kong.Description("Build RSS feeds from markdown blog posts."),
		kong.UsageOnError(),
	)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return kctx.Run(&runContext{ctx: ctx, root: &root, out: out})
}

func main() {
	log.SetFlags(0)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		log.Printf("blogfeeds: %v", err)
		stop()
		os.Exit(1)
	}
}
