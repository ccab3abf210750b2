package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/patina/internal/server"
	"github.com/matzehuels/patina/pkg/cache"
	"github.com/matzehuels/patina/pkg/pipeline"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	addr      string
	redisURL  string
	namespace string
	maxBody   int64
	timeout   time.Duration
	noCache   bool
}

// serveCommand creates the serve command, which exposes aging over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{
		addr:      server.DefaultAddr,
		namespace: appName,
		maxBody:   server.DefaultMaxBodyBytes,
		timeout:   server.DefaultTimeout,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the aging pipeline over HTTP",
		Long: `Serve the aging pipeline over HTTP.

  POST /v1/age?seed=7&preset=lfw&format=jpeg   (body: image)
  GET  /v1/presets
  GET  /healthz

Artifacts are cached in the local cache directory, or in Redis when
--redis is given so that several servers can share one cache.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", opts.addr, "listen address")
	cmd.Flags().StringVar(&opts.redisURL, "redis", "", "Redis URL for the artifact cache (redis://host:6379/0)")
	cmd.Flags().StringVar(&opts.namespace, "namespace", opts.namespace, "cache key namespace, for sharing one Redis")
	cmd.Flags().Int64Var(&opts.maxBody, "max-body", opts.maxBody, "maximum upload size in bytes")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", opts.timeout, "per-request aging deadline")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(cmd *cobra.Command, opts serveOpts) error {
	ctx := cmd.Context()
	store, err := c.serveCache(ctx, opts)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(store, cache.Namespaced(nil, opts.namespace), c.Logger)
	defer runner.Close()

	srv := server.New(runner, server.Config{
		Addr:         opts.addr,
		MaxBodyBytes: opts.maxBody,
		Timeout:      opts.timeout,
		Logger:       c.Logger,
	})
	newPrinter(cmd).info("Listening on %s", styleLink.Render("http://"+displayAddr(opts.addr)))
	return srv.ListenAndServe(ctx)
}

// serveCache picks Redis when configured, else the local cache.
func (c *CLI) serveCache(ctx context.Context, opts serveOpts) (cache.Cache, error) {
	if opts.noCache || opts.redisURL == "" {
		return c.newCache(opts.noCache)
	}
	rc, err := cache.NewRedisCache(ctx, opts.redisURL)
	if err != nil {
		return nil, fmt.Errorf("open redis cache: %w", err)
	}
	c.Logger.Info("using redis cache", "backend", rc, "namespace", opts.namespace)
	return rc, nil
}

// displayAddr turns ":8080" into "localhost:8080".
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
