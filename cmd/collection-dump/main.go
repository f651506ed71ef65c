// Command collection-dump drains a paginated collection endpoint and
// writes its entries as NDJSON to stdout.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/restlab/paged-collection-client/pkg/checkpoint"
	"github.com/restlab/paged-collection-client/pkg/collection"
	"github.com/restlab/paged-collection-client/pkg/logging"
	"github.com/restlab/paged-collection-client/pkg/transport"
)

// Build information. Populated at build-time via -ldflags flag.
var version = "dev"

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cmd := &cli.Command{
		Name:    "collection-dump",
		Usage:   "Drain a paginated collection endpoint to NDJSON on stdout",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "url",
				Usage:    "collection endpoint URL",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "method",
				Usage: "HTTP method (GET or POST)",
				Value: http.MethodGet,
			},
			&cli.StringFlag{
				Name:  "body",
				Usage: "JSON body parameters for POST collections",
			},
			&cli.StringSliceFlag{
				Name:  "header",
				Usage: "additional request header, as 'Name: value' (repeatable)",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "page size to request (0 uses the server default)",
			},
			&cli.StringFlag{
				Name:    "user-agent",
				Usage:   "User-Agent header",
				Sources: cli.EnvVars("USER_AGENT"),
				Value:   "collection-dump/0.1.0",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error)",
				Sources: cli.EnvVars("LOG_LEVEL"),
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "checkpoint",
				Usage: "checkpoint backend: none, redis, or sqlite",
				Value: "none",
			},
			&cli.StringFlag{
				Name:  "checkpoint-key",
				Usage: "checkpoint key identifying this collection",
			},
			&cli.IntFlag{
				Name:  "checkpoint-every",
				Usage: "save the cursor every N entries",
				Value: 100,
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis address for rate limit state and redis checkpoints",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:  "sqlite-path",
				Usage: "SQLite database path for sqlite checkpoints",
				Value: "collection-dump.db",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "listen address for Prometheus /metrics (empty disables)",
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logging.Setup(logging.Config{
				Level:  logging.LogLevel(c.String("log-level")),
				Pretty: true,
				Output: os.Stderr,
			})
			return ctx, nil
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("collection-dump failed")
	}
}

func run(ctx context.Context, c *cli.Command) error {
	method := strings.ToUpper(c.String("method"))
	if method != http.MethodGet && method != http.MethodPost {
		return fmt.Errorf("unsupported method %q (GET or POST)", method)
	}

	// Optional Redis connection, shared by rate limiting and checkpoints.
	var redisClient *redis.Client
	if addr := c.String("redis-url"); addr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: addr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect to redis at %s: %w", addr, err)
		}
		defer redisClient.Close()
		log.Info().Str("addr", addr).Msg("Connected to Redis")
	}

	if addr := c.String("metrics-addr"); addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Error().Err(err).Msg("Metrics listener failed")
			}
		}()
		log.Info().Str("addr", addr).Msg("Serving Prometheus metrics")
	}

	store, err := openStore(c, redisClient)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	tr, err := transport.New(transport.Config{
		UserAgent: c.String("user-agent"),
		Redis:     redisClient,
	})
	if err != nil {
		return fmt.Errorf("create transport: %w", err)
	}

	opts, err := initialOptions(c, method)
	if err != nil {
		return err
	}

	checkpointKey := c.String("checkpoint-key")
	if store != nil {
		resumed, complete, err := applyCheckpoint(ctx, store, checkpointKey, method, &opts)
		if err != nil {
			return err
		}
		if complete {
			log.Info().Str("key", checkpointKey).Msg("Collection already fully drained")
			return nil
		}
		if resumed {
			log.Info().Str("key", checkpointKey).Msg("Resuming from checkpoint")
		}
	}

	rawURL := c.String("url")
	var resp *collection.Response
	if method == http.MethodPost {
		resp, err = tr.Post(ctx, rawURL, opts)
	} else {
		resp, err = tr.Get(ctx, rawURL, opts)
	}
	if err != nil {
		return fmt.Errorf("initial request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("initial request returned status %d", resp.StatusCode)
	}

	it, err := collection.New(resp, tr, logging.NewLogger("collection"))
	if err != nil {
		return err
	}
	defer it.Close()

	start := time.Now()
	every := int(c.Int("checkpoint-every"))
	count := 0

	out := os.Stdout
	for entry, err := range it.All(ctx) {
		if err != nil {
			return fmt.Errorf("after %d entries: %w", count, err)
		}

		if _, err := out.Write(append(entry, '\n')); err != nil {
			return fmt.Errorf("write entry: %w", err)
		}

		count++
		if store != nil && every > 0 && count%every == 0 {
			if err := store.Save(ctx, checkpointKey, it.NextCursor()); err != nil {
				log.Warn().Err(err).Msg("Failed to save checkpoint")
			}
		}
	}

	if store != nil {
		if err := store.Save(ctx, checkpointKey, it.NextCursor()); err != nil {
			log.Warn().Err(err).Msg("Failed to save final checkpoint")
		}
	}

	log.Info().
		Int("entries", count).
		Dur("duration", time.Since(start)).
		Msg("Collection drained")

	return nil
}

// initialOptions builds the first request's options from the CLI flags.
func initialOptions(c *cli.Command, method string) (collection.RequestOptions, error) {
	opts := collection.RequestOptions{Headers: http.Header{}}

	for _, h := range c.StringSlice("header") {
		name, value, ok := strings.Cut(h, ":")
		if !ok {
			return opts, fmt.Errorf("invalid header %q (want 'Name: value')", h)
		}
		opts.Headers.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	if method == http.MethodPost {
		opts.Body = map[string]any{}
		if raw := c.String("body"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &opts.Body); err != nil {
				return opts, fmt.Errorf("parse body: %w", err)
			}
		}
		if limit := c.Int("limit"); limit > 0 {
			opts.Body["limit"] = int(limit)
		}
		return opts, nil
	}

	opts.Query = map[string][]string{}
	if limit := c.Int("limit"); limit > 0 {
		opts.Query.Set("limit", strconv.Itoa(int(limit)))
	}
	return opts, nil
}

// openStore creates the checkpoint store selected by the flags.
func openStore(c *cli.Command, redisClient *redis.Client) (checkpoint.Store, error) {
	backend := c.String("checkpoint")
	if backend != "none" && c.String("checkpoint-key") == "" {
		return nil, fmt.Errorf("checkpoint-key is required with a checkpoint backend")
	}

	switch backend {
	case "none":
		return nil, nil
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("redis checkpoints require redis-url")
		}
		return checkpoint.NewRedisStore(redisClient, 0), nil
	case "sqlite":
		return checkpoint.NewSQLiteStore(checkpoint.SQLiteConfig{
			DataSourceName: c.String("sqlite-path"),
		})
	default:
		return nil, fmt.Errorf("unknown checkpoint backend %q", backend)
	}
}

// applyCheckpoint folds a saved cursor into the initial request options.
// Returns complete=true when the saved cursor says the collection was
// already fully drained.
func applyCheckpoint(ctx context.Context, store checkpoint.Store, key, method string, opts *collection.RequestOptions) (resumed, complete bool, err error) {
	cursor, err := store.Load(ctx, key)
	if err == checkpoint.ErrNotFound {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("load checkpoint: %w", err)
	}

	if !cursor.Valid {
		return false, true, nil
	}

	switch cursor.Strategy {
	case collection.StrategyOffset:
		if method == http.MethodPost {
			opts.Body["offset"] = cursor.Offset
		} else {
			opts.Query.Set("offset", strconv.Itoa(cursor.Offset))
		}
	case collection.StrategyMarker:
		if method == http.MethodPost {
			opts.Body["marker"] = cursor.Marker
		} else {
			opts.Query.Set("marker", cursor.Marker)
		}
	}

	return true, false, nil
}
