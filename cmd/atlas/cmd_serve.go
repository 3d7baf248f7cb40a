package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jaminalder/tictactoe-atlas/internal/app"
	"github.com/jaminalder/tictactoe-atlas/internal/catalog"
	"github.com/jaminalder/tictactoe-atlas/internal/generator"
	"github.com/jaminalder/tictactoe-atlas/internal/store"
	"github.com/jaminalder/tictactoe-atlas/internal/web"
)

func (c *cli) serveCmd() *cobra.Command {
	var (
		addr string
		db   string
		seed int64
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the gallery over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("addr") {
				c.cfg.Addr = addr
			}
			if cmd.Flags().Changed("db") {
				c.cfg.DBPath = db
			}
			if cmd.Flags().Changed("seed") {
				c.cfg.Seed = seed
			}
			return c.runServe(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&db, "db", "", "SQLite database for the catalog and claims")
	cmd.Flags().Int64Var(&seed, "seed", 0, "seed for random games")
	return cmd
}

// openService builds the service, backed by SQLite when a database path
// is configured. The returned func releases the database.
func (c *cli) openService(ctx context.Context, gen *generator.Generator) (*app.Service, func(), error) {
	opts := []app.Option{app.WithLogger(c.log)}
	if c.cfg.Seed != 0 {
		opts = append(opts, app.WithRand(rand.New(rand.NewSource(c.cfg.Seed))))
	}
	if c.cfg.DBPath == "" {
		cat, err := catalog.Build(gen)
		if err != nil {
			return nil, nil, err
		}
		c.log.Info("catalog built", "states", cat.Len(), "claims", "memory")
		return app.NewService(gen, cat, opts...), func() {}, nil
	}

	st, err := store.Open(c.cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", c.cfg.DBPath, err)
	}
	cat, err := loadCatalog(ctx, st, gen)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	c.log.Info("catalog loaded", "states", cat.Len(), "db", c.cfg.DBPath)
	opts = append(opts, app.WithClaimStore(st))
	return app.NewService(gen, cat, opts...), func() { st.Close() }, nil
}

// loadCatalog reads the catalog from st, seeding it first when empty.
func loadCatalog(ctx context.Context, st *store.Store, gen *generator.Generator) (*catalog.Catalog, error) {
	n, err := st.CountStates(ctx)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		cat, err := catalog.Build(gen)
		if err != nil {
			return nil, err
		}
		if _, err := st.SeedStates(ctx, cat.Rows()); err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
		return cat, nil
	}
	rows, err := st.Rows(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.FromRows(rows), nil
}

func (c *cli) runServe(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen := generator.New()
	svc, closeStore, err := c.openService(ctx, gen)
	if err != nil {
		return err
	}
	defer closeStore()

	handler := web.NewServer(svc, web.Options{
		Logger:     c.log,
		Heartbeat:  c.cfg.Heartbeat,
		ClaimRate:  c.cfg.ClaimRate,
		ClaimBurst: c.cfg.ClaimBurst,
	})
	// Request contexts derive from ctx so SSE streams end on shutdown.
	srv := &http.Server{
		Addr:              c.cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.log.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		c.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
