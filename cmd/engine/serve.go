package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"linkedva-engine/internal/events"
	"linkedva-engine/internal/httpapi"
	"linkedva-engine/internal/poll"
	"linkedva-engine/internal/reply"
	"linkedva-engine/internal/store"
)

const (
	shutdownTokenFile = ".shutdown-token"
	gaugeInterval     = time.Minute
)

func newServeCmd(a *app) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local HTTP engine the browser extension talks to",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context(), port)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (default app.port)")
	return cmd
}

func (a *app) deps(ctx context.Context) httpapi.Deps {
	brandStore := store.NewBrand(a.kv)
	prov := a.provider()

	var crawlStatus atomic.Value
	crawlStatus.Store(httpapi.CrawlStatus{})

	return httpapi.Deps{
		Log:         a.log,
		Hub:         events.NewHub(),
		CfgVal:      &a.cfgVal,
		CrawlStatus: &crawlStatus,
		UserCfgPath: a.cfgPath,
		LoadCfg:     a.loadCfg,
		Leads:       store.NewLeads(a.kv),
		Engagements: store.NewEngagements(a.kv),
		Brand:       brandStore,
		Model:       prov,
		Assistants: &reply.Sessions{New: func() *reply.Assistant {
			as := reply.NewAssistant(prov, brandStore.Get, a.log)
			as.Stream = a.cfg().Model.Stream
			return as
		}},
		Crawl: a.crawlFunc(ctx),
		Fetch: a.fetchFunc(ctx),
	}
}

func (a *app) serve(ctx context.Context, port int) error {
	if port == 0 {
		port = a.cfg().App.Port
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	mux := httpapi.NewMux(a.deps(ctx))

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           httpapi.Handler(mux, a.log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	token, err := randomToken(16)
	if err != nil {
		return err
	}
	tokenPath := filepath.Join(a.dataDir, shutdownTokenFile)
	if err := os.WriteFile(tokenPath, []byte(token), 0o600); err != nil {
		return fmt.Errorf("write shutdown token: %w", err)
	}
	defer os.Remove(tokenPath)
	mux.Handle("/shutdown", httpapi.ShutdownHandler(token, srv))

	a.log.Info("engine listening",
		zap.String("addr", "http://"+addr),
		zap.String("data_dir", a.dataDir),
		zap.String("store", a.cfg().Store.Backend),
		zap.String("model", a.cfg().Model.Provider))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		poll.Every(gctx, gaugeInterval, "records-gauge", a.log, func(ctx context.Context) error {
			return store.RefreshGauges(ctx, a.kv)
		})
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	err = g.Wait()
	a.log.Info("engine stopped")
	return err
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
