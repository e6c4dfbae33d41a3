package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"linkedva-engine/internal/browser"
	"linkedva-engine/internal/config"
	"linkedva-engine/internal/logging"
	"linkedva-engine/internal/model"
	"linkedva-engine/internal/secrets"
	"linkedva-engine/internal/store"
)

// app is the state shared by every command: config, logger and store.
type app struct {
	dataDir string
	cfgPath string
	cfgVal  atomic.Value // config.Config
	log     *zap.Logger
	kv      store.KV
	lock    *flock.Flock

	browserMu sync.Mutex
	browser   *browser.Browser
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "linkedva-engine",
		Short:         "Local engine for LinkedIn lead capture, engagement crawling and reply drafting",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd.Context())
		},
	}
	cobra.OnFinalize(a.close)
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "data directory (default $LINKEDVA_DATA_DIR or .)")

	root.AddCommand(
		newServeCmd(a),
		newExtractLeadCmd(a),
		newCrawlEngagementCmd(a),
		newExportCmd(a),
		newBrandCmd(a),
		newReplyCmd(a),
		newSecretsCmd(a),
	)
	return root
}

func (a *app) open(ctx context.Context) error {
	if a.dataDir == "" {
		a.dataDir = strings.TrimSpace(os.Getenv("LINKEDVA_DATA_DIR"))
	}
	if a.dataDir == "" {
		a.dataDir = "."
	}
	if err := os.MkdirAll(a.dataDir, 0o755); err != nil {
		return err
	}

	path, err := config.EnsureUserConfig(a.dataDir)
	if err != nil {
		return fmt.Errorf("config bootstrap failed: %w", err)
	}
	a.cfgPath = path
	cfg, err := a.loadCfg()
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	a.cfgVal.Store(cfg)
	a.log = logging.New(cfg.Log.Level, cfg.Log.Format)

	if cfg.Store.Backend != "redis" {
		if a.lock, err = store.LockDir(a.dataDir); err != nil {
			return err
		}
	}
	if a.kv, err = store.OpenKV(ctx, cfg, a.dataDir); err != nil {
		return err
	}
	return nil
}

func (a *app) close() {
	a.browserMu.Lock()
	if a.browser != nil {
		a.browser.Close()
		a.browser = nil
	}
	a.browserMu.Unlock()
	if a.kv != nil {
		_ = a.kv.Close()
		a.kv = nil
	}
	if a.lock != nil {
		_ = a.lock.Unlock()
		a.lock = nil
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

// loadCfg reads the user config with env overrides applied.
func (a *app) loadCfg() (config.Config, error) {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return cfg, err
	}
	config.OverlayEnv(&cfg)
	cfg, vr := config.NormalizeAndValidate(cfg)
	if !vr.OK() {
		return cfg, errors.New(strings.Join(vr.Errors, "; "))
	}
	return cfg, nil
}

func (a *app) cfg() config.Config {
	return a.cfgVal.Load().(config.Config)
}

// provider builds the model backend named by the config.
func (a *app) provider() model.Provider {
	cfg := a.cfg()
	switch cfg.Model.Provider {
	case "gemini":
		return model.NewGemini(cfg.Model.Name, secrets.ModelKeyFunc(a.cfg), a.log)
	}
	return model.Unavailable{Reason: "model.provider is none"}
}

// chrome launches the browser on first use and reuses it afterwards.
func (a *app) chrome(ctx context.Context) (*browser.Browser, error) {
	a.browserMu.Lock()
	defer a.browserMu.Unlock()
	if a.browser != nil {
		return a.browser, nil
	}
	b, err := browser.Launch(ctx, browser.OptionsFromConfig(a.cfg()), a.log)
	if err != nil {
		return nil, err
	}
	a.browser = b
	return b, nil
}
