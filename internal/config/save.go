package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Validate reports the hard errors that make a config unusable.
func Validate(cfg Config) error {
	var errs []string

	if cfg.App.Port <= 0 || cfg.App.Port > 65535 {
		errs = append(errs, "app.port must be 1..65535")
	}
	switch cfg.Store.Backend {
	case "sqlite":
	case "redis":
		if strings.TrimSpace(cfg.Store.RedisAddr) == "" {
			errs = append(errs, "store.redis_addr is required when store.backend=redis")
		}
	default:
		errs = append(errs, "store.backend must be sqlite or redis")
	}
	if cfg.Store.RedisDB < 0 {
		errs = append(errs, "store.redis_db must be >= 0")
	}
	switch cfg.Model.Provider {
	case "gemini", "none":
	default:
		errs = append(errs, "model.provider must be gemini or none")
	}

	checkPositive := func(name string, v int) {
		if v <= 0 {
			errs = append(errs, name+" must be > 0")
		}
	}
	checkNonNegative := func(name string, v int) {
		if v < 0 {
			errs = append(errs, name+" must be >= 0")
		}
	}
	checkPositive("crawler.max_expand_passes", cfg.Crawler.MaxExpandPasses)
	checkPositive("crawler.max_scroll_attempts", cfg.Crawler.MaxScrollAttempts)
	checkPositive("crawler.comment_max_chars", cfg.Crawler.CommentMaxChars)
	checkNonNegative("crawler.click_delay_ms", cfg.Crawler.ClickDelayMS)
	checkNonNegative("crawler.pass_delay_ms", cfg.Crawler.PassDelayMS)
	checkNonNegative("crawler.modal_open_delay_ms", cfg.Crawler.ModalOpenDelayMS)
	checkNonNegative("crawler.scroll_delay_ms", cfg.Crawler.ScrollDelayMS)

	if cfg.Browser.NavigateRPS < 0 {
		errs = append(errs, "browser.navigate_rps must be >= 0")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n- " + joinLines(errs))
	}
	return nil
}

// SaveAtomic validates cfg and replaces path, keeping the previous file as
// path.bak.
func SaveAtomic(path string, cfg Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	b, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	bak := path + ".bak"

	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}

	_ = os.Remove(bak)
	_ = os.Rename(path, bak)

	return os.Rename(tmp, path)
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n- ")
}
