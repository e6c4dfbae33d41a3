package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate returns a normalized copy of cfg together with every
// error and warning found. Hard errors match Validate.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	out.Log.Level = strings.ToLower(strings.TrimSpace(out.Log.Level))
	out.Log.Format = strings.ToLower(strings.TrimSpace(out.Log.Format))
	out.Store.Backend = strings.ToLower(strings.TrimSpace(out.Store.Backend))
	out.Store.RedisAddr = strings.TrimSpace(out.Store.RedisAddr)
	out.Model.Provider = strings.ToLower(strings.TrimSpace(out.Model.Provider))
	out.Model.Name = strings.TrimSpace(out.Model.Name)
	out.Browser.RemoteURL = strings.TrimSpace(out.Browser.RemoteURL)
	out.Export.Dir = strings.TrimSpace(out.Export.Dir)

	if out.Store.Backend == "" {
		out.Store.Backend = "sqlite"
	}
	if out.Model.Provider == "" {
		out.Model.Provider = "none"
	}
	if out.Export.Dir == "" {
		out.Export.Dir = "exports"
	}

	if err := Validate(out); err != nil {
		for _, line := range strings.Split(strings.TrimPrefix(err.Error(), "config validation failed:\n- "), "\n- ") {
			res.addErr("%s", line)
		}
	}

	switch out.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		res.addWarn("log.level %q is unknown; info will be used.", out.Log.Level)
	}

	if out.Model.Provider == "gemini" {
		if out.Model.Name == "" {
			res.addErr("model.name is required when model.provider=gemini")
		}
		if strings.TrimSpace(out.Model.APIKeyEnv) == "" {
			res.addWarn("model.api_key_env is empty; the API key must be stored in the keychain.")
		}
	}
	if out.Model.Provider == "none" {
		res.addWarn("model.provider is none; lead extraction and reply drafting are disabled.")
	}

	if out.Crawler.ClickDelayMS > 0 && out.Crawler.ClickDelayMS < 200 {
		res.addWarn("crawler.click_delay_ms is very low (%d) and may outrun page rendering.", out.Crawler.ClickDelayMS)
	}
	if out.Crawler.TimeoutMS <= 0 {
		res.addWarn("crawler.timeout_ms is not set; a stuck page will hold the crawl until the engine restarts.")
	}
	if out.Crawler.MaxExpandPasses > 50 {
		res.addWarn("crawler.max_expand_passes is %d; long posts will take minutes to expand.", out.Crawler.MaxExpandPasses)
	}
	if out.Browser.NavigateRPS > 2 {
		res.addWarn("browser.navigate_rps is %.1f; LinkedIn may throttle the session.", out.Browser.NavigateRPS)
	}
	if out.Browser.RemoteURL == "" && !out.Browser.Headless && out.Browser.ExecPath == "" {
		res.addWarn("browser has no remote_url or exec_path; the system Chrome will be launched.")
	}

	return out, res
}
