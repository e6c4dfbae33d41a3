package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		Port    int    `yaml:"port" json:"port"`
		DataDir string `yaml:"data_dir" json:"data_dir"`
	} `yaml:"app" json:"app"`

	Log struct {
		Level  string `yaml:"level" json:"level"`
		Format string `yaml:"format" json:"format"`
	} `yaml:"log" json:"log"`

	Store struct {
		Backend     string `yaml:"backend" json:"backend"` // sqlite | redis
		RedisAddr   string `yaml:"redis_addr" json:"redis_addr"`
		RedisDB     int    `yaml:"redis_db" json:"redis_db"`
		RedisPrefix string `yaml:"redis_prefix" json:"redis_prefix"`
	} `yaml:"store" json:"store"`

	Model struct {
		Provider  string `yaml:"provider" json:"provider"` // gemini | none
		Name      string `yaml:"name" json:"name"`
		APIKeyEnv string `yaml:"api_key_env" json:"api_key_env"`
		Stream    bool   `yaml:"stream" json:"stream"`
	} `yaml:"model" json:"model"`

	Browser struct {
		RemoteURL     string  `yaml:"remote_url" json:"remote_url"`
		Headless      bool    `yaml:"headless" json:"headless"`
		ExecPath      string  `yaml:"exec_path" json:"exec_path"`
		ImportCookies bool    `yaml:"import_cookies" json:"import_cookies"`
		NavigateRPS   float64 `yaml:"navigate_rps" json:"navigate_rps"`
	} `yaml:"browser" json:"browser"`

	Crawler struct {
		MaxExpandPasses   int `yaml:"max_expand_passes" json:"max_expand_passes"`
		ClickDelayMS      int `yaml:"click_delay_ms" json:"click_delay_ms"`
		PassDelayMS       int `yaml:"pass_delay_ms" json:"pass_delay_ms"`
		ModalOpenDelayMS  int `yaml:"modal_open_delay_ms" json:"modal_open_delay_ms"`
		ScrollDelayMS     int `yaml:"scroll_delay_ms" json:"scroll_delay_ms"`
		MaxScrollAttempts int `yaml:"max_scroll_attempts" json:"max_scroll_attempts"`
		CommentMaxChars   int `yaml:"comment_max_chars" json:"comment_max_chars"`
		TimeoutMS         int `yaml:"timeout_ms" json:"timeout_ms"`
	} `yaml:"crawler" json:"crawler"`

	Extract struct {
		GenericTrafilatura bool `yaml:"generic_trafilatura" json:"generic_trafilatura"`
	} `yaml:"extract" json:"extract"`

	Export struct {
		Dir string `yaml:"dir" json:"dir"`
	} `yaml:"export" json:"export"`
}

// Default returns the configuration written on first start.
func Default() Config {
	var cfg Config
	cfg.App.Port = 38472
	cfg.App.DataDir = "."

	cfg.Log.Level = "info"
	cfg.Log.Format = "console"

	cfg.Store.Backend = "sqlite"
	cfg.Store.RedisAddr = "127.0.0.1:6379"
	cfg.Store.RedisPrefix = "linkedva:"

	cfg.Model.Provider = "gemini"
	cfg.Model.Name = "gemini-2.5-flash"
	cfg.Model.APIKeyEnv = "GEMINI_API_KEY"

	cfg.Browser.Headless = true
	cfg.Browser.ImportCookies = true
	cfg.Browser.NavigateRPS = 0.5

	cfg.Crawler.MaxExpandPasses = 20
	cfg.Crawler.ClickDelayMS = 500
	cfg.Crawler.PassDelayMS = 1000
	cfg.Crawler.ModalOpenDelayMS = 2000
	cfg.Crawler.ScrollDelayMS = 800
	cfg.Crawler.MaxScrollAttempts = 30
	cfg.Crawler.CommentMaxChars = 500
	cfg.Crawler.TimeoutMS = 300000

	cfg.Extract.GenericTrafilatura = true
	cfg.Export.Dir = "exports"
	return cfg
}

// Load reads path over the defaults, so missing keys keep their default.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}
