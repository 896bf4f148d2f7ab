package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Feed     FeedConfig     `yaml:"feed"`
	Browser  BrowserConfig  `yaml:"browser"`
	Scrape   ScrapeConfig   `yaml:"scrape"`
	LogLevel string         `yaml:"log_level"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// RabbitMQConfig configures the article event publisher. An empty URL
// disables publishing entirely.
type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

type FeedConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// BrowserConfig configures the rendering engine. Visible inverts the
// default headless mode for debugging scrape sessions.
type BrowserConfig struct {
	Visible    bool          `yaml:"visible"`
	ExecPath   string        `yaml:"exec_path"`
	NavTimeout time.Duration `yaml:"nav_timeout"`
	Width      int           `yaml:"width"`
	Height     int           `yaml:"height"`
}

type ScrapeConfig struct {
	Concurrency    int           `yaml:"concurrency"`
	LookbackDays   int           `yaml:"lookback_days"`
	UpdatePolicy   string        `yaml:"update_policy"`
	ScrollInterval time.Duration `yaml:"scroll_interval"`
	ScrollMaxPolls int           `yaml:"scroll_max_polls"`
	Interval       time.Duration `yaml:"interval"`
	PassTimeout    time.Duration `yaml:"pass_timeout"`
	SiteBaseURL    string        `yaml:"site_base_url"`
	CookieSelector string        `yaml:"cookie_selector"`
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Feed.URL == "" {
		c.Feed.URL = "https://partner-feeds.beta.20min.ch/rss/20minuten"
	}
	if c.Feed.Timeout == 0 {
		c.Feed.Timeout = 30 * time.Second
	}
	if c.RabbitMQ.URL != "" {
		if c.RabbitMQ.Exchange == "" {
			c.RabbitMQ.Exchange = "news_scraper"
		}
		if c.RabbitMQ.RoutingKey == "" {
			c.RabbitMQ.RoutingKey = "articles"
		}
		if c.RabbitMQ.QueueName == "" {
			c.RabbitMQ.QueueName = "scraped_articles"
		}
	}
	if c.Browser.NavTimeout == 0 {
		c.Browser.NavTimeout = 30 * time.Second
	}
	if c.Browser.Width == 0 {
		c.Browser.Width = 1400
	}
	if c.Browser.Height == 0 {
		c.Browser.Height = 6000
	}
	if c.Scrape.Concurrency == 0 {
		// sequential by default, the browser is the scarce resource
		c.Scrape.Concurrency = 1
	}
	if c.Scrape.LookbackDays == 0 {
		c.Scrape.LookbackDays = 3
	}
	if c.Scrape.UpdatePolicy == "" {
		c.Scrape.UpdatePolicy = "skip"
	}
	if c.Scrape.ScrollInterval == 0 {
		c.Scrape.ScrollInterval = 250 * time.Millisecond
	}
	if c.Scrape.ScrollMaxPolls == 0 {
		c.Scrape.ScrollMaxPolls = 40
	}
	if c.Scrape.Interval == 0 {
		c.Scrape.Interval = 30 * time.Minute
	}
	if c.Scrape.PassTimeout == 0 {
		c.Scrape.PassTimeout = 15 * time.Minute
	}
	if c.Scrape.SiteBaseURL == "" {
		c.Scrape.SiteBaseURL = "https://www.20min.ch"
	}
	if c.Scrape.CookieSelector == "" {
		c.Scrape.CookieSelector = "#onetrust-accept-btn-handler"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
