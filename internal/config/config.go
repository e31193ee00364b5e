package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"time"
)

type Config struct {
	//===============
	//  Crawl scope
	//===============
	// Initial pages to give to the crawler to begin discovering and traversing other pages.
	seedURLs []url.URL

	//===============
	// Politeness
	//===============
	// Minimum spacing between request starts across all tick chains.
	interval Interval
	// Maximum number of in-flight requests; also the number of tick chains.
	concurrentRequestsLimit int

	//===============
	// Fetch
	//===============
	// User agent applied to every request; resolvable per URL.
	userAgent PerURL[string]
	// Extra headers merged into every request.
	requestHeader map[string]string
	// Byte cap on response bodies; zero or negative means unlimited.
	maxContentLength PerURL[int64]
	// Maximum time of a single fetch request.
	timeout time.Duration

	//===============
	// Robots
	//===============
	// Whether robots.txt is consulted at all.
	robotsEnabled bool
	// Lifetime of cached robots.txt bodies.
	robotsCacheTime time.Duration
	// When false, a 500 on /robots.txt blocks further crawling of the origin.
	robotsIgnoreServerError bool

	//===============
	// Storage
	//===============
	// SQLite database path; empty selects the in-memory FIFO list.
	dbPath string
	// Queue table name in the database.
	tableName string
	// Root directory for the markdown archive handler.
	outputDir string
	// Whether the markdown archive handler is registered.
	archiveEnabled bool
}

type configDTO struct {
	SeedURLs                []string          `json:"seedUrls"`
	Interval                time.Duration     `json:"interval,omitempty"`
	ConcurrentRequestsLimit int               `json:"concurrentRequestsLimit,omitempty"`
	UserAgent               string            `json:"userAgent,omitempty"`
	RequestHeader           map[string]string `json:"requestHeader,omitempty"`
	MaxContentLength        int64             `json:"maxContentLength,omitempty"`
	Timeout                 time.Duration     `json:"timeout,omitempty"`
	RobotsEnabled           *bool             `json:"robotsEnabled,omitempty"`
	RobotsCacheTime         time.Duration     `json:"robotsCacheTime,omitempty"`
	RobotsIgnoreServerError bool              `json:"robotsIgnoreServerError,omitempty"`
	DbPath                  string            `json:"dbPath,omitempty"`
	TableName               string            `json:"tableName,omitempty"`
	OutputDir               string            `json:"outputDir,omitempty"`
	ArchiveEnabled          bool              `json:"archiveEnabled,omitempty"`
}

func newConfigFromDTO(dto configDTO) (Config, error) {
	seeds := make([]url.URL, 0, len(dto.SeedURLs))
	for _, raw := range dto.SeedURLs {
		parsed, err := url.Parse(raw)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
		}
		seeds = append(seeds, *parsed)
	}

	cfg := WithDefault(seeds).Build()

	if dto.Interval != 0 {
		cfg.interval = StaticInterval(dto.Interval)
	}
	if dto.ConcurrentRequestsLimit != 0 {
		cfg.concurrentRequestsLimit = dto.ConcurrentRequestsLimit
	}
	if dto.UserAgent != "" {
		cfg.userAgent = Static(dto.UserAgent)
	}
	if len(dto.RequestHeader) > 0 {
		cfg.requestHeader = dto.RequestHeader
	}
	if dto.MaxContentLength != 0 {
		cfg.maxContentLength = Static(dto.MaxContentLength)
	}
	if dto.Timeout != 0 {
		cfg.timeout = dto.Timeout
	}
	if dto.RobotsEnabled != nil {
		cfg.robotsEnabled = *dto.RobotsEnabled
	}
	if dto.RobotsCacheTime != 0 {
		cfg.robotsCacheTime = dto.RobotsCacheTime
	}
	cfg.robotsIgnoreServerError = dto.RobotsIgnoreServerError
	if dto.DbPath != "" {
		cfg.dbPath = dto.DbPath
	}
	if dto.TableName != "" {
		cfg.tableName = dto.TableName
	}
	if dto.OutputDir != "" {
		cfg.outputDir = dto.OutputDir
	}
	cfg.archiveEnabled = dto.ArchiveEnabled

	return cfg, nil
}

func WithConfigFile(path string) (Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	configContent, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}
	cfgDTO := configDTO{}

	err = json.Unmarshal(configContent, &cfgDTO)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	return newConfigFromDTO(cfgDTO)
}

// WithDefault creates a new Config with the provided seed URLs and default
// values for all other fields.
func WithDefault(seedUrls []url.URL) *Config {
	defaultConfig := Config{
		seedURLs:                seedUrls,
		interval:                StaticInterval(250 * time.Millisecond),
		concurrentRequestsLimit: 5,
		userAgent:               Static("polite-crawler/1.0 (+https://github.com/rohmanhakim/polite-crawler)"),
		requestHeader:           map[string]string{},
		maxContentLength:        Static[int64](0),
		timeout:                 time.Second * 30,
		robotsEnabled:           true,
		robotsCacheTime:         time.Hour,
		robotsIgnoreServerError: false,
		tableName:               "url",
		outputDir:               "output",
	}
	return &defaultConfig
}

func (c *Config) WithSeedUrls(urls []url.URL) *Config {
	c.seedURLs = urls
	return c
}

func (c *Config) WithInterval(interval Interval) *Config {
	c.interval = interval
	return c
}

func (c *Config) WithConcurrentRequestsLimit(limit int) *Config {
	c.concurrentRequestsLimit = limit
	return c
}

func (c *Config) WithUserAgent(userAgent PerURL[string]) *Config {
	c.userAgent = userAgent
	return c
}

func (c *Config) WithRequestHeader(header map[string]string) *Config {
	c.requestHeader = header
	return c
}

func (c *Config) WithMaxContentLength(limit PerURL[int64]) *Config {
	c.maxContentLength = limit
	return c
}

func (c *Config) WithTimeout(timeout time.Duration) *Config {
	c.timeout = timeout
	return c
}

func (c *Config) WithRobotsEnabled(enabled bool) *Config {
	c.robotsEnabled = enabled
	return c
}

func (c *Config) WithRobotsCacheTime(ttl time.Duration) *Config {
	c.robotsCacheTime = ttl
	return c
}

func (c *Config) WithRobotsIgnoreServerError(ignore bool) *Config {
	c.robotsIgnoreServerError = ignore
	return c
}

func (c *Config) WithDbPath(path string) *Config {
	c.dbPath = path
	return c
}

func (c *Config) WithTableName(name string) *Config {
	c.tableName = name
	return c
}

func (c *Config) WithOutputDir(dir string) *Config {
	c.outputDir = dir
	return c
}

func (c *Config) WithArchiveEnabled(enabled bool) *Config {
	c.archiveEnabled = enabled
	return c
}

func (c *Config) Build() Config {
	return *c
}

func (c *Config) SeedURLs() []url.URL {
	return c.seedURLs
}

func (c *Config) Interval() Interval {
	return c.interval
}

func (c *Config) ConcurrentRequestsLimit() int {
	return c.concurrentRequestsLimit
}

func (c *Config) UserAgent() PerURL[string] {
	return c.userAgent
}

func (c *Config) RequestHeader() map[string]string {
	return c.requestHeader
}

func (c *Config) MaxContentLength() PerURL[int64] {
	return c.maxContentLength
}

func (c *Config) Timeout() time.Duration {
	return c.timeout
}

func (c *Config) RobotsEnabled() bool {
	return c.robotsEnabled
}

func (c *Config) RobotsCacheTime() time.Duration {
	return c.robotsCacheTime
}

func (c *Config) RobotsIgnoreServerError() bool {
	return c.robotsIgnoreServerError
}

func (c *Config) DbPath() string {
	return c.dbPath
}

func (c *Config) TableName() string {
	return c.tableName
}

func (c *Config) OutputDir() string {
	return c.outputDir
}

func (c *Config) ArchiveEnabled() bool {
	return c.archiveEnabled
}
