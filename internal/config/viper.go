package config

import (
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment variables, e.g. DATAHAWK_THREADS.
const EnvPrefix = "DATAHAWK"

// Keys shared by flags, environment variables and viper.
const (
	KeyQuery         = "query"
	KeyOutput        = "output"
	KeyOutputDir     = "output-dir"
	KeyProxy         = "proxy"
	KeyThreads       = "threads"
	KeyMinDelay      = "min-delay"
	KeyMaxDelay      = "max-delay"
	KeyTimeout       = "timeout"
	KeyDepth         = "depth"
	KeyMaxPages      = "max-pages"
	KeyCrossDomains  = "cross-domains"
	KeyRespectRobots = "respect-robots"
	KeyTextOnly      = "text-only"
	KeyFetcher       = "fetcher"
	KeyTor           = "tor"
	KeyTorTimeout    = "tor-timeout"
	KeyUserAgent     = "user-agent"
	KeyMaxBodySize   = "max-body-size"
	KeyVerbose       = "verbose"
	KeyLogJSON       = "log-json"
	KeyConfig        = "config"
	KeyDBDir         = "db-dir"
	KeyNoDB          = "no-db"
	KeyResume        = "resume"
)

// NewViper returns a viper instance reading DATAHAWK_* environment variables.
// Dashes in keys map to underscores: "min-delay" reads DATAHAWK_MIN_DELAY.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// FromViper builds a Config from defaults overridden by every key set in v.
// Flags bound to v count as set only when the user changed them.
func FromViper(v *viper.Viper, seeds []string) *Config {
	c := NewConfig()
	c.Seeds = seeds

	setString := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	setInt := func(key string, dst *int) {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}
	setBool := func(key string, dst *bool) {
		if v.IsSet(key) {
			*dst = v.GetBool(key)
		}
	}

	setString(KeyQuery, &c.Query)
	setString(KeyOutput, &c.OutputFormat)
	setString(KeyOutputDir, &c.OutputDir)
	setString(KeyProxy, &c.Proxy)
	setInt(KeyThreads, &c.Threads)
	setInt(KeyDepth, &c.CrawlDepth)
	setInt(KeyMaxPages, &c.MaxPages)
	setBool(KeyCrossDomains, &c.CrossDomains)
	setBool(KeyRespectRobots, &c.RespectRobots)
	setBool(KeyTextOnly, &c.TextOnly)
	setString(KeyFetcher, &c.Fetcher)
	setBool(KeyTor, &c.UseTor)
	setString(KeyUserAgent, &c.UserAgent)
	setBool(KeyVerbose, &c.Verbose)
	setBool(KeyLogJSON, &c.LogJSON)
	setString(KeyConfig, &c.ConfigFilePath)
	setString(KeyDBDir, &c.DBDir)
	setString(KeyResume, &c.Resume)

	if v.IsSet(KeyMinDelay) {
		c.MinDelay = v.GetDuration(KeyMinDelay)
	}
	if v.IsSet(KeyMaxDelay) {
		c.MaxDelay = v.GetDuration(KeyMaxDelay)
	}
	if v.IsSet(KeyTimeout) {
		c.Timeout = v.GetDuration(KeyTimeout)
	}
	if v.IsSet(KeyTorTimeout) {
		c.TorStartupTimeout = v.GetDuration(KeyTorTimeout)
	}
	if v.IsSet(KeyMaxBodySize) {
		c.MaxBodySize = v.GetInt64(KeyMaxBodySize)
	}
	if v.IsSet(KeyNoDB) {
		c.SaveToDB = !v.GetBool(KeyNoDB)
	}

	return c
}
