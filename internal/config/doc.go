// Package config holds the DataHawk run configuration, its defaults and
// validation, and the optional .datahawk site file with per-host crawl
// settings.
package config
