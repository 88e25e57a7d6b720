/*
Package config loads event bus settings from YAML or JSON.

# Overview

Config wraps the decoded document and exposes typed accessors that fall back
to a default when a key is missing or holds the wrong type. Keys are dotted
paths into nested sections:

	cfg, err := config.FromFile("eventbus.yaml")
	if err != nil {
	    log.Fatal(err)
	}

	workers := cfg.Int("pool.workers", 4)
	level := cfg.String("log.level", "info")
	pool := cfg.Sub("pool")

# Settings

Settings is the typed view the bus wiring uses:

	log:
	  level: debug        # debug, info, warn, error
	  format: json        # text or json
	pool:
	  workers: 8          # 0 means GOMAXPROCS
	observability:
	  metrics: true
	  tracing: true
	registry:
	  driver: sqlite      # memory, locked, sqlite, or postgres
	  path: ./bindings.db # sqlite only
	  dsn: ""             # postgres only

	settings, err := config.LoadSettings("eventbus.yaml")
	logger := settings.NewLogger(os.Stderr)

Missing keys keep the values from DefaultSettings.
*/
package config
