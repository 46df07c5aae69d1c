// Package config manages application configuration.
//
// Configuration is read once at startup from environment variables, with
// an optional .env file loaded first:
//
//	cfg, err := config.Load()
//	if err := cfg.Validate(); err != nil { ... }
//
// # Environment Variables
//
//	ENV_FILE                        - dotenv file to load (default: .env)
//	APP_ENV                         - development, production or test
//	LOG_LEVEL                       - debug, info, warn or error (default: info)
//	CONTRACT_STRICT_UNKNOWN_FIELDS  - reject undeclared fields (default: true)
//	CONTRACT_ENUMS_FILE             - YAML file extending the built-in enumerations
//	CONTRACT_METRICS_ENABLED        - register Prometheus counters (default: false)
package config
