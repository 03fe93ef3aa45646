// Package config loads the nodeflow configuration.
//
// Values come from a YAML file (nodeflow.yml or config.yml in ., ./config,
// ./cmd/nodeflow or /etc/nodeflow), then a .env file, then NODEFLOW_
// environment variables, which win:
//
//	NODEFLOW_SERVER_PORT=9090
//	NODEFLOW_STORAGE_PROVIDER=redis
//	NODEFLOW_STORAGE_REDIS_ADDR=cache:6379
//
// Usage:
//
//	cfg, err := config.Load(config.WithConfigFile("deploy/nodeflow.yml"))
//
// Every section owns its struct with ApplyDefaults and Validate; AppConfig
// aggregates them.
package config
