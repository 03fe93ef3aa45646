// Package logger provides structured logging for nodeflow using zerolog.
//
// It supports JSON and console output, level configuration and
// component-scoped loggers. Flow code tags log lines with the run, node and
// iteration they belong to through the Field* keys and the WithNode/WithRun
// helpers.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.New(&cfg.Logging, "nodeflow").WithComponent("engine")
//	log.Info("run finished", logger.Fields("run_id", id, "executed", n))
package logger
