// Package config loads the event bus process configuration.
//
// Configuration is assembled in three steps, later steps overriding earlier
// ones:
//
//  1. Built-in defaults (Default).
//  2. An optional TOML or YAML file, selected by extension.
//  3. EVENTBUS_* environment variables.
//
// The result is validated before it is returned. A missing file is not an
// error, so a process can run on defaults and environment alone.
//
// Example config.toml:
//
//	[bus]
//	isolate = true
//
//	[log]
//	level = "debug"
//
//	[metrics]
//	enabled = true
//	port = 9090
//	timeout = "30s"
//
//	[script]
//	paths = ["handlers.lua"]
package config
