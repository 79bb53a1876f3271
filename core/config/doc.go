// Package config provides type-safe environment variable loading with caching
// using Go generics. Each configuration type is loaded once and cached for
// subsequent calls.
//
// The package automatically loads .env files on first use and uses the
// caarlos0/env library for parsing environment variables into struct fields.
//
// Every fanout package exposes a Config struct with env tags and a
// DefaultConfig. The daemon nests them into one struct and loads it once:
//
//	import "github.com/dmitrymomot/fanout/core/config"
//
//	type Config struct {
//		Broadcast broadcast.Config
//		Socket    socket.Config
//		Server    server.Config
//		Redis     redis.Config
//	}
//
//	func main() {
//		var cfg Config
//		config.MustLoad(&cfg) // panics on a malformed variable
//	}
//
// # Caching
//
// The environment is parsed once per configuration type; later Load calls
// for the same type return the cached value even if the environment changed.
// Different types are cached independently. Tests that set variables call
// Reset between cases.
//
// # Errors
//
// Load returns ErrNilConfig for a nil pointer and wraps parse failures
// (missing required variables, malformed durations) with ErrParse:
//
//	if err := config.Load(&cfg); errors.Is(err, config.ErrParse) {
//		log.Fatal(err)
//	}
package config
