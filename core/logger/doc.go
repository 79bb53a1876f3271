// Package logger builds *slog.Logger instances and provides attribute helpers
// for consistent structured logging.
//
// # Basic Usage
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "fanout"),
//		logger.WithOutput(os.Stderr),
//	)
//
//	log.Info("server starting",
//		logger.Component("server"),
//		logger.Event("startup"),
//	)
//
// # Environment Configurations
//
//	// Development: text format, debug level, source locations
//	devLogger := logger.New(logger.WithDevelopment("fanout"))
//
//	// Production and staging: JSON format, info level
//	prodLogger := logger.New(logger.WithProduction("fanout"))
//
// Options are applied in order, so later options override earlier ones:
//
//	log := logger.New(logger.WithProduction("fanout"), logger.WithLevel(slog.LevelDebug))
//
// # Attribute Helpers
//
// Helpers return an empty slog.Attr for nil or empty input, which slog drops:
//
//	log.Warn("broadcast write failed",
//		logger.SinkID(id.String()),
//		logger.Error(err), // omitted when err is nil
//	)
//
// LOG_FORMAT and LOG_LEVEL style overrides map onto WithJSONFormatter,
// WithTextFormatter and WithLevel, applied after the environment preset.
package logger
