// Package logger builds log/slog loggers for the service.
//
// New takes functional options; WithEnvironment picks the format and level
// for the deployment and WithContextExtractors injects request-scoped values
// such as the request ID into every record:
//
//	log := logger.New(
//	    logger.WithEnvironment(environment.Parse(cfg.AppEnv), cfg.AppName),
//	    logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "check", logger.APIKey(key), logger.Cost(cost))
//
// The attribute helpers in attr.go keep key names consistent. APIKey masks
// all but the first four characters.
package logger
