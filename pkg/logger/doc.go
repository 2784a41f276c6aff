// Package logger builds the slog.Logger the run engine components share.
//
// The factory produces JSON output at info level by default, matching what
// log shippers expect; WithDevelopment flips to readable text at debug
// level. The attribute helpers keep scope identifiers (run id, organization,
// environment, queue) uniform across subsystems.
//
// # Usage
//
//	log := logger.New(logger.WithProduction("runkit"))
//	logger.SetAsDefault(log)
//
//	log.Info("run enqueued", logger.RunID(run.ID), logger.OrgID(run.OrganizationID))
package logger
