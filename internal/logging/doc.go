// Package logging provides the leveled logger shared by the media pipeline.
//
// Levels, lowest first: DEBUG, INFO, WARN, ERROR, FATAL. The level is read
// once from DEBUG (any truthy value forces debug) or LOG_LEVEL.
//
// Long-running components log through a Logger obtained with For, which
// tags every line with the component name:
//
//	log := logging.For("reconciler")
//	log.Info("promoted %d posts", n)
package logging
