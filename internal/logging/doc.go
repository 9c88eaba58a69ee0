// Package logging provides structured logging for the cloudlink tools.
//
// Logging is built on zap and is silent by default so that CLI output stays
// clean. Verbosity is controlled either programmatically via Initialize or
// through the CLOUDLINK_LOG_LEVEL environment variable.
//
// The frame codec itself never logs; only the tools and the tap server do.
package logging
