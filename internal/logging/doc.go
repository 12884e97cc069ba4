// Package logging provides leveled logging for the gateway.
//
// Levels are controlled via the DEBUG and LOG_LEVEL environment
// variables and resolved once on first use. All packages log through
// this package so that output formatting stays uniform.
package logging
