// Package utils provides shared logging, math, and text helpers.
package utils

import "go.uber.org/zap"

// NewLogger returns the service logger. Debug mode uses zap's development
// config (console encoding, debug level); otherwise production config (JSON,
// info level).
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// NewProductionLogger returns a production zap logger.
func NewProductionLogger() (*zap.Logger, error) {
	return zap.NewProduction()
}
