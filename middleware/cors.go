package middleware

import (
	"log"
	"log/slog"

	"github.com/rs/cors"
)

// NewCORS allows read-only cross-origin access to the API. With debug set,
// rs/cors logs its preflight decisions through logger.
func NewCORS(origins []string, debug bool, logger *slog.Logger) *cors.Cors {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	opts := cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"Origin",
			RequestIDHeader,
		},
		ExposedHeaders: []string{
			"Content-Length",
			"Content-Type",
			RequestIDHeader,
		},
		AllowCredentials: false,
		MaxAge:           86400,
		Debug:            debug,
	}
	c := cors.New(opts)
	if debug {
		c.Log = log.New(slogWriter{logger}, "[cors] ", 0)
	}
	return c
}

type slogWriter struct {
	logger *slog.Logger
}

func (s slogWriter) Write(p []byte) (int, error) {
	s.logger.Debug(string(p))
	return len(p), nil
}
