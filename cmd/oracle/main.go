// Package main is a stand-in outcome oracle for development.  It answers
// GET /random with the plain body "1" (win) or "0" (loss), flipping a fair
// coin per request.
package main

import (
	"log/slog"
	"math/rand"
	"os"

	"github.com/gin-gonic/gin"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	port := os.Getenv("ORACLE_PORT")
	if port == "" {
		port = "3000"
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	// The settlement client compares the raw body byte-for-byte, so the
	// response must be exactly "1" or "0" with no framing around it.
	r.GET("/random", func(c *gin.Context) {
		outcome := "0"
		if rand.Intn(2) == 1 {
			outcome = "1"
		}
		logger.Info("outcome served", "outcome", outcome, "remote", c.ClientIP())
		c.String(200, outcome)
	})

	logger.Info("mock oracle listening", "port", port)
	if err := r.Run(":" + port); err != nil {
		logger.Error("oracle server error", "err", err)
		os.Exit(1)
	}
}
