package main

import (
	"github.com/arnold/kpitrack-api/internal/routes"
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}

	server := fiber.New(fiber.Config{
		AppName:   "kpitrack-api",
		BodyLimit: 12 * 1024 * 1024,
	})
	routes.Setup(server, a.handler, a.cfg.JWTSecret, a.cfg.UploadsDir)

	a.logger.WithField("port", a.cfg.Port).Info("Server starting")
	return server.Listen(":" + a.cfg.Port)
}
