package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/boardstack/core/cmd/api/commands"
)

// @title BoardStack API
// @version 1.0
// @description Collaborative task board service with boards, columns, cards and tasks

// @contact.name BoardStack Support
// @contact.url https://github.com/boardstack/core

// @license.name MIT
// @license.url https://github.com/boardstack/core/blob/main/LICENSE

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	rootCmd := &cobra.Command{
		Use:   "boardstack",
		Short: "BoardStack API Server",
		Long:  `BoardStack is a collaborative task board service: boards with ordered columns, cards, nested tasks and invite-driven membership.`,
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
