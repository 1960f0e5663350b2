package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"

	"skillarena/cmd"
	"skillarena/database"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if len(os.Args) > 1 {
		if err := runSubcommand(ctx, os.Args[1], os.Args[2:]); err != nil {
			log.WithError(err).Fatal("Command failed")
		}
		return
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	// Run the application
	if err := cmd.Run(ctx); err != nil {
		log.WithError(err).Fatal("Application error")
	}
}

func runSubcommand(ctx context.Context, name string, args []string) error {
	switch name {
	case "migrate":
		return handleMigrationCommand(args)
	case "seed-games":
		if len(args) == 0 {
			return fmt.Errorf("usage: skillarena seed-games \"Game One,Game Two\"")
		}
		return cmd.SeedGames(ctx, strings.Split(strings.Join(args, " "), ","))
	case "promote-admin":
		if len(args) != 1 {
			return fmt.Errorf("usage: skillarena promote-admin <email>")
		}
		return cmd.PromoteAdmin(ctx, args[0])
	default:
		return fmt.Errorf("unknown command: %s", name)
	}
}

func handleMigrationCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: skillarena migrate [up|down|status] [args...]")
	}

	switch args[0] {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(args) > 1 {
			steps = args[1]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", args[0])
	}
}
