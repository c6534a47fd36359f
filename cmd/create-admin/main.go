// Command create-admin seeds an administrator account.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/config"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	service "github.com/aaravmahajanofficial/storefront/internal/services"
)

func main() {

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	name := flag.String("name", "Admin", "display name")
	email := flag.String("email", "", "admin email (required)")
	password := flag.String("password", "", "admin password, at least 8 characters (required)")

	// MustLoad parses the flag set unless CONFIG_PATH is set
	cfg := config.MustLoad()
	if !flag.Parsed() {
		flag.Parse()
	}

	if *email == "" || len(*password) < 8 {
		slog.Error("❌ -email and a -password of at least 8 characters are required")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repos, err := repository.New(ctx, cfg)
	if err != nil {
		slog.Error("❌ Error accessing the database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer repos.Close()

	if err := repository.Migrate(ctx, repos.DB); err != nil {
		slog.Error("❌ Error applying database migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// CreateAdmin neither throttles nor sends mail, so those collaborators stay unset.
	userService := service.NewUserService(repos.User, nil, nil, []byte(cfg.Security.JWTKey), 0)

	user, err := userService.CreateAdmin(ctx, &models.RegisterRequest{Name: *name, Email: *email, Password: *password})
	if err != nil {
		slog.Error("❌ Failed to create admin", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("✅ Admin created", slog.String("userId", user.ID.String()), slog.String("email", user.Email))
}
