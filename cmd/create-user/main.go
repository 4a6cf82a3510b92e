package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/school-fees-api/internal/models"
	"github.com/noah-isme/school-fees-api/internal/repository"
	"github.com/noah-isme/school-fees-api/internal/service"
	"github.com/noah-isme/school-fees-api/pkg/config"
	"github.com/noah-isme/school-fees-api/pkg/database"
	"github.com/noah-isme/school-fees-api/pkg/logger"
)

func main() {
	email := flag.String("email", "", "login email")
	name := flag.String("name", "", "full name")
	role := flag.String("role", string(models.RoleAccountant), "SUPERADMIN, ADMIN or ACCOUNTANT")
	password := flag.String("password", "", "initial password (falls back to $CREATE_USER_PASSWORD)")
	flag.Parse()

	if *password == "" {
		*password = os.Getenv("CREATE_USER_PASSWORD")
	}
	userRole := models.UserRole(strings.ToUpper(strings.TrimSpace(*role)))
	if strings.TrimSpace(*email) == "" || *password == "" || !userRole.Valid() {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx := context.Background()
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	users := service.NewUserService(repository.NewUserRepository(db), nil, logr)
	user, err := users.Create(ctx, service.CreateUserRequest{
		Email:    *email,
		FullName: *name,
		Role:     userRole,
		Password: *password,
	})
	if err != nil {
		logr.Fatal("create user failed", zap.Error(err))
	}
	logr.Info("user created", zap.String("id", user.ID), zap.String("email", user.Email), zap.String("role", string(user.Role)))
}
