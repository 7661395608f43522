package main

import (
	"context"
	"errors"
	"log"

	"gorm.io/gorm"

	"taskhub/internal/auth"
	"taskhub/internal/config"
	"taskhub/internal/db"
	"taskhub/internal/model"
	"taskhub/internal/notification"
	"taskhub/internal/repository"
	"taskhub/internal/service"
)

// Demo fixtures for local development. The user is created through the real
// service layer so the password gets hashed and a session token is issued.
const (
	demoName     = "Demo User"
	demoEmail    = "demo@taskhub.local"
	demoPassword = "Demo1234"
)

var demoTasks = []string{
	"Buy groceries",
	"Write weekly report",
	"Book dentist appointment",
}

func main() {
	log.Println("Starting seed script...")

	// Load configuration
	cfg := config.Load()

	// Connect to database
	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	// Run migrations to ensure schema is up to date
	if err := gormDB.AutoMigrate(&model.User{}, &model.SessionToken{}, &model.Task{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	userRepo := repository.NewUserRepository(gormDB)
	taskRepo := repository.NewTaskRepository(gormDB)
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	// seed always logs notifications instead of sending them
	userService := service.NewUserService(userRepo, jwtService, notification.New("", cfg.MailFrom), nil)
	taskService := service.NewTaskService(taskRepo)

	ctx := context.Background()

	user, token, err := seedUser(ctx, userRepo, userService, jwtService)
	if err != nil {
		log.Fatalf("Failed to seed user: %v", err)
	}

	created, err := seedTasks(ctx, taskRepo, taskService, user)
	if err != nil {
		log.Fatalf("Failed to seed tasks: %v", err)
	}

	log.Printf("Seed completed successfully!")
	log.Printf("  - Demo user: %s (%s)", user.Email, user.ID)
	log.Printf("  - New tasks created: %d", created)
	log.Printf("  - Session token: %s", token)
}

// seedUser creates the demo user, or issues a fresh session token when it
// already exists.
func seedUser(ctx context.Context, repo repository.UserRepository, svc service.UserService, jwtService *auth.JWTService) (*model.User, string, error) {
	existing, err := repo.FindByEmail(ctx, demoEmail)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}

	if existing != nil && err == nil {
		log.Printf("Demo user already exists, issuing a new session token")
		token, err := jwtService.GenerateToken(existing.ID)
		if err != nil {
			return nil, "", err
		}
		if err := repo.AddToken(ctx, existing.ID, token); err != nil {
			return nil, "", err
		}
		return existing, token, nil
	}

	return svc.Register(ctx, demoName, demoEmail, demoPassword, 0)
}

// seedTasks creates the demo tasks that are not present yet.
func seedTasks(ctx context.Context, repo repository.TaskRepository, svc service.TaskService, user *model.User) (int, error) {
	existing, err := repo.FindByOwner(ctx, user.ID, repository.TaskFilter{})
	if err != nil {
		return 0, err
	}
	present := make(map[string]bool, len(existing))
	for _, task := range existing {
		present[task.Description] = true
	}

	created := 0
	for _, description := range demoTasks {
		if present[description] {
			continue
		}
		if _, err := svc.Create(ctx, user.ID, description); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
