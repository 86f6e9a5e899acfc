package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"taskflow/internal/config"
	"taskflow/internal/database"
	"taskflow/internal/domain"
	"taskflow/internal/repository"
)

// Seeds a demo account with a handful of tasks in every status so the board
// has something to show on first run.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.RefreshToken{}, &domain.Task{}); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}

	ctx := context.Background()
	users := repository.NewUserRepository(db)

	const demoEmail = "demo@taskflow.local"
	user, err := users.GetByEmail(ctx, demoEmail)
	if err != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte("demo1234"), bcrypt.DefaultCost)
		if err != nil {
			log.Fatal().Err(err).Msg("hash failed")
		}
		user = &domain.User{
			Name:         "Demo User",
			Email:        demoEmail,
			PasswordHash: string(hash),
			Role:         domain.RoleUser,
		}
		if err := users.Create(ctx, user); err != nil {
			log.Fatal().Err(err).Msg("create demo user failed")
		}
		log.Info().Str("email", demoEmail).Msg("created demo user (password: demo1234)")
	}

	taskRepo := repository.NewTaskRepository(db)
	due := time.Now().Add(72 * time.Hour)
	seed := []domain.Task{
		{Title: "Plan the sprint", Description: "Pick the top five items from the backlog", Status: domain.StatusTodo, Priority: domain.PriorityHigh, IsImportant: true, DueDate: &due, EstimatedTime: 60},
		{Title: "Write release notes", Status: domain.StatusTodo, Priority: domain.PriorityMedium, Tags: []string{"docs"}},
		{Title: "Fix flaky login test", Status: domain.StatusInProgress, Priority: domain.PriorityHigh, Tags: []string{"ci", "auth"}, EstimatedTime: 90, ActualTime: 45},
		{Title: "Update dependencies", Status: domain.StatusCompleted, Priority: domain.PriorityLow, ActualTime: 30},
		{Title: "Review onboarding doc", Status: domain.StatusCompleted, Priority: domain.PriorityMedium},
	}
	for i := range seed {
		seed[i].UserID = user.ID
		pos, err := taskRepo.MaxPosition(ctx, user.ID)
		if err != nil {
			log.Fatal().Err(err).Msg("max position failed")
		}
		seed[i].Position = pos + 1
		if err := taskRepo.Create(ctx, &seed[i]); err != nil {
			log.Fatal().Err(err).Msg("create task failed")
		}
	}

	fmt.Printf("seeded %d tasks for %s\n", len(seed), demoEmail)
}
