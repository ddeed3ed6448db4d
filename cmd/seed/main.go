package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Gokul221/mindfulhaven-app/internal/database"
	"github.com/Gokul221/mindfulhaven-app/internal/models"
	"github.com/Gokul221/mindfulhaven-app/internal/repository"
	"github.com/Gokul221/mindfulhaven-app/pkg/utils"
)

type seedFile struct {
	Admins   []seedAccount `yaml:"admins"`
	Users    []seedAccount `yaml:"users"`
	Trainers []seedTrainer `yaml:"trainers"`
}

type seedAccount struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type seedTrainer struct {
	seedAccount `yaml:",inline"`
	Specialties []string    `yaml:"specialties"`
	Classes     []seedClass `yaml:"classes"`
}

type seedClass struct {
	Title           string    `yaml:"title"`
	Description     string    `yaml:"description"`
	StartAt         time.Time `yaml:"startAt"`
	DurationMinutes int       `yaml:"durationMinutes"`
	Capacity        int       `yaml:"capacity"`
	PriceCents      int64     `yaml:"priceCents"`
	Location        string    `yaml:"location"`
}

func main() {
	path := flag.String("file", "seed.yaml", "seed file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		log.Fatal("DB_URL environment variable is required")
	}

	raw, err := os.ReadFile(*path)
	if err != nil {
		log.Fatalf("read %s: %v", *path, err)
	}
	seed, err := parseSeed(raw)
	if err != nil {
		log.Fatalf("parse %s: %v", *path, err)
	}

	ctx := context.Background()
	db, err := database.Open(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	stats, err := apply(ctx, db, seed)
	if err != nil {
		log.Fatalf("seed failed: %v", err)
	}
	log.Printf("seed done: %d account(s) created, %d skipped, %d class(es) created", stats.created, stats.skipped, stats.classes)
}

func parseSeed(raw []byte) (*seedFile, error) {
	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, err
	}

	check := func(kind string, i int, acc *seedAccount) error {
		acc.Email = strings.ToLower(strings.TrimSpace(acc.Email))
		acc.Name = strings.TrimSpace(acc.Name)
		if acc.Email == "" || acc.Name == "" || len(acc.Password) < 6 {
			return fmt.Errorf("%s[%d]: name, email and a password of at least 6 characters are required", kind, i)
		}
		return nil
	}
	for i := range seed.Admins {
		if err := check("admins", i, &seed.Admins[i]); err != nil {
			return nil, err
		}
	}
	for i := range seed.Users {
		if err := check("users", i, &seed.Users[i]); err != nil {
			return nil, err
		}
	}
	for i := range seed.Trainers {
		trainer := &seed.Trainers[i]
		if err := check("trainers", i, &trainer.seedAccount); err != nil {
			return nil, err
		}
		for j, class := range trainer.Classes {
			switch {
			case strings.TrimSpace(class.Title) == "":
				return nil, fmt.Errorf("trainers[%d].classes[%d]: title is required", i, j)
			case class.StartAt.IsZero():
				return nil, fmt.Errorf("trainers[%d].classes[%d]: startAt is required", i, j)
			case class.DurationMinutes <= 0:
				return nil, fmt.Errorf("trainers[%d].classes[%d]: durationMinutes must be greater than 0", i, j)
			case class.Capacity <= 0:
				return nil, fmt.Errorf("trainers[%d].classes[%d]: capacity must be greater than 0", i, j)
			case class.PriceCents < 0:
				return nil, fmt.Errorf("trainers[%d].classes[%d]: priceCents must be 0 or greater", i, j)
			}
		}
	}
	return &seed, nil
}

type seedEntry struct {
	account seedAccount
	role    string
	trainer *seedTrainer
}

// entries lists accounts in insertion order: admins, users, then trainers.
func (s *seedFile) entries() []seedEntry {
	entries := make([]seedEntry, 0, len(s.Admins)+len(s.Users)+len(s.Trainers))
	for _, a := range s.Admins {
		entries = append(entries, seedEntry{account: a, role: models.RoleAdmin})
	}
	for _, u := range s.Users {
		entries = append(entries, seedEntry{account: u, role: models.RoleUser})
	}
	for i := range s.Trainers {
		entries = append(entries, seedEntry{
			account: s.Trainers[i].seedAccount,
			role:    models.RoleTrainer,
			trainer: &s.Trainers[i],
		})
	}
	return entries
}

type seedStats struct {
	created int
	skipped int
	classes int
}

// apply writes each account in its own transaction so a rerun picks up where
// a failed one stopped. Existing emails are left untouched.
func apply(ctx context.Context, db *database.DB, seed *seedFile) (seedStats, error) {
	var stats seedStats

	for _, entry := range seed.entries() {
		var created bool
		var classes int
		err := db.WithinTx(ctx, func(tx pgx.Tx) error {
			var err error
			created, classes, err = seedAccountTx(ctx, tx, entry.account, entry.role, entry.trainer)
			return err
		})
		if err != nil {
			return stats, fmt.Errorf("%s: %w", entry.account.Email, err)
		}
		if !created {
			log.Printf("skip existing %s", entry.account.Email)
			stats.skipped++
			continue
		}
		log.Printf("created %s %s", entry.role, entry.account.Email)
		stats.created++
		stats.classes += classes
	}
	return stats, nil
}

func seedAccountTx(ctx context.Context, tx pgx.Tx, account seedAccount, role string, trainer *seedTrainer) (bool, int, error) {
	users := repository.NewUserRepository(tx)
	if _, err := users.GetByEmail(ctx, account.Email); err == nil {
		return false, 0, nil
	} else if !repository.IsNotFound(err) {
		return false, 0, err
	}

	hash, err := utils.HashPassword(account.Password)
	if err != nil {
		return false, 0, err
	}
	user := &models.User{Email: account.Email, PasswordHash: hash, Name: account.Name, Role: role}
	if err := users.Create(ctx, user); err != nil {
		return false, 0, err
	}
	if trainer == nil {
		return true, 0, nil
	}

	profile, err := repository.NewTrainerRepository(tx).Create(ctx, user.ID, trainer.Specialties)
	if err != nil {
		return false, 0, err
	}

	classRepo := repository.NewClassRepository(tx)
	for _, class := range trainer.Classes {
		if _, err := classRepo.Create(ctx, classInput(class, profile.ID)); err != nil {
			return false, 0, fmt.Errorf("class %q: %w", class.Title, err)
		}
	}
	return true, len(trainer.Classes), nil
}

func classInput(class seedClass, trainerID int64) repository.CreateClassInput {
	input := repository.CreateClassInput{
		Title:      strings.TrimSpace(class.Title),
		StartAt:    class.StartAt,
		EndAt:      class.StartAt.Add(time.Duration(class.DurationMinutes) * time.Minute),
		Capacity:   class.Capacity,
		PriceCents: class.PriceCents,
		TrainerID:  trainerID,
	}
	if class.Description != "" {
		input.Description = &class.Description
	}
	if class.Location != "" {
		input.Location = &class.Location
	}
	return input
}
