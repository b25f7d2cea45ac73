package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"syscall"

	"golang.org/x/term"

	"github.com/ndexpress/nd-express/internal/auth"
	"github.com/ndexpress/nd-express/internal/database"
	"github.com/ndexpress/nd-express/internal/server"
)

func main() {
	command := flag.String("command", "list", "account command (list/activate/deactivate/unlock/reset-password)")
	email := flag.String("email", "", "account email (required for everything except list)")
	flag.Parse()

	if os.Getenv("APP_ENV") == "" {
		os.Setenv("APP_ENV", "development")
	}

	cfg, err := server.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := server.NewLogger(os.Getenv("APP_ENV"))
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	manager, err := database.NewManager(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	repo := auth.NewRepository(manager.DB())
	svc := auth.NewService(&cfg.Auth, logger, repo)

	if *command != "list" && *email == "" {
		log.Fatalf("-email is required for command %q", *command)
	}

	switch *command {
	case "list":
		users, err := repo.ListInactiveUsers()
		if err != nil {
			log.Fatalf("Failed to list pending accounts: %v", err)
		}
		if len(users) == 0 {
			fmt.Println("No accounts waiting for activation")
			return
		}
		for _, u := range users {
			fmt.Printf("%s\t%s\t%s\tregistered %s\n",
				u.ID, u.Email, u.Name, u.CreatedAt.Format("2006-01-02 15:04"))
		}

	case "activate":
		user := mustFindUser(repo, *email)
		if err := repo.SetUserActive(user.ID, true); err != nil {
			log.Fatalf("Failed to activate account: %v", err)
		}
		fmt.Printf("Activated %s\n", user.Email)

	case "deactivate":
		user := mustFindUser(repo, *email)
		if err := repo.SetUserActive(user.ID, false); err != nil {
			log.Fatalf("Failed to deactivate account: %v", err)
		}
		fmt.Printf("Deactivated %s\n", user.Email)

	case "unlock":
		user := mustFindUser(repo, *email)
		if err := repo.ClearLock(user.ID); err != nil {
			log.Fatalf("Failed to unlock account: %v", err)
		}
		fmt.Printf("Unlocked %s\n", user.Email)

	case "reset-password":
		user := mustFindUser(repo, *email)
		password, err := promptPassword()
		if err != nil {
			log.Fatalf("Failed to read password: %v", err)
		}
		hash, err := svc.HashPassword(password)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
		user.PasswordHash = hash
		if err := repo.UpdateUser(user); err != nil {
			log.Fatalf("Failed to update account: %v", err)
		}
		fmt.Printf("Password reset for %s\n", user.Email)

	default:
		log.Fatalf("Unknown command: %s", *command)
	}
}

func mustFindUser(repo auth.Repository, email string) *auth.User {
	user, err := repo.GetUserByEmail(email)
	if err != nil {
		log.Fatalf("Account %q not found: %v", email, err)
	}
	return user
}

func promptPassword() (string, error) {
	fmt.Print("New password: ")
	first, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(first) < 6 {
		return "", fmt.Errorf("password must be at least 6 characters")
	}

	fmt.Print("Confirm password: ")
	second, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(first), nil
}
