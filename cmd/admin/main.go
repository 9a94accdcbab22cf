package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/persistence"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/scan"
	"github.com/spec-kit/complaint-service/internal/service"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	switch os.Args[1] {
	case "create-admin":
		if len(os.Args) != 5 {
			fmt.Println("Usage: admin create-admin <name> <email> <password>")
			os.Exit(1)
		}
		if err := createAdmin(ctx, cfg, logger, os.Args[2], os.Args[3], os.Args[4]); err != nil {
			log.Fatalf("Error creating admin: %v", err)
		}
	case "scan":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin scan <path>")
			os.Exit(1)
		}
		if err := scanFile(ctx, cfg, logger, os.Args[2]); err != nil {
			log.Fatalf("Error scanning file: %v", err)
		}
	default:
		usage()
	}
}

func usage() {
	fmt.Println("Usage: admin <command> [args]")
	fmt.Println("  create-admin <name> <email> <password>")
	fmt.Println("  scan <path>")
	os.Exit(1)
}

func createAdmin(ctx context.Context, cfg *config.Config, logger *zap.Logger, name, email, password string) error {
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return err
	}
	defer pg.Close()
	if pg.PoolHandle() == nil {
		return fmt.Errorf("POSTGRES_DSN is required")
	}

	authService := service.NewAuthService(cfg.Auth, repository.NewUserRepository(pg.PoolHandle()))
	user, err := authService.CreateAdmin(ctx, name, email, password)
	if err != nil {
		return err
	}
	fmt.Printf("Admin %s created with id %d.\n", user.Email, user.ID)
	return nil
}

// scanFile runs the reputation workflow for a local file and prints the
// verdict. Nothing is stored.
func scanFile(ctx context.Context, cfg *config.Config, logger *zap.Logger, path string) error {
	if cfg.Scan.APIKey == "" {
		return fmt.Errorf("VIRUSTOTAL_API_KEY is required")
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	scanner := scan.NewScanner(scan.NewClient(cfg.Scan, logger), nil, logger)
	result, err := scanner.Scan(ctx, content, filepath.Base(path))
	if err != nil {
		return err
	}

	v := result.Verdict
	fmt.Printf("File:     %s\n", path)
	fmt.Printf("SHA-256:  %s\n", result.Digest)
	fmt.Printf("Engines:  %d\n", v.TotalEngines)
	for category, count := range v.Stats {
		fmt.Printf("  %-12s %d\n", category, count)
	}
	if v.IsMalicious() {
		fmt.Printf("Verdict:  MALICIOUS (%d detections)\n", v.MaliciousCount)
		for _, engine := range v.FlaggedBy {
			fmt.Printf("  flagged by %s\n", engine)
		}
	} else {
		fmt.Println("Verdict:  clean")
	}
	fmt.Printf("Report:   https://www.virustotal.com/gui/file/%s\n", result.Digest)
	return nil
}
