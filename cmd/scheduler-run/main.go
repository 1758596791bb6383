package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-scheduler-api/internal/bootstrap"
	"github.com/noah-isme/sma-scheduler-api/internal/models"
	"github.com/noah-isme/sma-scheduler-api/internal/service"
	"github.com/noah-isme/sma-scheduler-api/pkg/config"
	"github.com/noah-isme/sma-scheduler-api/pkg/logger"
)

const usage = `usage:
  scheduler-run run   [-profile file.yaml] [-school ID] [-campus ID] [-academic-year ID] [-course ID]
  scheduler-run token -user ID -school ID [-role ADMIN] [-campus ID] [-ttl 1h]`

func main() {
	if len(os.Args) < 2 {
		die(usage)
	}
	cfg, err := config.Load()
	if err != nil {
		die("load config: %v", err)
	}

	switch os.Args[1] {
	case "run":
		os.Exit(runCommand(cfg, os.Args[2:]))
	case "token":
		tokenCommand(cfg, os.Args[2:])
	default:
		die(usage)
	}
}

func runCommand(cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	profilePath := fs.String("profile", "", "path to a YAML run profile")
	school := fs.String("school", "", "school id (overrides the profile)")
	campus := fs.String("campus", "", "campus id (overrides the profile)")
	academicYear := fs.String("academic-year", "", "academic year id (overrides the profile)")
	course := fs.String("course", "", "only schedule requests for this course")
	_ = fs.Parse(args)

	p := &profile{}
	if *profilePath != "" {
		loaded, err := loadProfile(*profilePath)
		if err != nil {
			die("%v", err)
		}
		p = loaded
	}
	p.apply(*school, *campus, *academicYear, *course)
	scope, err := p.scope()
	if err != nil {
		die("%v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		die("init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := bootstrap.NewContainer(ctx, cfg, logr)
	if err != nil {
		logr.Error("failed to initialise dependencies", zap.Error(err))
		return 1
	}
	defer container.Close()

	result, err := container.Scheduler.Run(ctx, scope, p.Run)
	if err != nil {
		logr.Error("scheduler run failed", zap.String("school_id", scope.SchoolID), zap.Error(err))
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logr.Error("write result failed", zap.Error(err))
		return 1
	}
	if len(result.Errors) > 0 || result.Cancelled {
		return 2
	}
	return 0
}

func tokenCommand(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	user := fs.String("user", "", "user id")
	role := fs.String("role", string(models.RoleAdmin), "SUPERADMIN, ADMIN or TEACHER")
	school := fs.String("school", "", "school id")
	campus := fs.String("campus", "", "campus id")
	ttl := fs.Duration("ttl", time.Hour, "token lifetime")
	_ = fs.Parse(args)

	if *user == "" || *school == "" {
		die(usage)
	}
	var campusID *string
	if *campus != "" {
		campusID = campus
	}
	auth := service.NewAuthService(service.AuthConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})
	token, err := auth.IssueToken(*user, models.UserRole(*role), *school, campusID, *ttl)
	if err != nil {
		die("issue token: %v", err)
	}
	fmt.Println(token)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
