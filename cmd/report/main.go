package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"surfside/internal/config"
	"surfside/internal/database"
	"surfside/internal/logging"
	"surfside/internal/models"
	"surfside/internal/report"
)

func main() {
	date := flag.String("date", "", "report date (YYYY-MM-DD), defaults to today")
	out := flag.String("out", "", "output directory, defaults to exports.path")
	flag.Parse()

	if err := run(*date, *out); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run(date, out string) error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if closer != nil {
		defer closer.Close()
	}
	logger = logging.Component(logger, "report")

	location, err := cfg.Booking.Location()
	if err != nil {
		return err
	}
	if date == "" {
		date = time.Now().In(location).Format(models.DateLayout)
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return fmt.Errorf("invalid -date %q: %w", date, err)
	}
	if out == "" {
		out = cfg.Exports.Path
	}
	if err := os.MkdirAll(out, 0o755); err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	bookings, err := db.GetBookingsByDate(ctx, date)
	if err != nil {
		return err
	}
	roster, err := db.ListInstructors(ctx)
	if err != nil {
		return err
	}

	rep := report.BuildDaily(date, bookings, roster)
	path, err := report.SaveXLSX(rep, out)
	if err != nil {
		return err
	}

	logger.Info().Str("date", date).Int("bookings", rep.Total).Str("path", path).Msg("daily report written")
	fmt.Println(path)
	return nil
}
