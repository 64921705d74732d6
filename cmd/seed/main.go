package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"hotel_booking/internal/adapters/observability"
	"hotel_booking/internal/app"
	"hotel_booking/internal/shared"
	"hotel_booking/internal/storage"
)

func main() {
	cfg := shared.Load()

	// initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)
	shared.UseResolver(cfg.DNSServers)

	rootCmd := &cobra.Command{
		Use:   "seed",
		Short: "Load fixture data into the hotel booking store",
	}
	rootCmd.AddCommand(hotelsCmd(cfg))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func hotelsCmd(cfg shared.Config) *cobra.Command {
	var (
		file    string
		workers int
	)
	cmd := &cobra.Command{
		Use:   "hotels",
		Short: "Create the hotels listed in a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			hotels, err := loadHotels(file)
			if err != nil {
				return err
			}
			log.Info().
				Str("file", file).
				Str("driver", cfg.StoreDriver).
				Int("hotels", len(hotels)).
				Int("workers", workers).
				Msg("seed starting")

			store, closeStore, err := storage.Open(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			svc := app.NewSeedService(app.NewHotelService(store, nil, 0), workers)
			rep, err := svc.Seed(ctx, hotels)
			if err != nil {
				return err
			}
			log.Info().
				Int64("created", rep.Created).
				Int64("skipped", rep.Skipped).
				Int64("failed", rep.Failed).
				Msg("seed completed")
			if rep.Failed > 0 {
				return fmt.Errorf("%d hotels failed to seed", rep.Failed)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "hotels.yaml", "YAML file listing the hotels")
	cmd.Flags().IntVarP(&workers, "workers", "w", cfg.SeedWorkers, "concurrent creates")
	return cmd
}
