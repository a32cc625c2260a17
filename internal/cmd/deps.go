package cmd

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/travatlanta/Sticky-sub003/internal/config"
	"github.com/travatlanta/Sticky-sub003/internal/logger"
	"github.com/travatlanta/Sticky-sub003/internal/repository"
)

func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, logger.New(cfg.Log.Level, cfg.Log.Pretty), nil
}

func credentials(cfg *config.Config) *repository.Credentials {
	return &repository.Credentials{
		Host:              cfg.DB.Host,
		Port:              cfg.DB.Port,
		User:              cfg.DB.User,
		Password:          cfg.DB.Password,
		DBName:            cfg.DB.Name,
		MigrationsDirPath: cfg.DB.MigrationsPath,
	}
}

// openRepository connects to Postgres and brings the schema up to date.
func openRepository(cfg *config.Config, log zerolog.Logger) (*repository.Repository, error) {
	cred := credentials(cfg)
	repo, err := repository.NewRepository(cred)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := repo.RunMigrations(cred); err != nil {
		repo.Close()
		return nil, err
	}
	log.Info().Str("host", cfg.DB.Host).Str("db", cfg.DB.Name).Msg("connected to postgres, migrations applied")
	return repo, nil
}
