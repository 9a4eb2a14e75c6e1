package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/yungbote/matchweek-backend/internal/logger"
	"github.com/yungbote/matchweek-backend/internal/types"
	"github.com/yungbote/matchweek-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	log.Info("Loading environment variables...")
	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "matchweek", log)
	log.Debug("Environment variables loaded")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("Failed to connect to Postgres: %w", err)
	}

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		log.Error("Failed to enable uuid-ossp extension", "error", err)
		return nil, fmt.Errorf("Failed to enable uuid-ossp extension: %w", err)
	}
	log.Info("uuid-ossp extension enabled")

	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.Tenant{},
		&types.User{},
		&types.UserToken{},
		&types.UserBlock{},
		&types.SurveyDefinition{},
		&types.SurveySession{},
		&types.SurveyReconciliationState{},
		&types.UserTraits{},
		&types.WeeklyAssignment{},
		&types.MatchRunLog{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}
	s.log.Info("Configuring foreign key relationships for postgres tables...")
	constraints := []struct {
		name string
		stmt string
	}{
		{"fk_user_tenant_id", `
			ALTER TABLE "user"
			ADD CONSTRAINT "fk_user_tenant_id"
			FOREIGN KEY ("tenant_id")
			REFERENCES "tenant"("id")
			ON DELETE CASCADE`},
		{"fk_user_token_user_id", `
			ALTER TABLE "user_token"
			ADD CONSTRAINT "fk_user_token_user_id"
			FOREIGN KEY ("user_id")
			REFERENCES "user"("id")
			ON DELETE CASCADE`},
		{"fk_survey_session_user_id", `
			ALTER TABLE "survey_session"
			ADD CONSTRAINT "fk_survey_session_user_id"
			FOREIGN KEY ("user_id")
			REFERENCES "user"("id")
			ON DELETE CASCADE`},
		{"fk_recon_state_user_id", `
			ALTER TABLE "survey_reconciliation_state"
			ADD CONSTRAINT "fk_recon_state_user_id"
			FOREIGN KEY ("user_id")
			REFERENCES "user"("id")
			ON DELETE CASCADE`},
		{"fk_user_traits_user_id", `
			ALTER TABLE "user_traits"
			ADD CONSTRAINT "fk_user_traits_user_id"
			FOREIGN KEY ("user_id")
			REFERENCES "user"("id")
			ON DELETE CASCADE`},
		{"fk_weekly_assignment_user_id", `
			ALTER TABLE "weekly_assignment"
			ADD CONSTRAINT "fk_weekly_assignment_user_id"
			FOREIGN KEY ("user_id")
			REFERENCES "user"("id")
			ON DELETE CASCADE`},
	}
	for _, c := range constraints {
		if err := s.db.Exec(fmt.Sprintf(`
			DO $$ BEGIN
				IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%s') THEN
					%s;
				END IF;
			END $$;`, c.name, c.stmt)).Error; err != nil {
			return fmt.Errorf("Failed to add %s: %w", c.name, err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
