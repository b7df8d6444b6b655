package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xavierca1/raccordement-leads/internal/config"
	"github.com/xavierca1/raccordement-leads/internal/infra/auth"
	"github.com/xavierca1/raccordement-leads/internal/infra/database"
	"github.com/xavierca1/raccordement-leads/internal/infra/logger"
	"github.com/xavierca1/raccordement-leads/internal/usecase"
)

var (
	configDir string
	zl        *zap.Logger

	adminEmail    string
	adminName     string
	adminPassword string
)

var rootCmd = &cobra.Command{
	Use:           "leadctl",
	Short:         "Ferramentas de operação da API de raccordement",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if zl != nil {
			return nil
		}
		l, err := logger.New("info", "console")
		if err != nil {
			return err
		}
		zl = l
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Aplica as migrações pendentes",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

var seedCmd = &cobra.Command{
	Use:   "seed <file.yaml>",
	Short: "Carrega templates de email e automações a partir de um arquivo YAML",
	Args:  cobra.ExactArgs(1),
	RunE:  runSeed,
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Cria um usuário administrador",
	Args:  cobra.NoArgs,
	RunE:  runCreateAdmin,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "diretório contendo config.yaml")

	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "email do administrador")
	createAdminCmd.Flags().StringVar(&adminName, "name", "Administrateur", "nome exibido")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "senha (mínimo 8 caracteres)")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(migrateCmd, seedCmd, createAdminCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func openDB() (*sql.DB, error) {
	var paths []string
	if configDir != "" {
		paths = append(paths, configDir)
	}
	cfg, err := config.LoadDatabase(paths...)
	if err != nil {
		return nil, err
	}
	return database.NewDBConnection(cfg.Database.URL, database.PoolConfig{MaxOpenConns: 2, MaxIdleConns: 1})
}

func runMigrate(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := database.Migrate(cmd.Context(), db, zl)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ %d migration(s) applied\n", applied)
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	seed, err := readSeedFile(args[0])
	if err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := applySeed(cmd.Context(), seed, database.NewTemplateRepository(db), database.NewAutomationRepository(db))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ templates: %d created, %d updated; automations: %d\n",
		res.TemplatesCreated, res.TemplatesUpdated, res.Automations)
	return nil
}

func runCreateAdmin(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	users := usecase.NewUserUseCase(database.NewUserRepository(db), auth.NewBcryptHasher(), nil, zl)
	u, err := createAdmin(cmd.Context(), users, adminEmail, adminName, adminPassword)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ admin %s created (%s)\n", u.Email, u.ID)
	return nil
}
