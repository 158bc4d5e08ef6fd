package commands

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/shelforder/pkg/config"
	"github.com/wonny/shelforder/pkg/database"
)

// testDBCmd represents the test-db command
var testDBCmd = &cobra.Command{
	Use:   "test-db",
	Short: "Test the PostgreSQL connection",
	Long: `Connects to the database, pings it and prints pool statistics.
With --migrate the catalog and sorting tables are created if missing.

Example:
  go run ./cmd/shelforder test-db
  go run ./cmd/shelforder test-db --migrate`,
	RunE: runTestDB,
}

var testDBMigrate bool

func init() {
	rootCmd.AddCommand(testDBCmd)

	testDBCmd.Flags().BoolVar(&testDBMigrate, "migrate", false, "create missing tables")
}

func runTestDB(cmd *cobra.Command, args []string) error {
	fmt.Println("=== shelforder Database Connection Test ===")

	fmt.Println("Loading configuration...")
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("❌ Failed to load config: %w", err)
	}
	fmt.Printf("✅ Config loaded (ENV: %s)\n", cfg.Env)
	fmt.Printf("   Database URL: %s\n\n", maskPassword(cfg.Database.URL))

	fmt.Println("Connecting to database...")
	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("❌ Failed to connect to database: %w", err)
	}
	defer db.Close()
	fmt.Println("✅ Database connection established")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	status, err := db.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("❌ Health check failed: %w", err)
	}

	fmt.Println("✅ Health Check Results:")
	fmt.Printf("   Healthy: %v\n", status.Healthy)
	fmt.Printf("   Response Time: %v\n", status.ResponseTime)

	fmt.Println("📊 Connection Pool Statistics:")
	fmt.Printf("   Max Connections: %d\n", status.Stats.MaxConns)
	fmt.Printf("   Total Connections: %d\n", status.Stats.TotalConns)
	fmt.Printf("   Idle Connections: %d\n", status.Stats.IdleConns)

	if testDBMigrate {
		fmt.Println("Ensuring schema...")
		if err := db.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("❌ Schema setup failed: %w", err)
		}
		fmt.Println("✅ Schema ready")
	}

	fmt.Println("\n✅ All tests passed!")
	return nil
}

// maskPassword hides the password of a connection URL
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); !ok {
		return raw
	}
	u.User = url.UserPassword(u.User.Username(), "***")
	return u.String()
}
