// Package integration runs the membership flows against a real PostgreSQL
// started with testcontainers and migrated with the SQL files under
// migrations/. One container serves the whole package; every test starts
// from empty tables. The tests are skipped with -short.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/onixgym/backend/internal/domain/membership"
	"github.com/onixgym/backend/internal/infrastructure/logger"
	"github.com/onixgym/backend/internal/infrastructure/migration"
	"github.com/onixgym/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// membershipTables are emptied before each test, children first
var membershipTables = []string{"outbox_events", "carnets", "pagos", "cliente", "entrenador", "usuario"}

// postgresEnv is the container shared by the package
type postgresEnv struct {
	container testcontainers.Container
	dsn       string
	err       error
}

var env postgresEnv

// startPostgres runs from TestMain. A failure is kept and reported by
// NewTestDB, so a machine without Docker skips instead of failing.
func startPostgres() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("onixgym_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("admin123"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		env.err = fmt.Errorf("start postgres: %w", err)
		return
	}
	env.container = container

	env.dsn, err = container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		env.err = fmt.Errorf("postgres dsn: %w", err)
		return
	}

	sqlDB, err := sql.Open("postgres", env.dsn)
	if err != nil {
		env.err = err
		return
	}
	defer sqlDB.Close()
	if err := migration.ApplyUp(sqlDB, migrationsPath(), zap.NewNop()); err != nil {
		env.err = fmt.Errorf("migrate: %w", err)
	}
}

func stopPostgres() {
	if env.container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = env.container.Terminate(ctx)
}

// TestDB is one test's view of the shared database
type TestDB struct {
	DB    *gorm.DB
	SqlDB *sql.DB
	t     *testing.T
}

// NewTestDB connects to the shared container and empties every table. SQL
// is logged through the test logger when TEST_DB_DEBUG is set.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if env.err != nil {
		t.Skipf("PostgreSQL unavailable: %v", env.err)
	}

	level := "silent"
	if os.Getenv("TEST_DB_DEBUG") != "" {
		level = "debug"
	}
	db, err := gorm.Open(gormpostgres.Open(env.dsn), &gorm.Config{
		Logger:         logger.NewGormLogger(zaptest.NewLogger(t), logger.GormConfig{Level: level}),
		TranslateError: true,
	})
	require.NoError(t, err, "connect to test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(10)
	t.Cleanup(func() { _ = sqlDB.Close() })

	tdb := &TestDB{DB: db, SqlDB: sqlDB, t: t}
	tdb.truncate()
	return tdb
}

func (tdb *TestDB) truncate() {
	tdb.t.Helper()
	stmt := "TRUNCATE TABLE " + strings.Join(membershipTables, ", ") + " RESTART IDENTITY CASCADE"
	require.NoError(tdb.t, tdb.DB.Exec(stmt).Error, "truncate membership tables")
}

// CreateAccount inserts a usuario with the given role and password
func (tdb *TestDB) CreateAccount(username, password string, role membership.Role) *membership.Account {
	tdb.t.Helper()

	account, err := membership.NewAccount(username, username+"@onixgym.test", password, role)
	require.NoError(tdb.t, err, "build account")
	require.NoError(tdb.t, persistence.NewGormAccountRepository(tdb.DB).Create(context.Background(), account), "create account")
	return account
}

// CreateTrainer inserts an entrenador and returns its ID
func (tdb *TestDB) CreateTrainer(dni, name, surname string, available bool) uuid.UUID {
	tdb.t.Helper()

	id := uuid.New()
	err := tdb.DB.Exec(
		`INSERT INTO entrenador (id, dni, nombre, apellido, disponible) VALUES (?, ?, ?, ?, ?)`,
		id, dni, name, surname, available,
	).Error
	require.NoError(tdb.t, err, "create trainer")
	return id
}

// RepoRoot is the module root, where migrations/ and assets/ live
func RepoRoot() string {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return ""
	}
	return filepath.Join(filepath.Dir(file), "..", "..")
}

func migrationsPath() string {
	return filepath.Join(RepoRoot(), "migrations")
}
