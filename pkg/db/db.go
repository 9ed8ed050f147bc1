package db

import (
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"liyu1981.xyz/robot-fleet-service/pkg/common"
	"liyu1981.xyz/robot-fleet-service/pkg/models"
)

type DB struct {
	Conn *gorm.DB
}

var (
	instance *DB
	once     sync.Once
)

// GetInstance returns the process-wide database, opening and migrating it on
// first use.
func GetInstance(dialector gorm.Dialector) *DB {
	once.Do(func() {
		var err error
		if instance, err = Open(dialector); err != nil {
			log.Fatal("Failed to open database:", err)
		}
	})
	return instance
}

// Open connects a fresh database handle and migrates the fleet schema into
// it. Used directly by tests that need a table nobody else writes to.
func Open(dialector gorm.Dialector) (*DB, error) {
	logger := common.GetLogger()

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	logger.Info("Connected to database with dialector:", zap.String("dialector", dialector.Name()))

	if err := conn.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("enable sqlite foreign key support: %w", err)
	}

	if err := conn.Exec("PRAGMA journal_mode = WAL").Error; err != nil {
		return nil, fmt.Errorf("set sqlite journal mode: %w", err)
	}

	if err := conn.AutoMigrate(&models.Workset{}, &models.Robot{}, &models.AuditLog{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	logger.Info("Database migration completed")

	return &DB{Conn: conn}, nil
}

const slowQueryThreshold = 200 * time.Millisecond

func gormLogger() gormlogger.Interface {
	level := gormlogger.Warn
	if common.IsTestEnv() {
		level = gormlogger.Silent
	}
	return newGormLogger(common.GetLoggerWith(common.LoggerNameDB), level)
}

// newGormLogger writes gorm's slow query and error reports into zl.
func newGormLogger(zl *zap.Logger, level gormlogger.LogLevel) gormlogger.Interface {
	return gormlogger.New(zap.NewStdLog(zl), gormlogger.Config{
		SlowThreshold:             slowQueryThreshold,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

func UseSqliteDialector() gorm.Dialector {
	var dbPath string
	var found bool
	if dbPath, found = os.LookupEnv(common.EnvKeyFleetDbPath); !found || dbPath == "" {
		dbPath = "fleet.db"
	}
	return sqlite.Open(dbPath)
}

func UseMemorySqliteDialector() gorm.Dialector {
	return sqlite.Open("file::memory:?cache=shared")
}

// UseNamedMemorySqliteDialector gives each name its own in-memory database.
func UseNamedMemorySqliteDialector(name string) gorm.Dialector {
	return sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
}
