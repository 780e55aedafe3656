package config

import (
	"fmt"
	"net"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"nyumbakumi/internal/adapters/persistence/memory"
	"nyumbakumi/internal/adapters/persistence/models"
	"nyumbakumi/internal/adapters/persistence/repositories"
)

// ConnectDatabase establishes connection to the configured SQL database
func ConnectDatabase(cfg *Config, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "postgres":
		dialector = postgres.Open(buildPostgresDSN(cfg.Database))
	default:
		dialector = mysql.Open(buildMySQLDSN(cfg.Database))
	}

	// Configure GORM logger based on mode
	var gormLogger logger.Interface
	if cfg.IsDev() {
		gormLogger = logger.Default.LogMode(logger.Info)
	} else {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB for connection pool settings
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("database connected",
		zap.String("driver", cfg.Database.Driver),
		zap.String("host", cfg.Database.Host),
		zap.String("port", cfg.Database.Port),
		zap.String("db", cfg.Database.DBName),
	)
	return db, nil
}

// buildMySQLDSN returns the mysql connection string
func buildMySQLDSN(d DatabaseConfig) string {
	dsn := mysqldriver.NewConfig()
	dsn.User = d.User
	dsn.Passwd = d.Password
	dsn.Net = "tcp"
	dsn.Addr = net.JoinHostPort(d.Host, d.Port)
	dsn.DBName = d.DBName
	dsn.ParseTime = true
	dsn.Loc = time.Local
	dsn.Params = map[string]string{"charset": "utf8mb4"}
	return dsn.FormatDSN()
}

// buildPostgresDSN returns the postgres connection string
func buildPostgresDSN(d DatabaseConfig) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		d.Host,
		d.User,
		d.Password,
		d.DBName,
		d.Port,
	)
}

// OpenStore opens the entity store for the configured driver, migrating and
// seeding SQL databases. The returned close func releases the connection and
// the health func pings it.
func OpenStore(cfg *Config, log *zap.Logger) (*repositories.Store, func() error, func() error, error) {
	noop := func() error { return nil }

	if cfg.Database.Driver == "memory" {
		log.Warn("using in-memory store; data is lost on restart")
		store := memory.NewStore()
		if err := NewSeeder(store.Users, cfg.Seed, log).Run(); err != nil {
			return nil, nil, nil, err
		}
		return store, noop, noop, nil
	}

	db, err := ConnectDatabase(cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}

	if err := models.AutoMigrate(db); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Info("database migrated")

	store := repositories.NewStore(db, cfg.Database.QueryTimeout)
	if err := NewSeeder(store.Users, cfg.Seed, log).Run(); err != nil {
		return nil, nil, nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, nil, err
	}
	return store, sqlDB.Close, sqlDB.Ping, nil
}
