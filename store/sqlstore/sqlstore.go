// Package sqlstore is a rule store backed by a SQL database through gorm.
// MySQL, PostgreSQL and SQLite are supported.
package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/ezachrisen/verdict/store"
	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Config selects and configures the database.
type Config struct {
	Driver          string `yaml:"driver"` // mysql, postgres, sqlite
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	Database        string `yaml:"database"` // file name for sqlite; ":memory:" is allowed
	Charset         string `yaml:"charset"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime"` // seconds
}

// ruleRow is the rules table.
type ruleRow struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	RuleString string    `gorm:"column:rule_string;type:text;not null"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (ruleRow) TableName() string {
	return "rules"
}

func (r ruleRow) rule() store.Rule {
	return store.Rule{ID: r.ID, Text: r.RuleString, CreatedAt: r.CreatedAt}
}

// Store implements store.Store.
type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

// Open connects to the database and creates the rules table if needed. SQL
// statements are logged to log at debug level; log may be nil.
func Open(cfg Config, log *zap.Logger) (*Store, error) {
	dialector, err := dialect(cfg)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newGormLogger(log),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s database", cfg.Driver)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "getting connection pool")
	}
	if cfg.Driver == "sqlite" {
		// one writer; also keeps a :memory: database on a single connection
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}

	if err := db.AutoMigrate(&ruleRow{}); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrap(err, "migrating rules table")
	}
	return &Store{db: db}, nil
}

func dialect(cfg Config) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "mysql":
		charset := cfg.Charset
		if charset == "" {
			charset = "utf8mb4"
		}
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=UTC",
			cfg.Username,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.Database,
			charset,
		)
		return mysql.Open(dsn), nil
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.Host,
			cfg.Port,
			cfg.Username,
			cfg.Password,
			cfg.Database,
		)
		return postgres.Open(dsn), nil
	case "sqlite":
		if cfg.Database == "" {
			return nil, errors.New("sqlite needs a database file name")
		}
		return sqlite.Open(cfg.Database), nil
	default:
		return nil, errors.Errorf("unsupported database driver: %q", cfg.Driver)
	}
}

func (s *Store) Add(ctx context.Context, text string) (store.Rule, error) {
	row := ruleRow{RuleString: text, CreatedAt: time.Now().UTC()}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return store.Rule{}, errors.Wrap(err, "inserting rule")
	}
	return row.rule(), nil
}

func (s *Store) Get(ctx context.Context, id int64) (store.Rule, error) {
	var row ruleRow
	err := s.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.Rule{}, errors.Wrapf(store.ErrNotFound, "rule %d", id)
	}
	if err != nil {
		return store.Rule{}, errors.Wrapf(err, "reading rule %d", id)
	}
	return row.rule(), nil
}

func (s *Store) List(ctx context.Context) ([]store.Rule, error) {
	var rows []ruleRow
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "listing rules")
	}
	rules := make([]store.Rule, len(rows))
	for i, r := range rows {
		rules[i] = r.rule()
	}
	return rules, nil
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&ruleRow{}, id)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "deleting rule %d", id)
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(store.ErrNotFound, "rule %d", id)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
