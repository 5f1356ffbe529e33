package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"finapp-backend/internal/domain/loan"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	AppPort  string
	LogLevel string

	DBDriver    string // mysql | sqlite
	SQLitePath  string
	AutoMigrate bool

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	RedisAddr string
	RedisDB   int

	IdempTTLSecs int

	NATSURL     string
	NATSSubject string

	JWTSecret   string
	JWTIssuer   string
	JWTTTLHours int

	TimeZone string

	Loan     LoanConfig
	Reminder ReminderConfig
	Report   ReportConfig
}

type LoanConfig struct {
	DurationUnit   string
	PeriodUnit     string
	AbsorbRounding bool

	MinPrincipal decimal.Decimal
	MaxPrincipal decimal.Decimal
	MinDuration  int
	MaxDuration  int

	OnePaymentPerPeriod bool
	TxAttempts          int
}

type ReminderConfig struct {
	Window      int
	Workers     int
	MorningAt   string
	MiddayAt    string
	AfternoonAt string
}

type ReportConfig struct {
	DailyAt string
	Store   string // s3 | dir | none

	Dir string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Prefix    string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("SQLITE_PATH", "finapp.db")
	v.SetDefault("AUTO_MIGRATE", false)

	v.SetDefault("MYSQL_HOST", "mysql")
	v.SetDefault("MYSQL_PORT", "3306")
	v.SetDefault("MYSQL_DB", "finapp")
	v.SetDefault("MYSQL_USER", "finapp")
	v.SetDefault("MYSQL_PASS", "finapp")

	v.SetDefault("REDIS_ADDR", "redis:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("IDEMPOTENCY_TTL_SECONDS", 300)

	v.SetDefault("NATS_URL", "")
	v.SetDefault("NATS_SUBJECT", "finapp.notifications")

	v.SetDefault("JWT_ISSUER", "finapp-backend")
	v.SetDefault("JWT_TTL_HOURS", 24)

	v.SetDefault("TIME_ZONE", "Asia/Kolkata")

	v.SetDefault("LOAN_DURATION_UNIT", string(loan.DurationMonths))
	v.SetDefault("LOAN_PERIOD_UNIT", string(loan.PeriodMonth))
	v.SetDefault("LOAN_ABSORB_ROUNDING", false)
	v.SetDefault("LOAN_MIN_PRINCIPAL", "1000")
	v.SetDefault("LOAN_MAX_PRINCIPAL", "10000000")
	v.SetDefault("LOAN_MIN_DURATION", 1)
	v.SetDefault("LOAN_MAX_DURATION", 360)
	v.SetDefault("LOAN_ONE_PAYMENT_PER_PERIOD", false)
	v.SetDefault("LOAN_TX_ATTEMPTS", 3)

	v.SetDefault("REMINDER_WINDOW_DAYS", 10)
	v.SetDefault("REMINDER_WORKERS", 8)
	v.SetDefault("REMINDER_MORNING_AT", "09:00")
	v.SetDefault("REMINDER_MIDDAY_AT", "12:00")
	v.SetDefault("REMINDER_AFTERNOON_AT", "15:00")

	v.SetDefault("REPORT_DAILY_AT", "00:05")
	v.SetDefault("REPORT_STORE", "dir")
	v.SetDefault("REPORT_DIR", "reports")
	v.SetDefault("REPORT_S3_REGION", "auto")
	v.SetDefault("REPORT_S3_PREFIX", "daily-collections/")
}

// Load reads .env (if any), an optional configs/config.yaml and the
// environment, in increasing priority.
func Load() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile("configs/config.yaml")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Debug("config: no config file found, using env and defaults")
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) *Config {
	c := &Config{
		AppPort:  v.GetString("APP_PORT"),
		LogLevel: v.GetString("LOG_LEVEL"),

		DBDriver:    strings.ToLower(v.GetString("DB_DRIVER")),
		SQLitePath:  v.GetString("SQLITE_PATH"),
		AutoMigrate: v.GetBool("AUTO_MIGRATE"),

		MySQLHost: v.GetString("MYSQL_HOST"),
		MySQLPort: v.GetString("MYSQL_PORT"),
		MySQLDB:   v.GetString("MYSQL_DB"),
		MySQLUser: v.GetString("MYSQL_USER"),
		MySQLPass: v.GetString("MYSQL_PASS"),

		RedisAddr:    v.GetString("REDIS_ADDR"),
		RedisDB:      v.GetInt("REDIS_DB"),
		IdempTTLSecs: v.GetInt("IDEMPOTENCY_TTL_SECONDS"),

		NATSURL:     v.GetString("NATS_URL"),
		NATSSubject: v.GetString("NATS_SUBJECT"),

		JWTSecret:   v.GetString("JWT_SECRET"),
		JWTIssuer:   v.GetString("JWT_ISSUER"),
		JWTTTLHours: v.GetInt("JWT_TTL_HOURS"),

		TimeZone: v.GetString("TIME_ZONE"),

		Loan: LoanConfig{
			DurationUnit:        v.GetString("LOAN_DURATION_UNIT"),
			PeriodUnit:          v.GetString("LOAN_PERIOD_UNIT"),
			AbsorbRounding:      v.GetBool("LOAN_ABSORB_ROUNDING"),
			MinDuration:         v.GetInt("LOAN_MIN_DURATION"),
			MaxDuration:         v.GetInt("LOAN_MAX_DURATION"),
			OnePaymentPerPeriod: v.GetBool("LOAN_ONE_PAYMENT_PER_PERIOD"),
			TxAttempts:          v.GetInt("LOAN_TX_ATTEMPTS"),
		},
		Reminder: ReminderConfig{
			Window:      v.GetInt("REMINDER_WINDOW_DAYS"),
			Workers:     v.GetInt("REMINDER_WORKERS"),
			MorningAt:   v.GetString("REMINDER_MORNING_AT"),
			MiddayAt:    v.GetString("REMINDER_MIDDAY_AT"),
			AfternoonAt: v.GetString("REMINDER_AFTERNOON_AT"),
		},
		Report: ReportConfig{
			DailyAt:     v.GetString("REPORT_DAILY_AT"),
			Store:       strings.ToLower(v.GetString("REPORT_STORE")),
			Dir:         v.GetString("REPORT_DIR"),
			S3Bucket:    v.GetString("REPORT_S3_BUCKET"),
			S3Region:    v.GetString("REPORT_S3_REGION"),
			S3Endpoint:  v.GetString("REPORT_S3_ENDPOINT"),
			S3AccessKey: v.GetString("REPORT_S3_ACCESS_KEY"),
			S3SecretKey: v.GetString("REPORT_S3_SECRET_KEY"),
			S3Prefix:    v.GetString("REPORT_S3_PREFIX"),
		},
	}
	// bad amounts fall back to zero and are caught by Validate
	c.Loan.MinPrincipal, _ = decimal.NewFromString(v.GetString("LOAN_MIN_PRINCIPAL"))
	c.Loan.MaxPrincipal, _ = decimal.NewFromString(v.GetString("LOAN_MAX_PRINCIPAL"))
	return c
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case "mysql":
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		// ensure port is valid
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	default:
		return fmt.Errorf("invalid DB_DRIVER %q (mysql|sqlite)", c.DBDriver)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if len(c.JWTSecret) < 16 {
		return errors.New("JWT_SECRET must be at least 16 characters")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid TIME_ZONE %q: %w", c.TimeZone, err)
	}
	if err := c.LoanPolicy().Validate(); err != nil {
		return err
	}
	l := c.Loan
	if !l.MinPrincipal.IsPositive() || l.MaxPrincipal.LessThan(l.MinPrincipal) {
		return errors.New("LOAN_MIN_PRINCIPAL must be positive and not above LOAN_MAX_PRINCIPAL")
	}
	if l.MinDuration < 1 || l.MaxDuration < l.MinDuration {
		return errors.New("LOAN_MIN_DURATION must be >= 1 and not above LOAN_MAX_DURATION")
	}
	if c.Reminder.Window < 1 || c.Reminder.Window > 28 {
		return errors.New("REMINDER_WINDOW_DAYS must be between 1 and 28")
	}
	for name, at := range map[string]string{
		"REMINDER_MORNING_AT":   c.Reminder.MorningAt,
		"REMINDER_MIDDAY_AT":    c.Reminder.MiddayAt,
		"REMINDER_AFTERNOON_AT": c.Reminder.AfternoonAt,
		"REPORT_DAILY_AT":       c.Report.DailyAt,
	} {
		if _, err := time.Parse("15:04", at); err != nil {
			return fmt.Errorf("invalid %s %q (want HH:MM)", name, at)
		}
	}
	switch c.Report.Store {
	case "dir", "none":
	case "s3":
		if c.Report.S3Bucket == "" {
			return errors.New("REPORT_S3_BUCKET is required for REPORT_STORE=s3")
		}
	default:
		return fmt.Errorf("invalid REPORT_STORE %q (s3|dir|none)", c.Report.Store)
	}
	return nil
}

func (c *Config) Location() (*time.Location, error) { return time.LoadLocation(c.TimeZone) }

func (c *Config) LoanPolicy() loan.Policy {
	return loan.Policy{
		DurationUnit:   loan.DurationUnit(c.Loan.DurationUnit),
		PeriodUnit:     loan.PeriodUnit(c.Loan.PeriodUnit),
		AbsorbRounding: c.Loan.AbsorbRounding,
	}
}

func (c *Config) IdempotencyTTL() time.Duration { return time.Duration(c.IdempTTLSecs) * time.Second }

func (c *Config) JWTTTL() time.Duration { return time.Duration(c.JWTTTLHours) * time.Hour }

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// multiStatements=true is handy for migrations; parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&loc=UTC&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
