package core

import (
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Database engines
const (
	EngineMongo    = "mongo"
	EnginePostgres = "postgres"
	EngineSQLite   = "sqlite"
	EngineMemory   = "memory"
)

type (
	Config struct {
		AppName      string
		Env          string // DEV (local; default), TEST, QA, PROD
		Build        string
		Debug        bool
		TestMode     bool
		SecretKey    string
		RollbarToken string
		Server       ServerConfig
		Database     DatabaseConfig
		Nats         NatsConfig
	}

	ServerConfig struct {
		Host                      string
		Address                   string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine         string
		ConnectTimeout time.Duration

		// file-based database used whenever the configured engine is unreachable
		FallbackEnabled bool
		SQLitePath      string

		MongoURI  string
		MongoName string

		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	NatsConfig struct {
		URL            string
		SubjectPrefix  string
		ConnectTimeout time.Duration
	}
)

// Address returns the postgres host:port pair.
func (dbc DatabaseConfig) Address() string {
	return net.JoinHostPort(dbc.Host, strconv.Itoa(dbc.Port))
}

func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("appName", "Ratiba")
	v.SetDefault("build", "develop")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("secretKey", "k3v9-fq)w1zb$+xk=dz&uoa7(h!r)#*c2(#yg4h^$ceqm2pt")
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)

	v.SetDefault("database.engine", EngineMongo)
	v.SetDefault("database.connectTimeout", 10*time.Second)
	v.SetDefault("database.fallbackEnabled", true)
	v.SetDefault("database.sqlitePath", filepath.Join("data", "ratiba.db"))
	v.SetDefault("database.mongoURI", "mongodb://localhost:27017")
	v.SetDefault("database.mongoName", "ratiba")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "ratiba")
	v.SetDefault("database.user", "ratiba")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", false)

	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subjectPrefix", "ratiba.timetable")
	v.SetDefault("nats.connectTimeout", 5*time.Second)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
		v.SetDefault("database.engine", EngineMemory)
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	// RATIBA_DATABASE_ENGINE -> database.engine
	v.SetEnvPrefix("ratiba")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{
		AppName:      v.GetString("appName"),
		Env:          env,
		Build:        v.GetString("build"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		SecretKey:    v.GetString("secretKey"),
		RollbarToken: v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Address:                   v.GetString("server.address"),
			DebugHost:                 v.GetString("server.debugHost"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:          strings.ToLower(v.GetString("database.engine")),
			ConnectTimeout:  v.GetDuration("database.connectTimeout"),
			FallbackEnabled: v.GetBool("database.fallbackEnabled"),
			SQLitePath:      v.GetString("database.sqlitePath"),
			MongoURI:        v.GetString("database.mongoURI"),
			MongoName:       v.GetString("database.mongoName"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			Name:            v.GetString("database.name"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			AdminUser:       v.GetString("database.adminUser"),
			AdminPassword:   v.GetString("database.adminPassword"),
			DisableTLS:      v.GetBool("database.disableTLS"),
		},
		Nats: NatsConfig{
			URL:            v.GetString("nats.url"),
			SubjectPrefix:  v.GetString("nats.subjectPrefix"),
			ConnectTimeout: v.GetDuration("nats.connectTimeout"),
		},
	}
}
