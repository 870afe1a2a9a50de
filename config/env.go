package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Redis RedisConfig
	DB    DBConfig
	Cigam CigamConfig
	Auth  AuthConfig
	Sales SalesConfig
	Port  string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type CigamConfig struct {
	BaseURL        string
	Token          string
	TimeoutSeconds int
}

type AuthConfig struct {
	JWTSecret string
}

type SalesConfig struct {
	EcommerceStoreCode string
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	cigamTimeout, _ := strconv.Atoi(getEnv("CIGAM_TIMEOUT_SECONDS", "30"))

	return Config{
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", ""),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "cigamsync"),
		},
		Cigam: CigamConfig{
			BaseURL:        getEnv("CIGAM_BASE_URL", "http://localhost:9090"),
			Token:          getEnv("CIGAM_TOKEN", ""),
			TimeoutSeconds: cigamTimeout,
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Sales: SalesConfig{
			EcommerceStoreCode: getEnv("ECOMMERCE_STORE_CODE", "900"),
		},
		Port: getEnv("PORT", "8080"),
	}
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Name)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
