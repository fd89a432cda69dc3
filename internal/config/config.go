package config

import (
	"log"

	"github.com/spf13/viper"
)

// Init wires viper to the .env file and environment so every package can
// read configuration through viper directly.
func Init() {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.BindEnv("agent.role", "AGENT_ROLE")
	viper.BindEnv("agent.port", "AGENT_PORT")
	viper.BindEnv("agent.peer_url", "AGENT_PEER_URL")
	viper.BindEnv("agent.client_id", "AGENT_CLIENT_ID")
	viper.BindEnv("agent.client_secret", "AGENT_CLIENT_SECRET")
	viper.BindEnv("agent.peer_client_id", "AGENT_PEER_CLIENT_ID")
	viper.BindEnv("agent.peer_client_secret", "AGENT_PEER_CLIENT_SECRET")
	viper.BindEnv("agent.sign_results", "AGENT_SIGN_RESULTS")

	viper.BindEnv("oracle.base_url", "ORACLE_BASE_URL")
	viper.BindEnv("oracle.timeout_seconds", "ORACLE_TIMEOUT_SECONDS")

	viper.BindEnv("proof.secret", "PROOF_SECRET")
	viper.BindEnv("proof.verbose_decode", "PROOF_VERBOSE_DECODE")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.expiry_hours", "JWT_EXPIRY_HOURS")

	viper.BindEnv("argon2.time", "ARGON2_TIME")
	viper.BindEnv("argon2.memory", "ARGON2_MEMORY")
	viper.BindEnv("argon2.threads", "ARGON2_THREADS")
	viper.BindEnv("argon2.key_length", "ARGON2_KEY_LENGTH")
	viper.BindEnv("argon2.salt_length", "ARGON2_SALT_LENGTH")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("store.backend", "STORE_BACKEND")
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("negotiation.max_rounds", "NEGOTIATION_MAX_ROUNDS")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}
}

func setDefaults() {
	viper.SetDefault("agent.role", "requester")
	viper.SetDefault("agent.port", "8080")
	viper.SetDefault("agent.peer_url", "http://localhost:8081")
	viper.SetDefault("agent.sign_results", false)

	viper.SetDefault("oracle.base_url", "https://hermes.pyth.network")
	viper.SetDefault("oracle.timeout_seconds", 5)

	viper.SetDefault("proof.secret", "dev-proof-secret")
	viper.SetDefault("proof.verbose_decode", false)

	viper.SetDefault("jwt.secret_key", "dev-jwt-secret")
	viper.SetDefault("jwt.expiry_hours", 24)

	viper.SetDefault("argon2.time", 1)
	viper.SetDefault("argon2.memory", 64*1024)
	viper.SetDefault("argon2.threads", 4)
	viper.SetDefault("argon2.key_length", 32)
	viper.SetDefault("argon2.salt_length", 16)

	viper.SetDefault("store.backend", "memory")

	viper.SetDefault("negotiation.max_rounds", 8)
}
