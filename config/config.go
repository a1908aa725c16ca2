package config

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/yaml.v3"
)

var ctx = context.Background()

type ServerConfig struct {
	Port string `yaml:"port"`
}

type MongoConfig struct {
	URI    string `yaml:"uri"`
	DBName string `yaml:"db_name"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TLS      bool   `yaml:"tls"`
}

type JWTConfig struct {
	Secret string `yaml:"secret"`
	// Expire 单位为秒，默认 7 天
	Expire int64 `yaml:"expire"`
}

type OTPConfig struct {
	// TTL 单位为秒，待验证注册的存活时间
	TTL    int64 `yaml:"ttl"`
	Digits int   `yaml:"digits"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type StorageConfig struct {
	Bucket        string `yaml:"bucket"`
	Region        string `yaml:"region"`
	Endpoint      string `yaml:"endpoint"`
	KeyPrefix     string `yaml:"key_prefix"`
	PublicBaseURL string `yaml:"public_base_url"`
}

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Mongo   MongoConfig   `yaml:"mongo"`
	Redis   RedisConfig   `yaml:"redis"`
	JWT     JWTConfig     `yaml:"jwt"`
	OTP     OTPConfig     `yaml:"otp"`
	SMTP    SMTPConfig    `yaml:"smtp"`
	Storage StorageConfig `yaml:"storage"`
}

var GlobalConfig *Config
var RedisClient *redis.Client
var MongoClient *mongo.Client

func InitConfig(path string) {
	data, err := os.ReadFile(path + "/config.yaml")
	if err != nil {
		log.Fatalf("Read config failed: %v", err)
	}
	if err := yaml.Unmarshal(data, &GlobalConfig); err != nil {
		log.Fatalf("Parse config failed: %v", err)
	}
	applyEnvOverrides()
}

func InitRedis() {
	opt := &redis.Options{
		Addr:     GlobalConfig.Redis.Addr,
		Password: GlobalConfig.Redis.Password,
		DB:       GlobalConfig.Redis.DB,
	}
	if GlobalConfig.Redis.TLS {
		opt.TLSConfig = &tls.Config{}
	}
	RedisClient = redis.NewClient(opt)
	if _, err := RedisClient.Ping(ctx).Result(); err != nil {
		panic(fmt.Sprintf("Redis connect failed: %v", err))
	}
	fmt.Println("Redis connected!")
}

// InitMongo 建立 MongoDB 连接并返回业务数据库句柄
func InitMongo() *mongo.Database {
	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connCtx, options.Client().ApplyURI(GlobalConfig.Mongo.URI))
	if err != nil {
		panic(fmt.Sprintf("Mongo connect failed: %v", err))
	}
	if err := client.Ping(connCtx, nil); err != nil {
		panic(fmt.Sprintf("Mongo ping failed: %v", err))
	}
	MongoClient = client
	fmt.Println("Mongo connected!")
	return client.Database(GlobalConfig.Mongo.DBName)
}

func applyEnvOverrides() {
	if GlobalConfig == nil {
		return
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		GlobalConfig.Server.Port = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		GlobalConfig.Mongo.URI = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		GlobalConfig.Mongo.DBName = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		GlobalConfig.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		GlobalConfig.Redis.Password = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		GlobalConfig.JWT.Secret = v
	}
	if v := os.Getenv("JWT_EXPIRE"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			GlobalConfig.JWT.Expire = parsed
		}
	}
	if v := os.Getenv("OTP_TTL"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			GlobalConfig.OTP.TTL = parsed
		}
	}
	if v := os.Getenv("MAIL_SERVER"); v != "" {
		GlobalConfig.SMTP.Host = v
	}
	if v := os.Getenv("MAIL_PORT"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			GlobalConfig.SMTP.Port = parsed
		}
	}
	if v := os.Getenv("MAIL_USERNAME"); v != "" {
		GlobalConfig.SMTP.Username = v
	}
	if v := os.Getenv("MAIL_PASSWORD"); v != "" {
		GlobalConfig.SMTP.Password = v
	}
	if v := os.Getenv("MAIL_FROM"); v != "" {
		GlobalConfig.SMTP.From = v
	}
	if v := os.Getenv("STORAGE_BUCKET"); v != "" {
		GlobalConfig.Storage.Bucket = v
	}
	if v := os.Getenv("STORAGE_REGION"); v != "" {
		GlobalConfig.Storage.Region = v
	}
	if v := os.Getenv("STORAGE_ENDPOINT"); v != "" {
		GlobalConfig.Storage.Endpoint = v
	}
	if v := os.Getenv("STORAGE_PUBLIC_BASE_URL"); v != "" {
		GlobalConfig.Storage.PublicBaseURL = v
	}
}
