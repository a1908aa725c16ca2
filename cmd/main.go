package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	v1 "studenthub/api/v1"
	"studenthub/config"
	"studenthub/dao"
	"studenthub/internal/cache"
	"studenthub/internal/mailer"
	"studenthub/internal/media"
	"studenthub/internal/pending"
	myvalidator "studenthub/internal/validator"
	"studenthub/middleware"
	"studenthub/service"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// 初始化配置
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "../"
	}
	config.InitConfig(configPath)
	config.InitRedis()
	db := config.InitMongo()

	// 初始化 DAO
	userDAO := dao.NewUserDAO(db)
	postDAO := dao.NewPostDAO(db)
	if err := userDAO.EnsureIndexes(context.Background()); err != nil {
		log.Fatalf("Failed to create user indexes: %v", err)
	}

	// 图床（S3 或兼容服务）
	uploader, err := buildUploader(context.Background(), logger)
	if err != nil {
		log.Fatalf("Failed to setup storage: %v", err)
	}

	// OTP 邮件通知队列
	otpMailer := mailer.New(
		config.GlobalConfig.SMTP.Host,
		config.GlobalConfig.SMTP.Port,
		config.GlobalConfig.SMTP.Username,
		config.GlobalConfig.SMTP.Password,
		config.GlobalConfig.SMTP.From,
		logger,
	)
	defer otpMailer.Close()

	// 待验证注册表：进程内、定时清理
	pendingTable := pending.NewTable(
		time.Duration(config.GlobalConfig.OTP.TTL)*time.Second,
		config.GlobalConfig.OTP.Digits,
	)

	// 初始化 Service 和 API
	feedCache := cache.New(config.RedisClient)
	authService := service.NewAuthService(userDAO, pendingTable, otpMailer, uploader)
	feedService := service.NewFeedService(postDAO, uploader, feedCache)
	authAPI := v1.NewAuthAPI(authService)
	postAPI := v1.NewPostAPI(feedService)

	// 初始化路由
	r := gin.Default()
	r.Use(middleware.CORS([]string{
		"http://localhost:5173",
		"https://studentcollaborationhub.onrender.com",
	}))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// 注册自定义校验器
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := v.RegisterValidation("otp", myvalidator.IsOTP); err != nil {
			panic(err)
		}
	}

	authn := middleware.AuthMiddleware(authService)

	// 公共路由
	auth := r.Group("/auth")
	{
		auth.POST("/signup", authAPI.Signup)
		auth.POST("/verify-email", authAPI.VerifyEmail)
		auth.POST("/login", authAPI.Login)
	}

	// 私有路由
	profile := r.Group("/auth")
	profile.Use(authn)
	{
		profile.GET("/profile", authAPI.GetProfile)
		profile.PUT("/profile/update", authAPI.UpdateProfile)
		profile.PUT("/profile/remove-pic", authAPI.RemoveProfilePicture)
	}

	posts := r.Group("/posts")
	posts.GET("/", postAPI.List)
	posts.Use(authn)
	{
		posts.POST("/", postAPI.Create)
		posts.POST("/:id/like", postAPI.Like)
		posts.POST("/:id/unlike", postAPI.Unlike)
		posts.POST("/:id/comment", postAPI.AddComment)
		posts.DELETE("/:id/comment/:commentId", postAPI.DeleteComment)
		posts.DELETE("/:id", postAPI.Delete)
	}

	// 启动服务
	if err := r.Run(config.GlobalConfig.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// buildUploader 构建 S3 客户端；endpoint 非空时走兼容服务（如 MinIO）
func buildUploader(ctx context.Context, logger *logrus.Logger) (media.Service, error) {
	storageCfg := config.GlobalConfig.Storage

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(storageCfg.Region))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if storageCfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(storageCfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 bucket %s (region %s)", storageCfg.Bucket, storageCfg.Region)
	return media.NewS3Service(client, storageCfg.Bucket, storageCfg.Region,
		storageCfg.KeyPrefix, storageCfg.PublicBaseURL), nil
}
