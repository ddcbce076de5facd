package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 结构体包含所有应用的配置
type Config struct {
	Server    ServerConfig    `mapstructure:"server"` // `mapstructure` 标签用于Viper绑定结构体
	Storage   StorageConfig   `mapstructure:"storage"`
	Upload    UploadConfig    `mapstructure:"upload"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	MinIO     MinIOConfig     `mapstructure:"minio"`
	AliyunOSS AliyunOSSConfig `mapstructure:"aliyun_oss"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig 服务器配置
// 相机 API 与仪表盘分别监听不同端口,相机通过 DNS 重写访问 PublicBaseURL
type ServerConfig struct {
	CameraPort    string `mapstructure:"camera_port"`
	DashboardPort string `mapstructure:"dashboard_port"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// StorageConfig 本地存储配置
type StorageConfig struct {
	UploadDir string `mapstructure:"upload_dir"`
	CertDir   string `mapstructure:"cert_dir"`
}

// UploadConfig 上传协议相关参数
type UploadConfig struct {
	ChunkSize      int64 `mapstructure:"chunk_size"`       // 单个分片大小(字节)
	MaxParts       int   `mapstructure:"max_parts"`        // 分片数量上限,约束最坏情况下的文件大小
	RealtimeBatch  int   `mapstructure:"realtime_batch"`   // 实时上传一次扩展的分片数
	HistoryLimit   int   `mapstructure:"history_limit"`    // 上传历史最大条目数
	AuthEntryLimit int   `mapstructure:"auth_entry_limit"` // 配对码/令牌登记上限
}

// ArchiveConfig 归档镜像配置,type 为空表示禁用
type ArchiveConfig struct {
	Type string `mapstructure:"type"` // "", "minio", "aliyun_oss"
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

type AliyunOSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"` // 例如: oss-cn-hangzhou.aliyuncs.com
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"` // OSS SDK 默认是HTTPS，但为了明确
}

// JWTConfig JWT配置
type JWTConfig struct {
	SecretKey string        `mapstructure:"secret_key"`
	ExpiresIn time.Duration `mapstructure:"expires_in"`
	Issuer    string        `mapstructure:"issuer"`
}

// zap日志配置
type LogConfig struct {
	OutputPath string `mapstructure:"output_path"`
	ErrorPath  string `mapstructure:"error_path"`
	Level      string `mapstructure:"level"`
}

var AppConfig *Config // 全局应用配置实例

// LoadConfig 加载配置
// 配置文件缺失不是致命错误:容器环境通常只依赖 FRAMEDROP_* 环境变量和默认值
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")          // 配置文件名 (不带扩展名)
	viper.SetConfigType("yaml")            // 配置文件类型
	viper.AddConfigPath(".")               // 在当前目录查找配置文件
	viper.AddConfigPath("./configs")       // 也可以添加其他路径，例如 ./configs/
	viper.AddConfigPath("/etc/framedrop/") // 生产环境常见路径

	// 读取环境变量，环境变量名将自动转换为大写，并用下划线替换点
	// 例如：SERVER.CAMERA_PORT 对应环境变量 FRAMEDROP_SERVER_CAMERA_PORT
	viper.SetEnvPrefix("FRAMEDROP")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 默认值 (如果配置文件和环境变量中都没有，则使用这些默认值)
	viper.SetDefault("server.camera_port", "443")
	viper.SetDefault("server.dashboard_port", "3000")
	viper.SetDefault("server.public_base_url", "https://api.frame.io")
	viper.SetDefault("storage.upload_dir", "/uploads")
	viper.SetDefault("storage.cert_dir", "/certs")
	viper.SetDefault("upload.chunk_size", 25*1024*1024) // 25 MiB 每个分片
	viper.SetDefault("upload.max_parts", 4000)          // 上限约 100 GB
	viper.SetDefault("upload.realtime_batch", 5)
	viper.SetDefault("upload.history_limit", 500)
	viper.SetDefault("upload.auth_entry_limit", 100)
	viper.SetDefault("archive.type", "")
	viper.SetDefault("jwt.secret_key", "framedrop-local-secret")
	viper.SetDefault("jwt.expires_in", 8760*time.Hour) // 1 年,相机不常刷新
	viper.SetDefault("jwt.issuer", "framedrop")
	viper.SetDefault("log.output_path", "logs/app.log")
	viper.SetDefault("log.error_path", "logs/error.log")
	viper.SetDefault("log.level", "info")

	// 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Warning: config file not found, using environment variables or default values.")
		} else {
			// 其他读取错误，例如配置文件格式错误
			log.Printf("Fatal error reading config file: %s \n", err)
			return nil, err
		}
	}

	// 将读取到的配置绑定到结构体
	AppConfig = &Config{}
	if err := viper.Unmarshal(AppConfig); err != nil {
		log.Printf("Fatal error unmarshaling config: %s \n", err)
		return nil, err
	}

	return AppConfig, nil
}
