package config

import "sync"

var (
	s3Once      sync.Once
	s3Config    *S3Config
	minioOnce   sync.Once
	minioConfig *MinioConfig
)

type S3Config struct {
	BucketName string
	Region     string
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Prefix     string
}

type MinioConfig struct {
	AccessKey  string
	SecretKey  string
	Endpoint   string
	UseSSL     bool
	Region     string
	BucketName string
	Prefix     string
}

func GetS3Config() *S3Config {
	s3Once.Do(func() {
		loadEnv()
		s3Config = &S3Config{
			BucketName: getenv("AWS_S3_BUCKET_NAME", ""),
			Region:     getenv("AWS_REGION", ""),
			Endpoint:   getenv("AWS_ENDPOINT", ""),
			AccessKey:  getenv("AWS_ACCESS_KEY", ""),
			SecretKey:  getenv("AWS_SECRET_KEY", ""),
			Prefix:     getenv("AWS_S3_PREFIX", "diagnosis-results/"),
		}
	})
	return s3Config
}

func GetMinioConfig() *MinioConfig {
	minioOnce.Do(func() {
		loadEnv()
		minioConfig = &MinioConfig{
			AccessKey:  getenv("MINIO_ACCESS_KEY", ""),
			SecretKey:  getenv("MINIO_SECRET_KEY", ""),
			Endpoint:   getenv("MINIO_ENDPOINT", ""),
			UseSSL:     getenvBool("MINIO_USE_SSL", false),
			Region:     getenv("MINIO_REGION", ""),
			BucketName: getenv("MINIO_BUCKET_NAME", ""),
			Prefix:     getenv("MINIO_PREFIX", "diagnosis-results/"),
		}
	})
	return minioConfig
}
