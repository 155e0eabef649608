package dependencies

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Xushengqwer/go-common/core"
	"github.com/tencentyun/cos-go-sdk-v5"
	"go.uber.org/zap"

	"github.com/Xushengqwer/identity_link/config"
)

// ArchiveStore 审计日志归档的对象存储
type ArchiveStore interface {
	// UploadObject 上传一个归档对象。
	// - objectKey: 相对键，会自动加上配置的前缀。
	// - size 和 contentType 原样作为请求头发送。
	UploadObject(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error
}

type cosArchiveStore struct {
	client *cos.Client
	prefix string
	logger *core.ZapLogger
}

// InitCOS 初始化腾讯云 COS 客户端。
// - 配置不完整时返回 (nil, nil)，表示不启用归档，清理任务只删除不上传。
// - 存储桶地址按 https://<bucket>-<appid>.cos.<region>.myqcloud.com 拼出。
func InitCOS(cfg *config.COSConfig, logger *core.ZapLogger) (ArchiveStore, error) {
	if cfg == nil || cfg.SecretID == "" || cfg.SecretKey == "" || cfg.BucketName == "" || cfg.AppID == "" || cfg.Region == "" {
		logger.Warn("COS 配置不完整，审计日志归档不可用")
		return nil, nil
	}

	bucketURLStr := fmt.Sprintf("https://%s-%s.cos.%s.myqcloud.com", cfg.BucketName, cfg.AppID, cfg.Region)
	bucketURL, err := url.Parse(bucketURLStr)
	if err != nil {
		logger.Error("解析 COS 存储桶 URL 失败", zap.String("url", bucketURLStr), zap.Error(err))
		return nil, fmt.Errorf("解析 COS 存储桶 URL '%s' 失败: %w", bucketURLStr, err)
	}

	client := cos.NewClient(&cos.BaseURL{BucketURL: bucketURL}, &http.Client{
		Transport: &cos.AuthorizationTransport{
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
		},
	})

	prefix := cfg.ArchivePrefix
	if prefix == "" {
		prefix = "activity-archive/"
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	logger.Info("COS 客户端初始化成功",
		zap.String("bucket", cfg.BucketName),
		zap.String("region", cfg.Region),
		zap.String("prefix", prefix),
	)
	return &cosArchiveStore{client: client, prefix: prefix, logger: logger}, nil
}

func (c *cosArchiveStore) UploadObject(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error {
	key := c.prefix + strings.TrimPrefix(objectKey, "/")
	opts := &cos.ObjectPutOptions{
		ObjectPutHeaderOptions: &cos.ObjectPutHeaderOptions{
			ContentType:   contentType,
			ContentLength: size,
		},
	}

	resp, err := c.client.Object.Put(ctx, key, reader, opts)
	if err != nil {
		c.logger.Error("COS 上传失败", zap.String("objectKey", key), zap.Error(err))
		return fmt.Errorf("上传对象 '%s' 到 COS 失败: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errMsgBytes, _ := io.ReadAll(resp.Body)
		c.logger.Error("COS 上传返回非200状态码",
			zap.String("objectKey", key),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(errMsgBytes)),
		)
		return fmt.Errorf("COS 上传失败，状态码: %d", resp.StatusCode)
	}
	c.logger.Info("COS 上传成功", zap.String("objectKey", key), zap.Int64("size", size))
	return nil
}
