// Package blob реализует хранилище файлов проектов поверх MinIO.
// Ключи объектов строятся как {project_title}/{stage}/{date_bucket}/{filename}.
package blob

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"freelance/internal/config"
	"freelance/models"
)

type Store struct {
	mc     *minio.Client
	bucket string
}

func NewStore(cfg *config.Config) (*Store, error) {
	if cfg.MinioEndpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	mc, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &Store{mc: mc, bucket: cfg.MinioBucket}, nil
}

// EnsureBucket создает бакет, если его еще нет
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.mc.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := s.mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
	}
	return nil
}

// ObjectKey собирает ключ объекта по соглашению о путях
func ObjectKey(projectTitle string, stage models.Stage, dateBucket, filename string) string {
	return path.Join(projectTitle, string(stage), dateBucket, filename)
}

// StagePrefix возвращает префикс всех бакетов этапа
func StagePrefix(projectTitle string, stage models.Stage) string {
	return path.Join(projectTitle, string(stage)) + "/"
}

// DateBucket возвращает папку по дате загрузки, с точностью до минуты
func DateBucket(now time.Time) string {
	return now.Format("2006-01-02_15-04")
}

func (s *Store) Write(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.mc.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// ListChildren возвращает имена прямых потомков префикса
func (s *Store) ListChildren(ctx context.Context, prefix string) ([]string, error) {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	names := []string{}
	for obj := range s.mc.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: false,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		name := strings.TrimPrefix(obj.Key, prefix)
		names = append(names, strings.TrimSuffix(name, "/"))
	}
	return names, nil
}

// ArchiveZip пишет все объекты под префиксом в zip-поток; имена в архиве
// берутся относительно префикса
func (s *Store) ArchiveZip(ctx context.Context, prefix string, w io.Writer) error {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	zw := zip.NewWriter(w)

	found := false
	for obj := range s.mc.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			zw.Close()
			return obj.Err
		}
		found = true

		src, err := s.mc.GetObject(ctx, s.bucket, obj.Key, minio.GetObjectOptions{})
		if err != nil {
			zw.Close()
			return fmt.Errorf("download %s: %w", obj.Key, err)
		}
		entry, err := zw.Create(strings.TrimPrefix(obj.Key, prefix))
		if err != nil {
			src.Close()
			zw.Close()
			return err
		}
		if _, err := io.Copy(entry, src); err != nil {
			src.Close()
			zw.Close()
			return fmt.Errorf("archive %s: %w", obj.Key, err)
		}
		src.Close()
	}
	if !found {
		zw.Close()
		return fmt.Errorf("no objects under %s", prefix)
	}
	return zw.Close()
}

// RemovePrefix удаляет все объекты под префиксом
func (s *Store) RemovePrefix(ctx context.Context, prefix string) error {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	for obj := range s.mc.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return obj.Err
		}
		if err := s.mc.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("remove %s: %w", obj.Key, err)
		}
	}
	return nil
}

// Move переносит все объекты из-под srcPrefix под dstPrefix
// (копирование + удаление, у MinIO нет переноса префикса одной операцией)
func (s *Store) Move(ctx context.Context, srcPrefix, dstPrefix string) error {
	if !strings.HasSuffix(srcPrefix, "/") {
		srcPrefix += "/"
	}
	if !strings.HasSuffix(dstPrefix, "/") {
		dstPrefix += "/"
	}
	for obj := range s.mc.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    srcPrefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return obj.Err
		}
		dstKey := dstPrefix + strings.TrimPrefix(obj.Key, srcPrefix)
		_, err := s.mc.CopyObject(ctx,
			minio.CopyDestOptions{Bucket: s.bucket, Object: dstKey},
			minio.CopySrcOptions{Bucket: s.bucket, Object: obj.Key},
		)
		if err != nil {
			return fmt.Errorf("copy %s: %w", obj.Key, err)
		}
		if err := s.mc.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("remove %s: %w", obj.Key, err)
		}
	}
	return nil
}
