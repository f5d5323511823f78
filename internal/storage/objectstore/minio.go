// Package objectstore wraps the S3-compatible bucket storage used for batch
// import and export files.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/notification"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
)

var objectCreatedEvents = []string{string(notification.ObjectCreatedAll)}

// ObjectCreated identifies an object that was written to a bucket.
type ObjectCreated struct {
	Bucket string
	Key    string
}

type Client struct {
	cl     *minio.Client
	region string
	log    *slog.Logger
}

func NewClient(cfg config.ObjectStore, logger *slog.Logger) (*Client, error) {
	cl, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	return &Client{
		cl:     cl,
		region: cfg.Region,
		log:    logger.With(slog.String("component", "objectstore")),
	}, nil
}

// EnsureBucket creates bucket when it does not exist yet.
func (c *Client) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := c.cl.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", bucket, err)
	}
	if exists {
		return nil
	}

	if err := c.cl.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: c.region}); err != nil {
		return fmt.Errorf("make bucket %s: %w", bucket, err)
	}

	return nil
}

func (c *Client) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := c.cl.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s/%s: %w", bucket, key, err)
	}

	return obj, nil
}

func (c *Client) PutObject(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	if _, err := c.cl.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType},
	); err != nil {
		return fmt.Errorf("put object %s/%s: %w", bucket, key, err)
	}

	return nil
}

// ListenObjectCreated streams object-created notifications for bucket until ctx
// is done. Notification errors are logged and skipped.
func (c *Client) ListenObjectCreated(ctx context.Context, bucket string) <-chan ObjectCreated {
	out := make(chan ObjectCreated)

	go func() {
		defer close(out)

		for info := range c.cl.ListenBucketNotification(ctx, bucket, "", "", objectCreatedEvents) {
			if info.Err != nil {
				if ctx.Err() == nil {
					c.log.ErrorContext(ctx, "error listening for bucket notifications",
						slog.String("bucket", bucket), slog.Any("error", info.Err))
				}
				continue
			}

			for _, obj := range objectsFromNotification(info) {
				select {
				case out <- obj:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

func objectsFromNotification(info notification.Info) []ObjectCreated {
	objs := make([]ObjectCreated, 0, len(info.Records))
	for _, rec := range info.Records {
		// keys arrive URL encoded, as in S3 event records
		key, err := url.QueryUnescape(rec.S3.Object.Key)
		if err != nil {
			key = rec.S3.Object.Key
		}

		objs = append(objs, ObjectCreated{
			Bucket: rec.S3.Bucket.Name,
			Key:    key,
		})
	}

	return objs
}
