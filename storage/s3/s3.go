// Package s3 stores run state as objects in an S3 bucket. Each value is
// one object at "<prefix>/<namespace>/<key>".
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/kbukum/nodeflow/logger"
	"github.com/kbukum/nodeflow/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderS3, func(cfg storage.Config, providerCfg any, log *logger.Logger) (storage.Adapter, error) {
		c := &Config{}
		if providerCfg != nil {
			pc, ok := providerCfg.(*Config)
			if !ok {
				return nil, fmt.Errorf("s3: expected *s3.Config, got %T", providerCfg)
			}
			c = pc
		}
		c.ApplyDefaults()
		if err := c.Validate(); err != nil {
			return nil, err
		}
		return New(context.Background(), c, cfg.KeyPrefix, log)
	})
}

// deleteBatch is the DeleteObjects per-request limit.
const deleteBatch = 1000

// Adapter implements storage.Adapter using Amazon S3 (or S3-compatible services).
type Adapter struct {
	client *awss3.Client
	bucket string
	prefix string
	log    *logger.Logger
}

var _ storage.Adapter = (*Adapter)(nil)

// New creates an S3 adapter from the given config.
func New(ctx context.Context, cfg *Config, prefix string, log *logger.Logger) (*Adapter, error) {
	if log == nil {
		log = logger.Nop()
	}
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	var s3Opts []func(*awss3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *awss3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *awss3.Options) {
			o.UsePathStyle = true
		})
	}

	log.Info("S3 storage ready", map[string]interface{}{"bucket": cfg.Bucket, "region": cfg.Region})
	return &Adapter{
		client: awss3.NewFromConfig(awsCfg, s3Opts...),
		bucket: cfg.Bucket,
		prefix: prefix,
		log:    log,
	}, nil
}

// Set writes value as an object.
func (a *Adapter) Set(ctx context.Context, namespace, key string, value []byte) error {
	_, err := a.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.objectKey(namespace, key)),
		Body:   bytes.NewReader(value),
	})
	if err != nil {
		return fmt.Errorf("s3: put %s/%s: %w", namespace, key, err)
	}
	return nil
}

// Get reads the object under namespace/key or returns storage.ErrNotFound.
func (a *Adapter) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	out, err := a.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.objectKey(namespace, key)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("s3: get %s/%s: %w", namespace, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3: read %s/%s: %w", namespace, key, err)
	}
	return data, nil
}

// Delete removes an object. Returns nil if the object does not exist.
func (a *Adapter) Delete(ctx context.Context, namespace, key string) error {
	_, err := a.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.objectKey(namespace, key)),
	})
	if err != nil {
		return fmt.Errorf("s3: delete %s/%s: %w", namespace, key, err)
	}
	return nil
}

// Clear removes every object under the adapter's prefix.
func (a *Adapter) Clear(ctx context.Context) error {
	root := ""
	if a.prefix != "" {
		root = a.prefix + "/"
	}
	return a.deletePrefix(ctx, root)
}

// ClearNamespace removes every object of one namespace.
func (a *Adapter) ClearNamespace(ctx context.Context, namespace string) error {
	return a.deletePrefix(ctx, a.namespacePrefix(namespace))
}

// Keys lists the keys of one namespace in ascending order.
func (a *Adapter) Keys(ctx context.Context, namespace string) ([]string, error) {
	prefix := a.namespacePrefix(namespace)
	objects, err := a.list(ctx, prefix)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(objects))
	for _, o := range objects {
		keys = append(keys, strings.TrimPrefix(o, prefix))
	}
	sort.Strings(keys)
	return keys, nil
}

func (a *Adapter) objectKey(namespace, key string) string {
	return a.namespacePrefix(namespace) + key
}

func (a *Adapter) namespacePrefix(namespace string) string {
	if a.prefix == "" {
		return namespace + "/"
	}
	return a.prefix + "/" + namespace + "/"
}

func (a *Adapter) list(ctx context.Context, prefix string) ([]string, error) {
	input := &awss3.ListObjectsV2Input{
		Bucket: aws.String(a.bucket),
		Prefix: aws.String(prefix),
	}

	var keys []string
	for {
		out, err := a.client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("s3: list %q: %w", prefix, err)
		}
		for _, obj := range out.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		input.ContinuationToken = out.NextContinuationToken
	}
	return keys, nil
}

func (a *Adapter) deletePrefix(ctx context.Context, prefix string) error {
	keys, err := a.list(ctx, prefix)
	if err != nil {
		return err
	}
	for start := 0; start < len(keys); start += deleteBatch {
		end := min(start+deleteBatch, len(keys))
		ids := make([]types.ObjectIdentifier, 0, end-start)
		for _, k := range keys[start:end] {
			ids = append(ids, types.ObjectIdentifier{Key: aws.String(k)})
		}
		_, err := a.client.DeleteObjects(ctx, &awss3.DeleteObjectsInput{
			Bucket: aws.String(a.bucket),
			Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return fmt.Errorf("s3: delete objects under %q: %w", prefix, err)
		}
	}
	if len(keys) > 0 {
		a.log.Debug("cleared objects", map[string]interface{}{"prefix": prefix, "count": len(keys)})
	}
	return nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	return errors.As(err, &nf)
}
