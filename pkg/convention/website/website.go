package website

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/linecard/hellocdk/pkg/asset"
	"github.com/linecard/hellocdk/pkg/convention/config"
	"github.com/linecard/hellocdk/pkg/topology"

	"github.com/alitto/pond"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const DefaultWorkers = 8

// Regions that only answer on the dashed website endpoint.
var dashedWebsiteRegions = map[string]bool{
	"us-east-1":      true,
	"us-west-1":      true,
	"us-west-2":      true,
	"eu-west-1":      true,
	"ap-southeast-1": true,
	"ap-southeast-2": true,
	"ap-northeast-1": true,
	"sa-east-1":      true,
	"us-gov-west-1":  true,
}

type BucketService interface {
	Exists(ctx context.Context, name string) (bool, error)
	PutBucket(ctx context.Context, name string, tags map[string]string) error
	PutWebsite(ctx context.Context, name, indexDocument string) error
	Website(ctx context.Context, name string) (string, error)
	PutPublicRead(ctx context.Context, name string) error
	List(ctx context.Context, name string) ([]types.Object, error)
	Put(ctx context.Context, name, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, name string, keys []string) error
	DeleteBucket(ctx context.Context, name string) error
}

type Site struct {
	Bucket        string
	IndexDocument string
	URL           string
}

// Plan is the difference between a source directory and a bucket.
type Plan struct {
	Upload    []asset.File
	Delete    []string
	Unchanged int
}

func (p Plan) Empty() bool {
	return len(p.Upload) == 0 && len(p.Delete) == 0
}

type Services struct {
	Bucket BucketService
}

type Convention struct {
	Config  config.Config
	Service Services
	Workers int
}

func FromServices(c config.Config, b BucketService) Convention {
	return Convention{
		Config: c,
		Service: Services{
			Bucket: b,
		},
		Workers: DefaultWorkers,
	}
}

// Converge creates the bucket and applies website hosting and public read as
// declared.
func (c Convention) Converge(ctx context.Context, bucket topology.StorageBucket) (Site, error) {
	ctx, span := otel.Tracer("").Start(ctx, "website.Converge")
	defer span.End()

	name := c.Config.BucketName(bucket.ID())
	tags := c.Config.Tags()
	tags["LogicalId"] = bucket.ID()

	if err := c.Service.Bucket.PutBucket(ctx, name, tags); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Site{}, err
	}

	if bucket.DefaultDocument != "" {
		if err := c.Service.Bucket.PutWebsite(ctx, name, bucket.DefaultDocument); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return Site{}, err
		}
	}

	if bucket.PublicRead {
		log.Warn().Str("node", bucket.ID()).Str("bucket", name).Msg("bucket objects are publicly readable")
		if err := c.Service.Bucket.PutPublicRead(ctx, name); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return Site{}, err
		}
	}

	return c.site(name, bucket.DefaultDocument), nil
}

// Find reports the deployed state of bucket.
func (c Convention) Find(ctx context.Context, bucket topology.StorageBucket) (Site, bool, error) {
	ctx, span := otel.Tracer("").Start(ctx, "website.Find")
	defer span.End()

	name := c.Config.BucketName(bucket.ID())

	exists, err := c.Service.Bucket.Exists(ctx, name)
	if err != nil || !exists {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		return Site{}, false, err
	}

	index, err := c.Service.Bucket.Website(ctx, name)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Site{}, true, err
	}

	return c.site(name, index), true, nil
}

// Plan diffs sourceDir against the destination of step. Objects are compared
// by md5, which a single-part upload's ETag carries.
func (c Convention) Plan(ctx context.Context, step topology.DeploymentStep, sourceDir string) (Plan, error) {
	local, err := asset.List(sourceDir)
	if err != nil {
		return Plan{}, err
	}

	remote, err := c.Service.Bucket.List(ctx, c.Config.BucketName(step.Destination))
	if err != nil {
		return Plan{}, err
	}

	return Diff(local, remote), nil
}

func Diff(local []asset.File, remote []types.Object) Plan {
	var plan Plan

	etags := make(map[string]string, len(remote))
	for _, object := range remote {
		etags[aws.ToString(object.Key)] = strings.Trim(aws.ToString(object.ETag), `"`)
	}

	for _, file := range local {
		etag, exists := etags[file.Key]
		delete(etags, file.Key)

		if exists && etag == file.MD5 {
			plan.Unchanged++
			continue
		}
		plan.Upload = append(plan.Upload, file)
	}

	for key := range etags {
		plan.Delete = append(plan.Delete, key)
	}
	sort.Strings(plan.Delete)

	return plan
}

// Sync makes the destination bucket of step mirror sourceDir. Uploads run on
// a bounded worker pool and are all joined before Sync returns.
func (c Convention) Sync(ctx context.Context, step topology.DeploymentStep, sourceDir string) (Plan, error) {
	ctx, span := otel.Tracer("").Start(ctx, "website.Sync")
	defer span.End()

	name := c.Config.BucketName(step.Destination)

	plan, err := c.Plan(ctx, step, sourceDir)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Plan{}, err
	}

	span.SetAttributes(
		attribute.Int("upload", len(plan.Upload)),
		attribute.Int("delete", len(plan.Delete)),
		attribute.Int("unchanged", plan.Unchanged),
	)

	if plan.Empty() {
		log.Info().Str("node", step.ID()).Int("unchanged", plan.Unchanged).Msg("bucket already in sync")
		return plan, nil
	}

	workers := c.Workers
	if workers < 1 {
		workers = 1
	}

	pool := pond.New(workers, len(plan.Upload))
	defer pool.StopAndWait()

	group, groupCtx := pool.GroupContext(ctx)
	for _, file := range plan.Upload {
		file := file
		group.Submit(func() error {
			return c.upload(groupCtx, name, file)
		})
	}

	if err := group.Wait(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return plan, err
	}

	if len(plan.Delete) > 0 {
		if err := c.Service.Bucket.Delete(ctx, name, plan.Delete); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return plan, err
		}
	}

	log.Info().
		Str("node", step.ID()).
		Int("uploaded", len(plan.Upload)).
		Int("deleted", len(plan.Delete)).
		Int("unchanged", plan.Unchanged).
		Msg("bucket synced")

	return plan, nil
}

// Destroy empties and deletes the bucket.
func (c Convention) Destroy(ctx context.Context, bucket topology.StorageBucket) error {
	ctx, span := otel.Tracer("").Start(ctx, "website.Destroy")
	defer span.End()

	name := c.Config.BucketName(bucket.ID())

	exists, err := c.Service.Bucket.Exists(ctx, name)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if !exists {
		log.Info().Str("node", bucket.ID()).Msg("bucket already gone")
		return nil
	}

	objects, err := c.Service.Bucket.List(ctx, name)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	keys := make([]string, 0, len(objects))
	for _, object := range objects {
		keys = append(keys, aws.ToString(object.Key))
	}

	if len(keys) > 0 {
		if err := c.Service.Bucket.Delete(ctx, name, keys); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}

	if err := c.Service.Bucket.DeleteBucket(ctx, name); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (c Convention) upload(ctx context.Context, bucket string, file asset.File) error {
	contentType, err := ContentType(file.Path)
	if err != nil {
		return err
	}

	f, err := os.Open(file.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := c.Service.Bucket.Put(ctx, bucket, file.Key, f, file.Size, contentType); err != nil {
		return fmt.Errorf("upload %s: %w", file.Key, err)
	}

	log.Debug().Str("key", file.Key).Str("content-type", contentType).Msg("uploaded")
	return nil
}

func (c Convention) site(name, index string) Site {
	site := Site{Bucket: name, IndexDocument: index}
	if index != "" {
		site.URL = WebsiteURL(name, c.Config.Account.Region)
	}
	return site
}

// ContentType goes by extension first; sniffing reports css and js as plain
// text. Unknown extensions fall back to the file's leading bytes.
func ContentType(path string) (string, error) {
	if byExtension := mime.TypeByExtension(filepath.Ext(path)); byExtension != "" {
		return byExtension, nil
	}

	detected, err := mimetype.DetectFile(path)
	if err != nil {
		return "", err
	}

	return detected.String(), nil
}

func WebsiteURL(bucket, region string) string {
	if dashedWebsiteRegions[region] {
		return fmt.Sprintf("http://%s.s3-website-%s.amazonaws.com", bucket, region)
	}
	return fmt.Sprintf("http://%s.s3-website.%s.amazonaws.com", bucket, region)
}
