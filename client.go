package objsync

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/input-output-hk/catalyst-forge-libs/objsync/errors"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/backend"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/backend/local"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/backend/remote"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/cache"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/operations/cat"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/operations/cmp"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/operations/list"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/operations/remove"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/operations/stat"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/sync/comparator"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/sync/scanner"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/sync/sync"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/transfer/manager"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/internal/transfer/multipart"
	"github.com/input-output-hk/catalyst-forge-libs/objsync/objtypes"
)

// Default sizes for multipart uploads.
const (
	DefaultMultipartThreshold = manager.DefaultMultipartThreshold
	DefaultMultipartChunkSize = multipart.DefaultPartSize
)

// Client runs objsync commands against one local filesystem and one
// object store. It holds no per-command state; a single Client may serve
// commands from several goroutines.
type Client struct {
	// s3Client is the object store API every remote call goes through
	s3Client s3api.S3API

	// config is the resolved AWS configuration, zero for NewWithClient
	config aws.Config

	// backends pairs the local and remote storage backends
	backends backend.Set

	// cache persists local digests when a cache path was configured
	cache *cache.DigestCache

	logger *slog.Logger

	scanner    *scanner.Scanner
	transfers  *manager.Manager
	comparator *comparator.Comparator
	syncer     *sync.Manager
	catter     *cat.Catter
	comparer   *cmp.Comparer
	remover    *remove.Remover
	lister     *list.Lister
	stater     *stat.Stater
}

func defaultClientConfig() *objtypes.ClientConfig {
	return &objtypes.ClientConfig{
		MaxRetries:         3,
		MultipartThreshold: DefaultMultipartThreshold,
		MultipartChunkSize: DefaultMultipartChunkSize,
	}
}

// New creates a Client. Credentials and region come from the default AWS
// credential chain unless overridden by options.
//
// Example:
//
//	client, err := objsync.New(ctx,
//	    objsync.WithProfile("backup"),
//	    objsync.WithEndpoint("http://localhost:9000"),
//	)
func New(ctx context.Context, opts ...objtypes.Option) (*Client, error) {
	clientCfg := defaultClientConfig()
	for _, opt := range opts {
		opt(clientCfg)
	}

	var cfg aws.Config
	if clientCfg.CustomAWSConfig != nil {
		cfg = *clientCfg.CustomAWSConfig
	} else {
		var loadOpts []func(*config.LoadOptions) error
		if clientCfg.Profile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(clientCfg.Profile))
		}
		if clientCfg.Region != "" {
			loadOpts = append(loadOpts, config.WithRegion(clientCfg.Region))
		}

		var err error
		cfg, err = config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, errors.NewError("client initialization", err)
		}
	}

	if clientCfg.Region != "" {
		cfg.Region = clientCfg.Region
	} else if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	if clientCfg.MaxRetries > 0 {
		cfg.RetryMaxAttempts = clientCfg.MaxRetries
	}

	s3Client := s3.NewFromConfig(cfg, s3Options(clientCfg)...)

	c, err := newClient(s3Client, clientCfg)
	if err != nil {
		return nil, err
	}
	c.config = cfg

	c.logger.Debug("client initialized",
		"region", cfg.Region,
		"endpoint", clientCfg.Endpoint,
		"multipartThreshold", clientCfg.MultipartThreshold,
		"multipartChunkSize", clientCfg.MultipartChunkSize)
	return c, nil
}

// s3Options translates client options into S3 service options. A custom
// endpoint implies path-style addressing.
func s3Options(clientCfg *objtypes.ClientConfig) []func(*s3.Options) {
	var s3Opts []func(*s3.Options)

	if clientCfg.Endpoint != "" {
		endpoint := clientCfg.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}

	if clientCfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	if httpClient := httpClientFor(clientCfg); httpClient != nil {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.HTTPClient = httpClient
		})
	}

	return s3Opts
}

func httpClientFor(clientCfg *objtypes.ClientConfig) *http.Client {
	if clientCfg.CustomHTTPClient != nil {
		return clientCfg.CustomHTTPClient
	}
	if clientCfg.Timeout <= 0 && !clientCfg.InsecureSkipVerify {
		return nil
	}

	httpClient := &http.Client{Timeout: clientCfg.Timeout}
	if clientCfg.InsecureSkipVerify {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via --no-verify-ssl
		httpClient.Transport = transport
	}
	return httpClient
}

// NewWithClient creates a Client over a custom S3API implementation.
// This is primarily used for testing with fakes and mocks.
func NewWithClient(s3Client s3api.S3API, opts ...objtypes.Option) (*Client, error) {
	clientCfg := defaultClientConfig()
	for _, opt := range opts {
		opt(clientCfg)
	}
	return newClient(s3Client, clientCfg)
}

func newClient(s3Client s3api.S3API, clientCfg *objtypes.ClientConfig) (*Client, error) {
	logger := clientCfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	c := &Client{
		s3Client: s3Client,
		logger:   logger,
	}

	localOpts := []local.Option{local.WithLogger(logger)}
	if clientCfg.DigestCachePath != "" {
		dc, err := cache.Open(clientCfg.DigestCachePath)
		if err != nil {
			return nil, errors.NewError("client initialization", err)
		}
		c.cache = dc
		localOpts = append(localOpts, local.WithDigestCache(dc))
	}

	var localBackend *local.Backend
	if clientCfg.Filesystem != nil {
		localBackend = local.New(clientCfg.Filesystem, localOpts...)
	} else {
		localBackend = local.NewOS(localOpts...)
	}

	remoteBackend := remote.New(s3Client, remote.WithLogger(logger))
	c.backends = backend.Set{Local: localBackend, Remote: remoteBackend}

	uploaderOpts := []multipart.Option{
		multipart.WithPartSize(clientCfg.MultipartChunkSize),
		multipart.WithAbortOnFailure(clientCfg.AbortOnFailure),
		multipart.WithLogger(logger),
	}
	catOpts := []cat.Option(nil)
	if clientCfg.Progress != nil {
		uploaderOpts = append(uploaderOpts, multipart.WithProgress(clientCfg.Progress))
		catOpts = append(catOpts, cat.WithProgress(clientCfg.Progress))
	}

	c.scanner = scanner.NewScanner(c.backends, scanner.WithLogger(logger))
	c.transfers = manager.NewManager(c.backends,
		manager.WithMultipartThreshold(clientCfg.MultipartThreshold),
		manager.WithUploader(multipart.NewUploader(remoteBackend, uploaderOpts...)),
		manager.WithScanner(c.scanner),
		manager.WithLogger(logger),
	)
	c.comparator = comparator.New(c.backends,
		comparator.WithScanner(c.scanner),
		comparator.WithLogger(logger),
	)
	c.syncer = sync.NewManager(c.scanner, c.comparator, c.transfers, sync.WithLogger(logger))
	c.catter = cat.New(c.backends, catOpts...)
	c.comparer = cmp.New(c.backends, cmp.WithLogger(logger))
	c.remover = remove.New(remoteBackend, remove.WithLogger(logger))
	c.lister = list.New(remoteBackend)
	c.stater = stat.New(c.backends)

	return c, nil
}

// Close releases the digest cache, if one was opened.
func (c *Client) Close() error {
	if c.cache == nil {
		return nil
	}
	err := c.cache.Close()
	c.cache = nil
	return err
}
