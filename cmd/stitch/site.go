package main

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel"
	"go.uber.org/multierr"

	"github.com/vango-dev/stitch"
	"github.com/vango-dev/stitch/internal/config"
	"github.com/vango-dev/stitch/internal/errors"
	"github.com/vango-dev/stitch/pkg/assets"
	"github.com/vango-dev/stitch/pkg/component"
	"github.com/vango-dev/stitch/pkg/engine"
	"github.com/vango-dev/stitch/pkg/filecomp"
	"github.com/vango-dev/stitch/pkg/live"
	"github.com/vango-dev/stitch/pkg/server"
)

// loadConfig reads the configuration from path, or from the nearest
// project root when path is empty, and validates it.
func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.LoadFromWorkingDir()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// templateSource returns where cfg reads its templates from.
func templateSource(cfg *config.Config) filecomp.Source {
	if s := cfg.Templates.S3; s != nil {
		return filecomp.S3Source{
			Client:  newS3Client(s.Region),
			Bucket:  s.Bucket,
			Prefix:  s.Prefix,
			Pattern: cfg.Templates.Pattern,
			MaxSize: s.MaxSize,
		}
	}
	return filecomp.FSSource{
		FS:      afero.NewBasePathFs(afero.NewOsFs(), cfg.TemplatesPath()),
		Pattern: cfg.Templates.Pattern,
	}
}

func newS3Client(region string) *s3.Client {
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	return s3.New(s3.Options{
		Region:      region,
		Credentials: aws.NewCredentialsCache(envCredentials{}),
	})
}

// envCredentials reads the standard AWS credential variables.
type envCredentials struct{}

func (envCredentials) Retrieve(context.Context) (aws.Credentials, error) {
	id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
	if id == "" || secret == "" {
		return aws.Credentials{}, errors.Newf(errors.CategoryConfig, "AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set for S3 templates")
	}
	return aws.Credentials{
		AccessKeyID:     id,
		SecretAccessKey: secret,
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "environment",
	}, nil
}

// loadTree loads every template and validates the resulting tree. All
// problems are returned together, each as a coded error.
func loadTree(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*component.Descriptor, error) {
	root, err := filecomp.Load(ctx, templateSource(cfg), filecomp.Options{
		Funcs:         assetResolver(cfg, logger).Funcs(),
		ErrorTemplate: cfg.ErrorTemplate,
		Logger:        logger,
	})
	if err != nil {
		return nil, templateErrors(err)
	}
	if err := component.Validate(root); err != nil {
		return nil, treeErrors(err)
	}
	return root, nil
}

// assetResolver maps asset names to fingerprinted files in the static
// directory. Without a static directory, or when its manifest cannot be
// read, names pass through unchanged.
func assetResolver(cfg *config.Config, logger *slog.Logger) *assets.Resolver {
	dir := cfg.StaticPath()
	if dir == "" {
		return assets.NewResolver(nil, cfg.Static.Prefix)
	}
	m, err := assets.LoadDir(afero.NewOsFs(), dir)
	if err != nil {
		logger.Warn("asset manifest unavailable", "dir", dir, "error", err)
		return assets.NewResolver(nil, cfg.Static.Prefix)
	}
	return assets.NewResolver(m, cfg.Static.Prefix)
}

func templateErrors(err error) error {
	var out error
	for _, e := range multierr.Errors(err) {
		switch {
		case stderrors.Is(e, filecomp.ErrInvalidName):
			out = multierr.Append(out, errors.New("S202").Wrap(e))
		case strings.Contains(e.Error(), "template: "):
			out = multierr.Append(out, errors.New("S201").WithLocationFromTemplate(e).Wrap(e))
		default:
			out = multierr.Append(out, errors.New("S203").Wrap(e))
		}
	}
	return out
}

func treeErrors(err error) error {
	var out error
	for _, e := range multierr.Errors(err) {
		switch {
		case stderrors.Is(e, component.ErrMissingDocument):
			out = multierr.Append(out, errors.New("S301"))
		case stderrors.Is(e, component.ErrMissingHead):
			out = multierr.Append(out, errors.New("S302"))
		default:
			out = multierr.Append(out, errors.New("S303").Wrap(e))
		}
	}
	return out
}

// appConfig translates the file configuration into an App configuration.
func appConfig(cfg *config.Config, logger *slog.Logger) stitch.Config {
	sc := stitch.Config{
		Engine: engine.Config{
			Release:  cfg.Release,
			Product:  cfg.Product,
			MaxDepth: cfg.MaxDepth,
		},
		Server: server.Config{
			Mode:                 server.ParseMode(cfg.Server.Mode),
			SecureCookies:        cfg.Server.SecureCookies,
			CookieDomain:         cfg.Server.CookieDomain,
			SameSiteMode:         sameSite(cfg.Server.SameSite),
			TrustedProxies:       cfg.Server.TrustedProxies,
			AllowedRedirectHosts: cfg.Server.AllowedRedirectHosts,
		},
		Static: stitch.StaticConfig{
			Dir:    cfg.StaticPath(),
			Prefix: cfg.Static.Prefix,
		},
		Live:     cfg.Live.Enabled,
		LivePath: cfg.Live.Path,
		LiveConfig: live.Config{
			MaxTargets:  cfg.Live.MaxTargets,
			CheckOrigin: originCheck(cfg.Live.AllowedOrigins),
		},
		Metrics:          cfg.Metrics.Enabled,
		MetricsPath:      cfg.Metrics.Path,
		MetricsNamespace: cfg.Metrics.Namespace,
		Logger:           logger,
	}
	if strings.EqualFold(cfg.Static.Cache, "production") {
		sc.Static.CacheControl = stitch.CacheControlProduction
	}
	if cfg.Tracing {
		sc.TracerProvider = otel.GetTracerProvider()
	}
	return sc
}

func sameSite(s string) http.SameSite {
	switch strings.ToLower(s) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// originCheck allows same-origin connections and the listed origins.
func originCheck(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	return func(r *http.Request) bool {
		return live.SameOriginCheck(r) || slices.Contains(allowed, r.Header.Get("Origin"))
	}
}
