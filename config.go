package blog

import "github.com/goliatone/go-blog/internal/runtimeconfig"

var (
	ErrSiteInvalid             = runtimeconfig.ErrSiteInvalid
	ErrContentDirRequired      = runtimeconfig.ErrContentDirRequired
	ErrContentPatternInvalid   = runtimeconfig.ErrContentPatternInvalid
	ErrCategoriesInvalid       = runtimeconfig.ErrCategoriesInvalid
	ErrGeneratorOutputRequired = runtimeconfig.ErrGeneratorOutputRequired
	ErrFeedFileInvalid         = runtimeconfig.ErrFeedFileInvalid
	ErrMaxItemsInvalid         = runtimeconfig.ErrMaxItemsInvalid
	ErrTimeoutInvalid          = runtimeconfig.ErrTimeoutInvalid
	ErrLoggingProviderRequired = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown  = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid     = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid    = runtimeconfig.ErrLoggingFormatInvalid
	ErrWatchDebounceInvalid    = runtimeconfig.ErrWatchDebounceInvalid
	ErrConfigNotFound          = runtimeconfig.ErrConfigNotFound
)

type (
	Config          = runtimeconfig.Config
	SiteConfig      = runtimeconfig.SiteConfig
	ContentConfig   = runtimeconfig.ContentConfig
	GeneratorConfig = runtimeconfig.GeneratorConfig
	LoggingConfig   = runtimeconfig.LoggingConfig
	MetricsConfig   = runtimeconfig.MetricsConfig
	WatchConfig     = runtimeconfig.WatchConfig
)

// DefaultConfig returns defaults suitable for a local checkout.
func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads a YAML configuration file. See runtimeconfig.Load.
func LoadConfig(path string, envFiles ...string) (Config, error) {
	return runtimeconfig.Load(path, envFiles...)
}
