package cli

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"github.com/ukcloud/grafana-provisioner/pkg/logger"
	"go.uber.org/zap"
)

type Options struct {
	Verbose      bool
	OutputFormat string
	ConfigFile   string
	viper        *viper.Viper
	logger       *zap.SugaredLogger
	mu           sync.Mutex
}

func NewOptions() *Options {
	return &Options{
		OutputFormat: "table",
		viper:        viper.New(),
	}
}

func (o *Options) String() string {
	return fmt.Sprintf("CLI options: verbose=%t output=%s config=%s", o.Verbose, o.OutputFormat, o.ConfigFile)
}

// Viper returns the settings of this process, it is never shared with other Options instances.
func (o *Options) Viper() *viper.Viper {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.viper == nil {
		o.viper = viper.New()
	}
	return o.viper
}

func (o *Options) Logger() *zap.SugaredLogger {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.logger == nil {
		o.logger = logger.NewOptionalLogger(o.Verbose)
	}
	return o.logger
}

// SetLogger replaces the console logger, e.g. by a logger which also writes into the log file.
func (o *Options) SetLogger(l *zap.SugaredLogger) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.logger = l
}

func (o *Options) Validate() error {
	for _, supportedFormat := range SupportedOutputFormats {
		if supportedFormat == o.OutputFormat {
			return nil
		}
	}
	return fmt.Errorf("Output format '%s' not supported - choose between '%s'",
		o.OutputFormat, strings.Join(SupportedOutputFormats, "', '"))
}
