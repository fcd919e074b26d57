package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Choice is one entry of a select control.
type Choice struct {
	ID   int64  `mapstructure:"id" json:"id"`
	Name string `mapstructure:"name" json:"name"`
}

// FormOptions drives the selectable values of the list and form views.
type FormOptions struct {
	PageSizes       []int    `mapstructure:"pageSizes" json:"pageSizes"`
	DefaultPageSize int      `mapstructure:"defaultPageSize" json:"defaultPageSize"`
	Brands          []Choice `mapstructure:"brands" json:"brands"`
	Suppliers       []Choice `mapstructure:"suppliers" json:"suppliers"`
	Units           []string `mapstructure:"units" json:"units"`
	Countries       []string `mapstructure:"countries" json:"countries"`
}

func DefaultFormOptions() FormOptions {
	return FormOptions{
		PageSizes:       []int{5, 10, 25, 50},
		DefaultPageSize: 10,
		Brands: []Choice{
			{ID: 1, Name: "Apple"},
			{ID: 2, Name: "Samsung"},
			{ID: 3, Name: "Sony"},
		},
		Suppliers: []Choice{
			{ID: 1, Name: "Tech Distro Inc."},
			{ID: 2, Name: "Global Gadgets Co."},
			{ID: 3, Name: "Parts Unlimited"},
		},
		Units:     []string{"cm", "m", "in", "ft", "kg", "g", "lb", "oz"},
		Countries: []string{"USA", "China", "Germany", "Japan", "Vietnam", "Mexico", "Other"},
	}
}

// OptionsHolder keeps the current FormOptions and swaps them on file change.
type OptionsHolder struct {
	current atomic.Value // holds FormOptions
}

// NewStaticOptionsHolder returns a holder that never reloads.
func NewStaticOptionsHolder(opts FormOptions) *OptionsHolder {
	holder := &OptionsHolder{}
	holder.current.Store(opts)
	return holder
}

func NewOptionsHolder(log *zap.Logger) (*OptionsHolder, error) {
	log = log.Named("config.options")
	v := viper.New()

	v.SetConfigName("catalog")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/catalogadmin")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CATALOGADMIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	watch := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		watch = false
		log.Info("catalog.yml not found, using defaults")
	}

	opts, err := decodeFormOptions(v)
	if err != nil {
		return nil, err
	}
	if err := ValidateFormOptions(opts); err != nil {
		return nil, err
	}

	holder := NewStaticOptionsHolder(opts)
	if !watch {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeFormOptions(v)
		if err != nil {
			log.Warn("reload failed", zap.Error(err))
			return
		}
		if err := ValidateFormOptions(updated); err != nil {
			log.Warn("invalid options ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("options reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

// decodeFormOptions reads the catalog section into zero options, then takes
// the default for each top-level key the file does not set. Entries inside
// a list the file does set are never merged with default entries.
func decodeFormOptions(v *viper.Viper) (FormOptions, error) {
	var opts FormOptions
	if err := v.UnmarshalKey("catalog", &opts); err != nil {
		return FormOptions{}, err
	}

	defaults := DefaultFormOptions()
	unset := func(key string) bool { return !v.IsSet("catalog." + key) }
	if unset("pageSizes") {
		opts.PageSizes = defaults.PageSizes
	}
	if unset("defaultPageSize") {
		opts.DefaultPageSize = defaults.DefaultPageSize
	}
	if unset("brands") {
		opts.Brands = defaults.Brands
	}
	if unset("suppliers") {
		opts.Suppliers = defaults.Suppliers
	}
	if unset("units") {
		opts.Units = defaults.Units
	}
	if unset("countries") {
		opts.Countries = defaults.Countries
	}
	return opts, nil
}

func (h *OptionsHolder) Get() FormOptions {
	return h.current.Load().(FormOptions)
}

func ValidateFormOptions(opts FormOptions) error {
	if len(opts.PageSizes) == 0 {
		return errors.New("catalog.pageSizes cannot be empty")
	}
	found := false
	for _, size := range opts.PageSizes {
		if size <= 0 {
			return fmt.Errorf("catalog.pageSizes contains non-positive size %d", size)
		}
		if size == opts.DefaultPageSize {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("catalog.defaultPageSize %d is not one of catalog.pageSizes", opts.DefaultPageSize)
	}
	if err := validateChoices("brands", opts.Brands); err != nil {
		return err
	}
	return validateChoices("suppliers", opts.Suppliers)
}

func validateChoices(key string, choices []Choice) error {
	for i, choice := range choices {
		if strings.TrimSpace(choice.Name) == "" {
			return fmt.Errorf("catalog.%s[%d] (id %d) has no name", key, i, choice.ID)
		}
	}
	return nil
}
