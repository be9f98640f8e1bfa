package main

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"batterycode-go/drivers/acerbat"
)

// Options is the merged view of flags, BATTERY_* environment variables and
// the optional config file. Flags win.
type Options struct {
	Bus  string `mapstructure:"bus"`
	Addr uint16 `mapstructure:"addr"`
	Hz   uint32 `mapstructure:"hz"`

	Log   LogOptions   `mapstructure:"log"`
	Serve ServeOptions `mapstructure:"serve"`
}

type LogOptions struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "console" | "json"
}

type ServeOptions struct {
	Listen     string `mapstructure:"listen"`
	Name       string `mapstructure:"name"`
	IntervalMs uint32 `mapstructure:"interval-ms"`
	Device     string `mapstructure:"device"` // embedded config id; "" => built from flags
}

func NewOptions() *Options {
	return &Options{
		Bus:  acerbat.BusDefault,
		Addr: acerbat.AddressDefault,
		Log:  LogOptions{Level: "info", Format: "console"},
		Serve: ServeOptions{
			Listen:     ":9101",
			Name:       "BAT0",
			IntervalMs: 2000,
		},
	}
}

// AddFlags binds the global flags.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Bus, "bus", o.Bus, "I2C adapter (e.g. '1', 'i2c1', '/dev/i2c-1').")
	fs.Uint16Var(&o.Addr, "addr", o.Addr, "Controller slave address.")
	fs.Uint32Var(&o.Hz, "hz", o.Hz, "Bus speed in Hz; 0 keeps the adapter's setting.")
	fs.StringVar(&o.Log.Level, "log.level", o.Log.Level, "Minimum log level ('debug', 'info', 'warn', 'error').")
	fs.StringVar(&o.Log.Format, "log.format", o.Log.Format, "Log output format ('json' or 'console').")
}

// AddServeFlags binds the serve-only flags.
func (o *Options) AddServeFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Serve.Listen, "serve.listen", o.Serve.Listen, "Address for the /metrics endpoint.")
	fs.StringVar(&o.Serve.Name, "serve.name", o.Serve.Name, "Capability name of the battery.")
	fs.Uint32Var(&o.Serve.IntervalMs, "serve.interval-ms", o.Serve.IntervalMs, "Sampling interval.")
	fs.StringVar(&o.Serve.Device, "serve.device", o.Serve.Device, "Use an embedded device config instead of the flags.")
}

// Load merges the config file, environment and flags into o.
func (o *Options) Load(v *viper.Viper, fs *pflag.FlagSet, file string) error {
	v.SetEnvPrefix("BATTERY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return err
		}
	}
	if err := v.BindPFlags(fs); err != nil {
		return err
	}
	return v.Unmarshal(o)
}

// Validate checks the merged options.
func (o *Options) Validate() []error {
	var errs []error
	if o.Bus == "" {
		errs = append(errs, errInvalid("bus", "must not be empty"))
	}
	if o.Addr == 0 || o.Addr > 0x7F {
		errs = append(errs, errInvalid("addr", "must be a 7-bit address"))
	}
	switch o.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, errInvalid("log.format", "must be 'console' or 'json'"))
	}
	return errs
}

type optionError struct{ key, msg string }

func (e optionError) Error() string { return e.key + ": " + e.msg }

func errInvalid(key, msg string) error { return optionError{key: key, msg: msg} }
