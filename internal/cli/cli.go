// Package cli holds what the three commands share: flag parsing, logger
// construction, artifact store wiring and the mapping from errors to exit
// codes.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/pashuvision/modelport/internal/artifact"
	"github.com/pashuvision/modelport/internal/config"
	"github.com/pashuvision/modelport/internal/version"
)

// InputSizeFlag is the flag that takes four values.
const InputSizeFlag = "input-size"

// Common flags shared by every command.
type Common struct {
	LogLevel  string
	LogFormat string
	Version   bool
}

// Register adds the common flags to fs with defaults taken from cfg.
func (c *Common) Register(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&c.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	fs.StringVar(&c.LogFormat, "log-format", cfg.LogFormat, "log format: text or json")
	fs.BoolVar(&c.Version, "version", false, "print version and exit")
}

// Logger builds the command logger on w.
func (c *Common) Logger(w io.Writer) (*slog.Logger, error) {
	logger, err := NewLogger(w, c.LogLevel, c.LogFormat)
	if err != nil {
		return nil, &UsageError{Err: err}
	}
	return logger, nil
}

// PrintVersion writes "<command> <version>" to w.
func PrintVersion(w io.Writer, command string) {
	fmt.Fprintf(w, "%s %s (%s)\n", command, version.Version, version.Producer)
}

// NewLogger returns a text or JSON slog logger at level.
func NewLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
}

// Shape is a four-value flag: batch, channels, height, width.
type Shape [4]int

// String implements flag.Value.
func (s *Shape) String() string {
	if s == nil {
		return ""
	}
	return fmt.Sprintf("%d %d %d %d", s[0], s[1], s[2], s[3])
}

// Set accepts four positive integers separated by commas, spaces or "x".
func (s *Shape) Set(v string) error {
	fields := strings.FieldsFunc(v, func(r rune) bool {
		return r == ',' || r == ' ' || r == 'x'
	})
	if len(fields) != 4 {
		return fmt.Errorf("want 4 values B C H W, got %d", len(fields))
	}
	var out Shape
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return fmt.Errorf("value %d: %w", i, err)
		}
		if n <= 0 {
			return fmt.Errorf("value %d must be positive, got %d", i, n)
		}
		out[i] = n
	}
	*s = out
	return nil
}

// Parse parses args into fs. "--input-size B C H W" is accepted in
// addition to the single-value forms.
func Parse(fs *flag.FlagSet, args []string) error {
	err := fs.Parse(joinInputSize(args))
	if err != nil && !errors.Is(err, flag.ErrHelp) {
		return &UsageError{Err: err}
	}
	return err
}

// joinInputSize rewrites "--input-size 1 3 224 224" as
// "--input-size=1,3,224,224".
func joinInputSize(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		name := strings.TrimLeft(args[i], "-")
		if name != InputSizeFlag || !strings.HasPrefix(args[i], "-") || i+4 >= len(args) {
			out = append(out, args[i])
			continue
		}
		vals := args[i+1 : i+5]
		if !allInts(vals) {
			out = append(out, args[i])
			continue
		}
		out = append(out, "--"+InputSizeFlag+"="+strings.Join(vals, ","))
		i += 4
	}
	return out
}

func allInts(vals []string) bool {
	for _, v := range vals {
		if _, err := strconv.Atoi(v); err != nil {
			return false
		}
	}
	return true
}

// Store returns the configured S3 store, or nil when publishing is not
// configured.
func Store(cfg config.ArtifactConfig) (*artifact.S3Store, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	return artifact.NewS3Store(artifact.S3Config{
		Endpoint:  cfg.Endpoint,
		Region:    cfg.Region,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		Prefix:    cfg.Prefix,
		UseSSL:    cfg.UseSSL,
	})
}

// UsageError reports invalid command-line arguments.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }

func (e *UsageError) Unwrap() error { return e.Err }

// Kind returns the error family name.
func (e *UsageError) Kind() string { return "UsageError" }

// Usagef formats a *UsageError.
func Usagef(format string, args ...any) error {
	return &UsageError{Err: fmt.Errorf(format, args...)}
}

type kinded interface {
	Kind() string
}

// Kind returns the family name of the first error in err's chain that has
// one, or "Error".
func Kind(err error) string {
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return "Error"
}

// Report prints err as "<kind>: <message>" to w and returns the exit code.
func Report(w io.Writer, err error) int {
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return 0
	}
	fmt.Fprintf(w, "%s: %v\n", Kind(err), err)
	return 1
}

// Exit reports err on stderr and exits the process with its code.
func Exit(err error) {
	os.Exit(Report(os.Stderr, err))
}
