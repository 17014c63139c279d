package accountstats

import (
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

func validateLogConfig(level, format string) error {
	if _, err := log.ParseLevel(level); err != nil {
		return errors.Wrap(err, "invalid log_level")
	}
	if format != LogFormatConsole && format != LogFormatJSON {
		return errors.Errorf("invalid log_format %q", format)
	}
	return nil
}

// InitLogger configures the standard logrus logger
func InitLogger(level, format string) error {
	if err := validateLogConfig(level, format); err != nil {
		return err
	}
	lvl, _ := log.ParseLevel(level)

	log.SetOutput(os.Stderr)
	log.SetLevel(lvl)
	if format == LogFormatJSON {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}
