package database

import (
	"fmt"
	"strings"

	neo4jlog "github.com/neo4j/neo4j-go-driver/v5/neo4j/log"
	"github.com/stwalsh4118/pfman/internal/logger"
)

// ParseDriverLogLevel maps a level name such as "WARNING" to a driver level.
// Unknown names map to ERROR.
func ParseDriverLogLevel(name string) neo4jlog.Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG", "NOTSET":
		return neo4jlog.DEBUG
	case "INFO":
		return neo4jlog.INFO
	case "WARN", "WARNING":
		return neo4jlog.WARNING
	default:
		return neo4jlog.ERROR
	}
}

// driverLogger forwards Neo4j driver logs to the application logger.
type driverLogger struct {
	log   *logger.Logger
	level neo4jlog.Level
}

// NewDriverLogger returns a neo4j driver logger writing through log.
func NewDriverLogger(log *logger.Logger, level string) neo4jlog.Logger {
	return &driverLogger{
		log:   log.With(map[string]interface{}{"component": "neo4j"}),
		level: ParseDriverLogLevel(level),
	}
}

func fields(name, id string) map[string]interface{} {
	return map[string]interface{}{"driver_component": name, "driver_id": id}
}

func (l *driverLogger) Error(name, id string, err error) {
	if l.level < neo4jlog.ERROR {
		return
	}
	l.log.Error("Neo4j driver error", err, fields(name, id))
}

func (l *driverLogger) Warnf(name, id string, msg string, args ...any) {
	if l.level < neo4jlog.WARNING {
		return
	}
	l.log.Warn(fmt.Sprintf(msg, args...), fields(name, id))
}

func (l *driverLogger) Infof(name, id string, msg string, args ...any) {
	if l.level < neo4jlog.INFO {
		return
	}
	l.log.Info(fmt.Sprintf(msg, args...), fields(name, id))
}

func (l *driverLogger) Debugf(name, id string, msg string, args ...any) {
	if l.level < neo4jlog.DEBUG {
		return
	}
	l.log.Debug(fmt.Sprintf(msg, args...), fields(name, id))
}
