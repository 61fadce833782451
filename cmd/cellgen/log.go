package main

import (
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rawbytedev/cellproj"
)

const loggerKey = "cellgen.logger"

// logger returns the logger bound to the app, building it on first use from
// the global --logfmt and --loglvl flags.
func logger(c *cli.Context) *zap.Logger {
	if l, ok := c.App.Metadata[loggerKey].(*zap.Logger); ok {
		return l
	}
	l := newLogger(c).With(zap.String("version", Version))
	c.App.Metadata[loggerKey] = l
	cellproj.SetLogger(l.Named("cellproj"))
	return l
}

func newLogger(c *cli.Context) *zap.Logger {
	if c.String("logfmt") == "none" {
		return zap.NewNop()
	}

	level, err := zapcore.ParseLevel(c.String("loglvl"))
	if err != nil {
		level = zapcore.InfoLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	switch c.String("logfmt") {
	case "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	default:
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(c.App.ErrWriter), level)
	return zap.New(core)
}
