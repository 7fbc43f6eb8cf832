package appconfig

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a JSON zap logger at c.Level writing to c.File, or to
// stderr when File is empty. The returned close function flushes the logger
// and closes the file.
func (c LogConfig) NewLogger() (*zap.Logger, func() error, error) {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "time"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder

	atom := zap.NewAtomicLevel()
	if err := atom.UnmarshalText([]byte(c.Level)); err != nil {
		return nil, nil, err
	}

	sink := zapcore.Lock(os.Stderr)
	closeFile := func() error { return nil }
	if c.File != "" {
		file, err := os.OpenFile(c.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, nil, err
		}
		sink = zapcore.AddSync(file)
		closeFile = file.Close
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), sink, atom)
	logger := zap.New(core, zap.AddCaller())
	return logger, func() error {
		_ = logger.Sync()
		return closeFile()
	}, nil
}
