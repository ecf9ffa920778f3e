package lib

import (
	"io"
	"log"
	"os"

	"github.com/covalenthq/lumberjack"
)

// SetupLogger sends the standard logger to a rotating file as well as stdout
// when filename is set.
func SetupLogger(filename string) io.Closer {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if filename == "" {
		return nopCloser{}
	}
	l := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    500,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, l))
	return l
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
