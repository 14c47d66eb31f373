// Copyright 2021 Molecula Corp. All rights reserved.
package monitor

import (
	"fmt"
	"time"

	sentry "github.com/getsentry/sentry-go"
)

const (
	LevelPanic = iota
	LevelError
	LevelWarn
	LevelInfo
	LevelDebug
)

var isOn bool

// Init enables Sentry error capture against dsn. An empty dsn - the
// default every server.Config starts with - leaves monitoring off, since
// Sentry reporting is opt-in diagnostics for a deployment, not something
// the model layer requires to function.
func Init(dsn, release string) error {
	if dsn == "" {
		return nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		AttachStacktrace: true,
		TracesSampleRate: 1,
		Release:          release,
	}); err != nil {
		return err
	}
	isOn = true
	return nil
}

// CaptureException reports a Warn-or-worse level log line to Sentry. It is
// a no-op until Init has turned monitoring on.
func CaptureException(level int, format string, v ...interface{}) {
	if !isOn || level > LevelWarn {
		return
	}
	sentry.CaptureException(fmt.Errorf(format, v...))
	defer sentry.Flush(2 * time.Second)
}

// IsOn reports whether Init has enabled Sentry reporting.
func IsOn() bool {
	return isOn
}
