// Package timeouts defines shared timeout constants used across commands.
package timeouts

import "time"

// TelemetryShutdown limits how long a command waits for spans to flush
// on exit.
const TelemetryShutdown = 5 * time.Second

// TableCommand caps one table command, store open and migrations included.
const TableCommand = 30 * time.Second

// SQLiteBusy is how long a sqlite connection waits on a locked database.
const SQLiteBusy = 5 * time.Second
