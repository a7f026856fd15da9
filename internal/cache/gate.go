package cache

import (
	"context"
	"path/filepath"
	"time"

	"github.com/signalsfoundry/spade/internal/logging"
	"github.com/signalsfoundry/spade/timectrl"
)

// Gate decides whether a fresh enough payload is already on disk.
type Gate struct {
	Dir   string
	Clock timectrl.Clock
	Log   logging.Logger
}

// NewGate returns a Gate over dir. A nil clock means the wall clock.
func NewGate(dir string, clock timectrl.Clock, log logging.Logger) *Gate {
	if log == nil {
		log = logging.Noop()
	}
	return &Gate{Dir: dir, Clock: timectrl.Or(clock), Log: log}
}

// Lookup returns the path of the newest payload named <prefix><timestamp>
// whose timestamp is strictly later than now minus maxAge. ok is false when
// there is no such file, including when the directory does not exist.
// Files whose suffix does not decode are logged and ignored.
func (g *Gate) Lookup(ctx context.Context, prefix string, maxAge time.Duration) (path string, ok bool, err error) {
	log := g.Log
	if log == nil {
		log = logging.Noop()
	}
	files, err := listPayloads(g.Dir, prefix, func(name string, err error) {
		log.Warn(ctx, "ignoring cache file with unreadable timestamp",
			logging.String("file", name),
			logging.String("error", err.Error()),
		)
	})
	if err != nil {
		return "", false, err
	}
	if len(files) == 0 {
		return "", false, nil
	}

	newest := files[len(files)-1]
	cutoff := timectrl.Or(g.Clock).Now().Add(-maxAge)
	if !newest.ts.After(cutoff) {
		log.Debug(ctx, "cached payload is stale",
			logging.String("file", newest.name),
			logging.String("written_at", newest.ts.Format(time.RFC3339)),
		)
		return "", false, nil
	}
	return filepath.Join(g.Dir, newest.name), true, nil
}
