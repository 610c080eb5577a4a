package export

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/adhocore/gronx"
	"github.com/hashicorp/go-hclog"
	"github.com/manualsvc/bundler/blobstore"
	"github.com/oklog/ulid/v2"
)

func NewSweeper(blobs blobstore.Store, logger hclog.Logger, customizers ...func(*SweeperOptions)) (*Sweeper, error) {
	if blobs == nil {
		return nil, errors.New("blob store is nil")
	}

	options := NewSweeperOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}

	return &Sweeper{
		blobs:   blobs,
		logger:  logger.Named("export-sweeper"),
		options: options,

		now: time.Now,
	}, nil
}

func NewSweeperOptions() SweeperOptions {
	return SweeperOptions{
		Cron:   "0 * * * *",
		MaxAge: 7 * 24 * time.Hour,
	}
}

type SweeperOptions struct {
	Cron   string        // Cron expression, determining when expired exports are pruned.
	MaxAge time.Duration // Age at which an export expires.
}

func (o SweeperOptions) Validate() error {
	if !gronx.IsValid(o.Cron) {
		return errors.New("cron expression is invalid")
	}
	if o.MaxAge <= 0 {
		return errors.New("max age must be positive")
	}
	return nil
}

// Sweeper prunes expired exports on a cron schedule. The age of an export is
// decoded from the ULID in its blob path.
type Sweeper struct {
	blobs   blobstore.Store
	logger  hclog.Logger
	options SweeperOptions

	now func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func (s *Sweeper) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)
}

func (s *Sweeper) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Sweeper) run(ctx context.Context) {
	defer s.wg.Done()

	for {
		next, err := gronx.NextTickAfter(s.options.Cron, s.now(), false)
		if err != nil {
			s.logger.Error("failed to determine next sweep", "error", err)
			return
		}

		timer := time.NewTimer(time.Until(next))

		select {
		case <-timer.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error("sweep failed", "error", err)
			}
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

// Sweep deletes all blobs of exports older than the maximum age and returns
// the number of deleted blobs.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	paths, err := s.blobs.List(ctx, "exports/")
	if err != nil {
		return 0, err
	}

	deadline := s.now().Add(-s.options.MaxAge)

	var deleted int
	for _, path := range paths {
		createdAt, ok := exportTime(path)
		if !ok {
			s.logger.Warn("skipping blob with unexpected path", "path", path)
			continue
		}

		if createdAt.After(deadline) {
			continue
		}

		if err := s.blobs.Delete(ctx, path); err != nil {
			s.logger.Error("failed to delete expired blob", "path", path, "error", err)
			continue
		}
		deleted++
	}

	if deleted != 0 {
		s.logger.Info("expired exports pruned", "blobs", deleted)
	}

	return deleted, nil
}

// exportTime decodes the creation time from an export blob path of the form
// exports/<serviceKey>/<ulid>/<file>.
func exportTime(path string) (time.Time, bool) {
	segments := strings.Split(path, "/")
	if len(segments) < 4 {
		return time.Time{}, false
	}

	id, err := ulid.Parse(segments[2])
	if err != nil {
		return time.Time{}, false
	}

	return ulid.Time(id.Time()), true
}
