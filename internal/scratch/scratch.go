package scratch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"dashpress/internal/logging"
	"dashpress/internal/services"
)

// ErrBudgetExceeded reports a reservation that would push the space past its
// byte ceiling. Callers wrap it with the classified kind appropriate to the
// stage (SourceTooLarge during fetch, ResourceExhausted elsewhere).
var ErrBudgetExceeded = errors.New("scratch budget exceeded")

// Manager allocates per-job scratch directories under a shared root.
type Manager struct {
	root   string
	logger *slog.Logger
}

// NewManager constructs a manager rooted at root.
func NewManager(root string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{root: root, logger: logger}
}

// Root returns the scratch root directory.
func (m *Manager) Root() string {
	return m.root
}

// Acquire allocates a new scratch space with a hard byte ceiling. It fails
// with ResourceExhausted when the requested budget exceeds the space
// available on the scratch filesystem. Allocation is flock-guarded so
// concurrent invocations sharing a root do not race stale-dir sweeps.
func (m *Manager) Acquire(ctx context.Context, budget int64) (*Space, error) {
	if budget <= 0 {
		return nil, services.Wrap(services.ErrResourceExhausted, "scratch", "acquire",
			fmt.Sprintf("invalid budget %d", budget), nil)
	}
	if err := os.MkdirAll(m.root, 0o755); err != nil {
		return nil, services.Wrap(services.ErrResourceExhausted, "scratch", "acquire", "create root", err)
	}
	if err := unix.Access(m.root, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return nil, services.Wrap(services.ErrResourceExhausted, "scratch", "acquire", "root not writable", err)
	}

	lock := flock.New(filepath.Join(m.root, ".dashpress.lock"))
	if err := lock.Lock(); err != nil {
		return nil, services.Wrap(services.ErrResourceExhausted, "scratch", "acquire", "lock root", err)
	}
	defer func() { _ = lock.Unlock() }()

	avail, err := availableBytes(m.root)
	if err != nil {
		return nil, services.Wrap(services.ErrResourceExhausted, "scratch", "acquire", "probe free space", err)
	}
	if avail < budget {
		return nil, services.Wrap(services.ErrResourceExhausted, "scratch", "acquire",
			fmt.Sprintf("budget %s exceeds available %s", humanize.IBytes(uint64(budget)), humanize.IBytes(uint64(avail))), nil)
	}

	dir := filepath.Join(m.root, "job-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrResourceExhausted, "scratch", "acquire", "create job directory", err)
	}

	m.logger.Debug("scratch acquired",
		logging.String("path", dir),
		logging.String("budget", humanize.IBytes(uint64(budget))),
	)
	return &Space{dir: dir, budget: budget, logger: m.logger}, nil
}

func availableBytes(path string) (int64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, err
	}
	return int64(st.Bavail) * int64(st.Bsize), nil
}

// Space is a filesystem region owned exclusively by one job, with a hard
// byte ceiling tracked as an explicit ledger.
type Space struct {
	dir    string
	budget int64
	logger *slog.Logger

	mu       sync.Mutex
	used     int64
	released bool
}

// Dir returns the space's directory path.
func (s *Space) Dir() string {
	return s.dir
}

// Join builds a path inside the space.
func (s *Space) Join(elem ...string) string {
	return filepath.Join(append([]string{s.dir}, elem...)...)
}

// Reserve charges n bytes against the ledger before they are written. It
// fails with ErrBudgetExceeded, leaving the ledger untouched, when the
// reservation would pass the ceiling.
func (s *Space) Reserve(n int64) error {
	if n < 0 {
		return fmt.Errorf("scratch reserve: negative size %d", n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return fmt.Errorf("scratch reserve: space already released")
	}
	if s.used+n > s.budget {
		return fmt.Errorf("%w: %s requested, %s remaining",
			ErrBudgetExceeded, humanize.IBytes(uint64(n)), humanize.IBytes(uint64(s.budget-s.used)))
	}
	s.used += n
	return nil
}

// Used returns the bytes charged so far.
func (s *Space) Used() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.used
}

// Remaining returns the unreserved budget.
func (s *Space) Remaining() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.budget - s.used
}

// Release deletes the space's contents recursively. It is idempotent; only
// the first call removes anything.
func (s *Space) Release() error {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return nil
	}
	s.released = true
	s.mu.Unlock()

	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("release scratch %q: %w", s.dir, err)
	}
	s.logger.Debug("scratch released", logging.String("path", s.dir))
	return nil
}

// Released reports whether Release has been invoked.
func (s *Space) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}
