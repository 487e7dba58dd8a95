package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/noah-isme/enrollment-api/internal/models"
)

// Keys of the mirrored tables, one JSON array per key.
const (
	tableProfiles    = "profiles"
	tableInstructors = "instructors"
	tableStudents    = "students"
	tableCourses     = "courses"
	tableEnrollments = "enrollments"
	tableActionLogs  = "action_logs"

	demoSeedMarker  = "seeded"
	demoLockStripes = 32
)

// errNoChange lets a mutation skip the write without failing.
var errNoChange = errors.New("no change")

var demoTables = []string{tableProfiles, tableInstructors, tableStudents, tableCourses, tableEnrollments, tableActionLogs}

// DemoStores hands out isolated demo stores, one per demo session.
type DemoStores struct {
	kv         KeyValueStore
	identities DemoIdentities
	locks      [demoLockStripes]sync.Mutex
	now        func() time.Time
}

// NewDemoStores validates the seed fixture and returns a demo store factory.
func NewDemoStores(kv KeyValueStore, identities DemoIdentities) (*DemoStores, error) {
	if kv == nil {
		return nil, errors.New("demo key/value store must not be nil")
	}
	if identities.Admin == "" || identities.Instructor == "" || identities.Student == "" {
		return nil, errors.New("demo identities must not be empty")
	}
	if _, err := loadDemoSeed(identities, time.Now()); err != nil {
		return nil, err
	}

	return &DemoStores{
		kv:         kv,
		identities: identities,
		now:        time.Now,
	}, nil
}

// Identities returns the configured sentinel identities.
func (d *DemoStores) Identities() DemoIdentities {
	return d.identities
}

// IsSentinel reports whether id is one of the demo identities and its role.
func (d *DemoStores) IsSentinel(id string) (models.Role, bool) {
	return d.identities.RoleOf(id)
}

// ForSession returns the demo store for a session. Sessions never share rows.
func (d *DemoStores) ForSession(sessionID string) Store {
	return &demoStore{
		stores: d,
		prefix: "demo:" + sessionID,
		lock:   d.lockFor(sessionID),
	}
}

func (d *DemoStores) lockFor(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return &d.locks[h.Sum32()%demoLockStripes]
}

type demoStore struct {
	stores *DemoStores
	prefix string
	lock   *sync.Mutex
	inTx   bool
}

func (s *demoStore) Kind() string { return StoreKindDemo }

func (s *demoStore) Profiles() ProfileRepository { return &demoProfileRepository{store: s} }

func (s *demoStore) Students() StudentRepository { return &demoStudentRepository{store: s} }

func (s *demoStore) Instructors() InstructorRepository { return &demoInstructorRepository{store: s} }

func (s *demoStore) Courses() CourseRepository { return &demoCourseRepository{store: s} }

func (s *demoStore) Enrollments() EnrollmentRepository { return &demoEnrollmentRepository{store: s} }

func (s *demoStore) ActionLogs() ActionLogRepository { return &demoActionLogRepository{store: s} }

// Transaction snapshots every table and restores the snapshot when fn fails.
func (s *demoStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.ensureSeeded(ctx); err != nil {
		return err
	}

	snapshot := make(map[string][]byte, len(demoTables))
	for _, table := range demoTables {
		payload, err := s.stores.kv.Get(ctx, s.key(table))
		if errors.Is(err, ErrKeyNotFound) {
			payload = []byte("[]")
		} else if err != nil {
			return err
		}
		snapshot[table] = payload
	}

	tx := &demoStore{stores: s.stores, prefix: s.prefix, lock: s.lock, inTx: true}
	if err := fn(tx); err != nil {
		for table, payload := range snapshot {
			if restoreErr := s.stores.kv.Set(ctx, s.key(table), payload); restoreErr != nil {
				return errors.Join(err, fmt.Errorf("restore demo table %s: %w", table, restoreErr))
			}
		}
		return err
	}
	return nil
}

func (s *demoStore) key(table string) string {
	return s.prefix + ":" + table
}

// run executes fn under the session lock unless the store is already inside
// a transaction holding it.
func (s *demoStore) run(ctx context.Context, fn func() error) error {
	if !s.inTx {
		s.lock.Lock()
		defer s.lock.Unlock()
	}
	if err := s.ensureSeeded(ctx); err != nil {
		return err
	}
	return fn()
}

func (s *demoStore) ensureSeeded(ctx context.Context) error {
	_, err := s.stores.kv.Get(ctx, s.key(demoSeedMarker))
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrKeyNotFound) {
		return err
	}

	seed, err := loadDemoSeed(s.stores.identities, s.stores.now().UTC())
	if err != nil {
		return err
	}
	tables, err := seed.tables()
	if err != nil {
		return err
	}
	for table, payload := range tables {
		if err := s.stores.kv.Set(ctx, s.key(table), payload); err != nil {
			return err
		}
	}
	return s.stores.kv.Set(ctx, s.key(demoSeedMarker), []byte(s.stores.now().UTC().Format(time.RFC3339)))
}

func loadRows[T any](ctx context.Context, s *demoStore, table string) ([]T, error) {
	payload, err := s.stores.kv.Get(ctx, s.key(table))
	if errors.Is(err, ErrKeyNotFound) {
		return []T{}, nil
	}
	if err != nil {
		return nil, err
	}

	var rows []T
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, fmt.Errorf("decode demo table %s: %w", table, err)
	}
	return rows, nil
}

func saveRows[T any](ctx context.Context, s *demoStore, table string, rows []T) error {
	if rows == nil {
		rows = []T{}
	}
	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode demo table %s: %w", table, err)
	}
	return s.stores.kv.Set(ctx, s.key(table), payload)
}
