package mb_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"mediabox/internal/database"
	"mediabox/internal/localstore"
	"mediabox/internal/mb"
	"mediabox/internal/storage"
	"mediabox/internal/testutil"
)

type serviceEnv struct {
	records *database.SQLStore
	blobs   *storage.MemoryBlobStore
	local   *localstore.MemoryStore
	state   *mb.AppState
	fsmgr   *testutil.MockFilesystemManager
	logger  *testutil.RecordingLogger
	clock   *testutil.TickingClock
	idgen   *testutil.StubIDGenerator
	enc     mb.Encryptor
	auth    *mb.AuthService
	svc     *mb.MBService
}

// newServiceEnv wires the service over an in-memory SQLite store. A nil
// encryptor stores uploads in plaintext.
func newServiceEnv(t *testing.T, enc mb.Encryptor) *serviceEnv {
	t.Helper()

	env := &serviceEnv{
		records: testutil.NewTestRecordStore(t),
		blobs:   storage.NewMemoryBlobStore(),
		local:   localstore.NewMemoryStore(),
		fsmgr:   testutil.NewMockFilesystemManager(".DS_Store", "*.tmp"),
		logger:  testutil.NewRecordingLogger(),
		clock:   testutil.NewTickingClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), time.Second),
	}

	state, err := mb.NewAppState(env.local)
	if err != nil {
		t.Fatalf("NewAppState() error = %v", err)
	}
	env.state = state

	env.idgen = testutil.NewStubIDGenerator()
	env.enc = enc
	env.wire(env.records, env.blobs)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		env.svc.WaitForSync(ctx)
	})
	return env
}

// wire builds the services over records and blobs, sharing the env's local
// store and state. Tests use it to put failing stores in front of the real ones.
func (e *serviceEnv) wire(records mb.RecordStore, blobs mb.BlobStore) {
	favorites := mb.NewFavoritesCache(e.local, records, e.clock, e.logger)
	e.auth = mb.NewAuthService(records, e.state, e.logger, e.clock, e.idgen)
	e.auth.SetHashCost(bcrypt.MinCost)
	e.svc = mb.NewMBService(records, blobs, e.state, favorites, e.fsmgr, e.enc, e.logger, e.clock, e.idgen)
}

// unreachableRecords fails file lookups while down is set.
type unreachableRecords struct {
	mb.RecordStore

	mu   sync.Mutex
	down bool
}

func (r *unreachableRecords) setDown(down bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.down = down
}

func (r *unreachableRecords) FindFileByID(ctx context.Context, id string) (*mb.File, error) {
	r.mu.Lock()
	down := r.down
	r.mu.Unlock()
	if down {
		return nil, errors.New("connection refused")
	}
	return r.RecordStore.FindFileByID(ctx, id)
}

// truncatingBlobs stores every object, then reports a size mismatch the
// way the S3 and MinIO stores do after an upload.
type truncatingBlobs struct {
	*storage.MemoryBlobStore
}

func (b truncatingBlobs) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if err := b.MemoryBlobStore.Put(ctx, key, io.LimitReader(r, size-1), size-1, contentType); err != nil {
		return err
	}
	return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, size-1)
}

func (e *serviceEnv) signUp(t *testing.T, email string) *mb.User {
	t.Helper()
	user, err := e.auth.SignUp(context.Background(), email, "secret123")
	if err != nil {
		t.Fatalf("SignUp(%s) error = %v", email, err)
	}
	return user
}

func (e *serviceEnv) sync(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.svc.WaitForSync(ctx); err != nil {
		t.Fatalf("WaitForSync() error = %v", err)
	}
}
