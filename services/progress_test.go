package services

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questlab-edu/questlab_api/dto"
	"github.com/questlab-edu/questlab_api/model"
	"github.com/questlab-edu/questlab_api/shared"
)

func newTestProgressService(t *testing.T) (*ProgressService, *PostgresService) {
	t.Helper()
	store := newTestStore(t)
	moduleSvc := &ModuleService{sqlSvc: store}
	return &ProgressService{sqlSvc: store, moduleSvc: moduleSvc}, store
}

func registeredIdentity(id string) shared.Identity {
	return shared.Identity{ID: id, Kind: shared.KindRegistered}
}

func guestIdentity(id string) shared.Identity {
	return shared.Identity{ID: id, Kind: shared.KindGuest}
}

func TestProgressService_GetOrCreateProgress(t *testing.T) {
	progressSvc, store := newTestProgressService(t)
	user := seedTestUser(t, store, "ada@example.com", "ada")
	module := seedTestModule(t, store, "fractions-1")

	// First read creates the zeroed row.
	resp, err := progressSvc.GetOrCreateProgress(registeredIdentity(user.ID), module.ID)
	require.NoError(t, err)
	assert.Equal(t, module.ID, resp.ModuleID)
	assert.True(t, resp.Persisted)
	assert.Zero(t, resp.CompletionPct)
	assert.False(t, resp.Completed)
	require.NotNil(t, resp.LastAccessed)
	assert.WithinDuration(t, time.Now(), *resp.LastAccessed, 5*time.Second)

	count, err := store.CountProgressRows(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Second read reuses the same row.
	_, err = progressSvc.GetOrCreateProgress(registeredIdentity(user.ID), module.ID)
	require.NoError(t, err)

	count, err = store.CountProgressRows(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestProgressService_FirstReadNeverClobbersConcurrentWrite(t *testing.T) {
	progressSvc, store := newTestProgressService(t)
	user := seedTestUser(t, store, "ada@example.com", "ada")
	module := seedTestModule(t, store, "fractions-1")
	identity := registeredIdentity(user.ID)

	// A write lands after the first reader has already seen a missing row.
	_, err := progressSvc.UpsertProgress(identity, module.ID, dto.UpsertProgressRequest{
		CompletionPct: 80,
		TimeSpent:     300,
		Score:         90,
	})
	require.NoError(t, err)

	// The reader's create now runs against the populated pair; the
	// stored values must survive.
	row, err := store.CreateProgressIfAbsent(&model.Progress{
		UserID:       user.ID,
		ModuleID:     module.ID,
		LastAccessed: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, float64(80), row.CompletionPct)
	assert.Equal(t, 300, row.TimeSpent)
	assert.Equal(t, 90, row.Score)

	resp, err := progressSvc.GetOrCreateProgress(identity, module.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(80), resp.CompletionPct)
	assert.Equal(t, 90, resp.Score)

	count, err := store.CountProgressRows(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestProgressService_GetOrCreateProgressUnknownModule(t *testing.T) {
	progressSvc, store := newTestProgressService(t)
	user := seedTestUser(t, store, "ada@example.com", "ada")

	_, err := progressSvc.GetOrCreateProgress(registeredIdentity(user.ID), "no-such-module")
	require.Error(t, err)
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, appErr.StatusCode)
}

func TestProgressService_UpsertKeepsOneRow(t *testing.T) {
	progressSvc, store := newTestProgressService(t)
	user := seedTestUser(t, store, "ada@example.com", "ada")
	module := seedTestModule(t, store, "fractions-1")
	identity := registeredIdentity(user.ID)

	resp, err := progressSvc.UpsertProgress(identity, module.ID, dto.UpsertProgressRequest{
		CompletionPct: 40,
		TimeSpent:     120,
		Score:         50,
	})
	require.NoError(t, err)
	assert.Equal(t, 40.0, resp.CompletionPct)
	assert.False(t, resp.Completed)
	assert.True(t, resp.Persisted)

	resp, err = progressSvc.UpsertProgress(identity, module.ID, dto.UpsertProgressRequest{
		CompletionPct: 100,
		TimeSpent:     300,
		Score:         90,
	})
	require.NoError(t, err)
	assert.Equal(t, 100.0, resp.CompletionPct)
	assert.Equal(t, 300, resp.TimeSpent)
	assert.Equal(t, 90, resp.Score)
	assert.True(t, resp.Completed)

	count, err := store.CountProgressRows(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestProgressService_UpsertValidation(t *testing.T) {
	progressSvc, store := newTestProgressService(t)
	user := seedTestUser(t, store, "ada@example.com", "ada")
	module := seedTestModule(t, store, "fractions-1")
	identity := registeredIdentity(user.ID)

	tests := []struct {
		name     string
		moduleID string
		req      dto.UpsertProgressRequest
		wantCode int
	}{
		{
			name:     "completion above 100",
			moduleID: module.ID,
			req:      dto.UpsertProgressRequest{CompletionPct: 120},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "negative completion",
			moduleID: module.ID,
			req:      dto.UpsertProgressRequest{CompletionPct: -1},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "negative time spent",
			moduleID: module.ID,
			req:      dto.UpsertProgressRequest{TimeSpent: -5},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "negative score",
			moduleID: module.ID,
			req:      dto.UpsertProgressRequest{Score: -5},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown module",
			moduleID: "no-such-module",
			req:      dto.UpsertProgressRequest{CompletionPct: 50},
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := progressSvc.UpsertProgress(identity, tt.moduleID, tt.req)
			require.Error(t, err)
			appErr, ok := shared.GetAppError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, appErr.StatusCode)
		})
	}
}

func TestProgressService_GuestWritesAreEphemeral(t *testing.T) {
	progressSvc, store := newTestProgressService(t)
	module := seedTestModule(t, store, "fractions-1")
	identity := guestIdentity("guest-1")

	resp, err := progressSvc.UpsertProgress(identity, module.ID, dto.UpsertProgressRequest{
		CompletionPct: 100,
		TimeSpent:     60,
		Score:         80,
	})
	require.NoError(t, err)
	assert.False(t, resp.Persisted)
	assert.Equal(t, 100.0, resp.CompletionPct)
	assert.True(t, resp.Completed)

	read, err := progressSvc.GetOrCreateProgress(identity, module.ID)
	require.NoError(t, err)
	assert.False(t, read.Persisted)
	assert.Zero(t, read.CompletionPct)

	count, err := store.CountProgressRows("guest-1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestProgressService_StrictRejectsRegression(t *testing.T) {
	progressSvc, store := newTestProgressService(t)
	progressSvc.strict = true
	user := seedTestUser(t, store, "ada@example.com", "ada")
	module := seedTestModule(t, store, "fractions-1")
	identity := registeredIdentity(user.ID)

	_, err := progressSvc.UpsertProgress(identity, module.ID, dto.UpsertProgressRequest{CompletionPct: 80})
	require.NoError(t, err)

	_, err = progressSvc.UpsertProgress(identity, module.ID, dto.UpsertProgressRequest{CompletionPct: 50})
	require.Error(t, err)
	appErr, ok := shared.GetAppError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, appErr.StatusCode)

	// Moving forward still works.
	resp, err := progressSvc.UpsertProgress(identity, module.ID, dto.UpsertProgressRequest{CompletionPct: 90})
	require.NoError(t, err)
	assert.Equal(t, 90.0, resp.CompletionPct)
}

func TestProgressService_CompleteModule(t *testing.T) {
	progressSvc, store := newTestProgressService(t)
	user := seedTestUser(t, store, "ada@example.com", "ada")
	module := seedTestModule(t, store, "fractions-1")
	identity := registeredIdentity(user.ID)

	_, err := progressSvc.UpsertProgress(identity, module.ID, dto.UpsertProgressRequest{
		CompletionPct: 60,
		TimeSpent:     240,
		Score:         70,
	})
	require.NoError(t, err)

	// Completion without an explicit score keeps the recorded one.
	resp, err := progressSvc.CompleteModule(identity, module.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 100.0, resp.CompletionPct)
	assert.True(t, resp.Completed)
	assert.Equal(t, 240, resp.TimeSpent)
	assert.Equal(t, 70, resp.Score)

	resp, err = progressSvc.CompleteModule(identity, module.ID, 95)
	require.NoError(t, err)
	assert.Equal(t, 95, resp.Score)

	count, err := store.CountProgressRows(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestProgressService_ConcurrentUpsertsKeepOneRow(t *testing.T) {
	progressSvc, store := newTestProgressService(t)
	user := seedTestUser(t, store, "ada@example.com", "ada")
	module := seedTestModule(t, store, "fractions-1")
	identity := registeredIdentity(user.ID)

	const writers = 8

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(pct float64) {
			defer wg.Done()
			_, err := progressSvc.UpsertProgress(identity, module.ID, dto.UpsertProgressRequest{
				CompletionPct: pct,
			})
			errs <- err
		}(float64(10 * (i + 1)))
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	count, err := store.CountProgressRows(user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
