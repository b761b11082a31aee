package badge_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MarkoPoloResearchLab/pressbadge/internal/badge"
)

var errStoreUnavailable = errors.New("store unavailable")

// stubBadgeStore is an in-memory badge.Store with injectable failures and
// per-operation call counts.
type stubBadgeStore struct {
	recordsByBadgeID map[string]badge.Record
	nextBadgeID      string

	createCalls int
	updateCalls int
	getCalls    int
	deleteCalls int

	failCreate bool
	failUpdate bool
	failGet    bool
	failDelete bool

	onUpdate func()
}

func newStubBadgeStore() *stubBadgeStore {
	return &stubBadgeStore{
		recordsByBadgeID: make(map[string]badge.Record),
		nextBadgeID:      "generated-badge-id",
	}
}

func (store *stubBadgeStore) totalCalls() int {
	return store.createCalls + store.updateCalls + store.getCalls + store.deleteCalls
}

func (store *stubBadgeStore) Create(_ context.Context, record badge.Record) (badge.Record, error) {
	store.createCalls++
	if store.failCreate {
		return badge.Record{}, errStoreUnavailable
	}
	record.BadgeID = store.nextBadgeID
	record.GeneratedAt = time.Unix(1700000000, 0)
	record.UpdatedAt = record.GeneratedAt
	store.recordsByBadgeID[record.BadgeID] = record
	return record, nil
}

func (store *stubBadgeStore) Update(_ context.Context, record badge.Record) error {
	store.updateCalls++
	if store.onUpdate != nil {
		store.onUpdate()
	}
	if store.failUpdate {
		return errStoreUnavailable
	}
	if _, exists := store.recordsByBadgeID[record.BadgeID]; !exists {
		return badge.ErrBadgeNotFound
	}
	store.recordsByBadgeID[record.BadgeID] = record
	return nil
}

func (store *stubBadgeStore) GetByBadgeID(_ context.Context, badgeID string) (badge.Record, error) {
	store.getCalls++
	if store.failGet {
		return badge.Record{}, errStoreUnavailable
	}
	record, exists := store.recordsByBadgeID[badgeID]
	if !exists {
		return badge.Record{}, badge.ErrBadgeNotFound
	}
	return record, nil
}

func (store *stubBadgeStore) GetByGridID(_ context.Context, gridID string) (badge.Record, error) {
	store.getCalls++
	if store.failGet {
		return badge.Record{}, errStoreUnavailable
	}
	for _, record := range store.recordsByBadgeID {
		if record.GridID == gridID {
			return record, nil
		}
	}
	return badge.Record{}, badge.ErrBadgeNotFound
}

func (store *stubBadgeStore) ListByGridID(_ context.Context, gridID string) ([]badge.Record, error) {
	var records []badge.Record
	for _, record := range store.recordsByBadgeID {
		if record.GridID == gridID {
			records = append(records, record)
		}
	}
	return records, nil
}

func (store *stubBadgeStore) Delete(_ context.Context, badgeID string) error {
	store.deleteCalls++
	if store.failDelete {
		return errStoreUnavailable
	}
	if _, exists := store.recordsByBadgeID[badgeID]; !exists {
		return badge.ErrBadgeNotFound
	}
	delete(store.recordsByBadgeID, badgeID)
	return nil
}

func seededStore(badgeID string, gridID string) *stubBadgeStore {
	store := newStubBadgeStore()
	store.recordsByBadgeID[badgeID] = badge.Record{
		BadgeID:      badgeID,
		GridID:       gridID,
		Name:         "Seeded Badge",
		Websites:     []badge.Website{{OutletID: "w1", WebsiteName: "Forbes"}},
		Config:       badge.DefaultConfig(),
		HTMLDocument: "<!DOCTYPE html><html></html>",
		GeneratedAt:  time.Unix(1600000000, 0),
	}
	return store
}

func TestDiscoverFindsNothing(t *testing.T) {
	store := newStubBadgeStore()
	lifecycle := badge.NewLifecycle(store, nil, badge.DiscoveryContext{GridID: "report-1"})

	state, discoverErr := lifecycle.Discover(context.Background())
	require.NoError(t, discoverErr)
	require.Equal(t, badge.StateNoBadge, state)
	require.Empty(t, lifecycle.BadgeID())
}

func TestDiscoverAdoptsExistingBadgeByGridID(t *testing.T) {
	store := seededStore("badge-1", "report-1")
	lifecycle := badge.NewLifecycle(store, nil, badge.DiscoveryContext{GridID: "report-1"})

	state, discoverErr := lifecycle.Discover(context.Background())
	require.NoError(t, discoverErr)
	require.Equal(t, badge.StateEditingExisting, state)
	require.Equal(t, "badge-1", lifecycle.BadgeID())
	require.Len(t, lifecycle.SelectedOutlets(), 1)
	require.Equal(t, "w1", lifecycle.SelectedOutlets()[0].ID)
}

func TestDiscoverPrefersExplicitBadgeIDOverGridLookup(t *testing.T) {
	store := seededStore("badge-explicit", "report-other")
	gridRecord := badge.Record{BadgeID: "badge-grid", GridID: "report-1", Config: badge.DefaultConfig()}
	store.recordsByBadgeID[gridRecord.BadgeID] = gridRecord

	lifecycle := badge.NewLifecycle(store, nil, badge.DiscoveryContext{
		ExplicitBadgeID: "badge-explicit",
		GridID:          "report-1",
	})

	state, discoverErr := lifecycle.Discover(context.Background())
	require.NoError(t, discoverErr)
	require.Equal(t, badge.StateEditingExisting, state)
	require.Equal(t, "badge-explicit", lifecycle.BadgeID())
}

func TestDiscoverFallsThroughWhenExplicitIDMisses(t *testing.T) {
	store := seededStore("badge-grid", "report-1")
	lifecycle := badge.NewLifecycle(store, nil, badge.DiscoveryContext{
		ExplicitBadgeID: "badge-vanished",
		GridID:          "report-1",
	})

	state, discoverErr := lifecycle.Discover(context.Background())
	require.NoError(t, discoverErr)
	require.Equal(t, badge.StateEditingExisting, state)
	require.Equal(t, "badge-grid", lifecycle.BadgeID())
}

func TestDiscoverEndsInNoBadgeOnBackendFault(t *testing.T) {
	store := seededStore("badge-1", "report-1")
	store.failGet = true
	lifecycle := badge.NewLifecycle(store, nil, badge.DiscoveryContext{GridID: "report-1"})

	state, discoverErr := lifecycle.Discover(context.Background())
	require.NoError(t, discoverErr)
	require.Equal(t, badge.StateNoBadge, state)
}

func TestGenerateRejectsInvalidSelectionBeforeStoreContact(t *testing.T) {
	store := newStubBadgeStore()
	lifecycle := badge.NewLifecycle(store, nil, badge.DiscoveryContext{GridID: "report-1"})
	lifecycle.ToggleOutlet(testOutlet(1))
	lifecycle.ToggleOutlet(testOutlet(2))

	_, generateErr := lifecycle.Generate(context.Background(), testBadgeNameValue, "")

	var validationErr *badge.ValidationError
	require.ErrorAs(t, generateErr, &validationErr)
	require.Equal(t, badge.SelectionInsufficient, validationErr.Status.Kind)
	require.Equal(t, 1, validationErr.Status.Needed)
	require.Zero(t, store.totalCalls())
}

func TestGenerateCreatesThenUpdatesWithStableID(t *testing.T) {
	store := newStubBadgeStore()
	lifecycle := badge.NewLifecycle(store, nil, badge.DiscoveryContext{GridID: "report-1"})
	for index := 1; index <= 3; index++ {
		lifecycle.ToggleOutlet(testOutlet(index))
	}

	firstRecord, firstErr := lifecycle.Generate(context.Background(), testBadgeNameValue, "launch")
	require.NoError(t, firstErr)
	require.Equal(t, "generated-badge-id", firstRecord.BadgeID)
	require.Equal(t, badge.StatePreviewReady, lifecycle.State())
	require.True(t, firstRecord.PreviewGenerated())
	require.Equal(t, 1, store.createCalls)

	lifecycle.ToggleOutlet(testOutlet(4))
	secondRecord, secondErr := lifecycle.Generate(context.Background(), testBadgeNameValue, "launch")
	require.NoError(t, secondErr)
	require.Equal(t, firstRecord.BadgeID, secondRecord.BadgeID)
	require.Equal(t, 1, store.createCalls)
	require.Equal(t, 1, store.updateCalls)
	require.Len(t, secondRecord.Websites, 4)
	// Creation time survives updates.
	require.Equal(t, firstRecord.GeneratedAt, secondRecord.GeneratedAt)
}

func TestGenerateSnapshotsLogoAndDomainPerWebsite(t *testing.T) {
	store := newStubBadgeStore()
	lifecycle := badge.NewLifecycle(store, nil, badge.DiscoveryContext{GridID: "report-1"})
	lifecycle.ToggleOutlet(badge.Outlet{ID: "a", WebsiteName: "Forbes", PublishedURL: "https://www.forbes.com/x"})
	lifecycle.ToggleOutlet(badge.Outlet{ID: "b", WebsiteName: "The Example Gazette", PublishedURL: "https://gazette.example.com/y"})
	lifecycle.ToggleOutlet(badge.Outlet{ID: "c", WebsiteName: "Reuters"})

	record, generateErr := lifecycle.Generate(context.Background(), testBadgeNameValue, "")
	require.NoError(t, generateErr)
	require.Len(t, record.Websites, 3)
	require.Contains(t, record.Websites[0].LogoURL, "forbes.png")
	require.Equal(t, "www.forbes.com", record.Websites[0].Domain)
	require.Empty(t, record.Websites[1].LogoURL)
	require.Equal(t, "gazette.example.com", record.Websites[1].Domain)
	require.Empty(t, record.Websites[2].Domain)
}

func TestGenerateFailurePreservesStateAndSelection(t *testing.T) {
	store := newStubBadgeStore()
	store.failCreate = true
	lifecycle := badge.NewLifecycle(store, nil, badge.DiscoveryContext{GridID: "report-1"})
	_, discoverErr := lifecycle.Discover(context.Background())
	require.NoError(t, discoverErr)
	for index := 1; index <= 3; index++ {
		lifecycle.ToggleOutlet(testOutlet(index))
	}

	_, generateErr := lifecycle.Generate(context.Background(), testBadgeNameValue, "")

	var storeErr *badge.StoreError
	require.ErrorAs(t, generateErr, &storeErr)
	require.Equal(t, badge.StoreOperationSave, storeErr.Operation)
	require.ErrorIs(t, generateErr, errStoreUnavailable)

	require.Equal(t, badge.StateNoBadge, lifecycle.State())
	require.Len(t, lifecycle.SelectedOutlets(), 3)
	require.Empty(t, lifecycle.BadgeID())
}

func TestRegeneratePreviewRequiresBadgeIdentifier(t *testing.T) {
	lifecycle := badge.NewLifecycle(newStubBadgeStore(), nil, badge.DiscoveryContext{GridID: "report-1"})
	for index := 1; index <= 3; index++ {
		lifecycle.ToggleOutlet(testOutlet(index))
	}

	_, regenerateErr := lifecycle.RegeneratePreview(context.Background())
	require.ErrorIs(t, regenerateErr, badge.ErrNoBadgeIdentifier)
}

func TestRegeneratePreviewKeepsIdentityAndMetadata(t *testing.T) {
	store := seededStore("badge-1", "report-1")
	lifecycle := badge.NewLifecycle(store, nil, badge.DiscoveryContext{GridID: "report-1"})
	_, discoverErr := lifecycle.Discover(context.Background())
	require.NoError(t, discoverErr)

	lifecycle.ToggleOutlet(testOutlet(2))
	lifecycle.ToggleOutlet(testOutlet(3))

	document, regenerateErr := lifecycle.RegeneratePreview(context.Background())
	require.NoError(t, regenerateErr)
	require.NotEmpty(t, document)
	require.Equal(t, badge.StatePreviewReady, lifecycle.State())

	persisted, hasPersisted := lifecycle.PersistedRecord()
	require.True(t, hasPersisted)
	require.Equal(t, "badge-1", persisted.BadgeID)
	require.Equal(t, "Seeded Badge", persisted.Name)
	require.Len(t, persisted.Websites, 3)
	require.Equal(t, document, persisted.HTMLDocument)
}

func TestDeleteResetsToNoBadge(t *testing.T) {
	store := seededStore("badge-1", "report-1")
	lifecycle := badge.NewLifecycle(store, nil, badge.DiscoveryContext{GridID: "report-1"})
	_, discoverErr := lifecycle.Discover(context.Background())
	require.NoError(t, discoverErr)

	require.NoError(t, lifecycle.Delete(context.Background()))
	require.Equal(t, badge.StateNoBadge, lifecycle.State())
	require.Empty(t, lifecycle.BadgeID())
	require.Empty(t, lifecycle.SelectedOutlets())

	// The badge is gone from the store as well.
	state, rediscoverErr := lifecycle.Discover(context.Background())
	require.NoError(t, rediscoverErr)
	require.Equal(t, badge.StateNoBadge, state)
}

func TestDeleteFailureLeavesBadgeIntact(t *testing.T) {
	store := seededStore("badge-1", "report-1")
	store.failDelete = true
	lifecycle := badge.NewLifecycle(store, nil, badge.DiscoveryContext{GridID: "report-1"})
	_, discoverErr := lifecycle.Discover(context.Background())
	require.NoError(t, discoverErr)

	deleteErr := lifecycle.Delete(context.Background())

	var storeErr *badge.StoreError
	require.ErrorAs(t, deleteErr, &storeErr)
	require.Equal(t, badge.StoreOperationDelete, storeErr.Operation)

	require.Equal(t, badge.StateEditingExisting, lifecycle.State())
	require.Equal(t, "badge-1", lifecycle.BadgeID())
	require.Len(t, lifecycle.SelectedOutlets(), 1)
}

func TestResetReturnsToLastPersistedState(t *testing.T) {
	store := seededStore("badge-1", "report-1")
	lifecycle := badge.NewLifecycle(store, nil, badge.DiscoveryContext{GridID: "report-1"})
	_, discoverErr := lifecycle.Discover(context.Background())
	require.NoError(t, discoverErr)

	lifecycle.ToggleOutlet(testOutlet(2))
	lifecycle.ToggleOutlet(testOutlet(3))
	require.Len(t, lifecycle.SelectedOutlets(), 3)

	state := lifecycle.Reset()
	require.Equal(t, badge.StateEditingExisting, state)
	require.Len(t, lifecycle.SelectedOutlets(), 1)
	require.Equal(t, "w1", lifecycle.SelectedOutlets()[0].ID)
}

func TestResetWithoutPersistedBadge(t *testing.T) {
	lifecycle := badge.NewLifecycle(newStubBadgeStore(), nil, badge.DiscoveryContext{GridID: "report-1"})
	lifecycle.ToggleOutlet(testOutlet(1))

	state := lifecycle.Reset()
	require.Equal(t, badge.StateNoBadge, state)
	require.Empty(t, lifecycle.SelectedOutlets())
}

func TestOverlappingOperationsAreRejected(t *testing.T) {
	store := seededStore("badge-1", "report-1")
	lifecycle := badge.NewLifecycle(store, nil, badge.DiscoveryContext{GridID: "report-1"})
	_, discoverErr := lifecycle.Discover(context.Background())
	require.NoError(t, discoverErr)

	var reentrantErr error
	store.onUpdate = func() {
		_, reentrantErr = lifecycle.Discover(context.Background())
	}

	lifecycle.ToggleOutlet(testOutlet(2))
	lifecycle.ToggleOutlet(testOutlet(3))
	_, regenerateErr := lifecycle.RegeneratePreview(context.Background())
	require.NoError(t, regenerateErr)
	require.ErrorIs(t, reentrantErr, badge.ErrOperationInFlight)
}
