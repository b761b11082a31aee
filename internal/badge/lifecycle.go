package badge

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

const (
	logEventDiscoverBadge = "discover_badge"
)

// State enumerates the lifecycle positions of a badge editing session.
// Modeling the mode as one enum (rather than independent "existing" and
// "editing" booleans) rules out invalid combinations.
type State int

const (
	StateUninitialized State = iota
	StateDiscovering
	StateNoBadge
	StateEditingExisting
	StateGenerating
	StatePreviewReady
	StateDeleting
	StateError
)

func (state State) String() string {
	switch state {
	case StateUninitialized:
		return "uninitialized"
	case StateDiscovering:
		return "discovering"
	case StateNoBadge:
		return "no_badge"
	case StateEditingExisting:
		return "editing_existing"
	case StateGenerating:
		return "generating"
	case StatePreviewReady:
		return "preview_ready"
	case StateDeleting:
		return "deleting"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// DiscoveryContext carries the identifiers available when a badge editing
// session opens. Discovery evaluates them in priority order: explicit badge
// id, then a previously known badge id passed in by the caller, then a
// lookup by report/grid id.
type DiscoveryContext struct {
	ExplicitBadgeID string
	KnownBadgeID    string
	GridID          string
}

// Lifecycle orchestrates discovery, generation, preview regeneration and
// deletion of one badge against a store. It owns the badge identifier, the
// in-progress selection and the editing-mode state. Not safe for concurrent
// use; a single operation may be in flight at a time and overlapping triggers
// are rejected with ErrOperationInFlight.
type Lifecycle struct {
	store     Store
	logger    *zap.Logger
	discovery DiscoveryContext

	state         State
	pending       bool
	badgeID       string
	name          string
	description   string
	selection     Selection
	configuration Config
	document      string
	persisted     *Record
}

// NewLifecycle creates a lifecycle controller for the given discovery context.
func NewLifecycle(store Store, logger *zap.Logger, discovery DiscoveryContext) *Lifecycle {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lifecycle{
		store:         store,
		logger:        logger,
		discovery:     discovery,
		state:         StateUninitialized,
		configuration: DefaultConfig(),
	}
}

// State returns the current lifecycle state.
func (lifecycle *Lifecycle) State() State {
	return lifecycle.state
}

// BadgeID returns the persisted badge identifier, or an empty string before
// first creation.
func (lifecycle *Lifecycle) BadgeID() string {
	return lifecycle.badgeID
}

// Document returns the last synthesized document held by the controller.
func (lifecycle *Lifecycle) Document() string {
	return lifecycle.document
}

// SelectionStatus classifies the in-progress selection.
func (lifecycle *Lifecycle) SelectionStatus() SelectionStatus {
	return lifecycle.selection.Status()
}

// SelectedOutlets returns the in-progress selection in display order.
func (lifecycle *Lifecycle) SelectedOutlets() []Outlet {
	return lifecycle.selection.Outlets()
}

// ToggleOutlet flips the membership of an outlet in the selection, bounded by
// the selection rules.
func (lifecycle *Lifecycle) ToggleOutlet(outlet Outlet) bool {
	return lifecycle.selection.Toggle(outlet)
}

// ClearSelection empties the in-progress selection.
func (lifecycle *Lifecycle) ClearSelection() {
	lifecycle.selection.Clear()
}

// PersistedRecord returns the last persisted badge, if any.
func (lifecycle *Lifecycle) PersistedRecord() (Record, bool) {
	if lifecycle.persisted == nil {
		return Record{}, false
	}
	return *lifecycle.persisted, true
}

func (lifecycle *Lifecycle) beginOperation() error {
	if lifecycle.pending {
		return ErrOperationInFlight
	}
	lifecycle.pending = true
	return nil
}

func (lifecycle *Lifecycle) endOperation() {
	lifecycle.pending = false
}

// Discover locates an existing badge per the discovery priority. A miss,
// whether not-found or a backend fault, ends in StateNoBadge with an empty
// selection and is never surfaced as an error: absence of a badge is an
// expected outcome. A hit populates the selection from the persisted websites
// and enters StateEditingExisting.
func (lifecycle *Lifecycle) Discover(ctx context.Context) (State, error) {
	if beginErr := lifecycle.beginOperation(); beginErr != nil {
		return lifecycle.state, beginErr
	}
	defer lifecycle.endOperation()

	lifecycle.state = StateDiscovering

	record, found := lifecycle.lookupExisting(ctx)
	if !found {
		lifecycle.resetToInitial()
		lifecycle.state = StateNoBadge
		return lifecycle.state, nil
	}

	lifecycle.adoptRecord(record)
	lifecycle.state = StateEditingExisting
	return lifecycle.state, nil
}

func (lifecycle *Lifecycle) lookupExisting(ctx context.Context) (Record, bool) {
	type discoveryCandidate struct {
		identifier string
		fetch      func(context.Context, string) (Record, error)
	}

	candidates := []discoveryCandidate{
		{identifier: lifecycle.discovery.ExplicitBadgeID, fetch: lifecycle.store.GetByBadgeID},
		{identifier: lifecycle.discovery.KnownBadgeID, fetch: lifecycle.store.GetByBadgeID},
		{identifier: lifecycle.discovery.GridID, fetch: lifecycle.store.GetByGridID},
	}

	for _, candidate := range candidates {
		identifier := strings.TrimSpace(candidate.identifier)
		if identifier == "" {
			continue
		}
		record, fetchErr := candidate.fetch(ctx, identifier)
		if fetchErr == nil {
			return record, true
		}
		if !errors.Is(fetchErr, ErrBadgeNotFound) {
			lifecycle.logger.Warn(logEventDiscoverBadge, zap.Error(fetchErr))
		}
	}
	return Record{}, false
}

// Generate synthesizes the document from the current selection and persists
// it: create on first generation, id-addressed update afterwards. The
// selection must classify as valid; an invalid selection yields a
// ValidationError before any store contact. On store failure the prior state,
// selection and document are preserved for retry.
func (lifecycle *Lifecycle) Generate(ctx context.Context, name string, description string) (Record, error) {
	if beginErr := lifecycle.beginOperation(); beginErr != nil {
		return Record{}, beginErr
	}
	defer lifecycle.endOperation()

	status := lifecycle.selection.Status()
	if status.Kind != SelectionValid {
		return Record{}, &ValidationError{Status: status}
	}

	priorState := lifecycle.state
	lifecycle.state = StateGenerating

	outlets := lifecycle.selection.Outlets()
	document, synthesisErr := Synthesize(outlets, lifecycle.configuration, Metadata{Name: name})
	if synthesisErr != nil {
		lifecycle.state = priorState
		return Record{}, synthesisErr
	}

	record := Record{
		BadgeID:      lifecycle.badgeID,
		GridID:       lifecycle.discovery.GridID,
		Name:         name,
		Description:  description,
		Websites:     websitesFromOutlets(outlets),
		Config:       lifecycle.configuration,
		HTMLDocument: document,
	}

	if lifecycle.badgeID == "" {
		createdRecord, createErr := lifecycle.store.Create(ctx, record)
		if createErr != nil {
			lifecycle.state = priorState
			return Record{}, &StoreError{Operation: StoreOperationSave, Err: createErr}
		}
		record = createdRecord
	} else {
		if updateErr := lifecycle.store.Update(ctx, record); updateErr != nil {
			lifecycle.state = priorState
			return Record{}, &StoreError{Operation: StoreOperationSave, Err: updateErr}
		}
		if lifecycle.persisted != nil {
			record.GeneratedAt = lifecycle.persisted.GeneratedAt
		}
	}

	lifecycle.badgeID = record.BadgeID
	lifecycle.name = record.Name
	lifecycle.description = record.Description
	lifecycle.document = record.HTMLDocument
	persistedCopy := record
	lifecycle.persisted = &persistedCopy
	lifecycle.state = StatePreviewReady
	return record, nil
}

// RegeneratePreview re-synthesizes the document from the current selection
// and configuration and updates the stored badge with the fresh document only.
// The badge identity and its name/description are untouched.
func (lifecycle *Lifecycle) RegeneratePreview(ctx context.Context) (string, error) {
	if beginErr := lifecycle.beginOperation(); beginErr != nil {
		return "", beginErr
	}
	defer lifecycle.endOperation()

	if lifecycle.badgeID == "" {
		return "", ErrNoBadgeIdentifier
	}

	status := lifecycle.selection.Status()
	if status.Kind != SelectionValid {
		return "", &ValidationError{Status: status}
	}

	outlets := lifecycle.selection.Outlets()
	document, synthesisErr := Synthesize(outlets, lifecycle.configuration, Metadata{Name: lifecycle.name})
	if synthesisErr != nil {
		return "", synthesisErr
	}

	record := Record{BadgeID: lifecycle.badgeID, GridID: lifecycle.discovery.GridID, Name: lifecycle.name, Description: lifecycle.description}
	if lifecycle.persisted != nil {
		record = *lifecycle.persisted
	}
	record.Websites = websitesFromOutlets(outlets)
	record.Config = lifecycle.configuration
	record.HTMLDocument = document

	if updateErr := lifecycle.store.Update(ctx, record); updateErr != nil {
		return "", &StoreError{Operation: StoreOperationSave, Err: updateErr}
	}

	lifecycle.document = document
	persistedCopy := record
	lifecycle.persisted = &persistedCopy
	lifecycle.state = StatePreviewReady
	return document, nil
}

// Delete removes the persisted badge. Obtaining user confirmation is the
// caller's concern. Success resets all local state to initial values; deletion
// is never partial. Failure leaves every piece of local state intact: the
// badge still exists.
func (lifecycle *Lifecycle) Delete(ctx context.Context) error {
	if beginErr := lifecycle.beginOperation(); beginErr != nil {
		return beginErr
	}
	defer lifecycle.endOperation()

	if lifecycle.badgeID == "" {
		return ErrNoBadgeIdentifier
	}

	priorState := lifecycle.state
	lifecycle.state = StateDeleting

	if deleteErr := lifecycle.store.Delete(ctx, lifecycle.badgeID); deleteErr != nil {
		lifecycle.state = priorState
		return &StoreError{Operation: StoreOperationDelete, Err: deleteErr}
	}

	lifecycle.resetToInitial()
	lifecycle.state = StateNoBadge
	return nil
}

// Reset discards in-memory edits and returns to the last persisted badge
// state, or to the empty no-badge state when nothing was ever persisted. The
// store is not contacted.
func (lifecycle *Lifecycle) Reset() State {
	if lifecycle.persisted == nil {
		lifecycle.resetToInitial()
		lifecycle.state = StateNoBadge
		return lifecycle.state
	}
	lifecycle.adoptRecord(*lifecycle.persisted)
	lifecycle.state = StateEditingExisting
	return lifecycle.state
}

func (lifecycle *Lifecycle) resetToInitial() {
	lifecycle.badgeID = ""
	lifecycle.name = ""
	lifecycle.description = ""
	lifecycle.document = ""
	lifecycle.persisted = nil
	lifecycle.selection.Clear()
	lifecycle.configuration = DefaultConfig()
}

func (lifecycle *Lifecycle) adoptRecord(record Record) {
	persistedCopy := record
	lifecycle.persisted = &persistedCopy
	lifecycle.badgeID = record.BadgeID
	lifecycle.name = record.Name
	lifecycle.description = record.Description
	lifecycle.configuration = record.Config
	lifecycle.document = record.HTMLDocument
	lifecycle.selection = selectionFromWebsites(record.Websites)
}

func selectionFromWebsites(websites []Website) Selection {
	var selection Selection
	for _, website := range websites {
		selection.Toggle(Outlet{
			ID:           website.OutletID,
			WebsiteName:  website.WebsiteName,
			PublishedURL: website.PublishedURL,
			Domain:       website.Domain,
		})
	}
	return selection
}

// websitesFromOutlets denormalizes the selection into the persisted snapshot,
// resolving logo assets and domains at persist time.
func websitesFromOutlets(outlets []Outlet) []Website {
	websites := make([]Website, 0, len(outlets))
	for _, outlet := range outlets {
		websites = append(websites, Website{
			OutletID:     outlet.ID,
			WebsiteName:  outlet.WebsiteName,
			PublishedURL: outlet.PublishedURL,
			LogoURL:      ResolveLogo(outlet.WebsiteName),
			Domain:       DeriveDomain(outlet.PublishedURL),
		})
	}
	return websites
}
