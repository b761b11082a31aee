package badge

import (
	"net/url"
	"strings"
)

const (
	// MinimumSelectionSize is the smallest selection a badge can be generated from.
	MinimumSelectionSize = 3
	// MaximumSelectionSize is the largest selection a badge may showcase.
	MaximumSelectionSize = 6
)

// Outlet represents one media placement eligible for badge inclusion.
type Outlet struct {
	ID           string
	WebsiteName  string
	PublishedURL string
	Domain       string
}

// SelectionKind classifies the size of a selection.
type SelectionKind int

const (
	SelectionEmpty SelectionKind = iota
	SelectionInsufficient
	SelectionValid
	SelectionExcess
)

func (kind SelectionKind) String() string {
	switch kind {
	case SelectionEmpty:
		return "empty"
	case SelectionInsufficient:
		return "insufficient"
	case SelectionValid:
		return "valid"
	case SelectionExcess:
		return "excess"
	default:
		return "unknown"
	}
}

// SelectionStatus is the result of classifying a selection. Needed is populated
// only for SelectionInsufficient.
type SelectionStatus struct {
	Kind   SelectionKind
	Count  int
	Needed int
}

// ClassifySelection classifies a selection size. Pure; used to gate generation
// and to render guidance text.
func ClassifySelection(count int) SelectionStatus {
	switch {
	case count == 0:
		return SelectionStatus{Kind: SelectionEmpty}
	case count < MinimumSelectionSize:
		return SelectionStatus{Kind: SelectionInsufficient, Count: count, Needed: MinimumSelectionSize - count}
	case count <= MaximumSelectionSize:
		return SelectionStatus{Kind: SelectionValid, Count: count}
	default:
		return SelectionStatus{Kind: SelectionExcess, Count: count}
	}
}

// Selection is the ordered, duplicate-free set of outlets chosen for a badge.
// Order is display order.
type Selection struct {
	outlets []Outlet
}

// Toggle flips the membership of an outlet. Removing always succeeds; adding
// succeeds below the maximum and is a silent no-op at capacity. The return
// value reports whether membership changed.
func (selection *Selection) Toggle(outlet Outlet) bool {
	for index, existing := range selection.outlets {
		if existing.ID == outlet.ID {
			selection.outlets = append(selection.outlets[:index], selection.outlets[index+1:]...)
			return true
		}
	}
	if len(selection.outlets) >= MaximumSelectionSize {
		return false
	}
	selection.outlets = append(selection.outlets, outlet)
	return true
}

// Contains reports whether an outlet with the given id is selected.
func (selection *Selection) Contains(outletID string) bool {
	for _, existing := range selection.outlets {
		if existing.ID == outletID {
			return true
		}
	}
	return false
}

// Outlets returns the selected outlets in display order.
func (selection *Selection) Outlets() []Outlet {
	outlets := make([]Outlet, len(selection.outlets))
	copy(outlets, selection.outlets)
	return outlets
}

// Count returns the number of selected outlets.
func (selection *Selection) Count() int {
	return len(selection.outlets)
}

// Clear removes all outlets from the selection.
func (selection *Selection) Clear() {
	selection.outlets = nil
}

// Status classifies the current selection.
func (selection *Selection) Status() SelectionStatus {
	return ClassifySelection(len(selection.outlets))
}

// DeriveDomain extracts the hostname from a published URL. Absent or
// unparsable URLs yield an empty domain rather than an error.
func DeriveDomain(publishedURL string) string {
	trimmedURL := strings.TrimSpace(publishedURL)
	if trimmedURL == "" {
		return ""
	}
	parsedURL, parseErr := url.Parse(trimmedURL)
	if parseErr != nil {
		return ""
	}
	return parsedURL.Hostname()
}
