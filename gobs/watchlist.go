// Copyright (c) 2025 BVK Chaitanya

package gobs

const (
	RowTypeSeparator = "separator"
	RowTypeMarket    = "market"
)

// WatchlistRow describes one persisted row. Market is empty for separators.
type WatchlistRow struct {
	Type   string `json:"type"`
	Market string `json:"market,omitempty"`
}

// WatchlistState is the persisted state of a watchlist pane. Selected, when
// non-nil, is an index into Rows.
type WatchlistState struct {
	URI      string          `json:"uri"`
	Selected *int            `json:"selected"`
	Rows     []*WatchlistRow `json:"rows"`
}

func SeparatorRow() *WatchlistRow {
	return &WatchlistRow{Type: RowTypeSeparator}
}

func MarketRow(id string) *WatchlistRow {
	return &WatchlistRow{Type: RowTypeMarket, Market: id}
}

// StoredWatchlist is the database encoding of a WatchlistState. Gob cannot
// tell a nil *int from a pointer to zero, so selection is kept as a flag and
// an index.
type StoredWatchlist struct {
	URI string

	HasSelection bool
	Selected     int

	Rows []*WatchlistRow
}

func (v *WatchlistState) Stored() *StoredWatchlist {
	s := &StoredWatchlist{URI: v.URI, Rows: v.Rows}
	if v.Selected != nil {
		s.HasSelection = true
		s.Selected = *v.Selected
	}
	return s
}

func (v *StoredWatchlist) State() *WatchlistState {
	s := &WatchlistState{URI: v.URI, Rows: v.Rows}
	if v.HasSelection {
		p := v.Selected
		s.Selected = &p
	}
	return s
}
