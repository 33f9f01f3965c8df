package cart

import (
	"github.com/verdantfoods/storefront/internal/domain"
)

// The persistence contract is an explicit projection: full in-memory state
// maps to the minimal CartSnapshot shape and back. Enriched data (names,
// prices, stock) never crosses this boundary, so stale display values cannot
// survive a restart.

// makeSnapshot projects store state to its persisted shape. Lines keep cart
// order; the selection is stored in cart order too.
func makeSnapshot(sessionID string, lines []domain.CartLine, selected map[string]struct{}) *domain.CartSnapshot {
	snap := &domain.CartSnapshot{
		SessionID:   sessionID,
		Lines:       append([]domain.CartLine(nil), lines...),
		SelectedIDs: make([]string, 0, len(selected)),
	}
	for _, line := range lines {
		if _, ok := selected[line.ProductID]; ok {
			snap.SelectedIDs = append(snap.SelectedIDs, line.ProductID)
		}
	}
	return snap
}

// restoreSnapshot rebuilds in-memory state from a persisted snapshot,
// sanitizing what an old or hand-edited snapshot may contain: lines with a
// non-positive quantity or duplicate product ID are dropped, and the
// selection is reduced to a subset of surviving line IDs.
func restoreSnapshot(snap *domain.CartSnapshot) (sessionID string, lines []domain.CartLine, selected map[string]struct{}) {
	seen := make(map[string]struct{}, len(snap.Lines))
	for _, line := range snap.Lines {
		if line.ProductID == "" || line.Quantity < 1 {
			continue
		}
		if _, dup := seen[line.ProductID]; dup {
			continue
		}
		seen[line.ProductID] = struct{}{}
		lines = append(lines, line)
	}

	selected = make(map[string]struct{})
	for _, id := range snap.SelectedIDs {
		if _, ok := seen[id]; ok {
			selected[id] = struct{}{}
		}
	}

	return snap.SessionID, lines, selected
}
