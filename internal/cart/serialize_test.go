package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verdantfoods/storefront/internal/domain"
)

func TestMakeSnapshot_SelectionInCartOrder(t *testing.T) {
	lines := []domain.CartLine{
		{ProductID: "a", Quantity: 3},
		{ProductID: "b", Quantity: 1},
		{ProductID: "c", Quantity: 2},
	}
	selected := map[string]struct{}{"c": {}, "a": {}}

	snap := makeSnapshot("session-1", lines, selected)

	assert.Equal(t, "session-1", snap.SessionID)
	assert.Equal(t, lines, snap.Lines)
	assert.Equal(t, []string{"a", "c"}, snap.SelectedIDs)
}

func TestMakeSnapshot_CopiesLines(t *testing.T) {
	lines := []domain.CartLine{{ProductID: "a", Quantity: 3}}
	snap := makeSnapshot("s", lines, nil)

	lines[0].Quantity = 99
	assert.Equal(t, int32(3), snap.Lines[0].Quantity, "snapshot must not alias store state")
}

func TestRestoreSnapshot_Sanitizes(t *testing.T) {
	snap := &domain.CartSnapshot{
		SessionID: "session-1",
		Lines: []domain.CartLine{
			{ProductID: "a", Quantity: 3},
			{ProductID: "", Quantity: 2},  // no identity
			{ProductID: "b", Quantity: 0}, // quantity below 1
			{ProductID: "a", Quantity: 7}, // duplicate of a
			{ProductID: "c", Quantity: 1},
		},
		SelectedIDs: []string{"a", "b", "ghost"},
	}

	sessionID, lines, selected := restoreSnapshot(snap)

	assert.Equal(t, "session-1", sessionID)
	require.Equal(t, []domain.CartLine{
		{ProductID: "a", Quantity: 3},
		{ProductID: "c", Quantity: 1},
	}, lines)

	// Selection shrinks to surviving line IDs.
	assert.Equal(t, map[string]struct{}{"a": {}}, selected)
}

func TestSnapshotRoundTrip(t *testing.T) {
	lines := []domain.CartLine{
		{ProductID: "a", Quantity: 3},
		{ProductID: "b", Quantity: 1},
	}
	selected := map[string]struct{}{"b": {}}

	sessionID, gotLines, gotSelected := restoreSnapshot(makeSnapshot("s", lines, selected))

	assert.Equal(t, "s", sessionID)
	assert.Equal(t, lines, gotLines)
	assert.Equal(t, selected, gotSelected)
}
