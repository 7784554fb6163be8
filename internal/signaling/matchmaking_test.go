package signaling

import (
	"fmt"
	"testing"

	"github.com/mossy-p/roulette-signaling/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindPartner_TwoConnections(t *testing.T) {
	h := newTestHub(WithPicker(firstCandidate))
	x := connect(t, h, "x")
	y := connect(t, h, "y")
	drain(t, x)
	drain(t, y)

	find(h, x, "identity-x")
	got := events(t, x)
	require.Len(t, got, 1)
	assert.Equal(t, models.EventSearching, got[0].Type)
	assert.Equal(t, []string{"x"}, h.waiting)

	find(h, y, "identity-y")

	xEvents := events(t, x)
	yEvents := events(t, y)
	require.Len(t, xEvents, 1)
	require.Len(t, yEvents, 1)

	xFound := partnerFound(t, xEvents[0])
	yFound := partnerFound(t, yEvents[0])

	assert.Equal(t, "y", xFound.PartnerID)
	assert.Equal(t, "x", yFound.PartnerID)
	assert.NotEqual(t, xFound.Initiator, yFound.Initiator, "exactly one side initiates")
	assert.True(t, yFound.Initiator, "the requester creates the offer")

	require.NotNil(t, xFound.PartnerIdentity)
	require.NotNil(t, yFound.PartnerIdentity)
	assert.Equal(t, "identity-y", *xFound.PartnerIdentity)
	assert.Equal(t, "identity-x", *yFound.PartnerIdentity)

	assert.Empty(t, h.waiting)
	assert.Equal(t, "y", h.pairs["x"])
	assert.Equal(t, "x", h.pairs["y"])
	assertInvariants(t, h)
}

func TestFindPartner_ThreeInOrder(t *testing.T) {
	h := newTestHub()
	x := connect(t, h, "x")
	y := connect(t, h, "y")
	z := connect(t, h, "z")

	find(h, x, "")
	find(h, y, "")
	find(h, z, "")

	assert.Equal(t, "y", h.pairs["x"])
	assert.Equal(t, "x", h.pairs["y"])
	assert.Equal(t, []string{"z"}, h.waiting)

	zEvents := events(t, z)
	require.Len(t, zEvents, 1)
	assert.Equal(t, models.EventSearching, zEvents[0].Type)

	// The pairing is never leaked to a third connection
	for _, f := range zEvents {
		assert.NotEqual(t, models.EventPartnerFound, f.Type)
	}
	assertInvariants(t, h)
}

func TestFindPartner_GuestHasNoIdentity(t *testing.T) {
	h := newTestHub()
	x := connect(t, h, "x")
	y := connect(t, h, "y")

	find(h, x, "")
	find(h, y, "")

	found := partnerFound(t, events(t, y)[0])
	assert.Nil(t, found.PartnerIdentity)
}

func TestFindPartner_VerifiedIdentityFillsGap(t *testing.T) {
	h := newTestHub()
	x := connect(t, h, "x")
	x.Identity = "guest-123"
	y := connect(t, h, "y")

	find(h, x, "")
	find(h, y, "")

	found := partnerFound(t, events(t, y)[0])
	require.NotNil(t, found.PartnerIdentity)
	assert.Equal(t, "guest-123", *found.PartnerIdentity)
}

func TestFindPartner_NeverMatchesSelf(t *testing.T) {
	h := newTestHub()
	x := connect(t, h, "x")

	find(h, x, "")
	find(h, x, "")
	find(h, x, "")

	assert.Equal(t, []string{"x"}, h.waiting, "repeated requests keep a single queue entry")
	assert.Empty(t, h.pairs)

	for _, f := range events(t, x) {
		assert.Equal(t, models.EventSearching, f.Type)
	}
	assertInvariants(t, h)
}

func TestFindPartner_IgnoredWhenPaired(t *testing.T) {
	h := newTestHub()
	x := connect(t, h, "x")
	y := connect(t, h, "y")
	z := connect(t, h, "z")

	find(h, x, "")
	find(h, y, "")
	find(h, z, "")
	drain(t, x)
	drain(t, y)

	// A stale request from a paired connection must not steal z
	find(h, x, "")

	assert.Empty(t, events(t, x))
	assert.Equal(t, "y", h.pairs["x"])
	assert.Equal(t, []string{"z"}, h.waiting)
	assertInvariants(t, h)
}

func TestFindPartner_SkipsStaleQueueEntries(t *testing.T) {
	h := newTestHub()
	x := connect(t, h, "x")

	// Entries for unknown or paired connections are filtered out
	h.waiting = append(h.waiting, "ghost")
	find(h, x, "")

	assert.Empty(t, h.pairs)
	assert.Contains(t, h.waiting, "x")
}

func TestFindPartner_RandomSelection(t *testing.T) {
	const trials = 300
	chosen := make(map[string]int)

	for range trials {
		h := newTestHub()
		for _, id := range []string{"a", "b", "c"} {
			c := connect(t, h, id)
			c.state = stateWaiting
			h.waiting = append(h.waiting, id)
		}

		r := connect(t, h, "requester")
		find(h, r, "")

		partner, ok := h.pairs["requester"]
		require.True(t, ok)
		chosen[partner]++
		assertInvariants(t, h)
	}

	for _, id := range []string{"a", "b", "c"} {
		assert.Positive(t, chosen[id], "candidate %s was never selected", id)
	}
}

func TestFindPartner_UsesPicker(t *testing.T) {
	var seen []int
	h := newTestHub(WithPicker(func(n int) int {
		seen = append(seen, n)
		return n - 1
	}))

	for i := range 3 {
		c := connect(t, h, fmt.Sprintf("w%d", i))
		c.state = stateWaiting
		h.waiting = append(h.waiting, c.ID)
	}
	r := connect(t, h, "r")
	find(h, r, "")

	assert.Equal(t, []int{3}, seen)
	assert.Equal(t, "w2", h.pairs["r"])
	assert.Equal(t, []string{"w0", "w1"}, h.waiting)
	assertInvariants(t, h)
}

func TestSkipPartner(t *testing.T) {
	tests := []struct {
		name        string
		thirdWaits  bool
		wantPartner string
		wantWaiting []string
	}{
		{
			name:        "re-queued when nobody waits",
			wantWaiting: []string{"x"},
		},
		{
			name:        "matched with waiting third connection",
			thirdWaits:  true,
			wantPartner: "z",
			wantWaiting: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHub()
			x := connect(t, h, "x")
			y := connect(t, h, "y")
			z := connect(t, h, "z")

			find(h, x, "")
			find(h, y, "")
			if tt.thirdWaits {
				find(h, z, "")
			}
			drain(t, x)
			drain(t, y)
			drain(t, z)

			h.handleInbound(x, models.SkipPartner{})

			yEvents := events(t, y)
			require.Len(t, yEvents, 1)
			assert.Equal(t, models.EventPartnerDisconnected, yEvents[0].Type)
			_, yPaired := h.pairs["y"]
			assert.False(t, yPaired)

			xEvents := events(t, x)
			require.Len(t, xEvents, 1)
			for _, f := range xEvents {
				assert.NotEqual(t, models.EventPartnerDisconnected, f.Type, "skipper is not told about its own action")
			}

			if tt.wantPartner != "" {
				assert.Equal(t, tt.wantPartner, h.pairs["x"])
				found := partnerFound(t, xEvents[0])
				assert.True(t, found.Initiator)
			} else {
				assert.Equal(t, models.EventSearching, xEvents[0].Type)
			}
			assert.ElementsMatch(t, tt.wantWaiting, h.waiting)
			assertInvariants(t, h)
		})
	}
}

func TestSkipPartner_NotPairedIsNoop(t *testing.T) {
	h := newTestHub()
	x := connect(t, h, "x")
	find(h, x, "")
	drain(t, x)

	h.handleInbound(x, models.SkipPartner{})

	assert.Empty(t, events(t, x))
	assert.Equal(t, []string{"x"}, h.waiting)
	assertInvariants(t, h)
}

func TestStopSearch(t *testing.T) {
	t.Run("while waiting", func(t *testing.T) {
		h := newTestHub()
		x := connect(t, h, "x")
		find(h, x, "")
		drain(t, x)

		h.handleInbound(x, models.StopSearch{})

		assert.Empty(t, h.waiting)
		assert.Equal(t, stateIdle, x.state)
		assert.Empty(t, events(t, x))
		assertInvariants(t, h)
	})

	t.Run("while paired", func(t *testing.T) {
		h := newTestHub()
		x := connect(t, h, "x")
		y := connect(t, h, "y")
		find(h, x, "")
		find(h, y, "")
		drain(t, x)
		drain(t, y)

		h.handleInbound(y, models.StopSearch{})

		xEvents := events(t, x)
		require.Len(t, xEvents, 1)
		assert.Equal(t, models.EventPartnerDisconnected, xEvents[0].Type)
		assert.Empty(t, events(t, y))
		assert.Empty(t, h.pairs)
		assert.Empty(t, h.waiting, "stop does not re-search")
		assertInvariants(t, h)
	})

	t.Run("while idle", func(t *testing.T) {
		h := newTestHub()
		x := connect(t, h, "x")
		drain(t, x)

		h.handleInbound(x, models.StopSearch{})

		assert.Empty(t, events(t, x))
		assertInvariants(t, h)
	})
}

func TestEndPairing_OneSidedEntryIsRemoved(t *testing.T) {
	h := newTestHub()
	x := connect(t, h, "x")
	y := connect(t, h, "y")
	drain(t, y)

	h.pairs["x"] = "y"
	x.state = statePaired

	h.handleInbound(x, models.StopSearch{})

	assert.Empty(t, h.pairs)
	assert.Empty(t, events(t, y), "the other side was never paired")
	assertInvariants(t, h)
}
