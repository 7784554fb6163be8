package signaling

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/mossy-p/roulette-signaling/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestHub(opts ...Option) *Hub {
	return NewHub(zap.NewNop(), opts...)
}

// firstCandidate makes matching deterministic
func firstCandidate(int) int { return 0 }

func connect(t *testing.T, h *Hub, id string) *Client {
	t.Helper()
	c := &Client{ID: id, Send: make(chan []byte, 64)}
	h.handleRegister(c)
	return c
}

func find(h *Hub, c *Client, identity string) {
	data := models.UserData{IsGuest: identity == ""}
	if identity != "" {
		data.SupabaseID = &identity
	}
	h.handleInbound(c, models.FindPartner{UserData: data})
}

// drain returns every frame queued for c so far
func drain(t *testing.T, c *Client) []models.Frame {
	t.Helper()
	var frames []models.Frame
	for {
		select {
		case data, ok := <-c.Send:
			if !ok {
				return frames
			}
			var f models.Frame
			require.NoError(t, json.Unmarshal(data, &f))
			frames = append(frames, f)
		default:
			return frames
		}
	}
}

// events drains c and drops online-count broadcasts
func events(t *testing.T, c *Client) []models.Frame {
	t.Helper()
	var out []models.Frame
	for _, f := range drain(t, c) {
		if f.Type != models.EventOnlineCount {
			out = append(out, f)
		}
	}
	return out
}

func partnerFound(t *testing.T, f models.Frame) models.PartnerFoundPayload {
	t.Helper()
	require.Equal(t, models.EventPartnerFound, f.Type)
	var p models.PartnerFoundPayload
	require.NoError(t, json.Unmarshal(f.Payload, &p))
	return p
}

// assertInvariants checks exclusivity, mirror symmetry and state consistency
func assertInvariants(t *testing.T, h *Hub) {
	t.Helper()

	queued := make(map[string]int)
	for _, id := range h.waiting {
		queued[id]++
	}
	for id, n := range queued {
		assert.Equal(t, 1, n, "connection %s queued more than once", id)
		_, paired := h.pairs[id]
		assert.False(t, paired, "connection %s both queued and paired", id)
	}

	for a, b := range h.pairs {
		assert.NotEqual(t, a, b, "connection %s paired with itself", a)
		assert.Equal(t, a, h.pairs[b], "pairing %s -> %s is not mirrored", a, b)
	}

	for id, c := range h.clients {
		_, paired := h.pairs[id]
		switch c.state {
		case statePaired:
			assert.True(t, paired, "%s marked paired without a pairing entry", id)
		case stateWaiting:
			assert.Equal(t, 1, queued[id], "%s marked waiting but not queued", id)
		default:
			assert.False(t, paired, "%s idle but paired", id)
			assert.Zero(t, queued[id], "%s idle but queued", id)
		}
	}
}

type recordingObserver struct {
	mu      sync.Mutex
	opened  int
	closed  int
	created int
	ended   int
	relayed []models.EventType
	dropped int
	last    models.Status
}

func (r *recordingObserver) ConnectionOpened(string) { r.mu.Lock(); r.opened++; r.mu.Unlock() }
func (r *recordingObserver) ConnectionClosed(string) { r.mu.Lock(); r.closed++; r.mu.Unlock() }
func (r *recordingObserver) PairCreated(string, string) {
	r.mu.Lock()
	r.created++
	r.mu.Unlock()
}
func (r *recordingObserver) PairEnded(string, string) { r.mu.Lock(); r.ended++; r.mu.Unlock() }
func (r *recordingObserver) Relayed(e models.EventType) {
	r.mu.Lock()
	r.relayed = append(r.relayed, e)
	r.mu.Unlock()
}
func (r *recordingObserver) SendDropped(string) { r.mu.Lock(); r.dropped++; r.mu.Unlock() }
func (r *recordingObserver) StatusChanged(s models.Status) {
	r.mu.Lock()
	r.last = s
	r.mu.Unlock()
}
