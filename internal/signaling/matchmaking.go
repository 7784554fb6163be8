package signaling

import (
	"slices"

	"github.com/mossy-p/roulette-signaling/internal/models"
	"go.uber.org/zap"
)

// requestPartner pairs c with a random waiting connection, or queues it
func (h *Hub) requestPartner(c *Client, userData models.UserData) {
	if partnerID, paired := h.pairs[c.ID]; paired {
		h.logger.Debug("already paired, ignoring find-partner",
			zap.String("conn_id", c.ID), zap.String("partner_id", partnerID))
		return
	}

	// A repeated request replaces the stale queue entry
	h.removeFromQueue(c)

	userData = userData.WithIdentity(c.Identity)
	c.userData = &userData

	h.match(c)
}

// skipPartner ends the current pairing and immediately searches again
func (h *Hub) skipPartner(c *Client) {
	if _, paired := h.pairs[c.ID]; !paired {
		h.logger.Debug("not paired, ignoring skip-partner", zap.String("conn_id", c.ID))
		return
	}

	h.endPairing(c)
	h.removeFromQueue(c)
	h.match(c)
}

// stopSearch leaves the queue and ends any pairing without searching again
func (h *Hub) stopSearch(c *Client) {
	h.removeFromQueue(c)
	h.endPairing(c)
	h.logger.Info("stopped searching", zap.String("conn_id", c.ID))
}

// match runs the pairing step for a connection that is neither queued nor paired
func (h *Hub) match(c *Client) {
	candidates := h.availableCandidates(c)

	if len(candidates) == 0 {
		h.waiting = append(h.waiting, c.ID)
		c.state = stateWaiting
		h.sendEvent(c, models.EventSearching, nil)
		h.logger.Info("added to queue", zap.String("conn_id", c.ID), zap.Int("queue", len(h.waiting)))
		return
	}

	partner := candidates[h.pick(len(candidates))]
	h.removeFromQueue(partner)
	h.pair(c, partner)

	h.logger.Info("matched",
		zap.String("conn_id", c.ID),
		zap.String("partner_id", partner.ID),
		zap.Int("pairs", len(h.pairs)/2))

	// The requester creates the offer
	h.notifyPartnerFound(c, partner, true)
	h.notifyPartnerFound(partner, c, false)
}

// availableCandidates returns the waiting connections c may be paired with.
// Entries that are c itself, already paired or no longer registered are skipped.
func (h *Hub) availableCandidates(c *Client) []*Client {
	candidates := make([]*Client, 0, len(h.waiting))
	for _, id := range h.waiting {
		if id == c.ID {
			continue
		}
		if _, paired := h.pairs[id]; paired {
			continue
		}
		candidate, ok := h.clients[id]
		if !ok {
			continue
		}
		candidates = append(candidates, candidate)
	}
	return candidates
}

func (h *Hub) notifyPartnerFound(to, partner *Client, initiator bool) {
	data, err := models.PartnerFound(partner.ID, partner.userData.Identity(), initiator)
	if err != nil {
		h.logger.Error("failed to encode partner-found", zap.Error(err))
		return
	}
	h.send(to, data)
}

func (h *Hub) pair(a, b *Client) {
	h.pairs[a.ID] = b.ID
	h.pairs[b.ID] = a.ID
	a.state = statePaired
	b.state = statePaired
	h.observer.PairCreated(a.ID, b.ID)
}

// removeFromQueue drops every queue entry for c
func (h *Hub) removeFromQueue(c *Client) {
	before := len(h.waiting)
	h.waiting = slices.DeleteFunc(h.waiting, func(id string) bool {
		return id == c.ID
	})
	if len(h.waiting) != before {
		h.logger.Debug("removed from queue", zap.String("conn_id", c.ID))
	}
	if c.state == stateWaiting {
		c.state = stateIdle
	}
}

// endPairing destroys both directions of c's pairing and tells the partner
func (h *Hub) endPairing(c *Client) {
	partnerID, ok := h.pairs[c.ID]
	if !ok {
		return
	}

	delete(h.pairs, c.ID)
	c.state = stateIdle

	if back, ok := h.pairs[partnerID]; !ok || back != c.ID {
		h.logger.Error("one-sided pairing entry removed",
			zap.String("conn_id", c.ID), zap.String("partner_id", partnerID))
		return
	}
	delete(h.pairs, partnerID)

	if partner, ok := h.clients[partnerID]; ok {
		partner.state = stateIdle
		h.sendEvent(partner, models.EventPartnerDisconnected, nil)
	}

	h.logger.Info("pair disconnected",
		zap.String("conn_id", c.ID),
		zap.String("partner_id", partnerID),
		zap.Int("pairs", len(h.pairs)/2))
	h.observer.PairEnded(c.ID, partnerID)
}
