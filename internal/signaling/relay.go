package signaling

import (
	"github.com/mossy-p/roulette-signaling/internal/models"
	"go.uber.org/zap"
)

// relay forwards a signaling or chat event verbatim to the sender's partner.
// Messages from unpaired connections are dropped.
func (h *Hub) relay(from *Client, msg models.Inbound) {
	partnerID, ok := h.pairs[from.ID]
	if !ok {
		h.logger.Debug("no partner, dropping relay",
			zap.String("conn_id", from.ID), zap.String("type", string(msg.Event())))
		return
	}

	partner, ok := h.clients[partnerID]
	if !ok {
		h.logger.Error("partner missing from registry",
			zap.String("conn_id", from.ID), zap.String("partner_id", partnerID))
		return
	}

	data, err := models.Relayed(msg, from.ID)
	if err != nil {
		h.logger.Error("failed to encode relayed event", zap.String("conn_id", from.ID), zap.Error(err))
		return
	}

	h.send(partner, data)
	h.observer.Relayed(msg.Event())
}
