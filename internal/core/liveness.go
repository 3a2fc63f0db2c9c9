package core

import "time"

// monitorLiveness probes one connection on a fixed interval for as long as
// it stays registered. The probe is advisory: a silent peer is logged, never
// disconnected. The transport's own close event is the authority on death.
func (h *Hub) monitorLiveness(c *Client) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !c.send(&Event{Kind: EventPing}) {
				h.log.Debug().Str("conn_id", c.ID).Msg("ping dropped, event buffer full")
			}
			if age := time.Since(c.LastSeen()); age > 2*h.pingInterval {
				h.log.Debug().Str("conn_id", c.ID).Dur("silent_for", age).Msg("peer silent")
			}
		case <-c.Done():
			return
		}
	}
}
