package signaling

import "github.com/mossy-p/roulette-signaling/internal/models"

// Observer receives lifecycle notifications from the hub goroutine.
// Implementations must return quickly and never call back into the Hub.
type Observer interface {
	ConnectionOpened(id string)
	ConnectionClosed(id string)
	PairCreated(a, b string)
	PairEnded(a, b string)
	Relayed(event models.EventType)
	SendDropped(id string)
	StatusChanged(status models.Status)
}

// Observers fans notifications out to several observers in order
type Observers []Observer

func (o Observers) ConnectionOpened(id string) {
	for _, obs := range o {
		obs.ConnectionOpened(id)
	}
}

func (o Observers) ConnectionClosed(id string) {
	for _, obs := range o {
		obs.ConnectionClosed(id)
	}
}

func (o Observers) PairCreated(a, b string) {
	for _, obs := range o {
		obs.PairCreated(a, b)
	}
}

func (o Observers) PairEnded(a, b string) {
	for _, obs := range o {
		obs.PairEnded(a, b)
	}
}

func (o Observers) Relayed(event models.EventType) {
	for _, obs := range o {
		obs.Relayed(event)
	}
}

func (o Observers) SendDropped(id string) {
	for _, obs := range o {
		obs.SendDropped(id)
	}
}

func (o Observers) StatusChanged(status models.Status) {
	for _, obs := range o {
		obs.StatusChanged(status)
	}
}

type nopObserver struct{}

func (nopObserver) ConnectionOpened(string)     {}
func (nopObserver) ConnectionClosed(string)     {}
func (nopObserver) PairCreated(string, string)  {}
func (nopObserver) PairEnded(string, string)    {}
func (nopObserver) Relayed(models.EventType)    {}
func (nopObserver) SendDropped(string)          {}
func (nopObserver) StatusChanged(models.Status) {}
