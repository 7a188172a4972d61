package device

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vishvananda/netlink"
)

const networkRefreshInterval = time.Second

// Network reports whether the Wi-Fi interface is up. The netlink query is cached for a
// second so the main loop can ask every tick.
type Network struct {
	iface      string
	simulation bool

	lock        sync.Mutex
	connected   bool
	refreshedAt time.Time
	lookup      func(name string) (bool, error)
}

func NewNetwork(iface string, simulation bool) *Network {
	return &Network{
		iface:      iface,
		simulation: simulation,
		lookup:     linkUp,
	}
}

func linkUp(name string) (bool, error) {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return false, err
	}
	return link.Attrs().OperState == netlink.OperUp, nil
}

func (n *Network) Connected(now time.Time) bool {
	if n.iface == "" {
		return false
	}
	if n.simulation {
		return true
	}

	n.lock.Lock()
	defer n.lock.Unlock()
	if !n.refreshedAt.IsZero() && now.Sub(n.refreshedAt) < networkRefreshInterval {
		return n.connected
	}
	n.refreshedAt = now

	connected, err := n.lookup(n.iface)
	if err != nil {
		logrus.Debugf("Unable to query %s: %v", n.iface, err)
	}
	if connected != n.connected {
		logrus.Infof("Network %s up: %v", n.iface, connected)
	}
	n.connected = connected
	return connected
}
