// Package bridge attaches host interfaces to Linux bridges.
package bridge

import (
	"context"
	"fmt"

	"github.com/vishvananda/netlink"

	"github.com/canonical/vnicdb/shared/logger"
)

// Links is the subset of netlink used to manage bridge ports.
type Links interface {
	LinkByName(name string) (netlink.Link, error)
	LinkSetMaster(link netlink.Link, master netlink.Link) error
	LinkSetNoMaster(link netlink.Link) error
}

type netlinkLinks struct{}

func (netlinkLinks) LinkByName(name string) (netlink.Link, error) {
	return netlink.LinkByName(name)
}

func (netlinkLinks) LinkSetMaster(link netlink.Link, master netlink.Link) error {
	return netlink.LinkSetMaster(link, master)
}

func (netlinkLinks) LinkSetNoMaster(link netlink.Link) error {
	return netlink.LinkSetNoMaster(link)
}

// Manager adds and removes interfaces from bridges.
type Manager struct {
	links Links
}

// NewManager returns a Manager acting on the host network namespace.
func NewManager() *Manager {
	return &Manager{links: netlinkLinks{}}
}

// NewManagerWithLinks returns a Manager using the given link operations.
func NewManagerWithLinks(links Links) *Manager {
	return &Manager{links: links}
}

func (m *Manager) bridge(name string) (netlink.Link, error) {
	link, err := m.links.LinkByName(name)
	if err != nil {
		return nil, fmt.Errorf("Failed finding bridge %q: %w", name, err)
	}

	if link.Type() != "bridge" {
		return nil, fmt.Errorf("Interface %q isn't a bridge", name)
	}

	return link, nil
}

// AddIf attaches ifname to bridge.
func (m *Manager) AddIf(ctx context.Context, bridge string, ifname string) error {
	err := ctx.Err()
	if err != nil {
		return err
	}

	br, err := m.bridge(bridge)
	if err != nil {
		return err
	}

	link, err := m.links.LinkByName(ifname)
	if err != nil {
		return fmt.Errorf("Failed finding interface %q: %w", ifname, err)
	}

	err = m.links.LinkSetMaster(link, br)
	if err != nil {
		return fmt.Errorf("Failed adding %q to bridge %q: %w", ifname, bridge, err)
	}

	logger.Debug("Added interface to bridge", logger.Ctx{"bridge": bridge, "ifname": ifname})
	return nil
}

// DelIf detaches ifname from bridge. An interface attached elsewhere is left alone.
func (m *Manager) DelIf(ctx context.Context, bridge string, ifname string) error {
	err := ctx.Err()
	if err != nil {
		return err
	}

	br, err := m.bridge(bridge)
	if err != nil {
		return err
	}

	link, err := m.links.LinkByName(ifname)
	if err != nil {
		return fmt.Errorf("Failed finding interface %q: %w", ifname, err)
	}

	if link.Attrs().MasterIndex != br.Attrs().Index {
		logger.Debug("Interface isn't attached to bridge", logger.Ctx{"bridge": bridge, "ifname": ifname})
		return nil
	}

	err = m.links.LinkSetNoMaster(link)
	if err != nil {
		return fmt.Errorf("Failed removing %q from bridge %q: %w", ifname, bridge, err)
	}

	logger.Debug("Removed interface from bridge", logger.Ctx{"bridge": bridge, "ifname": ifname})
	return nil
}
