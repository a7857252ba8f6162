package registry

// Key returns the store key of a VM, unique across every host sharing the store.
func Key(hostID string, vmName string) string {
	return hostID + ":" + vmName
}
