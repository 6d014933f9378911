//go:build !windows

package packeteer

// unsupportedOnIOSubsystem: the readiness-based backends (epoll/kqueue)
// support every connector type uniformly, so nothing is rejected here.
func unsupportedOnIOSubsystem(typ ConnectorType) bool {
	return false
}
