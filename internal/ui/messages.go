// Package ui provides the Bubble Tea TUI for the catalog.
package ui

// noticeExpired clears a success message once it has been shown long enough.
// Only the newest notice's generation clears anything.
type noticeExpired struct {
	gen uint64
}
