package state

import "github.com/google/uuid"

// siteID identifies this process on the session channel.
var siteID = uuid.NewString()

// SiteID returns the identity this participant stamps on outgoing envelopes.
func SiteID() string {
	return siteID
}

// NewID allocates a globally unique stroke or text id.
func NewID() string {
	return uuid.NewString()
}
