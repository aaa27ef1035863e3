package platform

import (
	"time"

	"github.com/google/uuid"
)

// Known third-party publishing platforms.
const (
	YouTube   = "youtube"
	Instagram = "instagram"
	TikTok    = "tiktok"
	X         = "x"
	Facebook  = "facebook"
)

// ValidPlatform reports whether s names a supported platform.
func ValidPlatform(s string) bool {
	switch s {
	case YouTube, Instagram, TikTok, X, Facebook:
		return true
	}
	return false
}

// Connection represents a row in the platform_connections table: a team's
// link to a third-party account used for cross-posting on approval.
type Connection struct {
	ID          uuid.UUID
	TeamID      uuid.UUID
	Platform    string
	Handle      string
	Active      bool
	ConnectedAt time.Time
}
