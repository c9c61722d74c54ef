package dashboard

import (
	"fmt"

	"github.com/rocketscience/rocketscience/pkg/outcome"
)

// CacheMissMessage is shown when neither the API nor the cache has launches.
// It is different from an empty launch list.
const CacheMissMessage = "No cached data available. Connect to the internet to load launches."

// Message returns the user-facing text for a failure.
func Message(f *outcome.Failure) string {
	if f == nil {
		return ""
	}

	switch f.Kind {
	case outcome.KindCacheMiss:
		return CacheMissMessage
	case outcome.KindAPI:
		if f.StatusCode != 0 {
			return fmt.Sprintf("SpaceX API error (HTTP %d): %s", f.StatusCode, f.Message)
		}
		return "SpaceX API error: " + f.Message
	case outcome.KindNetwork:
		if f.Message == "" {
			return outcome.DefaultNetworkMessage
		}
		return f.Message
	case outcome.KindStorage:
		if f.Message == "" {
			return outcome.DefaultStorageMessage
		}
		return f.Message
	default:
		if f.Message == "" {
			return outcome.DefaultUnknownMessage
		}
		return f.Message
	}
}
