// Package version reads the release number shipped next to the
// ShadowPlex binary as version.json.
package version

import (
	"encoding/json"
	"log"
	"os"
)

// fallback is reported when version.json is missing or unreadable, so
// a stripped deployment still starts.
const fallback = "0.0.0-dev"

type Info struct {
	Version string `json:"version"`
}

func Load() Info {
	data, err := os.ReadFile("version.json")
	if err != nil {
		log.Printf("version: could not read version.json: %v", err)
		return Info{Version: fallback}
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		log.Printf("version: could not parse version.json: %v", err)
		return Info{Version: fallback}
	}
	if info.Version == "" {
		info.Version = fallback
	}
	return info
}
