package mirror

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stock-mirror/core/remote"
)

// ErrLocationNotFound means the store name matched no remote stock
// location. Fatal for a whole sync run: every subsequent write would be
// meaningless.
var ErrLocationNotFound = errors.New("remote location not found")

// FindLocationByName resolves a local store name to its remote stock
// location by case-insensitive exact name match over the full location
// list. Locations number in the dozens at most, so no pagination.
// Returns (nil, nil) when nothing matches.
func FindLocationByName(ctx context.Context, api remote.API, name string) (*remote.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("store name is required")
	}

	locations, err := api.ListLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list remote locations: %w", err)
	}
	for i := range locations {
		if strings.EqualFold(locations[i].Name, name) {
			return &locations[i], nil
		}
	}
	return nil, nil
}
