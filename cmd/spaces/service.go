package main

import (
	"fmt"

	spaces "github.com/shidubei/DigitalOcean-ObjectSpaces"
	"github.com/shidubei/DigitalOcean-ObjectSpaces/config"
	"github.com/shidubei/DigitalOcean-ObjectSpaces/s3store"
)

// newService wires the S3 adapter and the file service from cfg.
func newService(cfg *config.Config) (*spaces.SpacesService, error) {
	store, err := s3store.New(cfg.Spaces)
	if err != nil {
		return nil, fmt.Errorf("create s3 store: %w", err)
	}

	service, err := spaces.NewSpacesService(store, cfg.Spaces)
	if err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}

	return service, nil
}
