package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotsnap/internal/services"
	"github.com/desertthunder/spotsnap/internal/shared"
	"github.com/urfave/cli/v3"
)

type resourceLookup interface {
	LookupResource(ctx context.Context, id string) (*services.Resource, error)
}

// Lookup resolves a bare Spotify ID to the resource it refers to.
func (r *Runner) Lookup(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	useJSON := cmd.Bool("json")

	if id == "" {
		return fmt.Errorf("%w: resource ID required", shared.ErrMissingArgument)
	}

	lookup, ok := r.spotify.(resourceLookup)
	if !ok {
		return fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}

	resource, err := lookup.LookupResource(ctx, id)
	if err != nil {
		if retry, authErr := r.handleAuthError(ctx, err); retry {
			if authErr != nil {
				return authErr
			}
			if resource, err = lookup.LookupResource(ctx, id); err != nil {
				return err
			}
		} else {
			return err
		}
	}

	if useJSON {
		return r.writeJSON(resource, true)
	}

	r.writePlain("Kind: %s\n", resource.Kind)
	r.writePlain("ID: %s\n", resource.ID)
	r.writePlain("Name: %s\n", resource.Name)
	if resource.Detail != "" {
		r.writePlain("Detail: %s\n", resource.Detail)
	}

	return nil
}
