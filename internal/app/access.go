package app

import (
	"context"
	"fmt"

	"devexchange-service/internal/domain"
)

func requireUser(actor domain.Actor) error {
	if actor.UserID == "" {
		return domain.ErrLoginRequired
	}
	return nil
}

// requireOwner allows admins and the resource owner.
func requireOwner(actor domain.Actor, ownerID string) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	if actor.Admin || actor.UserID == ownerID {
		return nil
	}
	return domain.ErrNotOwner
}

func requireAdmin(actor domain.Actor) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	if !actor.Admin {
		return domain.ErrRoleRequired
	}
	return nil
}

func requireRole(ctx context.Context, roles RoleRepository, actor domain.Actor, role string) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	if actor.Admin {
		return nil
	}
	ok, err := roles.HasRole(ctx, actor.UserID, role)
	if err != nil {
		return fmt.Errorf("check role: %w", err)
	}
	if !ok {
		return domain.ErrRoleRequired
	}
	return nil
}
