package service

import (
	"context"
	"strings"

	"github.com/okian/playoffdraft/internal/domain/errs"
	"github.com/okian/playoffdraft/internal/domain/model"
	"github.com/okian/playoffdraft/pkg/logger"
)

// Me returns the permission of the calling user.
func (s *Service) Me(ctx context.Context) (model.Permission, error) {
	return s.permission(ctx, "service.me")
}

// Permissions lists every stored permission.
func (s *Service) Permissions(ctx context.Context) ([]model.Permission, error) {
	const op = "service.permissions"
	if err := s.requireAdmin(ctx, op); err != nil {
		return nil, err
	}
	return s.store.ListPermissions(ctx)
}

// SetPermission stores p. The last admin cannot drop their own admin flag.
func (s *Service) SetPermission(ctx context.Context, p model.Permission) error {
	const op = "service.set_permission"
	if err := s.requireAdmin(ctx, op); err != nil {
		return err
	}
	p.UserID = strings.TrimSpace(p.UserID)
	if p.UserID == "" {
		return errs.New(op, errs.ErrValidation, "user id is required")
	}
	if !p.IsAdmin && p.UserID == ActorFrom(ctx).UserID {
		n, err := s.store.CountAdmins(ctx)
		if err != nil {
			return err
		}
		if n <= 1 {
			return errs.New(op, errs.ErrConflict, "the last admin cannot remove their own admin rights")
		}
	}
	if err := s.store.SetPermission(ctx, p); err != nil {
		return err
	}
	s.logger.Info(ctx, "permission updated",
		logger.String("user", p.UserID),
		logger.Bool("edit_scores", p.EditScores),
		logger.Bool("is_admin", p.IsAdmin),
		logger.String("by", ActorFrom(ctx).UserID),
	)
	return nil
}

func (s *Service) ensureBootstrapAdmin(ctx context.Context) error {
	if s.bootstrapAdmin == "" {
		return nil
	}
	n, err := s.store.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if err := s.store.SetPermission(ctx, model.Permission{UserID: s.bootstrapAdmin, EditScores: true, IsAdmin: true}); err != nil {
		return err
	}
	s.logger.Info(ctx, "bootstrap admin granted", logger.String("user", s.bootstrapAdmin))
	return nil
}
