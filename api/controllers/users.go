package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/streamvault/streamvault-backend/api/responses"
	"github.com/streamvault/streamvault-backend/api/validators"
	"github.com/streamvault/streamvault-backend/internal/users"
	"github.com/streamvault/streamvault-backend/pkg/db/models"
	pkgerrors "github.com/streamvault/streamvault-backend/pkg/errors"
	"github.com/streamvault/streamvault-backend/pkg/logger"
	"github.com/streamvault/streamvault-backend/pkg/pagination"
)

// UserDirectory describes the user repository methods used by the HTTP
// controllers. *users.Repository satisfies it.
type UserDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, params pagination.Params) ([]models.User, *pagination.Cursor, error)
	UpdateIPTVCredentials(ctx context.Context, id uuid.UUID, username, lineToken *string) error
}

type userListResponse struct {
	Users      []users.UserDTO `json:"users"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

type iptvCredentialsRequest struct {
	IPTVUsername  *string `json:"iptv_username"`
	IPTVLineToken *string `json:"iptv_line_token"`
}

// Me returns the authenticated user's profile.
func Me(dir UserDirectory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if dir == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user directory unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		user, err := findUser(ctx, dir, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, users.FromModel(user))
	}
}

func AdminUsersList(dir UserDirectory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if dir == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user directory unavailable"))
			return
		}

		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		records, cursor, err := dir.List(ctx, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users"))
			return
		}

		result := userListResponse{
			Users:      make([]users.UserDTO, 0, len(records)),
			NextCursor: nextCursor(cursor),
		}
		for _, user := range records {
			result.Users = append(result.Users, *users.FromModel(&user))
		}
		responses.WriteSuccess(w, result)
	}
}

func AdminUserDetail(dir UserDirectory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if dir == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user directory unavailable"))
			return
		}

		userID, err := pathUUID(r, "userId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		user, err := findUser(ctx, dir, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, users.FromModel(user))
	}
}

// AdminUserIPTVUpdate records the upstream panel credentials provisioned for
// a customer. The line token never appears in responses.
func AdminUserIPTVUpdate(dir UserDirectory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if dir == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user directory unavailable"))
			return
		}

		userID, err := pathUUID(r, "userId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var body iptvCredentialsRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if body.IPTVUsername != nil {
			trimmed := strings.TrimSpace(*body.IPTVUsername)
			body.IPTVUsername = &trimmed
		}

		if _, err := findUser(ctx, dir, userID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := dir.UpdateIPTVCredentials(ctx, userID, body.IPTVUsername, body.IPTVLineToken); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update iptv credentials"))
			return
		}

		updated, err := findUser(ctx, dir, userID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, users.FromModel(updated))
	}
}

func findUser(ctx context.Context, dir UserDirectory, id uuid.UUID) (*models.User, error) {
	user, err := dir.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}
