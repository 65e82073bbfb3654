// internal/conversation/handlers/profile.go
package handlers

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"careescapes-workers/internal/common/validation"
	"careescapes-workers/internal/models"
)

func (h *Handlers) provideName(ctx context.Context, in Input) Result {
	if r := missing(in.Entities, "save your details", models.EntityFirstName); r != nil {
		return *r
	}

	first := in.Entities.Get(models.EntityFirstName)
	last := in.Entities.Get(models.EntityLastName)
	email := in.Entities.Get(models.EntityEmail)
	mobile := in.Entities.Get(models.EntityMobile)

	if email != "" && !validation.ValidateEmail(email) {
		return Result{
			Text:   fmt.Sprintf("The email address %q doesn't look valid. Could you check it?", email),
			Status: StatusInputError,
		}
	}

	if userID := in.Entities.Get(models.EntityUserID); userID != "" {
		user, err := h.deps.Users.UpdateUser(ctx, userID, models.UserUpdate{
			FirstName: first,
			LastName:  last,
			EmailID:   email,
			Mobile:    mobile,
		})
		if err != nil {
			return h.collaboratorFailure("Failed to update user", err, map[string]interface{}{"userId": userID})
		}
		return Result{
			Text:    fmt.Sprintf("Thanks, %s! Your profile has been updated.", user.FirstName),
			Status:  StatusOK,
			Learned: models.EntityBag{models.EntityUserID: user.UserID},
		}
	}

	if last != "" {
		if existing := h.findExactUser(ctx, first, last); existing != nil {
			return Result{
				Text:    fmt.Sprintf("Welcome back, %s! How can I help you today?", existing.FullName()),
				Status:  StatusOK,
				Learned: models.EntityBag{models.EntityUserID: existing.UserID},
			}
		}
	}

	if email == "" {
		email = h.placeholderEmail(first, last)
	}

	user, err := h.deps.Users.CreateUser(ctx, models.NewUser{
		FirstName: first,
		LastName:  last,
		EmailID:   email,
		Mobile:    mobile,
	})
	if err != nil {
		return h.collaboratorFailure("Failed to create user", err, nil)
	}

	h.logger.Info("user created", map[string]interface{}{"userId": user.UserID})
	return Result{
		Text:    fmt.Sprintf("Nice to meet you, %s! Your profile has been created.", user.FirstName),
		Status:  StatusOK,
		Learned: models.EntityBag{models.EntityUserID: user.UserID},
	}
}

// findExactUser returns the first user whose first and last name match
// case-insensitively. Lookup failures are logged and treated as no match.
func (h *Handlers) findExactUser(ctx context.Context, first, last string) *models.User {
	users, err := h.deps.Users.FindUserByName(ctx, first, last)
	if err != nil {
		h.logger.Warn("user lookup failed, creating a new profile", map[string]interface{}{"error": err})
		return nil
	}
	for i := range users {
		if strings.EqualFold(users[i].FirstName, first) && strings.EqualFold(users[i].LastName, last) {
			return &users[i]
		}
	}
	return nil
}

func (h *Handlers) placeholderEmail(first, last string) string {
	local := emailPart(first)
	if l := emailPart(last); l != "" {
		local += "." + l
	}
	if local == "" {
		local = "guest"
	}
	return local + "@" + h.opts.PlaceholderEmailDomain
}

func emailPart(s string) string {
	return strings.Map(func(r rune) rune {
		r = unicode.ToLower(r)
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, s)
}
