// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package dispatch

import "codeberg.org/oliverandrich/accounts-api/internal/models"

// Permission decides whether an identity may reach an endpoint's handlers.
// A nil account is an anonymous request.
type Permission func(account *models.Account) bool

// Public admits every request.
func Public(*models.Account) bool {
	return true
}

// Authenticated admits any known account.
func Authenticated(account *models.Account) bool {
	return account != nil
}

// Staff admits staff accounts.
func Staff(account *models.Account) bool {
	return account != nil && account.IsStaff
}

// Superuser admits superuser accounts.
func Superuser(account *models.Account) bool {
	return account != nil && account.IsSuperuser
}
