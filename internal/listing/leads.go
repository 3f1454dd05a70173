// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package listing

import (
	"context"
	"fmt"
	"strings"

	"github.com/olegiv/uphouse/internal/backend"
	"github.com/olegiv/uphouse/internal/model"
	"github.com/olegiv/uphouse/internal/validation"
)

// Leads is the contact lead repository. Who may read or delete leads is
// decided by the backend.
type Leads struct {
	store backend.Leads
}

// NewLeads returns a lead repository.
func NewLeads(store backend.Leads) *Leads {
	return &Leads{store: store}
}

// Create validates and inserts a lead. An empty message is stored as null.
func (r *Leads) Create(ctx context.Context, p backend.Principal, lead model.Lead) error {
	lead.Name = strings.TrimSpace(lead.Name)
	lead.Phone = strings.TrimSpace(lead.Phone)
	lead.Email = strings.TrimSpace(lead.Email)
	if lead.Message != nil {
		msg := strings.TrimSpace(*lead.Message)
		lead.Message = &msg
		if msg == "" {
			lead.Message = nil
		}
	}

	if err := validation.Struct(lead); err != nil {
		return err
	}
	if err := r.store.CreateLead(ctx, p, lead); err != nil {
		return fmt.Errorf("creating lead: %w", err)
	}
	return nil
}

// List returns leads newest first.
func (r *Leads) List(ctx context.Context, p backend.Principal) ([]model.Lead, error) {
	leads, err := r.store.ListLeads(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("listing leads: %w", err)
	}
	return leads, nil
}

// Delete removes one lead.
func (r *Leads) Delete(ctx context.Context, p backend.Principal, id string) error {
	if err := r.store.DeleteLead(ctx, p, id); err != nil {
		return fmt.Errorf("deleting lead: %w", err)
	}
	return nil
}

// Count returns the number of leads visible to p.
func (r *Leads) Count(ctx context.Context, p backend.Principal) (int, error) {
	n, err := r.store.CountLeads(ctx, p)
	if err != nil {
		return 0, fmt.Errorf("counting leads: %w", err)
	}
	return n, nil
}
