// ABOUTME: Per-entity effects of each bulk operation variant
// ABOUTME: Tag and note updates are read-modify-write and not atomic across concurrent runs
package bulk

import (
	"context"
	"fmt"

	"github.com/harperreed/crmpulse/db"
	"github.com/harperreed/crmpulse/models"
)

// apply performs op on one entity.
func (p *Processor) apply(ctx context.Context, op Operation, id string) error {
	switch o := op.(type) {
	case LeadChangeStatus:
		return p.store.PatchLead(ctx, id, db.Patch{"status": o.Status})
	case LeadAddTags:
		lead, err := p.store.GetLead(ctx, id)
		if err != nil {
			return err
		}
		return p.store.PatchLead(ctx, id, db.Patch{"tags": unionTags(lead.Tags, o.Tags)})
	case LeadRemoveTags:
		lead, err := p.store.GetLead(ctx, id)
		if err != nil {
			return err
		}
		return p.store.PatchLead(ctx, id, db.Patch{"tags": removeTags(lead.Tags, o.Tags)})
	case LeadAssign:
		return p.store.PatchLead(ctx, id, db.Patch{"assigned_to": o.AssigneeID})
	case LeadDelete:
		if !o.Confirmed() {
			return ErrConfirmRequired
		}
		return p.store.DeleteLead(ctx, id)
	case LeadAddNote:
		lead, err := p.store.GetLead(ctx, id)
		if err != nil {
			return err
		}
		fields := p.appendNote(lead.CustomFields, o.NoteParams)
		return p.store.PatchLead(ctx, id, db.Patch{"custom_fields": fields})

	case CompanyChangeStatus:
		return p.store.PatchCompany(ctx, id, db.Patch{"status": o.Status})
	case CompanyAddTags:
		company, err := p.store.GetCompany(ctx, id)
		if err != nil {
			return err
		}
		return p.store.PatchCompany(ctx, id, db.Patch{"tags": unionTags(company.Tags, o.Tags)})
	case CompanyRemoveTags:
		company, err := p.store.GetCompany(ctx, id)
		if err != nil {
			return err
		}
		return p.store.PatchCompany(ctx, id, db.Patch{"tags": removeTags(company.Tags, o.Tags)})
	case CompanyRecalculateHealth:
		if _, err := p.store.GetCompany(ctx, id); err != nil {
			return err
		}
		_, err := p.scorer.Recalculate(ctx, id, p.store)
		return err
	case CompanyAssignCSManager:
		return p.store.PatchCompany(ctx, id, db.Patch{"cs_manager_id": o.CSManagerID})
	case CompanyAddNote:
		company, err := p.store.GetCompany(ctx, id)
		if err != nil {
			return err
		}
		fields := p.appendNote(company.CustomFields, o.NoteParams)
		return p.store.PatchCompany(ctx, id, db.Patch{"custom_fields": fields})

	case SubscriptionChangePlan:
		return p.store.PatchSubscription(ctx, id, db.Patch{"plan_id": o.PlanID})
	case SubscriptionChangeBillingCycle:
		return p.store.PatchSubscription(ctx, id, db.Patch{"billing_cycle": o.BillingCycle})
	case SubscriptionChangeStatus:
		return p.store.PatchSubscription(ctx, id, db.Patch{"status": o.Status})
	case SubscriptionExtendNextBilling:
		sub, err := p.store.GetSubscription(ctx, id)
		if err != nil {
			return err
		}
		if sub.NextBillingDate == nil {
			return fmt.Errorf("subscription %s: %w", id, ErrNoNextBillingDate)
		}
		next := sub.NextBillingDate.AddDate(0, 0, o.Days)
		return p.store.PatchSubscription(ctx, id, db.Patch{"next_billing_date": next})
	}

	return fmt.Errorf("%w: %T", ErrUnknownOperation, op)
}

// appendNote returns a copy of fields with note appended to the notes list.
func (p *Processor) appendNote(fields map[string]interface{}, note NoteParams) map[string]interface{} {
	out := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}

	var notes []interface{}
	switch existing := out[models.NotesField].(type) {
	case nil:
	case []interface{}:
		notes = append(notes, existing...)
	default:
		// A non-list value is kept as the first entry.
		notes = append(notes, existing)
	}
	notes = append(notes, map[string]interface{}{
		"note":       note.Note,
		"created_by": note.CreatedBy,
		"created_at": p.now().UTC(),
	})
	out[models.NotesField] = notes

	return out
}

// unionTags appends tags not already present, keeping existing order.
func unionTags(existing, add []string) []string {
	seen := make(map[string]bool, len(existing)+len(add))
	out := make([]string, 0, len(existing)+len(add))
	for _, t := range existing {
		seen[t] = true
		out = append(out, t)
	}
	for _, t := range add {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// removeTags drops every tag in remove.
func removeTags(existing, remove []string) []string {
	drop := make(map[string]bool, len(remove))
	for _, t := range remove {
		drop[t] = true
	}
	out := make([]string, 0, len(existing))
	for _, t := range existing {
		if !drop[t] {
			out = append(out, t)
		}
	}
	return out
}
