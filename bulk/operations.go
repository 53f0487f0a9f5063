// ABOUTME: Typed bulk operations, one variant per entity type and operation name
// ABOUTME: Decodes the untyped parameter map into validated parameter structs
package bulk

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/harperreed/crmpulse/models"
)

var (
	ErrUnknownOperation  = errors.New("unknown operation")
	ErrInvalidParameters = errors.New("invalid parameters")
	ErrConfirmRequired   = errors.New("delete requires confirm=true")
	ErrNoNextBillingDate = errors.New("subscription has no next billing date")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Kind identifies an operation by entity type and name.
type Kind struct {
	EntityType string
	Name       string
}

func (k Kind) String() string {
	return k.EntityType + "." + k.Name
}

// Operation is one decoded bulk operation with its parameters.
type Operation interface {
	Kind() Kind
}

// Parameter records. Operations embed these so the JSON field names stay flat.

type StatusParams struct {
	Status string `json:"status" validate:"required"`
}

type TagsParams struct {
	Tags []string `json:"tags" validate:"required,min=1,dive,required"`
}

type NoteParams struct {
	Note      string `json:"note" validate:"required"`
	CreatedBy string `json:"created_by,omitempty"`
}

type LeadChangeStatus struct{ StatusParams }
type LeadAddTags struct{ TagsParams }
type LeadRemoveTags struct{ TagsParams }
type LeadAddNote struct{ NoteParams }

type LeadAssign struct {
	AssigneeID string `json:"assignee_id" validate:"required"`
}

// LeadDelete keeps Confirm untyped so only a JSON boolean true confirms.
type LeadDelete struct {
	Confirm interface{} `json:"confirm"`
}

// Confirmed reports whether confirm was literally true.
func (o LeadDelete) Confirmed() bool {
	b, ok := o.Confirm.(bool)
	return ok && b
}

type CompanyChangeStatus struct{ StatusParams }
type CompanyAddTags struct{ TagsParams }
type CompanyRemoveTags struct{ TagsParams }
type CompanyAddNote struct{ NoteParams }
type CompanyRecalculateHealth struct{}

type CompanyAssignCSManager struct {
	CSManagerID string `json:"cs_manager_id" validate:"required"`
}

// SubscriptionChangePlan accepts proration and effective date in any JSON shape.
// Only the plan is applied.
type SubscriptionChangePlan struct {
	PlanID        string      `json:"plan_id" validate:"required"`
	Prorate       interface{} `json:"prorate,omitempty"`
	EffectiveDate interface{} `json:"effective_date,omitempty"`
}

type SubscriptionChangeBillingCycle struct {
	BillingCycle string `json:"billing_cycle" validate:"required"`
}

type SubscriptionChangeStatus struct{ StatusParams }

type SubscriptionExtendNextBilling struct {
	Days int `json:"days" validate:"gt=0"`
}

func (LeadChangeStatus) Kind() Kind { return Kind{models.EntityLead, "change_status"} }
func (LeadAddTags) Kind() Kind      { return Kind{models.EntityLead, "add_tags"} }
func (LeadRemoveTags) Kind() Kind   { return Kind{models.EntityLead, "remove_tags"} }
func (LeadAssign) Kind() Kind       { return Kind{models.EntityLead, "assign"} }
func (LeadDelete) Kind() Kind       { return Kind{models.EntityLead, "delete"} }
func (LeadAddNote) Kind() Kind      { return Kind{models.EntityLead, "add_note"} }

func (CompanyChangeStatus) Kind() Kind      { return Kind{models.EntityCompany, "change_status"} }
func (CompanyAddTags) Kind() Kind           { return Kind{models.EntityCompany, "add_tags"} }
func (CompanyRemoveTags) Kind() Kind        { return Kind{models.EntityCompany, "remove_tags"} }
func (CompanyRecalculateHealth) Kind() Kind { return Kind{models.EntityCompany, "recalculate_health"} }
func (CompanyAssignCSManager) Kind() Kind   { return Kind{models.EntityCompany, "assign_cs_manager"} }
func (CompanyAddNote) Kind() Kind           { return Kind{models.EntityCompany, "add_note"} }

func (SubscriptionChangePlan) Kind() Kind { return Kind{models.EntitySubscription, "change_plan"} }
func (SubscriptionChangeBillingCycle) Kind() Kind {
	return Kind{models.EntitySubscription, "change_billing_cycle"}
}
func (SubscriptionChangeStatus) Kind() Kind { return Kind{models.EntitySubscription, "change_status"} }
func (SubscriptionExtendNextBilling) Kind() Kind {
	return Kind{models.EntitySubscription, "extend_next_billing"}
}

// registry maps each supported kind to a decoder for its parameters.
var registry = map[Kind]func(map[string]interface{}) (Operation, error){}

func register[T Operation]() {
	var zero T
	registry[zero.Kind()] = func(params map[string]interface{}) (Operation, error) {
		op, err := decodeParams[T](params)
		if err != nil {
			return nil, err
		}
		return op, nil
	}
}

func init() {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	register[LeadChangeStatus]()
	register[LeadAddTags]()
	register[LeadRemoveTags]()
	register[LeadAssign]()
	register[LeadDelete]()
	register[LeadAddNote]()

	register[CompanyChangeStatus]()
	register[CompanyAddTags]()
	register[CompanyRemoveTags]()
	register[CompanyRecalculateHealth]()
	register[CompanyAssignCSManager]()
	register[CompanyAddNote]()

	register[SubscriptionChangePlan]()
	register[SubscriptionChangeBillingCycle]()
	register[SubscriptionChangeStatus]()
	register[SubscriptionExtendNextBilling]()
}

// ParseOperation resolves (entityType, name) to a typed operation and decodes params into it.
func ParseOperation(entityType, name string, params map[string]interface{}) (Operation, error) {
	decode, ok := registry[Kind{EntityType: entityType, Name: name}]
	if !ok {
		return nil, fmt.Errorf("%w: %s for entity type %s", ErrUnknownOperation, name, entityType)
	}
	return decode(params)
}

// SupportedKinds lists every registered operation, sorted.
func SupportedKinds() []Kind {
	kinds := make([]Kind, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool {
		return kinds[i].String() < kinds[j].String()
	})
	return kinds
}

// decodeParams converts the loose parameter map into T via JSON and validates it.
func decodeParams[T any](params map[string]interface{}) (T, error) {
	var result T
	if params == nil {
		params = map[string]interface{}{}
	}

	b, err := json.Marshal(params)
	if err != nil {
		return result, fmt.Errorf("%w: %v", ErrInvalidParameters, err)
	}
	if err := json.Unmarshal(b, &result); err != nil {
		return result, fmt.Errorf("%w: %v", ErrInvalidParameters, err)
	}

	if err := validate.Struct(result); err != nil {
		return result, fmt.Errorf("%w: %s", ErrInvalidParameters, describeValidation(err))
	}

	return result, nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed rule '%s=%s'", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed rule '%s'", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
