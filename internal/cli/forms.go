package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"freightdesk/internal/access"
	"freightdesk/internal/model"
	"freightdesk/internal/wizard"
)

// formField binds a wizard field path to a prompt.
type formField[F any] struct {
	label  string
	secret bool
	ref    func(form *F) *string
}

var userFields = map[string]formField[model.UserForm]{
	"FirstName":       {label: "First name", ref: func(f *model.UserForm) *string { return &f.FirstName }},
	"LastName":        {label: "Last name", ref: func(f *model.UserForm) *string { return &f.LastName }},
	"Email":           {label: "Email", ref: func(f *model.UserForm) *string { return &f.Email }},
	"Phone":           {label: "Phone (+15551234567)", ref: func(f *model.UserForm) *string { return &f.Phone }},
	"Address.Street":  {label: "Street", ref: func(f *model.UserForm) *string { return &f.Address.Street }},
	"Address.City":    {label: "City", ref: func(f *model.UserForm) *string { return &f.Address.City }},
	"Address.State":   {label: "State (2 letters)", ref: func(f *model.UserForm) *string { return &f.Address.State }},
	"Address.Zip":     {label: "ZIP", ref: func(f *model.UserForm) *string { return &f.Address.Zip }},
	"Role":            {label: "Role", ref: func(f *model.UserForm) *string { return &f.Role }},
	"Password":        {label: "Password", secret: true, ref: func(f *model.UserForm) *string { return &f.Password }},
	"ConfirmPassword": {label: "Confirm password", secret: true, ref: func(f *model.UserForm) *string { return &f.ConfirmPassword }},
}

var carrierFields = map[string]formField[model.CarrierForm]{
	"CompanyName":    {label: "Company name", ref: func(f *model.CarrierForm) *string { return &f.CompanyName }},
	"MCNumber":       {label: "MC number", ref: func(f *model.CarrierForm) *string { return &f.MCNumber }},
	"USDOTNumber":    {label: "USDOT number", ref: func(f *model.CarrierForm) *string { return &f.USDOTNumber }},
	"ContactName":    {label: "Contact name", ref: func(f *model.CarrierForm) *string { return &f.ContactName }},
	"Email":          {label: "Email", ref: func(f *model.CarrierForm) *string { return &f.Email }},
	"Phone":          {label: "Phone", ref: func(f *model.CarrierForm) *string { return &f.Phone }},
	"Address.Street": {label: "Street", ref: func(f *model.CarrierForm) *string { return &f.Address.Street }},
	"Address.City":   {label: "City", ref: func(f *model.CarrierForm) *string { return &f.Address.City }},
	"Address.State":  {label: "State (2 letters)", ref: func(f *model.CarrierForm) *string { return &f.Address.State }},
	"Address.Zip":    {label: "ZIP", ref: func(f *model.CarrierForm) *string { return &f.Address.Zip }},
	"InsuranceName":  {label: "Insurance", ref: func(f *model.CarrierForm) *string { return &f.InsuranceName }},
	"PaymentTerms":   {label: "Payment terms (net15, net30, net45, quickpay)", ref: func(f *model.CarrierForm) *string { return &f.PaymentTerms }},
}

func hasForm(collection string) bool {
	return collection == model.CollectionUsers || collection == model.CollectionCarriers
}

// runFormWizard walks the step form of a collection; id selects edit mode.
func (c *Console) runFormWizard(ctx context.Context, collection, id string) error {
	switch collection {
	case model.CollectionUsers:
		hook := access.New(map[string]access.Operations[model.User]{
			collection: access.FromResource(c.api.Users),
		}, c.notifier)
		w, err := wizard.New(wizard.Config[model.UserForm, model.User]{
			Steps:    wizard.UserSteps,
			Linear:   true,
			Hook:     hook,
			Service:  collection,
			Notifier: c.notifier,
		})
		if err != nil {
			return err
		}
		return runSteps(ctx, c, w, hook, collection, id, userFields, userFormOf)

	case model.CollectionCarriers:
		hook := access.New(map[string]access.Operations[model.Carrier]{
			collection: access.FromResource(c.api.Carriers),
		}, c.notifier)
		w, err := wizard.New(wizard.Config[model.CarrierForm, model.Carrier]{
			Steps:    wizard.CarrierSteps,
			Linear:   true,
			Hook:     hook,
			Service:  collection,
			Notifier: c.notifier,
		})
		if err != nil {
			return err
		}
		return runSteps(ctx, c, w, hook, collection, id, carrierFields, carrierFormOf)

	default:
		return fmt.Errorf("%s have no step form, use --file or --set", collection)
	}
}

func runSteps[F, T any](
	ctx context.Context,
	c *Console,
	w *wizard.Wizard[F, T],
	hook *access.Hook[T],
	collection, id string,
	fields map[string]formField[F],
	formOf func(T) F,
) error {
	if id == "" {
		w.OpenCreate()
	} else {
		env := hook.GetDataByID(ctx, collection, id, "")
		if !env.Success {
			return errReported
		}
		w.OpenEdit(id, formOf(env.Data))
	}

	steps := w.Steps()
	for {
		active := w.ActiveStep()
		step := steps[active]
		fmt.Fprintf(c.streams.Out, "\n[%d/%d] %s\n", active+1, len(steps), step.Title)

		for _, path := range step.Fields {
			field, ok := fields[path]
			if !ok {
				return fmt.Errorf("no prompt for form field %s", path)
			}
			if err := promptField(c, w, field); err != nil {
				return err
			}
		}

		if !w.IsLast() {
			if err := w.Next(); err != nil && !errors.Is(err, model.ErrStepInvalid) {
				return err
			}
			// an invalid step was toasted by the wizard; ask again
			continue
		}

		env, err := w.Submit(ctx)
		if errors.Is(err, model.ErrStepInvalid) {
			continue
		}
		if err != nil {
			return err
		}
		if !env.Success {
			return errReported
		}
		return nil
	}
}

// promptField shows the current value as the default; an empty answer
// keeps it. Secrets never echo their current value.
func promptField[F, T any](c *Console, w *wizard.Wizard[F, T], field formField[F]) error {
	form := w.Form()
	current := *field.ref(&form)

	var (
		answer string
		err    error
	)
	switch {
	case field.secret:
		answer, err = c.promptSecret(field.label + ": ")
	case current != "":
		answer, err = c.prompt(fmt.Sprintf("%s [%s]: ", field.label, current))
	default:
		answer, err = c.prompt(field.label + ": ")
	}
	if err != nil {
		return err
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil
	}
	w.Edit(func(form *F) { *field.ref(form) = answer })
	return nil
}

func addressFormOf(a model.Address) model.AddressForm {
	return model.AddressForm{Street: a.Street, City: a.City, State: a.State, Zip: a.Zip, Country: a.Country}
}

func userFormOf(u model.User) model.UserForm {
	return model.UserForm{
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
		Address:   addressFormOf(u.Address),
	}
}

func carrierFormOf(c model.Carrier) model.CarrierForm {
	return model.CarrierForm{
		CompanyName:   c.CompanyName,
		MCNumber:      c.MCNumber,
		USDOTNumber:   c.USDOTNumber,
		ContactName:   c.ContactName,
		Email:         c.Email,
		Phone:         c.Phone,
		Address:       addressFormOf(c.Address),
		InsuranceName: c.InsuranceName,
		PaymentTerms:  c.PaymentTerms,
	}
}
