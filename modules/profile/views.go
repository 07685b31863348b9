package profile

import (
	"context"
	"fmt"
	"html"
	"io"

	"github.com/a-h/templ"

	"github.com/meshiya/membership/pkg/session"
	"github.com/meshiya/membership/svc/account"
)

type ProfileParams struct {
	Account       *account.Account
	IsPremiumUser bool
	Flashes       []session.Flash
}

type EditParams struct {
	Form             account.EditForm
	Errors           account.FieldErrors
	IsPremiumUser    bool
	StripeCustomerID string
}

// CheckoutParams carries the provider session id the page hands to the
// Stripe redirect script.
type CheckoutParams struct {
	SessionID string
	AccountID int64
}

type DowngradeParams struct {
	StripeCustomerID string
}

// Views are the page renderers. Production injects real templates; the
// defaults render plain HTML and keep the module usable out of the box.
type Views struct {
	Profile    func(ProfileParams) templ.Component
	Edit       func(EditParams) templ.Component
	Upgrade    func(CheckoutParams) templ.Component
	UpdateCard func(CheckoutParams) templ.Component
	Downgrade  func(DowngradeParams) templ.Component
}

func DefaultViews() *Views {
	return &Views{
		Profile:    defaultProfilePage,
		Edit:       defaultEditPage,
		Upgrade:    defaultCheckoutPage("Upgrade to premium"),
		UpdateCard: defaultCheckoutPage("Update your card"),
		Downgrade:  defaultDowngradePage,
	}
}

func page(title string, body func(w io.Writer) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, "<!doctype html><html><head><title>%s</title></head><body>", html.EscapeString(title)); err != nil {
			return err
		}
		if err := body(w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</body></html>")
		return err
	})
}

func writeFlashes(w io.Writer, flashes []session.Flash) error {
	for _, f := range flashes {
		if _, err := fmt.Fprintf(w, `<p class="flash flash-%s">%s</p>`,
			html.EscapeString(f.Kind), html.EscapeString(f.Message)); err != nil {
			return err
		}
	}
	return nil
}

func defaultProfilePage(p ProfileParams) templ.Component {
	return page("Your profile", func(w io.Writer) error {
		if err := writeFlashes(w, p.Flashes); err != nil {
			return err
		}
		tier := "Free member"
		if p.IsPremiumUser {
			tier = "Premium member"
		}
		_, err := fmt.Fprintf(w,
			`<h1>%s</h1><p>%s</p><p>%s</p><a href="/user/edit">Edit profile</a>`,
			html.EscapeString(p.Account.Name),
			html.EscapeString(p.Account.Email),
			tier)
		return err
	})
}

func defaultEditPage(p EditParams) templ.Component {
	return page("Edit profile", func(w io.Writer) error {
		if _, err := io.WriteString(w, `<h1>Edit profile</h1><form method="post" action="/user/update">`); err != nil {
			return err
		}
		fields := []struct {
			name, label, value string
		}{
			{"email", "Email", p.Form.Email},
			{"name", "Name", p.Form.Name},
			{"furigana", "Furigana", p.Form.Furigana},
			{"phone_number", "Phone number", p.Form.PhoneNumber},
			{"address", "Address", p.Form.Address},
			{"age", "Age", fmt.Sprintf("%d", p.Form.Age)},
			{"occupation", "Occupation", p.Form.Occupation},
		}
		for _, f := range fields {
			if _, err := fmt.Fprintf(w,
				`<label>%s <input name="%s" value="%s"></label>`,
				html.EscapeString(f.label), f.name, html.EscapeString(f.value)); err != nil {
				return err
			}
			if msg, ok := p.Errors[f.name]; ok {
				if _, err := fmt.Fprintf(w, `<p class="field-error">%s</p>`, html.EscapeString(msg)); err != nil {
					return err
				}
			}
		}
		_, err := io.WriteString(w, `<button type="submit">Save</button></form>`)
		return err
	})
}

func defaultCheckoutPage(title string) func(CheckoutParams) templ.Component {
	return func(p CheckoutParams) templ.Component {
		return page(title, func(w io.Writer) error {
			_, err := fmt.Fprintf(w,
				`<h1>%s</h1><div data-checkout-session-id="%s"></div>`,
				html.EscapeString(title), html.EscapeString(p.SessionID))
			return err
		})
	}
}

func defaultDowngradePage(p DowngradeParams) templ.Component {
	return page("Cancel premium plan", func(w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<h1>Cancel premium plan</h1><p>Billing customer: %s</p>`+
				`<form method="post" action="/user/cancel"><button type="submit">Cancel now</button></form>`+
				`<form method="post" action="/user/cancel-renewal"><button type="submit">Cancel at period end</button></form>`,
			html.EscapeString(p.StripeCustomerID))
		return err
	})
}
