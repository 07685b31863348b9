package auth

import (
	"context"
	"fmt"
	"html"
	"io"

	"github.com/a-h/templ"

	"github.com/meshiya/membership/pkg/session"
	"github.com/meshiya/membership/svc/account"
)

type LoginParams struct {
	Email   string
	Flashes []session.Flash
}

type RegisterParams struct {
	Form   account.RegisterForm
	Errors account.FieldErrors
}

type RegisterSuccessParams struct {
	Email string
}

type VerifyParams struct {
	Message string
}

type Views struct {
	Login           func(LoginParams) templ.Component
	Register        func(RegisterParams) templ.Component
	RegisterSuccess func(RegisterSuccessParams) templ.Component
	Verify          func(VerifyParams) templ.Component
}

func DefaultViews() *Views {
	return &Views{
		Login:           defaultLoginPage,
		Register:        defaultRegisterPage,
		RegisterSuccess: defaultRegisterSuccessPage,
		Verify:          defaultVerifyPage,
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

func defaultLoginPage(p LoginParams) templ.Component {
	return page("Sign in", func(w io.Writer) error {
		for _, f := range p.Flashes {
			if _, err := fmt.Fprintf(w, `<p class="flash flash-%s">%s</p>`,
				html.EscapeString(f.Kind), html.EscapeString(f.Message)); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(w,
			`<h1>Sign in</h1><form method="post" action="/login">`+
				`<label>Email <input name="email" value="%s"></label>`+
				`<label>Password <input type="password" name="password"></label>`+
				`<button type="submit">Sign in</button></form>`+
				`<a href="/register">Create an account</a>`,
			html.EscapeString(p.Email))
		return err
	})
}

func defaultRegisterPage(p RegisterParams) templ.Component {
	return page("Create an account", func(w io.Writer) error {
		if _, err := io.WriteString(w, `<h1>Create an account</h1><form method="post" action="/register">`); err != nil {
			return err
		}
		fields := []struct {
			name, label, typ, value string
		}{
			{"email", "Email", "text", p.Form.Email},
			{"name", "Name", "text", p.Form.Name},
			{"password", "Password", "password", ""},
			{"password_confirm", "Confirm password", "password", ""},
		}
		for _, f := range fields {
			if _, err := fmt.Fprintf(w,
				`<label>%s <input type="%s" name="%s" value="%s"></label>`,
				html.EscapeString(f.label), f.typ, f.name, html.EscapeString(f.value)); err != nil {
				return err
			}
			if msg, ok := p.Errors[f.name]; ok {
				if _, err := fmt.Fprintf(w, `<p class="field-error">%s</p>`, html.EscapeString(msg)); err != nil {
					return err
				}
			}
		}
		_, err := io.WriteString(w, `<button type="submit">Register</button></form>`)
		return err
	})
}

func defaultRegisterSuccessPage(p RegisterSuccessParams) templ.Component {
	return page("Check your inbox", func(w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<h1>Almost there</h1><p>We sent a confirmation link to %s.</p>`,
			html.EscapeString(p.Email))
		return err
	})
}

func defaultVerifyPage(p VerifyParams) templ.Component {
	return page("Email verification", func(w io.Writer) error {
		_, err := fmt.Fprintf(w, `<h1>Email verification</h1><p>%s</p><a href="/login">Sign in</a>`,
			html.EscapeString(p.Message))
		return err
	})
}
