// Package mailers renders the storefront's transactional emails and hands
// them to the worker pool. Sending is best-effort: a failure is logged and
// counted, and never reaches the request that triggered it.
package mailers

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/souq/app/models"
	"github.com/shashiranjanraj/souq/config"
	"github.com/shashiranjanraj/souq/pkg/logger"
	"github.com/shashiranjanraj/souq/pkg/mail"
	"github.com/shashiranjanraj/souq/pkg/metrics"
	"github.com/shashiranjanraj/souq/pkg/workerpool"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
}

func parse(name string) *template.Template {
	return template.Must(template.New(name).Funcs(funcs).
		ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html"))
}

var (
	orderConfirmationTmpl = parse("order_confirmation")
	verifyEmailTmpl       = parse("verify_email")
	resetPasswordTmpl     = parse("reset_password")
)

// Mail kinds, used as the metrics label and the worker task name.
const (
	KindOrderConfirmation = "order_confirmation"
	KindVerification      = "verification"
	KindPasswordReset     = "password_reset"
)

type Options struct {
	FrontendURL string
	AdminEmail  string // receives a copy of every order confirmation
	StoreName   string
}

func OptionsFromConfig() Options {
	return Options{
		FrontendURL: config.FrontendURL(),
		AdminEmail:  config.AdminEmail(),
		StoreName:   config.MailFromName(),
	}
}

type Mailer struct {
	mail mail.Mailer
	pool *workerpool.Pool
	opts Options
}

func New(m mail.Mailer, pool *workerpool.Pool, opts Options) *Mailer {
	opts.FrontendURL = strings.TrimRight(opts.FrontendURL, "/")
	if opts.StoreName == "" {
		opts.StoreName = "Souq"
	}
	return &Mailer{mail: m, pool: pool, opts: opts}
}

// SendOrderConfirmation mails the customer (and the admin copy address, if
// configured). order.Items must be loaded.
func (m *Mailer) SendOrderConfirmation(ctx context.Context, order *models.Order) {
	data := map[string]any{
		"Order": order,
		"Link":  m.opts.FrontendURL + "/orders/" + fmt.Sprint(order.ID),
	}
	subject := fmt.Sprintf("تأكيد الطلب %s | Order confirmation %s", order.OrderNumber, order.OrderNumber)
	text := fmt.Sprintf("Order %s\nTotal: %s\n%s\n", order.OrderNumber, order.Total.StringFixed(2), data["Link"])

	for _, to := range []string{order.Email, m.opts.AdminEmail} {
		if to == "" {
			continue
		}
		m.dispatch(ctx, KindOrderConfirmation, orderConfirmationTmpl, to, subject, text, data)
	}
}

// SendVerification mails the link that consumes the email token.
func (m *Mailer) SendVerification(ctx context.Context, user *models.User, token string) {
	link := m.opts.FrontendURL + "/verify-email?token=" + url.QueryEscape(token)
	m.dispatch(ctx, KindVerification, verifyEmailTmpl, user.Email,
		"تأكيد البريد الإلكتروني | Verify your email",
		"Verify your email: "+link+"\n",
		map[string]any{"User": user, "Link": link})
}

// SendPasswordReset mails the link that consumes the reset token.
func (m *Mailer) SendPasswordReset(ctx context.Context, user *models.User, token string) {
	link := m.opts.FrontendURL + "/reset-password?token=" + url.QueryEscape(token)
	m.dispatch(ctx, KindPasswordReset, resetPasswordTmpl, user.Email,
		"إعادة تعيين كلمة المرور | Reset your password",
		"Reset your password: "+link+"\n",
		map[string]any{"User": user, "Link": link})
}

func (m *Mailer) dispatch(ctx context.Context, kind string, tmpl *template.Template, to, subject, text string, data map[string]any) {
	data["Subject"] = subject
	data["StoreName"] = m.opts.StoreName

	var body bytes.Buffer
	if err := tmpl.ExecuteTemplate(&body, "layout", data); err != nil {
		metrics.MailFailures.WithLabelValues(kind).Inc()
		logger.WithCtx(ctx).Error("mail: render failed", "kind", kind, "error", err)
		return
	}
	msg := mail.Message{To: []string{to}, Subject: subject, HTML: body.String(), Text: text}

	err := m.pool.Go(ctx, "mail."+kind, func(ctx context.Context) error {
		if err := m.mail.Send(ctx, msg); err != nil {
			metrics.MailFailures.WithLabelValues(kind).Inc()
			return err
		}
		return nil
	})
	if err != nil {
		metrics.MailFailures.WithLabelValues(kind).Inc()
	}
}
