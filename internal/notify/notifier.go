package notify

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/checkout-service-go/internal/user"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var funcs = map[string]any{"upper": strings.ToUpper}

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html.tmpl"))
	textTemplates = texttemplate.Must(texttemplate.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.txt.tmpl"))
)

// Notifier renders and sends the customer-facing order emails.
type Notifier struct {
	mailer      Mailer
	storeName   string
	frontendURL string
}

func NewNotifier(mailer Mailer, storeName, frontendURL string) *Notifier {
	return &Notifier{mailer: mailer, storeName: storeName, frontendURL: strings.TrimRight(frontendURL, "/")}
}

type emailData struct {
	Store    string
	Customer user.User
	Order    *order.Order
	OrderURL string
}

func (n *Notifier) OrderPlaced(ctx context.Context, u user.User, o *order.Order) error {
	return n.send(ctx, u, o, "order_placed",
		fmt.Sprintf("%s Order Confirmation - #%s", n.storeName, o.ID))
}

func (n *Notifier) PaymentConfirmed(ctx context.Context, u user.User, o *order.Order) error {
	return n.send(ctx, u, o, "payment_confirmed",
		fmt.Sprintf("%s Payment Received - #%s", n.storeName, o.ID))
}

func (n *Notifier) send(ctx context.Context, u user.User, o *order.Order, name, subject string) error {
	if u.Email == "" {
		return fmt.Errorf("%s: user %s has no email", name, u.ID)
	}

	data := emailData{
		Store:    n.storeName,
		Customer: u,
		Order:    o,
		OrderURL: n.frontendURL + "/order/" + o.ID,
	}

	var html, text bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&html, name+".html.tmpl", data); err != nil {
		return fmt.Errorf("render %s html: %w", name, err)
	}
	if err := textTemplates.ExecuteTemplate(&text, name+".txt.tmpl", data); err != nil {
		return fmt.Errorf("render %s text: %w", name, err)
	}

	return n.mailer.Send(ctx, Message{
		To:      u.Email,
		Subject: subject,
		HTML:    html.String(),
		Text:    text.String(),
	})
}
