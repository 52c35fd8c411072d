package notify

import (
	"bytes"
	"html/template"

	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/peregrinus-backend/internal/pricing"
)

const layout = `<!DOCTYPE html>
<html>
<head>
<style>
  body { font-family: Arial, sans-serif; color: #333; }
  .container { max-width: 600px; margin: 0 auto; padding: 20px; }
  .header { background: {{.Accent}}; color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0; }
  .content { background: #f8fafc; padding: 30px; border-radius: 0 0 10px 10px; }
  .price { font-size: 2em; font-weight: bold; margin: 20px 0; }
  .button { background: {{.Accent}}; color: white; padding: 15px 30px; text-decoration: none; border-radius: 5px; display: inline-block; margin: 20px 0; }
  .footer { text-align: center; margin-top: 30px; color: #6b7280; font-size: 0.9em; }
</style>
</head>
<body>
<div class="container">
  <div class="header">
    <h1>{{.Heading}}</h1>
    {{with .Subheading}}<h2>{{.}}</h2>{{end}}
  </div>
  <div class="content">
    <h3>{{.Route}}</h3>
    {{template "body" .}}
    {{with .BookingURL}}<div style="text-align: center;"><a href="{{.}}" class="button" style="color: white;">{{$.CTA}}</a></div>{{end}}
    <div class="footer">
      <p>{{.Signoff}}<br>The Peregrinus Team</p>
      <p><small>You're receiving this because you enabled email notifications.</small></p>
    </div>
  </div>
</div>
</body>
</html>`

var bodies = map[string]string{
	models.NotificationBelowTarget: `<div class="price">{{.NewPrice}}</div>
{{with .OldPrice}}<p>Was: <span style="text-decoration: line-through;">{{.}}</span></p>{{end}}
<p>Your target price: {{.TargetPrice}}</p>
<p><strong>You're saving {{.Savings}} below your target!</strong></p>`,
	models.NotificationPriceDrop: `<div class="price">Now: {{.NewPrice}}</div>
{{with .OldPrice}}<p>Was: <span style="text-decoration: line-through;">{{.}}</span></p>
<p><strong>You're saving {{$.Percent}}%!</strong></p>{{end}}`,
	models.NotificationRiseAfterDrop: `<div class="price">Now: {{.NewPrice}}</div>
{{with .OldPrice}}<p>Was: {{.}}</p>
<p><strong>Price increased by {{$.Increase}}</strong></p>{{end}}
<p>We'll continue monitoring and notify you if it drops again.</p>`,
	"": `<div class="price">Current Price: {{.NewPrice}}</div>`,
}

type chrome struct {
	Accent, Heading, Subheading, CTA, Signoff string
}

var chromes = map[string]chrome{
	models.NotificationBelowTarget:   {"#d97706", "Amazing News!", "Your flight price dropped below target!", "Book Now →", "Happy travels!"},
	models.NotificationPriceDrop:     {"#059669", "Price Drop Alert!", "Great time to book your flight", "Check Price →", "Don't wait too long, prices can change quickly!"},
	models.NotificationRiseAfterDrop: {"#dc2626", "Price Increase Alert", "Flight price just went up", "Check Latest Price →", "We're still watching this route for you!"},
	"":                               {"#4f46e5", "Flight Price Update", "", "View Flight →", "We're monitoring this flight for you!"},
}

var templates = func() map[string]*template.Template {
	out := make(map[string]*template.Template, len(bodies))
	for typ, body := range bodies {
		t := template.Must(template.New("email").Parse(layout))
		template.Must(t.New("body").Parse(body))
		out[typ] = t
	}
	return out
}()

type view struct {
	chrome
	Route       string
	NewPrice    string
	OldPrice    string
	TargetPrice string
	Percent     string
	Savings     string
	Increase    string
	BookingURL  string
}

// Render returns the subject and HTML body for msg. Unknown types use the
// generic update template.
func Render(msg Message) (subject, html string, err error) {
	key := msg.Type
	if _, ok := templates[key]; !ok {
		key = ""
	}

	v := view{
		chrome:      chromes[key],
		Route:       msg.route(),
		NewPrice:    pricing.FormatMoney(msg.NewPrice, msg.Currency),
		TargetPrice: pricing.FormatMoney(msg.TargetPrice, msg.Currency),
		Percent:     msg.PriceDropPercent.StringFixed(1),
		Savings:     pricing.FormatMoney(msg.TargetPrice.Sub(msg.NewPrice), msg.Currency),
		BookingURL:  msg.BookingURL,
	}
	if msg.OldPrice != nil {
		v.OldPrice = pricing.FormatMoney(*msg.OldPrice, msg.Currency)
		v.Increase = pricing.FormatMoney(msg.NewPrice.Sub(*msg.OldPrice), msg.Currency)
	}

	var buf bytes.Buffer
	if err := templates[key].Execute(&buf, v); err != nil {
		return "", "", err
	}
	return Subject(msg), buf.String(), nil
}
