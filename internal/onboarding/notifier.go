package onboarding

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/tablekit/backend/internal/models"
	"github.com/tablekit/backend/pkg/queue"
)

// Enqueuer accepts email jobs.
type Enqueuer interface {
	EnqueueEmail(ctx context.Context, payload queue.EmailPayload) error
}

var welcomeTmpl = template.Must(template.New("owner_welcome").Parse(`<p>Hi {{.Name}},</p>
<p>Your restaurant <strong>{{.Restaurant}}</strong> is ready on TableKit.</p>
<p>Set your password to sign in: <a href="{{.Link}}">{{.Link}}</a></p>
<p>This link can be used once and expires in {{.Expiry}}.</p>`))

// Notifier invites new owners by email with a one-time password setup link.
type Notifier struct {
	tokens  *TokenStore
	queue   Enqueuer
	baseURL string
	logger  *zap.Logger
}

// NewNotifier creates a notifier. baseURL is the public address of the admin app.
func NewNotifier(tokens *TokenStore, q Enqueuer, baseURL string, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{tokens: tokens, queue: q, baseURL: strings.TrimRight(baseURL, "/"), logger: logger}
}

// OwnerProvisioned issues a setup token for owner and queues the welcome email.
func (n *Notifier) OwnerProvisioned(ctx context.Context, owner *models.User, restaurant *models.Restaurant) error {
	return n.Invite(ctx, owner, restaurant.Name)
}

// Invite sends u a fresh setup link. Earlier links stay valid until they expire.
func (n *Notifier) Invite(ctx context.Context, u *models.User, restaurantName string) error {
	token, err := n.tokens.Issue(ctx, u.ID)
	if err != nil {
		return err
	}
	link := n.baseURL + "/setup-password?token=" + url.QueryEscape(token)

	var body bytes.Buffer
	if err := welcomeTmpl.Execute(&body, map[string]string{
		"Name":       u.Name,
		"Restaurant": restaurantName,
		"Link":       link,
		"Expiry":     n.tokens.ttl.String(),
	}); err != nil {
		return fmt.Errorf("render welcome email: %w", err)
	}

	id := u.ID
	if err := n.queue.EnqueueEmail(ctx, queue.EmailPayload{
		Template:       queue.TemplateOwnerWelcome,
		UserID:         &id,
		RecipientEmail: u.Email,
		Subject:        "Welcome to TableKit: set your password",
		BodyHTML:       body.String(),
	}); err != nil {
		return fmt.Errorf("enqueue welcome email: %w", err)
	}
	n.logger.Info("owner invitation queued", zap.String("user_id", u.ID.String()))
	return nil
}
