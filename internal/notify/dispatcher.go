package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/XTREM35000/core-toolkit-app-sub001/pkg/logger"
	"github.com/XTREM35000/core-toolkit-app-sub001/prometheus"

	"go.uber.org/zap"
)

// Options tune a single send
type Options struct {
	Provider string `json:"provider,omitempty"`
}

// Template names
const (
	TemplateWelcome             = "welcome"
	TemplateAppointmentReminder = "appointment-reminder"
	TemplateSecurityAlert       = "security-alert"
)

// ErrUnknownTemplate is returned by SendTemplate for unregistered names
var ErrUnknownTemplate = errors.New("unknown template")

// Dispatcher picks a provider per message
type Dispatcher struct {
	providers       map[string]Provider
	defaultProvider string
	log             *zap.Logger
}

// NewDispatcher creates a dispatcher. The log provider is always registered;
// an empty defaultProvider means "log".
func NewDispatcher(defaultProvider string, log *zap.Logger, providers ...Provider) *Dispatcher {
	log = logger.OrNop(log)
	d := &Dispatcher{
		providers:       map[string]Provider{ProviderLog: NewLogProvider(log)},
		defaultProvider: defaultProvider,
		log:             log,
	}
	for _, p := range providers {
		d.providers[p.Name()] = p
	}
	return d
}

// SendSMS delivers message to phone with opts.Provider, else the default
// provider, else "log"
func (d *Dispatcher) SendSMS(ctx context.Context, phone, message string, opts Options) Result {
	name := opts.Provider
	if name == "" {
		name = d.defaultProvider
	}
	if name == "" {
		name = ProviderLog
	}

	provider, ok := d.providers[name]
	if !ok {
		d.log.Warn("Unknown notification provider", zap.String("provider", name))
		prometheus.RecordNotification(name, false)
		return Result{Provider: name, Error: fmt.Sprintf("unknown provider %q", name)}
	}

	result := provider.Send(ctx, phone, message)
	prometheus.RecordNotification(name, result.Success)
	return result
}

// SendWelcome sends the welcome message
func (d *Dispatcher) SendWelcome(ctx context.Context, phone, name string, opts Options) Result {
	msg := fmt.Sprintf("Bienvenue %s ! Votre compte est prêt. Vous pouvez maintenant gérer votre exploitation depuis le tableau de bord.", name)
	return d.SendSMS(ctx, phone, msg, opts)
}

// SendAppointmentReminder reminds the user of an appointment
func (d *Dispatcher) SendAppointmentReminder(ctx context.Context, phone, date, subject string, opts Options) Result {
	msg := fmt.Sprintf("Rappel : rendez-vous le %s pour %s. Répondez à ce message pour toute modification.", date, subject)
	return d.SendSMS(ctx, phone, msg, opts)
}

// SendSecurityAlert warns the user of account activity
func (d *Dispatcher) SendSecurityAlert(ctx context.Context, phone, event string, opts Options) Result {
	msg := fmt.Sprintf("Alerte de sécurité : %s. Si vous n'êtes pas à l'origine de cette action, changez votre mot de passe.", event)
	return d.SendSMS(ctx, phone, msg, opts)
}

// SendTemplate sends the named template with params
func (d *Dispatcher) SendTemplate(ctx context.Context, template, phone string, params map[string]string, opts Options) (Result, error) {
	switch template {
	case TemplateWelcome:
		return d.SendWelcome(ctx, phone, params["name"], opts), nil
	case TemplateAppointmentReminder:
		return d.SendAppointmentReminder(ctx, phone, params["date"], params["subject"], opts), nil
	case TemplateSecurityAlert:
		return d.SendSecurityAlert(ctx, phone, params["event"], opts), nil
	}
	return Result{}, fmt.Errorf("%w: %s", ErrUnknownTemplate, template)
}
