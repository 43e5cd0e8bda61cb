package provider

import "github.com/solobill/solobill/internal/config"

// Factory picks the transport for one send: the owner's Resend key
// when present, the deployment SMTP relay otherwise.
type Factory interface {
	ForAPIKey(apiKey string) Provider
}

type factory struct {
	smtp config.SMTPConfig
}

func NewFactory(cfg config.Config) Factory {
	return &factory{smtp: cfg.SMTP}
}

func (f *factory) ForAPIKey(apiKey string) Provider {
	if apiKey != "" {
		return NewResend(apiKey)
	}
	if f.smtp.Enabled {
		return NewSMTP(f.smtp)
	}
	return nil
}
