package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// TemplateDefault is the seed content for one email template type.
type TemplateDefault struct {
	Subject string `mapstructure:"subject"`
	HTML    string `mapstructure:"html"`
	Text    string `mapstructure:"text"`
}

// TemplateDefaults maps template type to its seed content. Owners start
// from these and edit their own copies.
type TemplateDefaults struct {
	Templates map[string]TemplateDefault `mapstructure:"templates"`
}

func DefaultTemplateDefaults() TemplateDefaults {
	return TemplateDefaults{
		Templates: map[string]TemplateDefault{
			"invoice": {
				Subject: "Invoice {{invoice_number}} from {{sender_name}}",
				HTML: `<p>Hi {{client_name}},</p>
<p>Please find invoice <strong>{{invoice_number}}</strong> for {{total_amount}}, due {{due_date}}.</p>
{{#if custom_message}}<p>{{custom_message}}</p>{{/if}}
<p>Thank you for your business.</p>
{{#if email_signature}}<p>{{email_signature}}</p>{{/if}}`,
				Text: `Hi {{client_name}},

Please find invoice {{invoice_number}} for {{total_amount}}, due {{due_date}}.
{{#if custom_message}}{{custom_message}}
{{/if}}Thank you for your business.
{{#if email_signature}}{{email_signature}}{{/if}}`,
			},
			"proposal": {
				Subject: "Proposal: {{proposal_title}} from {{sender_name}}",
				HTML: `<p>Hi {{client_name}},</p>
<p>We are pleased to share our proposal <strong>{{proposal_title}}</strong> totalling {{total_amount}}.</p>
{{#if custom_message}}<p>{{custom_message}}</p>{{/if}}
<p>We look forward to working with you.</p>
{{#if email_signature}}<p>{{email_signature}}</p>{{/if}}`,
				Text: `Hi {{client_name}},

We are pleased to share our proposal {{proposal_title}} totalling {{total_amount}}.
{{#if custom_message}}{{custom_message}}
{{/if}}We look forward to working with you.
{{#if email_signature}}{{email_signature}}{{/if}}`,
			},
			"test": {
				Subject: "Test email from {{sender_name}}",
				HTML:    `<p>This is a test email confirming your sending configuration works.</p>{{#if email_signature}}<p>{{email_signature}}</p>{{/if}}`,
				Text:    "This is a test email confirming your sending configuration works.\n{{#if email_signature}}{{email_signature}}{{/if}}",
			},
		},
	}
}

// TemplateDefaultsHolder keeps the current template defaults and swaps
// them atomically when the config file changes on disk.
type TemplateDefaultsHolder struct {
	current atomic.Value // holds TemplateDefaults
}

func NewTemplateDefaultsHolder() (*TemplateDefaultsHolder, error) {
	v := viper.New()

	v.SetConfigName("templates")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/solobill")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SOLOBILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	holder := &TemplateDefaultsHolder{}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		holder.current.Store(DefaultTemplateDefaults())
		return holder, nil
	}

	var cfg TemplateDefaults
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := validateTemplateDefaults(cfg); err != nil {
		return nil, err
	}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated TemplateDefaults
		if err := v.Unmarshal(&updated); err != nil {
			log.Printf("[template-config] reload failed: %v", err)
			return
		}
		if err := validateTemplateDefaults(updated); err != nil {
			log.Printf("[template-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[template-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticTemplateDefaults wraps fixed defaults without file
// watching. Used by tests and callers that do not read config files.
func NewStaticTemplateDefaults(cfg TemplateDefaults) *TemplateDefaultsHolder {
	holder := &TemplateDefaultsHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *TemplateDefaultsHolder) Get() TemplateDefaults {
	return h.current.Load().(TemplateDefaults)
}

func validateTemplateDefaults(cfg TemplateDefaults) error {
	if len(cfg.Templates) == 0 {
		return errors.New("templates cannot be empty")
	}
	for name, tmpl := range cfg.Templates {
		if strings.TrimSpace(tmpl.Subject) == "" {
			return errors.New("template " + name + " has no subject")
		}
	}
	return nil
}
