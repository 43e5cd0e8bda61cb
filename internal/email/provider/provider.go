// Package provider sends rendered emails through an outbound
// transport.
package provider

import "context"

// Message is one fully rendered outbound email.
type Message struct {
	FromName  string
	FromEmail string
	To        string
	ToName    string
	ReplyTo   string
	Subject   string
	HTML      string
	Text      string
}

// Provider delivers a message and returns the provider's message id
// when it issues one.
type Provider interface {
	Send(ctx context.Context, msg Message) (messageID string, err error)
	Name() string
}
