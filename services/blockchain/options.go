package blockchain

import (
	"time"
)

type blockchainOptions struct {
	headerValidator  HeaderValidator
	contentValidator BlockContentValidator
	verifyScripts    *bool
	now              func() time.Time
}

type Option func(*blockchainOptions)

// WithHeaderValidator replaces the proof of work, difficulty and timestamp rules.
func WithHeaderValidator(v HeaderValidator) Option {
	return func(o *blockchainOptions) {
		o.headerValidator = v
	}
}

// WithContentValidator replaces the block structure rules.
func WithContentValidator(v BlockContentValidator) Option {
	return func(o *blockchainOptions) {
		o.contentValidator = v
	}
}

// WithVerifyScripts overrides the blockchain_verifyScripts setting.
func WithVerifyScripts(verify bool) Option {
	return func(o *blockchainOptions) {
		o.verifyScripts = &verify
	}
}

// WithClock sets the time the default header validator checks future timestamps against.
func WithClock(now func() time.Time) Option {
	return func(o *blockchainOptions) {
		o.now = now
	}
}
