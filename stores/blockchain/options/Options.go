package options

// FindOptions selects stored blocks. The zero value matches every block.
type FindOptions struct {
	InBestHeaderChain bool
	InBestBlockChain  bool
	// HasContent, when set, matches blocks whose content presence equals it.
	HasContent *bool
}

type FindOption func(*FindOptions)

// InBestHeaderChain matches blocks on the chain of the best header.
func InBestHeaderChain() FindOption {
	return func(opts *FindOptions) {
		opts.InBestHeaderChain = true
	}
}

// InBestBlockChain matches blocks whose content has been applied to the UTXO set.
func InBestBlockChain() FindOption {
	return func(opts *FindOptions) {
		opts.InBestBlockChain = true
	}
}

func WithContent(b bool) FindOption {
	return func(opts *FindOptions) {
		opts.HasContent = &b
	}
}

func ProcessFindOptions(opts ...FindOption) *FindOptions {
	options := &FindOptions{}

	for _, opt := range opts {
		opt(options)
	}

	return options
}

// Matches reports whether a block with the given flags is selected.
func (o *FindOptions) Matches(inBestHeaderChain, inBestBlockChain, hasContent bool) bool {
	if o.InBestHeaderChain && !inBestHeaderChain {
		return false
	}

	if o.InBestBlockChain && !inBestBlockChain {
		return false
	}

	if o.HasContent != nil && *o.HasContent != hasContent {
		return false
	}

	return true
}
