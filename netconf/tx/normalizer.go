package tx

import "github.com/damianoneill/ncbroker/netconf/data"

// Normalizer converts values between the broker's normalized form and the form carried on the wire.
type Normalizer interface {
	// ToLegacy converts a value about to be written at path.
	ToLegacy(path data.Path, value *data.Node) (*data.Node, error)
	// ToNormalized converts a value read from path.
	ToNormalized(path data.Path, value *data.Node) (*data.Node, error)
}

// IdentityNormalizer passes values through unchanged.
type IdentityNormalizer struct{}

func (IdentityNormalizer) ToLegacy(_ data.Path, value *data.Node) (*data.Node, error) {
	return value, nil
}

func (IdentityNormalizer) ToNormalized(_ data.Path, value *data.Node) (*data.Node, error) {
	return value, nil
}
