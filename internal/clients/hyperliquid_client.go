package clients

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	hyperliquid "github.com/sonirico/go-hyperliquid"
)

type HyperliquidClient struct {
	exchange    *hyperliquid.Exchange
	accountAddr string
	readOnly    bool
}

// NewHyperliquidClient builds a signing client. An empty key yields a read-only client
// backed by a throwaway key, usable for market data but not for trading.
// Exchange metadata is fetched here, so an unreachable API fails construction.
func NewHyperliquidClient(ctx context.Context, privateKeyHex string, baseURL string) (*HyperliquidClient, error) {
	key := strings.TrimSpace(privateKeyHex)
	readOnly := key == ""

	var (
		privateKey *ecdsa.PrivateKey
		err        error
	)
	if readOnly {
		privateKey, err = crypto.GenerateKey()
		if err != nil {
			return nil, errors.Wrap(err, "generate market data key")
		}
	} else {
		key = strings.TrimPrefix(strings.TrimPrefix(key, "0x"), "0X")
		privateKey, err = crypto.HexToECDSA(key)
		if err != nil {
			return nil, errors.Wrap(err, "parse hyperliquid private key")
		}
	}

	accountAddr, err := addressOf(privateKey)
	if err != nil {
		return nil, err
	}

	ex, err := newExchange(ctx, privateKey, baseURL, accountAddr)
	if err != nil {
		return nil, err
	}

	return &HyperliquidClient{exchange: ex, accountAddr: accountAddr, readOnly: readOnly}, nil
}

// newExchange turns the SDK's panic on a failed metadata fetch into an error.
func newExchange(ctx context.Context, privateKey *ecdsa.PrivateKey, baseURL, accountAddr string) (ex *hyperliquid.Exchange, err error) {
	defer func() {
		if r := recover(); r != nil {
			ex, err = nil, fmt.Errorf("load hyperliquid metadata: %v", r)
		}
	}()

	return hyperliquid.NewExchange(ctx, privateKey, baseURL, nil, "", accountAddr, nil), nil
}

func addressOf(privateKey *ecdsa.PrivateKey) (string, error) {
	pub, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return "", fmt.Errorf("error casting public key to ECDSA")
	}
	return crypto.PubkeyToAddress(*pub).Hex(), nil
}

func (c *HyperliquidClient) Exchange() *hyperliquid.Exchange { return c.exchange }
func (c *HyperliquidClient) Info() *hyperliquid.Info         { return c.exchange.Info() }
func (c *HyperliquidClient) AccountAddress() string          { return c.accountAddr }

// CanTrade reports whether the client was built from a real account key.
func (c *HyperliquidClient) CanTrade() bool { return !c.readOnly }
