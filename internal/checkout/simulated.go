package checkout

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/rand/v2"
	"time"
)

// Outcome decides how a simulated gateway session ends.
type Outcome interface {
	Next() (paid bool, cancelled bool)
}

// RandomOutcome pays 95% of the time; of the rest a fifth are dismissals.
type RandomOutcome struct{}

func (RandomOutcome) Next() (bool, bool) {
	return outcomeFor(rand.IntN(100))
}

func outcomeFor(n int) (paid bool, cancelled bool) {
	if n < 95 {
		return true, false
	}
	return false, n == 99
}

// SimulatedGateway stands in for the hosted payment widget during local
// development. Successful sessions are signed the way the real gateway signs
// them, HMAC-SHA256 of "<order_id>|<payment_id>" keyed by secret.
type SimulatedGateway struct {
	secret  []byte
	outcome Outcome
	delay   time.Duration
	now     func() time.Time
}

func NewSimulatedGateway(secret string, outcome Outcome, delay time.Duration) *SimulatedGateway {
	if outcome == nil {
		outcome = RandomOutcome{}
	}
	return &SimulatedGateway{secret: []byte(secret), outcome: outcome, delay: delay, now: time.Now}
}

func (g *SimulatedGateway) Open(ctx context.Context, handle PaymentHandle) (GatewayResponse, error) {
	if g.delay > 0 {
		t := time.NewTimer(g.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return GatewayResponse{}, ErrPaymentCancelled
		case <-t.C:
		}
	}

	paid, cancelled := g.outcome.Next()
	switch {
	case cancelled:
		return GatewayResponse{}, ErrPaymentCancelled
	case !paid:
		return GatewayResponse{}, fmt.Errorf("%w: card declined", ErrPaymentFailed)
	}

	paymentID := fmt.Sprintf("pay_sim_%d", g.now().UnixNano())
	return GatewayResponse{
		PaymentID: paymentID,
		OrderID:   handle.GatewayOrderID,
		Signature: Sign(g.secret, handle.GatewayOrderID, paymentID),
	}, nil
}

// Sign computes the gateway signature for a payment.
func Sign(secret []byte, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
