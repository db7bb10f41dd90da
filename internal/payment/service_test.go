package payment

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/SmartForm247/EasyForm2/pkg/platform/sentinel"
)

type fakeGateway struct {
	tx  *GatewayTransaction
	err error
}

func (g *fakeGateway) VerifyTransaction(_ context.Context, _ string) (*GatewayTransaction, error) {
	return g.tx, g.err
}

type recordingLedger struct {
	credits []float64
	err     error
}

func (l *recordingLedger) Credit(_ context.Context, _ string, amount float64, _, _ string) error {
	if l.err != nil {
		return l.err
	}
	l.credits = append(l.credits, amount)
	return nil
}

type VerifySuite struct {
	suite.Suite
	redis   *miniredis.Miniredis
	gateway *fakeGateway
	ledger  *recordingLedger
	service *Service
}

func TestVerifySuite(t *testing.T) {
	suite.Run(t, new(VerifySuite))
}

func (s *VerifySuite) SetupTest() {
	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.redis = mr
	s.T().Cleanup(mr.Close)

	s.gateway = &fakeGateway{tx: &GatewayTransaction{
		Reference: "ref-1",
		Status:    "success",
		Amount:    50,
		Gateway:   "Paystack",
	}}
	s.ledger = &recordingLedger{}
	s.service = New(s.gateway, s.ledger,
		WithRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()})),
	)
}

func (s *VerifySuite) verify() (*VerifyResult, error) {
	return s.service.Verify(context.Background(), VerifyRequest{
		Reference: "ref-1",
		UserID:    "user-1",
		Amount:    50,
	})
}

func (s *VerifySuite) TestSuccessfulVerificationCredits() {
	res, err := s.verify()
	s.Require().NoError(err)
	s.Equal(StatusSuccess, res.Status)
	s.Equal("Payment verified and account credited.", res.Message)
	s.Equal([]float64{50}, s.ledger.credits)
	s.True(s.redis.Exists("paystack:ref:ref-1"))
}

func (s *VerifySuite) TestRepeatedReferenceCreditsOnce() {
	_, err := s.verify()
	s.Require().NoError(err)

	res, err := s.verify()
	s.Require().NoError(err)
	s.Equal(StatusSuccess, res.Status)
	s.Equal("Payment already verified.", res.Message)
	s.Len(s.ledger.credits, 1)
}

func (s *VerifySuite) TestDeclinedTransaction() {
	s.gateway.tx.Status = "abandoned"

	res, err := s.verify()
	s.Require().NoError(err)
	s.Equal(StatusFailed, res.Status)
	s.Equal("Transaction not successful", res.Message)
	s.Empty(s.ledger.credits)
	s.False(s.redis.Exists("paystack:ref:ref-1"))
}

func (s *VerifySuite) TestGatewayUnavailable() {
	s.gateway.tx = nil
	s.gateway.err = fmt.Errorf("status 503: %w", sentinel.ErrUnavailable)

	res, err := s.verify()
	s.Require().NoError(err)
	s.Equal(StatusError, res.Status)
	s.Equal("Payment provider unavailable", res.Message)
	s.Empty(s.ledger.credits)
}

func (s *VerifySuite) TestAmountMismatchStillCredits() {
	s.gateway.tx.Amount = 45

	res, err := s.verify()
	s.Require().NoError(err)
	s.Equal(StatusSuccess, res.Status)
	s.Equal([]float64{50}, s.ledger.credits)
}

func (s *VerifySuite) TestLedgerFailureReleasesReference() {
	s.ledger.err = errors.New("ledger down")

	_, err := s.verify()
	s.Require().Error(err)
	s.False(s.redis.Exists("paystack:ref:ref-1"))

	// retry after the ledger recovers credits normally
	s.ledger.err = nil
	res, err := s.verify()
	s.Require().NoError(err)
	s.Equal(StatusSuccess, res.Status)
	s.Equal([]float64{50}, s.ledger.credits)
}
