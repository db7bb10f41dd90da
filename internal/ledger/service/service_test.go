package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/SmartForm247/EasyForm2/internal/ledger/models"
	"github.com/SmartForm247/EasyForm2/internal/ledger/store/memory"
	dErrors "github.com/SmartForm247/EasyForm2/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	store   *memory.Store
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = memory.New()
	s.service = New(s.store)
}

func (s *ServiceSuite) TestFreeSubmissionsThenPaid() {
	ctx := context.Background()
	const user = "user-1"

	s.Run("first two submissions are free", func() {
		for i := 0; i < 2; i++ {
			res, err := s.service.Debit(ctx, user, "limited-company")
			s.Require().NoError(err)
			s.True(res.Free)
			s.Zero(res.Cost)
			s.Equal("Free submission used", res.Description)
			s.Equal(1-i, res.FreeRemaining)
		}
	})

	s.Run("third submission needs credits", func() {
		_, err := s.service.Debit(ctx, user, "limited-company")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientFunds))
	})

	s.Run("after topping up the debit goes through", func() {
		s.Require().NoError(s.service.Credit(ctx, user, 50, "ref-1", "Paystack"))

		res, err := s.service.Debit(ctx, user, "limited-company")
		s.Require().NoError(err)
		s.False(res.Free)
		s.Equal(20.0, res.Cost)
		s.Equal("Limited Company PDF", res.Description)
		s.Equal(30.0, res.CreditBalance)
		s.Equal(3, res.UsageCount)
		s.Zero(res.FreeRemaining)
	})
}

func (s *ServiceSuite) TestCostsPerFormType() {
	tests := []struct {
		formType    string
		cost        float64
		description string
	}{
		{"sole", 10, "Sole Proprietor PDF"},
		{"limited-company", 20, "Limited Company PDF"},
		{"partnership", 20, "Partnership PDF"},
	}
	for _, tt := range tests {
		s.Run(tt.formType, func() {
			cost, description, err := CostFor(tt.formType)
			s.Require().NoError(err)
			s.Equal(tt.cost, cost)
			s.Equal(tt.description, description)
		})
	}

	_, _, err := CostFor("charity")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestCreditValidation() {
	ctx := context.Background()
	err := s.service.Credit(ctx, "user-1", 0, "ref", "Paystack")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	err = s.service.Credit(ctx, "user-1", -5, "ref", "Paystack")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestBalanceListsTransactionsNewestFirst() {
	ctx := context.Background()
	const user = "user-2"
	s.Require().NoError(s.service.Credit(ctx, user, 10, "ref-a", "Paystack"))
	s.Require().NoError(s.service.Credit(ctx, user, 20, "ref-b", "Paystack"))

	acc, txs, err := s.service.Balance(ctx, user)
	s.Require().NoError(err)
	s.Equal(30.0, acc.CreditBalance)
	s.Require().Len(txs, 2)
	s.Equal("ref-b", txs[0].Reference)
	s.Equal(models.TransactionCredit, txs[0].Type)
}
