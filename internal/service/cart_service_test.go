package service

import (
	"context"
	"testing"

	"github.com/RoyceAzure/lab/grocery/internal/infra/repository/kv_repo"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type CartServiceTestSuite struct {
	suite.Suite
	*require.Assertions

	ctx   context.Context
	store *flakyStore
	cart  *CartService
}

func TestCartServiceSuite(t *testing.T) {
	suite.Run(t, new(CartServiceTestSuite))
}

func (s *CartServiceTestSuite) SetupTest() {
	s.Assertions = require.New(s.T())
	s.ctx = context.Background()
	s.store = newFlakyStore()
	s.cart = NewCartService(s.ctx, kv_repo.NewKVRepo(s.store))
}

func (s *CartServiceTestSuite) TestTotals() {
	_, err := s.cart.AddItem(s.ctx, testProduct("1", 120, 150), 2)
	s.NoError(err)

	cart := s.cart.GetCart(s.ctx)
	s.Equal("300", cart.Total.String())
	s.Equal("60", cart.Discount.String())
	s.Equal("240", cart.FinalTotal.String())
	s.Equal(2, cart.ItemCount)
	s.True(cart.Total.Sub(cart.Discount).Equal(cart.FinalTotal))
}

func (s *CartServiceTestSuite) TestAddSameProductIncrements() {
	_, err := s.cart.AddItem(s.ctx, testProduct("1", 10, 10), 1)
	s.NoError(err)
	cart, err := s.cart.AddItem(s.ctx, testProduct("1", 10, 10), 3)
	s.NoError(err)

	s.Len(cart.Items, 1)
	s.Equal(4, cart.Items[0].Quantity)
}

func (s *CartServiceTestSuite) TestAddZeroDefaultsToOne() {
	cart, err := s.cart.AddItem(s.ctx, testProduct("1", 10, 10), 0)
	s.NoError(err)
	s.Equal(1, cart.Items[0].Quantity)

	_, err = s.cart.AddItem(s.ctx, testProduct("1", 10, 10), -1)
	s.ErrorIs(err, ErrInvalidQuantity)
	s.Equal(1, s.cart.GetItemCount(s.ctx))
}

func (s *CartServiceTestSuite) TestUpdateQuantity() {
	_, err := s.cart.AddItem(s.ctx, testProduct("1", 10, 10), 1)
	s.NoError(err)

	cart, err := s.cart.UpdateQuantity(s.ctx, "1", 5)
	s.NoError(err)
	s.Equal(5, cart.Items[0].Quantity)

	cart, err = s.cart.UpdateQuantity(s.ctx, "unknown", 3)
	s.NoError(err)
	s.Len(cart.Items, 1)

	cart, err = s.cart.UpdateQuantity(s.ctx, "1", -2)
	s.NoError(err)
	s.Empty(cart.Items)
}

func (s *CartServiceTestSuite) TestRemoveAndClear() {
	_, err := s.cart.AddItem(s.ctx, testProduct("1", 10, 10), 1)
	s.NoError(err)
	_, err = s.cart.AddItem(s.ctx, testProduct("2", 20, 25), 2)
	s.NoError(err)

	cart, err := s.cart.RemoveItem(s.ctx, "1")
	s.NoError(err)
	s.Len(cart.Items, 1)
	s.Equal(2, s.cart.GetItemCount(s.ctx))

	s.NoError(s.cart.ClearCart(s.ctx))
	s.Equal(0, s.cart.GetItemCount(s.ctx))
}

func (s *CartServiceTestSuite) TestRemoveOrderedKeepsLaterAdditions() {
	_, err := s.cart.AddItem(s.ctx, testProduct("1", 10, 10), 2)
	s.NoError(err)
	snapshot := s.cart.GetCart(s.ctx)

	_, err = s.cart.AddItem(s.ctx, testProduct("1", 10, 10), 1)
	s.NoError(err)
	_, err = s.cart.AddItem(s.ctx, testProduct("2", 20, 25), 3)
	s.NoError(err)

	cart, err := s.cart.RemoveOrdered(s.ctx, snapshot.Items)
	s.NoError(err)
	s.Len(cart.Items, 2)
	s.Equal(4, s.cart.GetItemCount(s.ctx))
	for _, item := range cart.Items {
		switch item.Product.ID {
		case "1":
			s.Equal(1, item.Quantity)
		case "2":
			s.Equal(3, item.Quantity)
		}
	}

	cart, err = s.cart.RemoveOrdered(s.ctx, cart.Items)
	s.NoError(err)
	s.Empty(cart.Items)
}

func (s *CartServiceTestSuite) TestQuantitiesStayPositive() {
	p := testProduct("1", 10, 10)
	_, err := s.cart.AddItem(s.ctx, p, 2)
	s.NoError(err)
	for _, q := range []int{3, 0, 1, -5, 4} {
		_, err = s.cart.UpdateQuantity(s.ctx, p.ID, q)
		s.NoError(err)
		for _, item := range s.cart.GetCart(s.ctx).Items {
			s.Greater(item.Quantity, 0)
		}
	}
}

func (s *CartServiceTestSuite) TestPersistsAcrossRestart() {
	_, err := s.cart.AddItem(s.ctx, testProduct("1", 10, 10), 2)
	s.NoError(err)

	restarted := NewCartService(s.ctx, kv_repo.NewKVRepo(s.store))
	s.Equal(2, restarted.GetItemCount(s.ctx))
}

func (s *CartServiceTestSuite) TestSaveFailureKeepsPreviousState() {
	_, err := s.cart.AddItem(s.ctx, testProduct("1", 10, 10), 2)
	s.NoError(err)

	s.store.failSet.Store(true)
	_, err = s.cart.AddItem(s.ctx, testProduct("2", 10, 10), 1)
	s.Error(err)
	s.Len(s.cart.GetCart(s.ctx).Items, 1)
}
