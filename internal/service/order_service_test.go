package service

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/grocery/internal/constants"
	"github.com/RoyceAzure/lab/grocery/internal/domain/model"
	evt "github.com/RoyceAzure/lab/grocery/internal/domain/model/event"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type OrderServiceTestSuite struct {
	suite.Suite
	*require.Assertions

	ctx       context.Context
	store     *flakyStore
	publisher *recordingPublisher
	identity  *IdentityService
	orders    *OrderService
}

func TestOrderServiceSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceTestSuite))
}

func (s *OrderServiceTestSuite) SetupTest() {
	s.Assertions = require.New(s.T())
	s.ctx = context.Background()
	s.store = newFlakyStore()
	s.publisher = &recordingPublisher{}
	s.identity = newTestIdentity(s.T(), s.store)
	s.NoError(s.identity.SeedDemoUsers(s.ctx))
	s.orders = newTestOrders(s.store, s.identity, WithOrderPublisher(s.publisher))
}

func (s *OrderServiceTestSuite) loginCustomer() {
	_, _, err := s.identity.Login(s.ctx, constants.SeedCustomerEmail, constants.SeedDefaultPassword)
	s.NoError(err)
}

func (s *OrderServiceTestSuite) points() int {
	user, ok := s.identity.GetUserByID(s.ctx, constants.SeedCustomerID)
	s.True(ok)
	return user.LoyaltyPoints
}

func (s *OrderServiceTestSuite) TestCreateOrderRequiresSession() {
	_, err := s.orders.CreateOrder(s.ctx, orderParams(450))
	s.ErrorIs(err, ErrNotAuthenticated)
	s.Empty(s.orders.GetAllOrders(s.ctx))
}

func (s *OrderServiceTestSuite) TestCreateOrderRejectsEmptyItems() {
	s.loginCustomer()
	arg := orderParams(450)
	arg.Items = nil

	_, err := s.orders.CreateOrder(s.ctx, arg)
	s.ErrorIs(err, ErrEmptyOrder)
	s.Empty(s.orders.GetAllOrders(s.ctx))
	s.Equal(0, s.points())
}

func (s *OrderServiceTestSuite) TestCreateOrderRejectsNegativeTotals() {
	s.loginCustomer()
	arg := orderParams(450)
	arg.FinalTotal = decimal.NewFromInt(-1)

	_, err := s.orders.CreateOrder(s.ctx, arg)
	s.True(IsValidationError(err))
	s.Empty(s.orders.GetAllOrders(s.ctx))
}

func (s *OrderServiceTestSuite) TestCreateOrderCreditsPoints() {
	s.loginCustomer()

	order, err := s.orders.CreateOrder(s.ctx, orderParams(450))
	s.NoError(err)
	s.Equal(4, order.PointsEarned)
	s.Equal(4, s.points())
	s.Equal(constants.SeedCustomerID, order.UserID)
	s.Equal(model.OrderStatusPending, order.Status)
	s.Regexp(regexp.MustCompile(`^ORD-2024-[1-9]\d{3}$`), order.OrderNumber)

	s.Len(order.TrackingSteps, 1)
	step := order.TrackingSteps[0]
	s.Equal(model.OrderStatusConfirmed, step.Status)
	s.True(step.Completed)
	s.Equal("Order confirmed and payment received", step.Description)

	current, _ := s.identity.GetCurrentUser(s.ctx)
	s.Equal(4, current.LoyaltyPoints)

	s.Equal([]evt.EventType{evt.OrderCreatedEventName, evt.LoyaltyPointsCreditedEventName}, s.publisher.Types())
}

func (s *OrderServiceTestSuite) TestAdminEarnsNoPoints() {
	_, _, err := s.identity.Login(s.ctx, constants.SeedAdminEmail, constants.SeedDefaultPassword)
	s.NoError(err)

	order, err := s.orders.CreateOrder(s.ctx, orderParams(1000))
	s.NoError(err)
	s.Equal(10, order.PointsEarned)

	admin, _ := s.identity.GetUserByID(s.ctx, constants.SeedAdminID)
	s.Equal(0, admin.LoyaltyPoints)
}

func (s *OrderServiceTestSuite) TestNewestFirst() {
	s.loginCustomer()
	first, err := s.orders.CreateOrder(s.ctx, orderParams(100))
	s.NoError(err)
	second, err := s.orders.CreateOrder(s.ctx, orderParams(200))
	s.NoError(err)

	orders := s.orders.GetUserOrders(s.ctx, constants.SeedCustomerID)
	s.Len(orders, 2)
	s.Equal(second.ID, orders[0].ID)
	s.Equal(first.ID, orders[1].ID)
	s.Empty(s.orders.GetUserOrders(s.ctx, constants.SeedAdminID))
}

func (s *OrderServiceTestSuite) TestOrderNumberCollisionRerolls() {
	orders := newTestOrders(s.store, s.identity,
		WithOrderNumberGenerator(sequenceNumbers("ORD-2024-0001", "ORD-2024-0001", "ORD-2024-0002")))
	s.loginCustomer()

	first, err := orders.CreateOrder(s.ctx, orderParams(100))
	s.NoError(err)
	second, err := orders.CreateOrder(s.ctx, orderParams(100))
	s.NoError(err)
	s.Equal("ORD-2024-0001", first.OrderNumber)
	s.Equal("ORD-2024-0002", second.OrderNumber)

	_, err = orders.CreateOrder(s.ctx, orderParams(100))
	s.ErrorIs(err, ErrOrderNumberExhausted)
	s.Len(orders.GetAllOrders(s.ctx), 2)
}

func (s *OrderServiceTestSuite) TestCreditFailureKeepsOrder() {
	identityStore := newFlakyStore()
	identity := newTestIdentity(s.T(), identityStore)
	s.NoError(identity.SeedDemoUsers(s.ctx))
	_, _, err := identity.Login(s.ctx, constants.SeedCustomerEmail, constants.SeedDefaultPassword)
	s.NoError(err)
	orders := newTestOrders(newFlakyStore(), identity)

	identityStore.failSet.Store(true)
	order, err := orders.CreateOrder(s.ctx, orderParams(450))
	s.NoError(err)
	s.Equal(4, order.PointsEarned)

	_, ok := orders.GetOrderByID(s.ctx, order.ID)
	s.True(ok)
	user, _ := identity.GetUserByID(s.ctx, constants.SeedCustomerID)
	s.Equal(0, user.LoyaltyPoints)
}

func (s *OrderServiceTestSuite) TestUpdateStatusUnknownOrder() {
	ok, err := s.orders.UpdateOrderStatus(s.ctx, "missing", model.OrderStatusPacked)
	s.NoError(err)
	s.False(ok)

	_, err = s.orders.UpdateOrderStatus(s.ctx, "missing", model.OrderStatus("lost"))
	s.ErrorIs(err, ErrUnknownOrderStatus)
}

func (s *OrderServiceTestSuite) TestUpdateStatusAppendsStepsOnce() {
	s.loginCustomer()
	order, err := s.orders.CreateOrder(s.ctx, orderParams(450))
	s.NoError(err)

	ok, err := s.orders.UpdateOrderStatus(s.ctx, order.ID, model.OrderStatusConfirmed)
	s.NoError(err)
	s.True(ok)
	got, _ := s.orders.GetOrderByID(s.ctx, order.ID)
	s.Len(got.TrackingSteps, 1)

	ok, err = s.orders.UpdateOrderStatus(s.ctx, order.ID, model.OrderStatusConfirmed)
	s.NoError(err)
	s.True(ok)

	ok, err = s.orders.UpdateOrderStatus(s.ctx, order.ID, model.OrderStatusPacked)
	s.NoError(err)
	s.True(ok)
	got, _ = s.orders.GetOrderByID(s.ctx, order.ID)
	s.Len(got.TrackingSteps, 2)
	s.Equal(model.OrderStatusPacked, got.TrackingSteps[1].Status)
	s.Equal("Order packed and ready for dispatch", got.TrackingSteps[1].Description)

	ok, err = s.orders.UpdateOrderStatus(s.ctx, order.ID, model.OrderStatusDelivered)
	s.NoError(err)
	s.True(ok)
	got, _ = s.orders.GetOrderByID(s.ctx, order.ID)
	s.NotNil(got.DeliveredAt)
	s.Nil(got.CancelledAt)
	s.Len(got.TrackingSteps, 3)
}

func (s *OrderServiceTestSuite) TestStrictTransitions() {
	s.loginCustomer()
	order, err := s.orders.CreateOrder(s.ctx, orderParams(450))
	s.NoError(err)

	_, err = s.orders.UpdateOrderStatus(s.ctx, order.ID, model.OrderStatusOutForDelivery)
	s.NoError(err)

	ok, err := s.orders.UpdateOrderStatus(s.ctx, order.ID, model.OrderStatusPacked)
	s.ErrorIs(err, ErrInvalidStatusTransition)
	s.False(ok)

	ok, err = s.orders.UpdateOrderStatus(s.ctx, order.ID, model.OrderStatusCancelled)
	s.NoError(err)
	s.True(ok)
	got, _ := s.orders.GetOrderByID(s.ctx, order.ID)
	s.NotNil(got.CancelledAt)

	_, err = s.orders.UpdateOrderStatus(s.ctx, order.ID, model.OrderStatusDelivered)
	s.ErrorIs(err, ErrInvalidStatusTransition)
}

func (s *OrderServiceTestSuite) TestLenientTransitions() {
	orders := newTestOrders(s.store, s.identity, WithStrictTransitions(false))
	s.loginCustomer()
	order, err := orders.CreateOrder(s.ctx, orderParams(450))
	s.NoError(err)

	_, err = orders.UpdateOrderStatus(s.ctx, order.ID, model.OrderStatusDelivered)
	s.NoError(err)
	ok, err := orders.UpdateOrderStatus(s.ctx, order.ID, model.OrderStatusPending)
	s.NoError(err)
	s.True(ok)

	got, _ := orders.GetOrderByID(s.ctx, order.ID)
	s.Equal(model.OrderStatusPending, got.Status)
	s.Len(got.TrackingSteps, 3)
}

func (s *OrderServiceTestSuite) TestUpdatePaymentStatus() {
	s.loginCustomer()
	order, err := s.orders.CreateOrder(s.ctx, orderParams(450))
	s.NoError(err)
	s.Equal(model.PaymentStatusPending, order.PaymentStatus)

	ok, err := s.orders.UpdatePaymentStatus(s.ctx, order.ID, model.PaymentStatusPaid)
	s.NoError(err)
	s.True(ok)
	got, _ := s.orders.GetOrderByOrderNumber(s.ctx, order.OrderNumber)
	s.Equal(model.PaymentStatusPaid, got.PaymentStatus)

	ok, err = s.orders.UpdatePaymentStatus(s.ctx, "missing", model.PaymentStatusPaid)
	s.NoError(err)
	s.False(ok)

	_, err = s.orders.UpdatePaymentStatus(s.ctx, order.ID, model.PaymentStatus("lost"))
	s.ErrorIs(err, ErrUnknownPaymentStatus)
	s.Contains(s.publisher.Types(), evt.OrderPaymentUpdatedEventName)
}

func (s *OrderServiceTestSuite) TestStats() {
	s.loginCustomer()
	a, err := s.orders.CreateOrder(s.ctx, orderParams(100))
	s.NoError(err)
	b, err := s.orders.CreateOrder(s.ctx, orderParams(250))
	s.NoError(err)
	_, err = s.orders.CreateOrder(s.ctx, orderParams(50))
	s.NoError(err)

	_, err = s.orders.UpdateOrderStatus(s.ctx, a.ID, model.OrderStatusDelivered)
	s.NoError(err)
	_, err = s.orders.UpdateOrderStatus(s.ctx, b.ID, model.OrderStatusCancelled)
	s.NoError(err)

	stats := s.orders.GetOrderStats(s.ctx)
	s.Equal(3, stats.TotalOrders)
	s.Equal("400", stats.TotalRevenue.String())
	s.Equal(1, stats.PendingOrders)
	s.Equal(1, stats.DeliveredOrders)
}

func (s *OrderServiceTestSuite) TestOrdersSurviveRestart() {
	s.loginCustomer()
	order, err := s.orders.CreateOrder(s.ctx, orderParams(450))
	s.NoError(err)

	restarted := newTestOrders(s.store, s.identity)
	got, ok := restarted.GetOrderByID(s.ctx, order.ID)
	s.True(ok)
	s.Equal(order.OrderNumber, got.OrderNumber)
	s.True(order.FinalTotal.Equal(got.FinalTotal))
}

func (s *OrderServiceTestSuite) TestSlowPublisherDoesNotBlockReads() {
	blocking := newBlockingPublisher()
	s.orders = newTestOrders(s.store, s.identity, WithOrderPublisher(blocking))
	s.loginCustomer()

	reqCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	created := make(chan error, 1)
	go func() {
		_, err := s.orders.CreateOrder(reqCtx, orderParams(450))
		created <- err
	}()
	blocking.waitStarted(s.T())

	read := make(chan []model.Order, 1)
	go func() { read <- s.orders.GetAllOrders(s.ctx) }()
	select {
	case orders := <-read:
		s.Len(orders, 1)
	case <-time.After(500 * time.Millisecond):
		s.FailNow("GetAllOrders blocked while events were publishing")
	}

	// request 結束後發布仍繼續
	cancel()
	close(blocking.release)
	s.NoError(<-created)
	s.NoError(<-blocking.ctxErr)
}

func (s *OrderServiceTestSuite) TestSlowPublisherDoesNotBlockStatusUpdates() {
	s.loginCustomer()
	order, err := s.orders.CreateOrder(s.ctx, orderParams(450))
	s.NoError(err)

	blocking := newBlockingPublisher()
	s.orders = newTestOrders(s.store, s.identity, WithOrderPublisher(blocking))
	updated := make(chan error, 1)
	go func() {
		_, err := s.orders.UpdateOrderStatus(s.ctx, order.ID, model.OrderStatusConfirmed)
		updated <- err
	}()
	blocking.waitStarted(s.T())

	read := make(chan bool, 1)
	go func() {
		got, ok := s.orders.GetOrderByID(s.ctx, order.ID)
		read <- ok && got.Status == model.OrderStatusConfirmed
	}()
	select {
	case ok := <-read:
		s.True(ok)
	case <-time.After(500 * time.Millisecond):
		s.FailNow("GetOrderByID blocked while events were publishing")
	}

	close(blocking.release)
	s.NoError(<-updated)
}

func TestRandomOrderNumberSuffixRange(t *testing.T) {
	prefix := constants.OrderNumberPrefix + "-2024-"
	for range 5000 {
		number := RandomOrderNumber(testNow)
		require.True(t, strings.HasPrefix(number, prefix), number)
		suffix := strings.TrimPrefix(number, prefix)
		require.Len(t, suffix, 4, number)
		n, err := strconv.Atoi(suffix)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, 1000)
		require.LessOrEqual(t, n, 9999)
	}
}
