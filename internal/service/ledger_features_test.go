package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/RoyceAzure/lab/grocery/internal/constants"
	"github.com/RoyceAzure/lab/grocery/internal/domain/model"
	"github.com/cucumber/godog"
)

type ledgerTestContext struct {
	t        *testing.T
	ctx      context.Context
	store    *flakyStore
	identity *IdentityService
	orders   *OrderService
	order    *model.Order
	updated  bool
	err      error
}

func (c *ledgerTestContext) reset() {
	c.ctx = context.Background()
	c.store = newFlakyStore()
	c.identity = newTestIdentity(c.t, c.store)
	c.orders = newTestOrders(c.store, c.identity)
	c.order = nil
	c.updated = false
	c.err = nil
}

func (c *ledgerTestContext) theCustomerIsLoggedIn() error {
	if err := c.identity.SeedDemoUsers(c.ctx); err != nil {
		return err
	}
	_, _, err := c.identity.Login(c.ctx, constants.SeedCustomerEmail, constants.SeedDefaultPassword)
	return err
}

func (c *ledgerTestContext) theLedgerAcceptsAnyTransition() error {
	c.orders = newTestOrders(c.store, c.identity, WithStrictTransitions(false))
	return nil
}

func (c *ledgerTestContext) theCustomerPlacesAnOrderTotalling(total int) error {
	c.order, c.err = c.orders.CreateOrder(c.ctx, orderParams(int64(total)))
	return nil
}

func (c *ledgerTestContext) theCustomerPlacedAnOrderTotalling(total int) error {
	order, err := c.orders.CreateOrder(c.ctx, orderParams(int64(total)))
	if err != nil {
		return err
	}
	c.order = order
	return nil
}

func (c *ledgerTestContext) theCustomerPlacesAnEmptyOrder() error {
	arg := orderParams(100)
	arg.Items = nil
	c.order, c.err = c.orders.CreateOrder(c.ctx, arg)
	return nil
}

func (c *ledgerTestContext) theOrderMovesTo(status string) error {
	if c.order == nil {
		return errors.New("no order placed")
	}
	c.updated, c.err = c.orders.UpdateOrderStatus(c.ctx, c.order.ID, model.OrderStatus(status))
	return nil
}

func (c *ledgerTestContext) theUpdateSucceeds() error {
	if c.err != nil {
		return fmt.Errorf("expected success but got error: %v", c.err)
	}
	if !c.updated {
		return errors.New("expected the order to be updated")
	}
	return nil
}

func (c *ledgerTestContext) theRequestFailsWith(msg string) error {
	if c.err == nil {
		return errors.New("expected an error but got none")
	}
	if !strings.Contains(c.err.Error(), msg) {
		return fmt.Errorf("expected error containing %q, got %q", msg, c.err.Error())
	}
	return nil
}

func (c *ledgerTestContext) theOrderStatusIs(status string) error {
	order, ok := c.orders.GetOrderByID(c.ctx, c.order.ID)
	if !ok {
		return errors.New("order not found")
	}
	if string(order.Status) != status {
		return fmt.Errorf("expected status %q, got %q", status, order.Status)
	}
	return nil
}

func (c *ledgerTestContext) theOrderHasTrackingSteps(n int) error {
	order, ok := c.orders.GetOrderByID(c.ctx, c.order.ID)
	if !ok {
		return errors.New("order not found")
	}
	if len(order.TrackingSteps) != n {
		return fmt.Errorf("expected %d tracking steps, got %d", n, len(order.TrackingSteps))
	}
	return nil
}

func (c *ledgerTestContext) theLedgerHasOrders(n int) error {
	if got := len(c.orders.GetAllOrders(c.ctx)); got != n {
		return fmt.Errorf("expected %d orders, got %d", n, got)
	}
	return nil
}

func (c *ledgerTestContext) theCustomerHasLoyaltyPoints(points int) error {
	user, ok := c.identity.GetUserByID(c.ctx, constants.SeedCustomerID)
	if !ok {
		return errors.New("customer not found")
	}
	if user.LoyaltyPoints != points {
		return fmt.Errorf("expected %d points, got %d", points, user.LoyaltyPoints)
	}
	return nil
}

func initializeLedgerScenario(t *testing.T) func(*godog.ScenarioContext) {
	return func(ctx *godog.ScenarioContext) {
		tc := &ledgerTestContext{t: t}

		ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
			tc.reset()
			return ctx, nil
		})

		// Given
		ctx.Step(`^the customer is logged in$`, tc.theCustomerIsLoggedIn)
		ctx.Step(`^the ledger accepts any transition$`, tc.theLedgerAcceptsAnyTransition)
		ctx.Step(`^the customer placed an order totalling (\d+)$`, tc.theCustomerPlacedAnOrderTotalling)

		// When
		ctx.Step(`^the customer places an order totalling (\d+)$`, tc.theCustomerPlacesAnOrderTotalling)
		ctx.Step(`^the customer places an empty order$`, tc.theCustomerPlacesAnEmptyOrder)
		ctx.Step(`^the order moves to "([^"]*)"$`, tc.theOrderMovesTo)

		// Then
		ctx.Step(`^the update succeeds$`, tc.theUpdateSucceeds)
		ctx.Step(`^the request fails with "([^"]*)"$`, tc.theRequestFailsWith)
		ctx.Step(`^the order status is "([^"]*)"$`, tc.theOrderStatusIs)
		ctx.Step(`^the order has (\d+) tracking steps$`, tc.theOrderHasTrackingSteps)
		ctx.Step(`^the ledger has (\d+) orders$`, tc.theLedgerHasOrders)
		ctx.Step(`^the customer has (\d+) loyalty points$`, tc.theCustomerHasLoyaltyPoints)
	}
}

func TestLedgerFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeLedgerScenario(t),
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"testdata/features/order_ledger.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
