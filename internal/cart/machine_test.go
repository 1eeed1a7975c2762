package cart

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/presenter"
	"github.com/fjod/go_storefront/internal/presenter/presentertest"
	"github.com/fjod/go_storefront/internal/remote"
	"github.com/fjod/go_storefront/internal/remote/remotetest"
)

func setup(t *testing.T) (*Machine, *remotetest.Server, *presentertest.Recorder) {
	t.Helper()
	api := remotetest.NewServer(t,
		remotetest.Product("p1", "Tea", 300, 250),
		remotetest.Product("p2", "Cup", 120),
		remotetest.Product("p3", "Pot", 900, 800),
	)
	client, err := remote.New(remote.Config{
		BaseURL:    api.URL(),
		APIPath:    remotetest.APIPath,
		HTTPClient: api.Client(),
	})
	require.NoError(t, err)

	rec := &presentertest.Recorder{}
	return New(client, rec, nil), api, rec
}

func lineFor(t *testing.T, cart domain.Cart, productID string) domain.CartItem {
	t.Helper()
	for _, item := range cart.Items {
		if item.ProductID == productID {
			return item
		}
	}
	t.Fatalf("no cart line for product %s", productID)
	return domain.CartItem{}
}

func TestMachine_SuccessfulSequenceMatchesServerCart(t *testing.T) {
	m, api, _ := setup(t)
	ctx := context.Background()

	assertInSync := func(step string) {
		t.Helper()
		got, want := m.Snapshot(), api.Cart()
		assert.True(t, got.Equal(want), "%s: displayed %+v, server %+v", step, got, want)
		assert.Equal(t, StateIdle, m.State(), step)
	}

	require.NoError(t, m.Add(ctx, "p1", 2))
	assertInSync("add p1")

	require.NoError(t, m.Add(ctx, "p2", 1))
	assertInSync("add p2")

	require.NoError(t, m.Add(ctx, "p1", 1))
	assertInSync("add p1 again")
	assert.Equal(t, 3, lineFor(t, m.Snapshot(), "p1").Qty)

	p2 := lineFor(t, m.Snapshot(), "p2")
	require.NoError(t, m.Update(ctx, p2.ID, "p2", 4))
	assertInSync("update p2")

	require.NoError(t, m.Increment(ctx, p2.ID))
	assertInSync("increment p2")
	assert.Equal(t, 5, lineFor(t, m.Snapshot(), "p2").Qty)

	require.NoError(t, m.Decrement(ctx, p2.ID))
	assertInSync("decrement p2")

	require.NoError(t, m.Add(ctx, "p3", 1))
	p1 := lineFor(t, m.Snapshot(), "p1")
	require.NoError(t, m.Remove(ctx, p1.ID))
	assertInSync("remove p1")

	snap := m.Snapshot()
	// 4 x 120 + 1 x 800
	assert.True(t, snap.FinalTotal.Equal(decimal.NewFromInt(1280)), snap.FinalTotal.String())
	assert.True(t, snap.Total.Equal(decimal.NewFromInt(1380)), snap.Total.String())

	require.NoError(t, m.Clear(ctx))
	assertInSync("clear")
	assert.True(t, m.Snapshot().IsEmpty())
}

func TestMachine_EveryMutationIsFollowedByGetCart(t *testing.T) {
	m, api, _ := setup(t)
	ctx := context.Background()

	require.NoError(t, m.Add(ctx, "p1", 1))
	item := lineFor(t, m.Snapshot(), "p1")
	require.NoError(t, m.Update(ctx, item.ID, "", 3))
	require.NoError(t, m.Remove(ctx, item.ID))
	require.NoError(t, m.Clear(ctx))

	assert.Equal(t, 4, api.Calls(remotetest.RouteGetCart))
}

func TestMachine_DecrementAtOneIsNoop(t *testing.T) {
	m, api, rec := setup(t)
	ctx := context.Background()

	id := api.Seed("p1", 1)
	require.NoError(t, m.Refresh(ctx))
	before := api.TotalCalls()
	rec.Reset()

	require.NoError(t, m.Decrement(ctx, id))

	assert.Equal(t, before, api.TotalCalls())
	assert.Empty(t, rec.Sequence())
	assert.Equal(t, StateIdle, m.State())
	assert.Equal(t, 1, lineFor(t, m.Snapshot(), "p1").Qty)
}

func TestMachine_AddSucceedsButRefreshFails(t *testing.T) {
	m, api, rec := setup(t)
	ctx := context.Background()

	api.Seed("p2", 2)
	require.NoError(t, m.Refresh(ctx))
	before := m.Snapshot()
	rec.Reset()

	api.FailNext(remotetest.RouteGetCart, http.StatusInternalServerError, "cart unavailable")
	err := m.Add(ctx, "p1", 1)
	require.Error(t, err)

	var re *remote.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, remote.ActionGetCart, re.Action)

	// the server has the new line, the display keeps the last good snapshot
	assert.Equal(t, 2, api.Cart().Len())
	assert.True(t, m.Snapshot().Equal(before))
	assert.Equal(t, StateIdle, m.State())

	errs := rec.ErrorsOf(presenter.KindRemote)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "cart unavailable")
	assert.Equal(t, []string{"busy", "error:remote", "idle"}, rec.Sequence())

	// the next successful operation resynchronizes
	require.NoError(t, m.Refresh(ctx))
	assert.True(t, m.Snapshot().Equal(api.Cart()))
}

func TestMachine_MutationFailureSkipsRefresh(t *testing.T) {
	m, api, rec := setup(t)
	ctx := context.Background()

	api.FailNext(remotetest.RouteAddCartItem, http.StatusBadRequest, "out of stock")
	err := m.Add(ctx, "p1", 1)

	var re *remote.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, remote.ActionAddCartItem, re.Action)
	assert.Equal(t, 0, api.Calls(remotetest.RouteGetCart))
	assert.True(t, m.Snapshot().IsEmpty())
	assert.Equal(t, StateIdle, m.State())
	assert.Len(t, rec.ErrorsOf(presenter.KindRemote), 1)
}

func TestMachine_ClearEmptyCart(t *testing.T) {
	m, api, rec := setup(t)

	require.NoError(t, m.Clear(context.Background()))

	snap := m.Snapshot()
	assert.True(t, snap.IsEmpty())
	assert.NotNil(t, snap.Items)
	assert.True(t, snap.FinalTotal.IsZero())
	assert.Equal(t, 1, api.Calls(remotetest.RouteClearCart))
	assert.Empty(t, rec.Errors())
}

func TestMachine_RejectsWhileBusy(t *testing.T) {
	m, api, rec := setup(t)
	ctx := context.Background()

	release := api.Hold(remotetest.RouteAddCartItem)
	done := make(chan error, 1)
	go func() {
		done <- m.Add(ctx, "p1", 1)
	}()

	require.Eventually(t, func() bool {
		return api.Calls(remotetest.RouteAddCartItem) == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.True(t, m.Busy())
	assert.Equal(t, StateMutating, m.State())

	assert.ErrorIs(t, m.Add(ctx, "p2", 1), ErrBusy)
	assert.ErrorIs(t, m.Clear(ctx), ErrBusy)
	assert.ErrorIs(t, m.Refresh(ctx), ErrBusy)

	release()
	require.NoError(t, <-done)

	assert.Equal(t, 1, api.Calls(remotetest.RouteAddCartItem))
	assert.Equal(t, 0, api.Calls(remotetest.RouteClearCart))
	assert.Equal(t, 1, api.Calls(remotetest.RouteGetCart))
	assert.Equal(t, []bool{true, false}, rec.Busy())
	assert.False(t, m.Busy())
	assert.Equal(t, 1, m.Snapshot().Len())
}

func TestMachine_RejectsWhileRefreshing(t *testing.T) {
	m, api, rec := setup(t)
	ctx := context.Background()

	release := api.Hold(remotetest.RouteGetCart)
	done := make(chan error, 1)
	go func() {
		done <- m.Add(ctx, "p1", 1)
	}()

	require.Eventually(t, func() bool {
		return api.Calls(remotetest.RouteGetCart) == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.True(t, m.Busy())
	assert.Equal(t, StateRefreshing, m.State())

	assert.ErrorIs(t, m.Add(ctx, "p2", 1), ErrBusy)
	assert.ErrorIs(t, m.Remove(ctx, "item-1"), ErrBusy)
	assert.ErrorIs(t, m.Refresh(ctx), ErrBusy)

	release()
	require.NoError(t, <-done)

	assert.Equal(t, 1, api.Calls(remotetest.RouteAddCartItem))
	assert.Equal(t, 1, api.Calls(remotetest.RouteGetCart))
	assert.Equal(t, 0, api.Calls(remotetest.RouteRemoveCartItem))
	assert.Equal(t, []bool{true, false}, rec.Busy())
	assert.True(t, m.Snapshot().Equal(api.Cart()))
}

func TestMachine_CoercesQuantity(t *testing.T) {
	m, api, _ := setup(t)
	ctx := context.Background()

	require.NoError(t, m.Add(ctx, "p1", 0))
	item := lineFor(t, m.Snapshot(), "p1")
	assert.Equal(t, 1, item.Qty)

	require.NoError(t, m.Update(ctx, item.ID, "p1", -4))
	assert.Equal(t, 1, lineFor(t, api.Cart(), "p1").Qty)
}

func TestMachine_UnknownItem(t *testing.T) {
	m, api, rec := setup(t)
	ctx := context.Background()

	assert.ErrorIs(t, m.Increment(ctx, "item-404"), ErrItemNotFound)
	assert.ErrorIs(t, m.Decrement(ctx, "item-404"), ErrItemNotFound)
	assert.ErrorIs(t, m.Update(ctx, "item-404", "", 2), ErrItemNotFound)

	assert.Equal(t, 0, api.TotalCalls())
	assert.Empty(t, rec.Sequence())
}

func TestMachine_IgnoresMutationResponse(t *testing.T) {
	served := domain.Cart{
		Items: []domain.CartItem{{
			ID:         "line-1",
			ProductID:  "p1",
			Qty:        2,
			Total:      decimal.NewFromInt(600),
			FinalTotal: decimal.NewFromInt(500),
		}},
		Total:      decimal.NewFromInt(600),
		FinalTotal: decimal.NewFromInt(500),
	}
	api := &mockAPI{cart: served}
	rec := &presentertest.Recorder{}
	m := New(api, rec, nil)

	require.NoError(t, m.Add(context.Background(), "p1", 2))

	assert.Equal(t, []string{"add p1 2", "getCart"}, api.Calls())
	assert.True(t, m.Snapshot().Equal(served))
	assert.Equal(t, []string{"busy", "cart", "idle"}, rec.Sequence())
}

func TestMachine_UpdateFillsProductFromSnapshot(t *testing.T) {
	api := &mockAPI{cart: domain.Cart{Items: []domain.CartItem{{ID: "line-1", ProductID: "p7", Qty: 2}}}}
	m := New(api, nil, nil)
	ctx := context.Background()

	require.NoError(t, m.Refresh(ctx))
	require.NoError(t, m.Update(ctx, "line-1", "", 6))
	require.NoError(t, m.Increment(ctx, "line-1"))

	assert.Equal(t, []string{
		"getCart",
		"update line-1 p7 6", "getCart",
		"update line-1 p7 3", "getCart",
	}, api.Calls())
}

func TestMachine_TransportFailureReturnsToIdle(t *testing.T) {
	api := &mockAPI{callErr: errors.New("connection refused")}
	rec := &presentertest.Recorder{}
	m := New(api, rec, nil)

	err := m.Clear(context.Background())
	require.EqualError(t, err, "connection refused")
	assert.Equal(t, StateIdle, m.State())
	assert.Equal(t, []string{"clear"}, api.Calls())
	assert.Equal(t, []string{"busy", "error:remote", "idle"}, rec.Sequence())
}

func TestMachine_RefreshFailureKeepsSnapshot(t *testing.T) {
	api := &mockAPI{cart: domain.Cart{Items: []domain.CartItem{{ID: "line-1", ProductID: "p1", Qty: 2}}}}
	rec := &presentertest.Recorder{}
	m := New(api, rec, nil)
	ctx := context.Background()

	require.NoError(t, m.Refresh(ctx))
	before := m.Snapshot()
	rec.Reset()

	api.getErr = errors.New("cart unavailable")
	err := m.Refresh(ctx)
	require.EqualError(t, err, "cart unavailable")

	assert.True(t, m.Snapshot().Equal(before))
	assert.Equal(t, StateIdle, m.State())
	assert.Equal(t, []string{"getCart", "getCart"}, api.Calls())
	assert.Equal(t, []string{"busy", "error:remote", "idle"}, rec.Sequence())
}

func TestMachine_SnapshotIsACopy(t *testing.T) {
	m, api, _ := setup(t)
	api.Seed("p1", 2)
	require.NoError(t, m.Refresh(context.Background()))

	snap := m.Snapshot()
	snap.Items[0].Qty = 99

	assert.Equal(t, 2, m.Snapshot().Items[0].Qty)
}

func TestCoerceQuantity(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{in: -1, want: 1},
		{in: 0, want: 1},
		{in: 1, want: 1},
		{in: 42, want: 42},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CoerceQuantity(tt.in), "CoerceQuantity(%d)", tt.in)
	}
}

func TestState(t *testing.T) {
	assert.False(t, StateIdle.IsBusy())
	assert.True(t, StateMutating.IsBusy())
	assert.True(t, StateRefreshing.IsBusy())
	assert.Equal(t, "REFRESHING", StateRefreshing.String())
}
