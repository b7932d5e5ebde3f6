package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pacaprints/internal/core"
)

type fakeOrderStore struct {
	created []core.Order
	nextID  int64

	flagPrev bool
	flagErr  error
	gotFlag  string
	gotValue bool

	cogs       int64
	produceErr error
}

func (f *fakeOrderStore) CreateOrder(ctx context.Context, o core.Order) (int64, error) {
	f.created = append(f.created, o)
	f.nextID++
	return f.nextID, nil
}

func (f *fakeOrderStore) GetOrder(ctx context.Context, id int64) (core.Order, error) {
	return core.Order{ID: id}, nil
}

func (f *fakeOrderStore) ListOrders(ctx context.Context, q core.ListQuery) ([]core.Order, error) {
	return nil, nil
}

func (f *fakeOrderStore) SetOrderFlag(ctx context.Context, id int64, flag string, value bool) (bool, error) {
	f.gotFlag, f.gotValue = flag, value
	return f.flagPrev, f.flagErr
}

func (f *fakeOrderStore) ProduceOrder(ctx context.Context, orderID int64) (int64, error) {
	return f.cogs, f.produceErr
}

type fakePublisher struct {
	published []struct {
		kind string
		id   int64
	}
	err error
}

func (f *fakePublisher) PublishLedgerSync(ctx context.Context, kind string, id int64) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, struct {
		kind string
		id   int64
	}{kind, id})
	return nil
}

func validOrder() core.Order {
	return core.Order{
		PlacedOn:  core.NewDate(2024, 7, 1),
		Platform:  "etsy",
		Reference: "ETSY-1001",
		ProductID: 1,
		Quantity:  2,
		Gross:     core.Money{Pence: 2599},
		Fees:      core.Money{Pence: 312},
		Payout:    core.Money{Pence: 2287},
	}
}

func TestOrderServiceCreatePublishes(t *testing.T) {
	store := &fakeOrderStore{}
	pub := &fakePublisher{}
	svc := NewOrderService(store, pub)

	id, err := svc.CreateOrder(context.Background(), validOrder())
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	require.Len(t, pub.published, 1)
	assert.Equal(t, "order", pub.published[0].kind)
	assert.Equal(t, id, pub.published[0].id)
}

func TestOrderServiceCreateRejectsInvalid(t *testing.T) {
	store := &fakeOrderStore{}
	svc := NewOrderService(store, &fakePublisher{})

	o := validOrder()
	o.Quantity = 0
	_, err := svc.CreateOrder(context.Background(), o)
	require.Error(t, err)
	assert.Empty(t, store.created, "invalid order must not reach storage")
}

func TestOrderServiceCreateSurvivesPublishFailure(t *testing.T) {
	store := &fakeOrderStore{}
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := NewOrderService(store, pub)

	id, err := svc.CreateOrder(context.Background(), validOrder())
	require.NoError(t, err, "publish failure must not fail the save")
	assert.Equal(t, int64(1), id)
	assert.Len(t, store.created, 1)
}

func TestOrderServiceCreateWithoutPublisher(t *testing.T) {
	store := &fakeOrderStore{}
	svc := NewOrderService(store, nil)

	_, err := svc.CreateOrder(context.Background(), validOrder())
	assert.NoError(t, err)
}

func TestOrderServiceSetFlagReturnsPrevious(t *testing.T) {
	store := &fakeOrderStore{flagPrev: true}
	svc := NewOrderService(store, nil)

	prev, err := svc.SetFlag(context.Background(), 7, "shipped", false)
	require.NoError(t, err)
	assert.True(t, prev)
	assert.Equal(t, "shipped", store.gotFlag)
	assert.False(t, store.gotValue)
}

func TestOrderServiceProduce(t *testing.T) {
	store := &fakeOrderStore{cogs: 270}
	svc := NewOrderService(store, nil)

	cogs, err := svc.Produce(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(270), cogs)
}
