package cart

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/kajal19803/dairyfrontend/internal/domain"
	"github.com/kajal19803/dairyfrontend/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type failingStore struct {
	m      sync.Mutex
	getErr error
	setErr error
	sets   int
}

func (f *failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, f.getErr
}

func (f *failingStore) Set(context.Context, string, []byte) error {
	f.m.Lock()
	defer f.m.Unlock()
	f.sets++
	return f.setErr
}

func (f *failingStore) Delete(context.Context, string) error { return nil }
func (f *failingStore) Close() error                         { return nil }

// canceledStore fails reads the way a store does once the caller went away.
type canceledStore struct {
	storage.Store
}

func (c *canceledStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.Store.Get(ctx, key)
}

func mustLoad(t *testing.T, key string, st storage.Store, log *zap.Logger) *Store {
	t.Helper()
	s, err := Load(context.Background(), key, st, log)
	require.NoError(t, err)
	return s
}

var (
	ghee = domain.Product{ID: "p1", Name: "Cow dung cakes", Price: domain.LabelPrice("₹40 / 10 उपले"), Image: "/img/p1.jpg"}
	milk = domain.Product{ID: "p2", Name: "A2 Milk", Price: domain.NumberPrice(65.5)}
	curd = domain.Product{ID: "p3", Name: "Curd", Price: domain.LabelPrice("120")}
	junk = domain.Product{ID: "p4", Name: "Gift card", Price: domain.LabelPrice("ask us")}
)

func newTestStore(t *testing.T) (*Store, *storage.MemoryStore) {
	t.Helper()
	mem := storage.NewMemoryStore()
	return New(Key("profile-1"), mem, nil), mem
}

func TestKey(t *testing.T) {
	assert.Equal(t, "cart:abc", Key("abc"))
}

func TestAddItem_SameProductMerges(t *testing.T) {
	s, _ := newTestStore(t)

	for i := 1; i <= 7; i++ {
		assert.Equal(t, i, s.AddItem(milk))
	}

	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 7, lines[0].Quantity)
	assert.Equal(t, 7, s.Count())
}

func TestAddItem_CopiesProductFields(t *testing.T) {
	s, _ := newTestStore(t)
	s.AddItem(ghee)

	assert.Equal(t, []domain.CartLine{{
		ProductID: "p1",
		Name:      "Cow dung cakes",
		Price:     domain.LabelPrice("₹40 / 10 उपले"),
		Image:     "/img/p1.jpg",
		Quantity:  1,
	}}, s.Lines())
}

func TestRupeeLabelScenario(t *testing.T) {
	s, _ := newTestStore(t)

	s.AddItem(ghee)
	s.AddItem(ghee)

	assert.Equal(t, 2, s.Quantity("p1"))
	assert.Equal(t, 80.0, s.TotalPrice())

	assert.False(t, s.UpdateQuantity("p1", 0))
	assert.Equal(t, 2, s.Quantity("p1"))
}

func TestUpdateQuantity_Floor(t *testing.T) {
	s, _ := newTestStore(t)
	s.AddItem(milk)
	s.AddItem(milk)

	for _, q := range []int{0, -1, -100} {
		assert.False(t, s.UpdateQuantity("p2", q))
		assert.Equal(t, 2, s.Quantity("p2"))
	}

	assert.True(t, s.UpdateQuantity("p2", 9))
	assert.Equal(t, 9, s.Quantity("p2"))
}

func TestUpdateQuantity_Absent(t *testing.T) {
	s, _ := newTestStore(t)
	s.AddItem(milk)

	assert.False(t, s.UpdateQuantity("nope", 3))
	assert.Len(t, s.Lines(), 1)
	assert.Equal(t, 0, s.Quantity("nope"))
}

func TestRemoveItem(t *testing.T) {
	s, _ := newTestStore(t)
	s.AddItem(milk)
	s.AddItem(curd)

	assert.True(t, s.RemoveItem("p2"))
	assert.False(t, s.RemoveItem("p2"), "removing an absent line is a no-op")

	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "p3", lines[0].ProductID)
}

func TestTotalPrice_ShapesAndJunk(t *testing.T) {
	s, _ := newTestStore(t)
	s.AddItem(ghee) // 40
	s.AddItem(milk) // 65.5
	s.AddItem(curd) // 120
	s.AddItem(junk) // 0
	s.AddItem(junk)

	assert.InDelta(t, 225.5, s.TotalPrice(), 1e-9)
}

func TestTotalPrice_OrderIndependent(t *testing.T) {
	first, _ := newTestStore(t)
	second, _ := newTestStore(t)

	for _, p := range []domain.Product{ghee, milk, milk, curd, ghee} {
		first.AddItem(p)
	}
	for _, p := range []domain.Product{curd, milk, ghee, ghee, milk} {
		second.AddItem(p)
	}

	assert.Equal(t, first.TotalPrice(), second.TotalPrice())
}

func TestLines_IsACopy(t *testing.T) {
	s, _ := newTestStore(t)
	s.AddItem(milk)

	lines := s.Lines()
	lines[0].Quantity = 99

	assert.Equal(t, 1, s.Quantity("p2"))
}

func TestClear(t *testing.T) {
	s, mem := newTestStore(t)
	s.AddItem(milk)
	s.AddItem(curd)

	s.Clear()

	assert.Empty(t, s.Lines())
	assert.Zero(t, s.TotalPrice())

	data, err := mem.Get(context.Background(), Key("profile-1"))
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestPersistRoundTrip(t *testing.T) {
	s, mem := newTestStore(t)
	s.AddItem(ghee)
	s.AddItem(milk)
	s.AddItem(milk)
	s.AddItem(curd)
	s.UpdateQuantity("p3", 4)
	s.RemoveItem("p1")

	reloaded := mustLoad(t, Key("profile-1"), mem, nil)

	want := s.Lines()
	got := reloaded.Lines()
	byID := func(lines []domain.CartLine) {
		sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	}
	byID(want)
	byID(got)
	assert.Equal(t, want, got)
	assert.Equal(t, s.TotalPrice(), reloaded.TotalPrice())
}

func TestPersistKeepsPriceShape(t *testing.T) {
	s, mem := newTestStore(t)
	s.AddItem(ghee)
	s.AddItem(milk)

	data, err := mem.Get(context.Background(), Key("profile-1"))
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"productId":"p1","name":"Cow dung cakes","price":"₹40 / 10 उपले","image":"/img/p1.jpg","quantity":1},
		{"productId":"p2","name":"A2 Milk","price":65.5,"quantity":1}
	]`, string(data))
}

func TestLoad_MissingKey(t *testing.T) {
	s := mustLoad(t, Key("new"), storage.NewMemoryStore(), nil)

	assert.Empty(t, s.Lines())
}

func TestLoad_CorruptPayloadStartsEmpty(t *testing.T) {
	mem := storage.NewMemoryStore()
	require.NoError(t, mem.Set(context.Background(), Key("x"), []byte(`{"broken`)))

	core, logs := observer.New(zapcore.WarnLevel)
	s := mustLoad(t, Key("x"), mem, zap.New(core))

	assert.Empty(t, s.Lines())
	assert.Equal(t, 1, logs.FilterMessage("cart payload unreadable, starting empty").Len())

	s.AddItem(milk)
	assert.Equal(t, 1, s.Quantity("p2"), "cart stays usable after a bad load")
}

func TestLoad_StorageErrorIsReturned(t *testing.T) {
	st := &failingStore{getErr: errors.New("connection refused")}

	s, err := Load(context.Background(), Key("x"), st, nil)

	require.ErrorContains(t, err, "connection refused")
	assert.Nil(t, s)
	assert.Zero(t, st.sets, "a failed read must not be followed by a write")
}

func TestLoad_CanceledContextIsAnError(t *testing.T) {
	mem := storage.NewMemoryStore()
	require.NoError(t, storage.SaveJSON(context.Background(), mem, Key("x"), []domain.CartLine{
		{ProductID: "p1", Name: "Ghee", Price: domain.NumberPrice(550), Quantity: 3},
	}))
	st := &canceledStore{Store: mem}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Load(ctx, Key("x"), st, nil)
	require.ErrorIs(t, err, context.Canceled)

	data, err := mem.Get(context.Background(), Key("x"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"quantity":3`, "saved cart is untouched")
}

func TestLoad_NormalizesLines(t *testing.T) {
	mem := storage.NewMemoryStore()
	require.NoError(t, mem.Set(context.Background(), Key("x"), []byte(`[
		{"productId":"a","name":"A","price":10,"quantity":2},
		{"productId":"b","name":"B","price":"₹5","quantity":0},
		{"productId":"a","name":"A","price":10,"quantity":3}
	]`)))

	s := mustLoad(t, Key("x"), mem, nil)

	assert.Equal(t, 5, s.Quantity("a"))
	assert.Equal(t, 1, s.Quantity("b"))
	assert.Len(t, s.Lines(), 2)
}

func TestPersistFailureIsSwallowed(t *testing.T) {
	st := &failingStore{setErr: errors.New("disk full")}
	core, logs := observer.New(zapcore.WarnLevel)
	s := New(Key("x"), st, zap.New(core))

	s.AddItem(milk)
	s.AddItem(milk)
	s.UpdateQuantity("p2", 5)
	s.RemoveItem("p9")
	s.Clear()

	assert.Equal(t, 5, st.sets, "every mutation attempts a write")
	assert.Equal(t, 5, logs.FilterMessage("cart persist failed").Len())
}

func TestUpdateQuantityBelowOneDoesNotPersist(t *testing.T) {
	st := &failingStore{}
	s := New(Key("x"), st, nil)
	s.AddItem(milk)

	s.UpdateQuantity("p2", 0)

	assert.Equal(t, 1, st.sets)
}

func TestConcurrentAdds(t *testing.T) {
	s, mem := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AddItem(curd)
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, s.Quantity("p3"))

	reloaded := mustLoad(t, Key("profile-1"), mem, nil)
	assert.Equal(t, 100, reloaded.Quantity("p3"), "last write reflects the final state")
}
