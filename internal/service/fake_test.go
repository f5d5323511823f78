package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/product-catalog/internal/model"
	"github.com/tuanvumaihuynh/product-catalog/internal/repository"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
)

var errInjected = errors.New("injected failure")

// memStore backs the fake repositories. fakeDB.WithTx snapshots it and restores
// the snapshot when the transaction function fails.
type memStore struct {
	mu       sync.Mutex
	products map[string]model.Product
	txns     []model.InventoryTransaction
	outbox   []repository.CreateOutboxMsgParams

	failLedgerWrite bool
	failLedgerRead  bool
	failOutbox      bool
}

func newMemStore() *memStore {
	return &memStore{products: map[string]model.Product{}}
}

func (s *memStore) snapshot() memStore {
	return memStore{
		products: maps.Clone(s.products),
		txns:     slices.Clone(s.txns),
		outbox:   slices.Clone(s.outbox),
	}
}

func (s *memStore) restore(snap *memStore) {
	s.products = snap.products
	s.txns = snap.txns
	s.outbox = snap.outbox
}

func (s *memStore) ledgerFor(productID string) []model.InventoryTransaction {
	var res []model.InventoryTransaction
	for _, txn := range s.txns {
		if txn.ProductID == productID {
			res = append(res, txn)
		}
	}
	return res
}

func (s *memStore) topics() []string {
	res := make([]string, 0, len(s.outbox))
	for _, msg := range s.outbox {
		res = append(res, msg.Topic)
	}
	return res
}

type fakeDB struct {
	store *memStore
	txMu  sync.Mutex
}

var _ db.DB = (*fakeDB)(nil)

func (f *fakeDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("not supported")
}

func (f *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not supported")
}

func (f *fakeDB) QueryRow(context.Context, string, ...any) pgx.Row { return nil }

func (f *fakeDB) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, errors.New("not supported")
}

func (f *fakeDB) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }

func (f *fakeDB) WithTx(_ context.Context, txFunc func(db.DB) error) error {
	f.txMu.Lock()
	defer f.txMu.Unlock()

	f.store.mu.Lock()
	snap := f.store.snapshot()
	f.store.mu.Unlock()

	if err := txFunc(f); err != nil {
		f.store.mu.Lock()
		f.store.restore(&snap)
		f.store.mu.Unlock()
		return err
	}
	return nil
}

type fakeProductRepo struct{ store *memStore }

func (r fakeProductRepo) WithDB(db.DB) repository.ProductRepository { return r }

func (r fakeProductRepo) CreateProduct(_ context.Context, product model.Product) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.products[product.ID]; ok {
		return repository.ErrAlreadyExists
	}
	r.store.products[product.ID] = product
	return nil
}

func (r fakeProductRepo) GetProduct(_ context.Context, id string) (model.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.products[id]
	if !ok {
		return model.Product{}, repository.ErrNotFound
	}
	return p, nil
}

func (r fakeProductRepo) GetFirstProductByName(_ context.Context, name string) (model.Product, error) {
	for _, p := range r.sorted() {
		if p.ProductName == name {
			return p, nil
		}
	}
	return model.Product{}, repository.ErrNotFound
}

func (r fakeProductRepo) ListAllProducts(context.Context) ([]model.Product, error) {
	return r.sorted(), nil
}

func (r fakeProductRepo) GetLowestQuantityProduct(context.Context) (*model.Product, error) {
	var lowest *model.Product
	for _, p := range r.sorted() {
		if lowest == nil || p.Quantity.LessThan(lowest.Quantity) {
			lowest = &p
		}
	}
	return lowest, nil
}

func (r fakeProductRepo) UpdateProduct(_ context.Context, params repository.UpdateProductParams) (model.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.products[params.ID]
	if !ok {
		return model.Product{}, repository.ErrNotFound
	}
	if params.BrandName != nil {
		p.BrandName = *params.BrandName
	}
	if params.ProductName != nil {
		p.ProductName = *params.ProductName
	}
	if params.Price != nil {
		p.Price = *params.Price
	}
	if len(params.Attributes) > 0 {
		attrs := maps.Clone(p.Attributes)
		if attrs == nil {
			attrs = map[string]any{}
		}
		maps.Copy(attrs, params.Attributes)
		p.Attributes = attrs
	}
	p.UpdatedAt = params.UpdatedAt
	r.store.products[p.ID] = p
	return p, nil
}

func (r fakeProductRepo) AdjustQuantity(_ context.Context, params repository.AdjustQuantityParams) (decimal.Decimal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.products[params.ID]
	if !ok {
		return decimal.Decimal{}, repository.ErrConditionNotMet
	}
	next := p.Quantity.Add(params.Delta)
	if next.IsNegative() {
		return decimal.Decimal{}, repository.ErrConditionNotMet
	}
	p.Quantity = next
	p.UpdatedAt = params.UpdatedAt
	r.store.products[p.ID] = p
	return next, nil
}

func (r fakeProductRepo) DeleteProduct(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.store.products, id)
	return nil
}

func (r fakeProductRepo) sorted() []model.Product {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	res := slices.Collect(maps.Values(r.store.products))
	slices.SortFunc(res, func(a, b model.Product) int { return strings.Compare(a.ID, b.ID) })
	return res
}

type fakeInventoryTxnRepo struct{ store *memStore }

func (r fakeInventoryTxnRepo) WithDB(db.DB) repository.InventoryTxnRepository { return r }

func (r fakeInventoryTxnRepo) CreateInventoryTxn(_ context.Context, txn model.InventoryTransaction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.failLedgerWrite {
		return errInjected
	}
	r.store.txns = append(r.store.txns, txn)
	return nil
}

func (r fakeInventoryTxnRepo) ListInventoryTxnsByProduct(_ context.Context, productID string) ([]model.InventoryTransaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.failLedgerRead {
		return nil, errInjected
	}
	return r.store.ledgerFor(productID), nil
}

type fakeOutboxMsgRepo struct{ store *memStore }

func (r fakeOutboxMsgRepo) WithDB(db.DB) repository.OutboxMsgRepository { return r }

func (r fakeOutboxMsgRepo) CreateOutboxMsg(_ context.Context, params repository.CreateOutboxMsgParams) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.failOutbox {
		return errInjected
	}
	r.store.outbox = append(r.store.outbox, params)
	return nil
}

func (r fakeOutboxMsgRepo) ListUnprocessedOutboxMsgs(context.Context, repository.ListUnprocessedOutboxMsgsParams) ([]repository.OutboxMsg, error) {
	return nil, nil
}

func (r fakeOutboxMsgRepo) BulkUpdateOutboxMsgs(context.Context, repository.BulkUpdateOutboxMsgsParams) error {
	return nil
}

func (r fakeOutboxMsgRepo) DeleteProcessedOutboxMsgs(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type memGuard struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func (g *memGuard) Acquire(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.keys == nil {
		g.keys = map[string]struct{}{}
	}
	if _, ok := g.keys[key]; ok {
		return false, nil
	}
	g.keys[key] = struct{}{}
	return true, nil
}

func (g *memGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.keys, key)
	return nil
}

type fixture struct {
	store     *memStore
	guard     *memGuard
	products  ProductService
	inventory InventoryService
}

func newFixture() fixture {
	store := newMemStore()
	guard := &memGuard{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	database := &fakeDB{store: store}
	productRepo := fakeProductRepo{store: store}
	txnRepo := fakeInventoryTxnRepo{store: store}
	outboxRepo := fakeOutboxMsgRepo{store: store}

	return fixture{
		store:     store,
		guard:     guard,
		products:  NewProductService(logger, logger, database, productRepo, txnRepo, outboxRepo),
		inventory: NewInventoryService(logger, database, productRepo, txnRepo, outboxRepo, guard),
	}
}
