package service

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"thrift-store/internal/domain"
	"thrift-store/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// fakeStore is an in-memory stand-in for Postgres shared by every fake repository.
// Transactions are serialized and rolled back by restoring a snapshot.
type fakeStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	users      map[uuid.UUID]domain.User
	profiles   map[uuid.UUID]domain.Profile
	entries    []domain.CreditEntry
	categories map[uuid.UUID]domain.Category
	items      map[uuid.UUID]domain.Item
	carts      map[uuid.UUID]domain.Cart // by user id
	lines      map[uuid.UUID][]domain.CartLine
	orders     []domain.Order
	messages   []domain.Message
	reviews    []domain.Review

	// profileLocks records every LockForUpdate call in order
	profileLocks []uuid.UUID

	// conflicts makes the next n transactions fail with domain.ErrConflict
	conflicts int
	txCount   int
}

type fakeSnapshot struct {
	users      map[uuid.UUID]domain.User
	profiles   map[uuid.UUID]domain.Profile
	entries    []domain.CreditEntry
	categories map[uuid.UUID]domain.Category
	items      map[uuid.UUID]domain.Item
	carts      map[uuid.UUID]domain.Cart
	lines      map[uuid.UUID][]domain.CartLine
	orders     []domain.Order
	messages   []domain.Message
	reviews    []domain.Review
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:      map[uuid.UUID]domain.User{},
		profiles:   map[uuid.UUID]domain.Profile{},
		categories: map[uuid.UUID]domain.Category{},
		items:      map[uuid.UUID]domain.Item{},
		carts:      map[uuid.UUID]domain.Cart{},
		lines:      map[uuid.UUID][]domain.CartLine{},
	}
}

func (s *fakeStore) snapshot() fakeSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := make(map[uuid.UUID][]domain.CartLine, len(s.lines))
	for k, v := range s.lines {
		lines[k] = slices.Clone(v)
	}
	return fakeSnapshot{
		users:      cloneMap(s.users),
		profiles:   cloneMap(s.profiles),
		entries:    slices.Clone(s.entries),
		categories: cloneMap(s.categories),
		items:      cloneMap(s.items),
		carts:      cloneMap(s.carts),
		lines:      lines,
		orders:     slices.Clone(s.orders),
		messages:   slices.Clone(s.messages),
		reviews:    slices.Clone(s.reviews),
	}
}

func (s *fakeStore) restore(snap fakeSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = snap.users
	s.profiles = snap.profiles
	s.entries = snap.entries
	s.categories = snap.categories
	s.items = snap.items
	s.carts = snap.carts
	s.lines = snap.lines
	s.orders = snap.orders
	s.messages = snap.messages
	s.reviews = snap.reviews
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// fakeTx implements repository.TxManager over the fake store
type fakeTx struct {
	store *fakeStore
}

type fakeTxKey struct{}

func (t *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(fakeTxKey{}) != nil {
		return fn(ctx)
	}

	t.store.txMu.Lock()
	defer t.store.txMu.Unlock()

	t.store.mu.Lock()
	t.store.txCount++
	if t.store.conflicts > 0 {
		t.store.conflicts--
		t.store.mu.Unlock()
		return fmt.Errorf("%w: could not serialize access", domain.ErrConflict)
	}
	t.store.mu.Unlock()

	snap := t.store.snapshot()
	if err := fn(context.WithValue(ctx, fakeTxKey{}, true)); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

// --- users ---

type fakeUserRepo struct{ s *fakeStore }

func (r fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == user.Username {
			return repository.ErrUserAlreadyExists
		}
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r fakeUserRepo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

// --- profiles ---

type fakeProfileRepo struct{ s *fakeStore }

func (r fakeProfileRepo) Create(ctx context.Context, profile *domain.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.profiles[profile.UserID] = *profile
	return nil
}

func (r fakeProfileRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[userID]
	if !ok {
		return nil, repository.ErrProfileNotFound
	}
	return &p, nil
}

func (r fakeProfileRepo) AdjustCredits(ctx context.Context, userID uuid.UUID, delta int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[userID]
	if !ok {
		return 0, repository.ErrProfileNotFound
	}
	if p.Credits+delta < 0 {
		return 0, domain.ErrInsufficientCredits
	}
	p.Credits += delta
	r.s.profiles[userID] = p
	return p.Credits, nil
}

func (r fakeProfileRepo) LockForUpdate(ctx context.Context, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.profiles[userID]; !ok {
		return repository.ErrProfileNotFound
	}
	r.s.profileLocks = append(r.s.profileLocks, userID)
	return nil
}

func (r fakeProfileRepo) SetMode(ctx context.Context, userID uuid.UUID, mode domain.Mode) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[userID]
	if !ok {
		return repository.ErrProfileNotFound
	}
	p.CurrentMode = mode
	r.s.profiles[userID] = p
	return nil
}

func (r fakeProfileRepo) SetRating(ctx context.Context, userID uuid.UUID, rating decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[userID]
	if !ok {
		return repository.ErrProfileNotFound
	}
	p.Rating = rating.Round(2)
	r.s.profiles[userID] = p
	return nil
}

func (r fakeProfileRepo) Stats(ctx context.Context, userID uuid.UUID) (*domain.ProfileStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stats := &domain.ProfileStats{}
	for _, it := range r.s.items {
		if it.SellerID == userID && it.Status == domain.ItemStatusAvailable {
			stats.ActiveListings++
		}
	}
	for _, o := range r.s.orders {
		if o.BuyerID == userID && o.Status != domain.OrderStatusCancelled {
			stats.Purchases++
		}
	}
	sum := 0
	for _, rv := range r.s.reviews {
		if rv.AuthorID == userID {
			stats.ReviewsWritten++
			sum += rv.Rating
		}
	}
	if stats.ReviewsWritten > 0 {
		avg := decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(stats.ReviewsWritten))).Round(2)
		stats.AverageGiven = &avg
	}
	return stats, nil
}

// --- credit entries ---

type fakeEntryRepo struct{ s *fakeStore }

func (r fakeEntryRepo) Create(ctx context.Context, entry *domain.CreditEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.entries = append(r.s.entries, *entry)
	return nil
}

func (r fakeEntryRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.CreditEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*domain.CreditEntry{}
	for i := len(r.s.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if e := r.s.entries[i]; e.UserID == userID {
			out = append(out, &e)
		}
	}
	return out, nil
}

// --- categories ---

type fakeCategoryRepo struct{ s *fakeStore }

func (r fakeCategoryRepo) Create(ctx context.Context, category *domain.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.categories {
		if c.Name == category.Name {
			return repository.ErrCategoryAlreadyExists
		}
	}
	r.s.categories[category.ID] = *category
	return nil
}

func (r fakeCategoryRepo) List(ctx context.Context) ([]*domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*domain.Category{}
	for _, c := range r.s.categories {
		for _, it := range r.s.items {
			if it.CategoryID != nil && *it.CategoryID == c.ID && it.Status == domain.ItemStatusAvailable {
				c.AvailableItems++
			}
		}
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r fakeCategoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	return &c, nil
}

// --- items ---

type fakeItemRepo struct{ s *fakeStore }

func (r fakeItemRepo) Create(ctx context.Context, item *domain.Item) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.items[item.ID] = *item
	return nil
}

func (r fakeItemRepo) Update(ctx context.Context, item *domain.Item) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.items[item.ID]
	if !ok {
		return repository.ErrItemNotFound
	}
	stored.Title = item.Title
	stored.Description = item.Description
	stored.Price = item.Price
	stored.CategoryID = item.CategoryID
	stored.Condition = item.Condition
	stored.UpdatedAt = time.Now()
	r.s.items[item.ID] = stored
	item.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r fakeItemRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.items[id]
	if !ok {
		return nil, repository.ErrItemNotFound
	}
	return &it, nil
}

func (r fakeItemRepo) LockByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*domain.Item{}
	for _, id := range ids {
		if it, ok := r.s.items[id]; ok {
			out = append(out, &it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (r fakeItemRepo) SetStatus(ctx context.Context, id uuid.UUID, from, to domain.ItemStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.items[id]
	if !ok {
		return repository.ErrItemNotFound
	}
	if it.Status != from {
		return repository.ErrStatusChanged
	}
	it.Status = to
	r.s.items[id] = it
	return nil
}

func (r fakeItemRepo) List(ctx context.Context, filter domain.ItemFilter) ([]*domain.Item, int, error) {
	filter.Normalize()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	matched := []*domain.Item{}
	for _, it := range r.s.items {
		if it.Status != domain.ItemStatusAvailable || slices.Contains(filter.ExcludeIDs, it.ID) {
			continue
		}
		if q := strings.ToLower(filter.Query); q != "" &&
			!strings.Contains(strings.ToLower(it.Title), q) && !strings.Contains(strings.ToLower(it.Description), q) {
			continue
		}
		if filter.CategoryID != nil && (it.CategoryID == nil || *it.CategoryID != *filter.CategoryID) {
			continue
		}
		if filter.MinPrice != nil && it.Price.LessThan(*filter.MinPrice) {
			continue
		}
		if filter.MaxPrice != nil && it.Price.GreaterThan(*filter.MaxPrice) {
			continue
		}
		if filter.Condition != "" && it.Condition != filter.Condition {
			continue
		}
		matched = append(matched, &it)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := len(matched)
	start := min((filter.Page-1)*filter.PageSize, total)
	end := min(start+filter.PageSize, total)
	return matched[start:end], total, nil
}

func (r fakeItemRepo) FindBySeller(ctx context.Context, sellerID uuid.UUID, status *domain.ItemStatus) ([]*domain.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*domain.Item{}
	for _, it := range r.s.items {
		if it.SellerID == sellerID && (status == nil || it.Status == *status) {
			out = append(out, &it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// --- carts ---

type fakeCartRepo struct{ s *fakeStore }

func (r fakeCartRepo) GetOrCreate(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.carts[userID]
	if !ok {
		now := time.Now()
		c = domain.Cart{ID: uuid.New(), UserID: userID, CreatedAt: now, UpdatedAt: now}
		r.s.carts[userID] = c
	}
	c.Lines = []*domain.CartLine{}
	return &c, nil
}

func (r fakeCartRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.carts[userID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	c.Lines = []*domain.CartLine{}
	return &c, nil
}

func (r fakeCartRepo) AddLine(ctx context.Context, cartID, itemID uuid.UUID, quantity int) (*domain.CartLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	lines := r.s.lines[cartID]
	for i := range lines {
		if lines[i].ItemID == itemID {
			lines[i].Quantity = domain.ClampQuantity(lines[i].Quantity + quantity)
			line := lines[i]
			return &line, nil
		}
	}
	line := domain.CartLine{ID: uuid.New(), CartID: cartID, ItemID: itemID, Quantity: quantity, AddedAt: time.Now()}
	r.s.lines[cartID] = append(lines, line)
	return &line, nil
}

func (r fakeCartRepo) SetLineQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	lines := r.s.lines[cartID]
	for i := range lines {
		if lines[i].ItemID == itemID {
			lines[i].Quantity = quantity
			return nil
		}
	}
	return repository.ErrCartLineNotFound
}

func (r fakeCartRepo) RemoveLine(ctx context.Context, cartID, itemID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.lines[cartID] = slices.DeleteFunc(r.s.lines[cartID], func(l domain.CartLine) bool { return l.ItemID == itemID })
	return nil
}

func (r fakeCartRepo) ClearLines(ctx context.Context, cartID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.lines, cartID)
	return nil
}

func (r fakeCartRepo) Lines(ctx context.Context, cartID uuid.UUID) ([]*domain.CartLine, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*domain.CartLine{}
	for _, l := range r.s.lines[cartID] {
		it, ok := r.s.items[l.ItemID]
		if !ok {
			continue
		}
		line := l
		line.Item = &it
		out = append(out, &line)
	}
	return out, nil
}

func (r fakeCartRepo) ContainsItem(ctx context.Context, userID, itemID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.carts[userID]
	if !ok {
		return false, nil
	}
	for _, l := range r.s.lines[c.ID] {
		if l.ItemID == itemID {
			return true, nil
		}
	}
	return false, nil
}

// --- orders ---

type fakeOrderRepo struct{ s *fakeStore }

func (r fakeOrderRepo) Create(ctx context.Context, order *domain.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.orders {
		if o.ItemID == order.ItemID && o.Status != domain.OrderStatusCancelled {
			return domain.ErrItemNoLongerAvailable
		}
	}
	r.s.orders = append(r.s.orders, *order)
	return nil
}

func (r fakeOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.orders {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (r fakeOrderRepo) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*domain.Order, error) {
	return r.filter(func(o domain.Order) bool { return o.BuyerID == buyerID }), nil
}

func (r fakeOrderRepo) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]*domain.Order, error) {
	return r.filter(func(o domain.Order) bool { return o.SellerID == sellerID }), nil
}

func (r fakeOrderRepo) ExistsForBuyer(ctx context.Context, itemID, buyerID uuid.UUID) (bool, error) {
	return len(r.filter(func(o domain.Order) bool { return o.ItemID == itemID && o.BuyerID == buyerID })) > 0, nil
}

func (r fakeOrderRepo) filter(keep func(domain.Order) bool) []*domain.Order {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*domain.Order{}
	for i := len(r.s.orders) - 1; i >= 0; i-- {
		if o := r.s.orders[i]; keep(o) {
			out = append(out, &o)
		}
	}
	return out
}

// --- messages ---

type fakeMessageRepo struct{ s *fakeStore }

func (r fakeMessageRepo) Create(ctx context.Context, message *domain.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.messages = append(r.s.messages, *message)
	return nil
}

func (r fakeMessageRepo) Thread(ctx context.Context, itemID, a, b uuid.UUID) ([]*domain.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*domain.Message{}
	for _, m := range r.s.messages {
		if m.ItemID == itemID && ((m.SenderID == a && m.RecipientID == b) || (m.SenderID == b && m.RecipientID == a)) {
			out = append(out, &m)
		}
	}
	return out, nil
}

func (r fakeMessageRepo) MarkRead(ctx context.Context, itemID, recipientID uuid.UUID, senderID *uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for i := range r.s.messages {
		m := &r.s.messages[i]
		if m.ItemID == itemID && m.RecipientID == recipientID && !m.IsRead && (senderID == nil || m.SenderID == *senderID) {
			m.IsRead = true
			n++
		}
	}
	return n, nil
}

func (r fakeMessageRepo) Initiators(ctx context.Context, itemID, sellerID uuid.UUID) ([]uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []uuid.UUID{}
	for _, m := range r.s.messages {
		if m.ItemID == itemID && m.RecipientID == sellerID && !slices.Contains(out, m.SenderID) {
			out = append(out, m.SenderID)
		}
	}
	return out, nil
}

func (r fakeMessageRepo) Inbox(ctx context.Context, userID uuid.UUID) ([]*domain.Conversation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	type key struct{ item, counterpart uuid.UUID }
	convs := map[key]*domain.Conversation{}
	last := map[*domain.Conversation]int{}
	for i, m := range r.s.messages {
		if m.SenderID != userID && m.RecipientID != userID {
			continue
		}
		k := key{m.ItemID, m.Counterpart(userID)}
		c, ok := convs[k]
		if !ok {
			c = &domain.Conversation{ItemID: m.ItemID, ItemTitle: r.s.items[m.ItemID].Title, CounterpartID: k.counterpart}
			convs[k] = c
		}
		msg := m
		c.LastMessage = &msg
		last[c] = i
		if m.RecipientID == userID && !m.IsRead {
			c.UnreadCount++
		}
	}

	out := make([]*domain.Conversation, 0, len(convs))
	for _, c := range convs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return last[out[i]] > last[out[j]] })
	return out, nil
}

func (r fakeMessageRepo) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, m := range r.s.messages {
		if m.RecipientID == userID && !m.IsRead {
			n++
		}
	}
	return n, nil
}

// --- reviews ---

type fakeReviewRepo struct{ s *fakeStore }

func (r fakeReviewRepo) Create(ctx context.Context, review *domain.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rv := range r.s.reviews {
		if rv.ItemID == review.ItemID && rv.AuthorID == review.AuthorID {
			return domain.ErrAlreadyReviewed
		}
	}
	r.s.reviews = append(r.s.reviews, *review)
	return nil
}

func (r fakeReviewRepo) ListByItem(ctx context.Context, itemID uuid.UUID) ([]*domain.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*domain.Review{}
	for i := len(r.s.reviews) - 1; i >= 0; i-- {
		if rv := r.s.reviews[i]; rv.ItemID == itemID {
			out = append(out, &rv)
		}
	}
	return out, nil
}

func (r fakeReviewRepo) AverageForSeller(ctx context.Context, sellerID uuid.UUID) (*decimal.Decimal, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sum, n := 0, 0
	for _, rv := range r.s.reviews {
		if r.s.items[rv.ItemID].SellerID == sellerID {
			sum += rv.Rating
			n++
		}
	}
	if n == 0 {
		return nil, nil
	}
	avg := decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(n))).Round(2)
	return &avg, nil
}

// market wires every service over one fake store
type market struct {
	store        *fakeStore
	users        UserService
	profiles     ProfileService
	ledger       LedgerService
	catalog      CatalogService
	carts        CartService
	checkout     CheckoutService
	conversation ConversationService
	reviews      ReviewService
}

func newMarket() *market {
	s := newFakeStore()
	tx := &fakeTx{store: s}

	ledger := NewLedgerService(tx, fakeProfileRepo{s}, fakeEntryRepo{s}, domain.MinimumPurchase)
	catalog := NewCatalogService(tx, fakeItemRepo{s}, fakeCategoryRepo{s}, fakeCartRepo{s}, ledger, domain.ListingFee)

	return &market{
		store:        s,
		users:        NewUserService(tx, fakeUserRepo{s}, fakeProfileRepo{s}, fakeEntryRepo{s}, "test-secret", time.Hour, domain.SignupCredits),
		profiles:     NewProfileService(tx, fakeProfileRepo{s}),
		ledger:       ledger,
		catalog:      catalog,
		carts:        NewCartService(fakeCartRepo{s}, fakeItemRepo{s}),
		checkout:     NewCheckoutService(tx, fakeCartRepo{s}, fakeItemRepo{s}, fakeOrderRepo{s}, catalog, zap.NewNop()),
		conversation: NewConversationService(fakeMessageRepo{s}, fakeItemRepo{s}, fakeCartRepo{s}),
		reviews:      NewReviewService(tx, fakeReviewRepo{s}, fakeOrderRepo{s}, fakeItemRepo{s}, fakeProfileRepo{s}),
	}
}

// newUserWithCredits registers a user directly in the store with the given balance
func (m *market) newUserWithCredits(credits int) uuid.UUID {
	id := uuid.New()
	now := time.Now()
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.users[id] = domain.User{ID: id, Username: "u-" + id.String()[:8], Role: domain.RoleUser, CreatedAt: now, UpdatedAt: now}
	m.store.profiles[id] = *domain.NewProfile(id, credits)
	return id
}

// newListing puts an available item owned by sellerID straight into the store
func (m *market) newListing(sellerID uuid.UUID, title, price string) *domain.Item {
	now := time.Now()
	item := domain.Item{
		ID:        uuid.New(),
		SellerID:  sellerID,
		Title:     title,
		Price:     decimal.RequireFromString(price),
		Condition: domain.ConditionGood,
		Status:    domain.ItemStatusAvailable,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.items[item.ID] = item
	return &item
}

func (m *market) credits(userID uuid.UUID) int {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	return m.store.profiles[userID].Credits
}

func (m *market) itemStatus(itemID uuid.UUID) domain.ItemStatus {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	return m.store.items[itemID].Status
}

func (m *market) orderCount() int {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	return len(m.store.orders)
}
