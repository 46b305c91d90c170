package service

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/billdesk/internal/domain/composer"
	"github.com/sangkips/billdesk/internal/domain/entity"
	"github.com/sangkips/billdesk/internal/domain/enum"
	"github.com/sangkips/billdesk/internal/domain/repository"
	"github.com/sangkips/billdesk/pkg/apperror"
	"github.com/sangkips/billdesk/pkg/utils"
	"github.com/shopspring/decimal"
)

// ProductCatalog resolves a product reference into what a draft line needs
type ProductCatalog interface {
	Lookup(ctx context.Context, productID string) (composer.Product, error)
}

// CustomerDirectory resolves the customer a draft is billed to
type CustomerDirectory interface {
	GetCustomer(ctx context.Context, id uuid.UUID) (*entity.Customer, error)
}

// BillSubmitter persists a finalized draft
type BillSubmitter interface {
	CreateBill(ctx context.Context, payload *composer.Payload) (*entity.Bill, error)
}

// ComposerService owns the bill drafts of composer sessions. Every mutation of a
// session's draft runs under that session's lock, so concurrent requests from the
// same dashboard are applied one at a time.
type ComposerService struct {
	drafts    repository.DraftRepository
	products  ProductCatalog
	customers CustomerDirectory
	bills     BillSubmitter
	tokens    *utils.SessionTokenManager
	locks     *sessionLocks
}

func NewComposerService(
	drafts repository.DraftRepository,
	products ProductCatalog,
	customers CustomerDirectory,
	bills BillSubmitter,
	tokens *utils.SessionTokenManager,
) *ComposerService {
	return &ComposerService{
		drafts:    drafts,
		products:  products,
		customers: customers,
		bills:     bills,
		tokens:    tokens,
		locks:     newSessionLocks(),
	}
}

// DraftView is a draft together with its derived totals
type DraftView struct {
	SessionID uuid.UUID       `json:"session_id"`
	Draft     *composer.Draft `json:"draft"`
	Items     []LineItemView  `json:"items"`
	Totals    composer.Totals `json:"totals"`
}

// LineItemView adds the line total to a draft line
type LineItemView struct {
	composer.LineItem
	LineTotal decimal.Decimal `json:"line_total"`
}

// SessionView is returned when a session is opened
type SessionView struct {
	DraftView
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SubmitResult carries the stored bill and the fresh draft that replaced the submitted one
type SubmitResult struct {
	Bill  *entity.Bill `json:"bill"`
	Draft *DraftView   `json:"draft"`
}

func newDraftView(sessionID uuid.UUID, d *composer.Draft) *DraftView {
	items := d.Items()
	views := make([]LineItemView, len(items))
	for i, item := range items {
		views[i] = LineItemView{LineItem: item, LineTotal: item.LineTotal()}
	}
	return &DraftView{
		SessionID: sessionID,
		Draft:     d,
		Items:     views,
		Totals:    composer.ComputeTotals(d),
	}
}

// OpenSession starts a composer session with an empty draft
func (s *ComposerService) OpenSession(ctx context.Context) (*SessionView, error) {
	sessionID := uuid.New()
	draft := composer.NewDraft()

	if err := s.drafts.Save(ctx, sessionID, draft); err != nil {
		return nil, apperror.NewInternalError(err)
	}

	token, expiresAt, err := s.tokens.Issue(sessionID)
	if err != nil {
		return nil, apperror.NewInternalError(err)
	}

	return &SessionView{
		DraftView: *newDraftView(sessionID, draft),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *ComposerService) load(ctx context.Context, sessionID uuid.UUID) (*composer.Draft, error) {
	draft, err := s.drafts.Get(ctx, sessionID)
	if err != nil {
		return nil, apperror.NewInternalError(err)
	}
	if draft == nil {
		return nil, apperror.NewNotFoundError("Composer session")
	}
	return draft, nil
}

// GetDraft returns the current draft of a session
func (s *ComposerService) GetDraft(ctx context.Context, sessionID uuid.UUID) (*DraftView, error) {
	draft, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return newDraftView(sessionID, draft), nil
}

// mutate loads, changes and stores the session's draft under its lock
func (s *ComposerService) mutate(ctx context.Context, sessionID uuid.UUID, fn func(d *composer.Draft) error) (*DraftView, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	draft, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := fn(draft); err != nil {
		return nil, err
	}

	if err := s.drafts.Save(ctx, sessionID, draft); err != nil {
		return nil, apperror.NewInternalError(err)
	}

	return newDraftView(sessionID, draft), nil
}

// AddProduct adds one unit of a product, or increments its line if already present
func (s *ComposerService) AddProduct(ctx context.Context, sessionID uuid.UUID, productID string) (*DraftView, error) {
	product, err := s.products.Lookup(ctx, productID)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, sessionID, func(d *composer.Draft) error {
		d.AddOrIncrementItem(product)
		return nil
	})
}

// SetQuantity applies raw quantity input to a line. Unknown lines are left alone.
func (s *ComposerService) SetQuantity(ctx context.Context, sessionID uuid.UUID, productRef, value string) (*DraftView, error) {
	return s.mutate(ctx, sessionID, func(d *composer.Draft) error {
		d.SetQuantity(productRef, value)
		return nil
	})
}

// SetUnitPrice applies raw price input to a line. Unknown lines are left alone.
func (s *ComposerService) SetUnitPrice(ctx context.Context, sessionID uuid.UUID, productRef, value string) (*DraftView, error) {
	return s.mutate(ctx, sessionID, func(d *composer.Draft) error {
		d.SetUnitPrice(productRef, value)
		return nil
	})
}

func (s *ComposerService) RemoveItem(ctx context.Context, sessionID uuid.UUID, productRef string) (*DraftView, error) {
	return s.mutate(ctx, sessionID, func(d *composer.Draft) error {
		d.RemoveItem(productRef)
		return nil
	})
}

// SelectCustomer bills the draft to an existing customer. An empty id clears the selection.
func (s *ComposerService) SelectCustomer(ctx context.Context, sessionID uuid.UUID, customerID string) (*DraftView, error) {
	ref := ""
	if customerID != "" {
		id, err := utils.ParseUUID(customerID)
		if err != nil {
			return nil, apperror.NewValidationError([]apperror.FieldError{
				{Field: "customer_id", Message: "Invalid customer id"},
			})
		}
		customer, err := s.customers.GetCustomer(ctx, id)
		if err != nil {
			return nil, err
		}
		ref = customer.ID.String()
	}

	return s.mutate(ctx, sessionID, func(d *composer.Draft) error {
		d.SetCustomer(ref)
		return nil
	})
}

func (s *ComposerService) SetPaymentMethod(ctx context.Context, sessionID uuid.UUID, value string) (*DraftView, error) {
	method, ok := enum.ParsePaymentMethod(value)
	if !ok {
		return nil, apperror.NewBadRequestError("Unsupported payment method; use cash, card or upi")
	}

	return s.mutate(ctx, sessionID, func(d *composer.Draft) error {
		d.SetPaymentMethod(method)
		return nil
	})
}

// SetTax applies raw tax percent input
func (s *ComposerService) SetTax(ctx context.Context, sessionID uuid.UUID, value string) (*DraftView, error) {
	return s.mutate(ctx, sessionID, func(d *composer.Draft) error {
		d.SetTaxPercent(value)
		return nil
	})
}

// SetDiscount applies raw discount input
func (s *ComposerService) SetDiscount(ctx context.Context, sessionID uuid.UUID, value string) (*DraftView, error) {
	return s.mutate(ctx, sessionID, func(d *composer.Draft) error {
		d.SetDiscount(value)
		return nil
	})
}

// Discard throws the draft away and starts over with an empty one
func (s *ComposerService) Discard(ctx context.Context, sessionID uuid.UUID) (*DraftView, error) {
	return s.mutate(ctx, sessionID, func(d *composer.Draft) error {
		*d = *composer.NewDraft()
		return nil
	})
}

// CloseSession drops the session's draft
func (s *ComposerService) CloseSession(ctx context.Context, sessionID uuid.UUID) error {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	if err := s.drafts.Delete(ctx, sessionID); err != nil {
		return apperror.NewInternalError(err)
	}
	return nil
}

// Submit finalizes the draft and stores it as a bill. On success the session
// continues with an empty draft; on failure the draft is kept untouched.
func (s *ComposerService) Submit(ctx context.Context, sessionID uuid.UUID) (*SubmitResult, error) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	draft, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	payload, err := draft.Finalize()
	if err != nil {
		return nil, finalizeError(err)
	}

	bill, err := s.bills.CreateBill(ctx, payload)
	if err != nil {
		log.Printf("Bill submission failed (session %s): %v", sessionID, err)
		return nil, err
	}

	fresh := composer.NewDraft()
	if err := s.drafts.Save(ctx, sessionID, fresh); err != nil {
		// the bill is stored; the client can still discard the stale draft
		log.Printf("Failed to reset draft after bill %s (session %s): %v", bill.BillNumber, sessionID, err)
		return &SubmitResult{Bill: bill, Draft: newDraftView(sessionID, draft)}, nil
	}

	return &SubmitResult{Bill: bill, Draft: newDraftView(sessionID, fresh)}, nil
}

func finalizeError(err error) error {
	var verr *composer.ValidationError
	if !errors.As(err, &verr) {
		return apperror.NewInternalError(err)
	}

	appErr := apperror.Wrap(err, http.StatusUnprocessableEntity, "Bill is not ready to submit")
	switch {
	case errors.Is(err, composer.ErrMissingCustomer):
		appErr.Errors = []apperror.FieldError{{Field: "customer", Message: "Please select a customer"}}
	case errors.Is(err, composer.ErrNoItems):
		appErr.Errors = []apperror.FieldError{{Field: "items", Message: "Please add at least one item"}}
	}
	return appErr
}

// sessionLocks hands out one mutex per session and forgets it once unused
type sessionLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[uuid.UUID]*sessionLock)}
}

func (l *sessionLocks) lock(id uuid.UUID) func() {
	l.mu.Lock()
	entry, ok := l.locks[id]
	if !ok {
		entry = &sessionLock{}
		l.locks[id] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

func (l *sessionLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
