package checkout

import (
	"context"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/localstore"
)

const msgAddressSaved = "Address saved"

// UpdateDraft edits one draft field and writes the draft straight back into
// the address book entry it was selected from.
func (o *Orchestrator) UpdateDraft(ctx context.Context, field, value string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.editable(); err != nil {
		return err
	}
	if !o.draft.Set(field, value) {
		return ErrUnknownField
	}
	if o.selected < 0 || o.selected >= len(o.book) {
		return nil
	}
	o.book[o.selected] = o.draft
	return o.saveBook(ctx)
}

// SaveAddress prepends the current draft to the address book and selects it.
func (o *Orchestrator) SaveAddress(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.editable(); err != nil {
		return err
	}
	book := append([]domain.ShippingAddress{o.draft}, o.book...)
	prev, prevSel := o.book, o.selected
	o.book, o.selected = book, 0
	if err := o.saveBook(ctx); err != nil {
		o.book, o.selected = prev, prevSel
		return err
	}
	o.notifier.Success(msgAddressSaved)
	return nil
}

// SelectAddress makes book entry i the draft.
func (o *Orchestrator) SelectAddress(i int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.editable(); err != nil {
		return err
	}
	if i < 0 || i >= len(o.book) {
		return ErrAddressIndex
	}
	o.selected = i
	o.draft = o.book[i]
	return nil
}

func (o *Orchestrator) saveBook(ctx context.Context) error {
	return localstore.SaveJSON(ctx, o.store, localstore.KeyAddressBook, o.book)
}

func (o *Orchestrator) loadBook(ctx context.Context) []domain.ShippingAddress {
	var book []domain.ShippingAddress
	if !localstore.LoadJSON(ctx, o.store, localstore.KeyAddressBook, &book, o.logger) {
		return []domain.ShippingAddress{}
	}
	return book
}
