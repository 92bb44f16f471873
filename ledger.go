package kapytal

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
)

// Ledger is the aggregate root: it owns the entity registry (currencies,
// exchange rates, securities, categories, tags, payees, account items) and
// the full transaction set, maintains the derived per-account indices and
// balance caches, and enforces every cross-entity invariant on each mutation.
//
// The ledger assumes serialized access from its caller: one mutation at a
// time, run to completion. Mutations are all-or-nothing; on any validation
// failure the ledger is left untouched. Reads are side-effect-free apart from
// cache fills.
type Ledger struct {
	currencies    map[string]*Currency // by code
	baseCurrency  *Currency
	exchangeRates []*ExchangeRate

	securities       map[uuid.UUID]*Security
	securitiesByName map[string]*Security

	categories     map[uuid.UUID]*Category
	rootCategories []uuid.UUID

	tags   map[uuid.UUID]*Tag
	payees map[uuid.UUID]*Payee

	accounts     map[uuid.UUID]AccountItem
	rootAccounts []uuid.UUID

	transactions map[uuid.UUID]Transaction
	sorted       []Transaction // total order; rebuilt lazily
	sortedDirty  bool

	// revision increments on every committed mutation; balance cache keys
	// embed it, and the cache is flushed on each bump so superseded entries
	// do not accumulate.
	revision uint64
	balances *cache.Cache

	now func() time.Time
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		currencies:       make(map[string]*Currency),
		securities:       make(map[uuid.UUID]*Security),
		securitiesByName: make(map[string]*Security),
		categories:       make(map[uuid.UUID]*Category),
		tags:             make(map[uuid.UUID]*Tag),
		payees:           make(map[uuid.UUID]*Payee),
		accounts:         make(map[uuid.UUID]AccountItem),
		transactions:     make(map[uuid.UUID]Transaction),
		balances:         cache.New(cache.NoExpiration, 0),
		now:              time.Now,
	}
}

// Revision returns a counter incremented on every committed mutation. Report
// caches keyed by (revision, parameters) stay valid exactly as long as the
// ledger does not change.
func (l *Ledger) Revision() uint64 { return l.revision }

func (l *Ledger) bumpRevision() {
	l.revision++
	l.sortedDirty = true
	l.balances.Flush()
}

// --- lookups ---

func (l *Ledger) tag(id uuid.UUID) (*Tag, error) {
	t, ok := l.tags[id]
	if !ok {
		return nil, &NotFoundError{Kind: "tag", Key: id.String()}
	}
	return t, nil
}

func (l *Ledger) payee(id uuid.UUID) (*Payee, error) {
	p, ok := l.payees[id]
	if !ok {
		return nil, &NotFoundError{Kind: "payee", Key: id.String()}
	}
	return p, nil
}

func (l *Ledger) category(id uuid.UUID) (*Category, error) {
	c, ok := l.categories[id]
	if !ok {
		return nil, &NotFoundError{Kind: "category", Key: id.String()}
	}
	return c, nil
}

func (l *Ledger) security(id uuid.UUID) (*Security, error) {
	s, ok := l.securities[id]
	if !ok {
		return nil, &NotFoundError{Kind: "security", Key: id.String()}
	}
	return s, nil
}

func (l *Ledger) accountItem(id uuid.UUID) (AccountItem, error) {
	item, ok := l.accounts[id]
	if !ok {
		return nil, &NotFoundError{Kind: "account item", Key: id.String()}
	}
	return item, nil
}

func (l *Ledger) cashAccount(id uuid.UUID) (*CashAccount, error) {
	item, err := l.accountItem(id)
	if err != nil {
		return nil, err
	}
	account, ok := item.(*CashAccount)
	if !ok {
		return nil, newValidationError("account item %q is not a cash account", l.AccountItemPath(id))
	}
	return account, nil
}

func (l *Ledger) securityAccount(id uuid.UUID) (*SecurityAccount, error) {
	item, err := l.accountItem(id)
	if err != nil {
		return nil, err
	}
	account, ok := item.(*SecurityAccount)
	if !ok {
		return nil, newValidationError("account item %q is not a security account", l.AccountItemPath(id))
	}
	return account, nil
}

// Transaction returns the transaction with the given UUID.
func (l *Ledger) Transaction(id uuid.UUID) (Transaction, error) {
	tx, ok := l.transactions[id]
	if !ok {
		return nil, &NotFoundError{Kind: "transaction", Key: id.String()}
	}
	return tx, nil
}

func (l *Ledger) cashTransaction(id uuid.UUID) (*CashTransaction, error) {
	tx, err := l.Transaction(id)
	if err != nil {
		return nil, err
	}
	ct, ok := tx.(*CashTransaction)
	if !ok {
		return nil, newValidationError("transaction %s is not a cash transaction", id)
	}
	return ct, nil
}

// Transactions returns all transactions in their total order: date-time,
// then creation timestamp, then UUID.
func (l *Ledger) Transactions() []Transaction {
	if l.sortedDirty || l.sorted == nil {
		l.sorted = make([]Transaction, 0, len(l.transactions))
		for _, tx := range l.transactions {
			l.sorted = append(l.sorted, tx)
		}
		sort.SliceStable(l.sorted, func(i, j int) bool {
			return compareTransactions(l.sorted[i], l.sorted[j]) < 0
		})
		l.sortedDirty = false
	}
	out := make([]Transaction, len(l.sorted))
	copy(out, l.sorted)
	return out
}

// AccountTransactions returns the transactions involving the given account
// item, in total order.
func (l *Ledger) AccountTransactions(account uuid.UUID) []Transaction {
	var out []Transaction
	for _, tx := range l.Transactions() {
		for _, id := range tx.involvedAccounts() {
			if id == account {
				out = append(out, tx)
				break
			}
		}
	}
	return out
}

// --- transaction mutations ---

// CashTransactionParams describes a cash transaction to be added or the new
// state of one being edited.
type CashTransactionParams struct {
	Date            time.Time
	Description     string
	Type            CashTransactionType
	Account         uuid.UUID
	Payee           uuid.UUID
	CategoryAmounts []CategoryAmount
	TagAmounts      []TagAmount
}

// AddCashTransaction validates and commits a new cash income or expense.
func (l *Ledger) AddCashTransaction(p CashTransactionParams) (*CashTransaction, error) {
	tx := &CashTransaction{
		txBase:     l.newTxBase(p.Date, p.Description, p.TagAmounts),
		typ:        p.Type,
		account:    p.Account,
		payee:      p.Payee,
		categories: copyCategoryAmounts(p.CategoryAmounts),
	}
	if err := tx.validate(l); err != nil {
		return nil, err
	}
	l.commit(tx)
	return tx, nil
}

// EditCashTransaction replaces the state of an existing cash transaction.
// An expense with attached refunds cannot be edited; delete the refunds first.
func (l *Ledger) EditCashTransaction(id uuid.UUID, p CashTransactionParams) error {
	old, err := l.cashTransaction(id)
	if err != nil {
		return err
	}
	if old.IsRefunded() {
		return newValidationError("transaction has %d refund(s) attached and cannot be edited", len(old.refunds))
	}
	tx := &CashTransaction{
		txBase:     l.editedTxBase(&old.txBase, p.Date, p.Description, p.TagAmounts),
		typ:        p.Type,
		account:    p.Account,
		payee:      p.Payee,
		categories: copyCategoryAmounts(p.CategoryAmounts),
	}
	if err := tx.validate(l); err != nil {
		return err
	}
	l.commit(tx)
	return nil
}

// CashTransferParams describes a cash transfer between two cash accounts.
type CashTransferParams struct {
	Date           time.Time
	Description    string
	Sender         uuid.UUID
	Recipient      uuid.UUID
	AmountSent     Money
	AmountReceived Money
	TagAmounts     []TagAmount
}

// AddCashTransfer validates and commits a new cash transfer.
func (l *Ledger) AddCashTransfer(p CashTransferParams) (*CashTransfer, error) {
	tx := &CashTransfer{
		txBase:    l.newTxBase(p.Date, p.Description, p.TagAmounts),
		sender:    p.Sender,
		recipient: p.Recipient,
		sent:      p.AmountSent,
		received:  p.AmountReceived,
	}
	if err := tx.validate(l); err != nil {
		return nil, err
	}
	l.commit(tx)
	return tx, nil
}

// EditCashTransfer replaces the state of an existing cash transfer.
func (l *Ledger) EditCashTransfer(id uuid.UUID, p CashTransferParams) error {
	old, err := l.transferTransaction(id)
	if err != nil {
		return err
	}
	tx := &CashTransfer{
		txBase:    l.editedTxBase(&old.txBase, p.Date, p.Description, p.TagAmounts),
		sender:    p.Sender,
		recipient: p.Recipient,
		sent:      p.AmountSent,
		received:  p.AmountReceived,
	}
	if err := tx.validate(l); err != nil {
		return err
	}
	l.commit(tx)
	return nil
}

func (l *Ledger) transferTransaction(id uuid.UUID) (*CashTransfer, error) {
	tx, err := l.Transaction(id)
	if err != nil {
		return nil, err
	}
	tr, ok := tx.(*CashTransfer)
	if !ok {
		return nil, newValidationError("transaction %s is not a cash transfer", id)
	}
	return tr, nil
}

// SecurityTransactionParams describes a buy, sell or dividend.
type SecurityTransactionParams struct {
	Date            time.Time
	Description     string
	Type            SecurityTransactionType
	Security        uuid.UUID
	Shares          decimal.Decimal
	AmountPerShare  Money
	CashAccount     uuid.UUID
	SecurityAccount uuid.UUID
	TagAmounts      []TagAmount
}

// AddSecurityTransaction validates and commits a new security transaction.
func (l *Ledger) AddSecurityTransaction(p SecurityTransactionParams) (*SecurityTransaction, error) {
	tx := &SecurityTransaction{
		txBase:          l.newTxBase(p.Date, p.Description, p.TagAmounts),
		typ:             p.Type,
		security:        p.Security,
		shares:          p.Shares,
		amountPerShare:  p.AmountPerShare,
		cashAccount:     p.CashAccount,
		securityAccount: p.SecurityAccount,
	}
	if err := tx.validate(l); err != nil {
		return nil, err
	}
	l.commit(tx)
	return tx, nil
}

// EditSecurityTransaction replaces the state of an existing security transaction.
func (l *Ledger) EditSecurityTransaction(id uuid.UUID, p SecurityTransactionParams) error {
	old, err := l.securityTransaction(id)
	if err != nil {
		return err
	}
	tx := &SecurityTransaction{
		txBase:          l.editedTxBase(&old.txBase, p.Date, p.Description, p.TagAmounts),
		typ:             p.Type,
		security:        p.Security,
		shares:          p.Shares,
		amountPerShare:  p.AmountPerShare,
		cashAccount:     p.CashAccount,
		securityAccount: p.SecurityAccount,
	}
	if err := tx.validate(l); err != nil {
		return err
	}
	l.commit(tx)
	return nil
}

func (l *Ledger) securityTransaction(id uuid.UUID) (*SecurityTransaction, error) {
	tx, err := l.Transaction(id)
	if err != nil {
		return nil, err
	}
	st, ok := tx.(*SecurityTransaction)
	if !ok {
		return nil, newValidationError("transaction %s is not a security transaction", id)
	}
	return st, nil
}

// SecurityTransferParams describes a share transfer between security accounts.
type SecurityTransferParams struct {
	Date        time.Time
	Description string
	Security    uuid.UUID
	Shares      decimal.Decimal
	Sender      uuid.UUID
	Recipient   uuid.UUID
	TagAmounts  []TagAmount
}

// AddSecurityTransfer validates and commits a new security transfer.
func (l *Ledger) AddSecurityTransfer(p SecurityTransferParams) (*SecurityTransfer, error) {
	tx := &SecurityTransfer{
		txBase:    l.newTxBase(p.Date, p.Description, p.TagAmounts),
		security:  p.Security,
		shares:    p.Shares,
		sender:    p.Sender,
		recipient: p.Recipient,
	}
	if err := tx.validate(l); err != nil {
		return nil, err
	}
	l.commit(tx)
	return tx, nil
}

// EditSecurityTransfer replaces the state of an existing security transfer.
func (l *Ledger) EditSecurityTransfer(id uuid.UUID, p SecurityTransferParams) error {
	tx0, err := l.Transaction(id)
	if err != nil {
		return err
	}
	old, ok := tx0.(*SecurityTransfer)
	if !ok {
		return newValidationError("transaction %s is not a security transfer", id)
	}
	tx := &SecurityTransfer{
		txBase:    l.editedTxBase(&old.txBase, p.Date, p.Description, p.TagAmounts),
		security:  p.Security,
		shares:    p.Shares,
		sender:    p.Sender,
		recipient: p.Recipient,
	}
	if err := tx.validate(l); err != nil {
		return err
	}
	l.commit(tx)
	return nil
}

// RefundParams describes a refund against an expense cash transaction.
type RefundParams struct {
	Date            time.Time
	Description     string
	Account         uuid.UUID
	Target          uuid.UUID
	Payee           uuid.UUID
	CategoryAmounts []CategoryAmount
	TagAmounts      []TagAmount
}

// AddRefund validates and commits a new refund. The cumulative amount of all
// refunds against the target may never exceed the target's amount.
func (l *Ledger) AddRefund(p RefundParams) (*RefundTransaction, error) {
	tx := &RefundTransaction{
		txBase:     l.newTxBase(p.Date, p.Description, p.TagAmounts),
		account:    p.Account,
		target:     p.Target,
		payee:      p.Payee,
		categories: copyCategoryAmounts(p.CategoryAmounts),
	}
	if err := tx.validate(l); err != nil {
		return nil, err
	}
	if err := l.validateRefundCeiling(tx); err != nil {
		return nil, err
	}
	target, err := l.cashTransaction(tx.target)
	if err != nil {
		return nil, err
	}
	l.commit(tx)
	target.refunds = append(target.refunds, tx.id)
	return tx, nil
}

// EditRefund replaces the state of an existing refund, re-validating the
// ceiling of both the old and the new target.
func (l *Ledger) EditRefund(id uuid.UUID, p RefundParams) error {
	old, err := l.refundTransaction(id)
	if err != nil {
		return err
	}
	tx := &RefundTransaction{
		txBase:     l.editedTxBase(&old.txBase, p.Date, p.Description, p.TagAmounts),
		account:    p.Account,
		target:     p.Target,
		payee:      p.Payee,
		categories: copyCategoryAmounts(p.CategoryAmounts),
	}
	if err := tx.validate(l); err != nil {
		return err
	}
	if err := l.validateRefundCeiling(tx); err != nil {
		return err
	}
	newTarget, err := l.cashTransaction(tx.target)
	if err != nil {
		return err
	}
	oldTarget, err := l.cashTransaction(old.target)
	if err != nil {
		return err
	}
	l.commit(tx)
	if oldTarget != newTarget {
		oldTarget.refunds = removeUUID(oldTarget.refunds, id)
		newTarget.refunds = append(newTarget.refunds, id)
	}
	return nil
}

func (l *Ledger) refundTransaction(id uuid.UUID) (*RefundTransaction, error) {
	tx, err := l.Transaction(id)
	if err != nil {
		return nil, err
	}
	rt, ok := tx.(*RefundTransaction)
	if !ok {
		return nil, newValidationError("transaction %s is not a refund", id)
	}
	return rt, nil
}

// validateRefundCeiling checks that the refund's amount plus all sibling
// refunds of the same target (excluding the refund itself, for edits) does
// not exceed the target expense's amount.
func (l *Ledger) validateRefundCeiling(refund *RefundTransaction) error {
	target, err := l.cashTransaction(refund.target)
	if err != nil {
		return err
	}
	total := refund.Amount()
	for _, siblingID := range target.refunds {
		if siblingID == refund.id {
			continue
		}
		sibling, err := l.refundTransaction(siblingID)
		if err != nil {
			return err
		}
		total = total.Add(sibling.Amount())
	}
	if total.GreaterThan(target.Amount()) {
		return newValidationError("refunds totalling %s exceed the refunded expense amount %s",
			total, target.Amount())
	}
	return nil
}

// DeleteTransaction removes a transaction. An expense with attached refunds
// cannot be deleted until its refunds are deleted.
func (l *Ledger) DeleteTransaction(id uuid.UUID) error {
	tx, err := l.Transaction(id)
	if err != nil {
		return err
	}
	if ct, ok := tx.(*CashTransaction); ok && ct.IsRefunded() {
		return &ReferentialIntegrityError{Entity: "transaction", Name: id.String()}
	}
	if rt, ok := tx.(*RefundTransaction); ok {
		if target, err := l.cashTransaction(rt.target); err == nil {
			target.refunds = removeUUID(target.refunds, id)
		}
	}
	delete(l.transactions, id)
	l.bumpRevision()
	logger.Debug().Stringer("id", id).Stringer("kind", tx.Kind()).Msg("transaction deleted")
	return nil
}

// --- commit helpers ---

func (l *Ledger) newTxBase(when time.Time, description string, tags []TagAmount) txBase {
	now := l.now()
	return txBase{
		id:          uuid.New(),
		when:        when,
		description: strings.TrimSpace(description),
		created:     now,
		edited:      now,
		tags:        copyTagAmounts(tags),
	}
}

func (l *Ledger) editedTxBase(old *txBase, when time.Time, description string, tags []TagAmount) txBase {
	return txBase{
		id:          old.id,
		when:        when,
		description: strings.TrimSpace(description),
		created:     old.created,
		edited:      l.now(),
		tags:        copyTagAmounts(tags),
	}
}

// commit inserts or replaces a fully validated transaction. Validation must
// be complete before commit; nothing after this point may fail.
func (l *Ledger) commit(tx Transaction) {
	_, existed := l.transactions[tx.ID()]
	l.transactions[tx.ID()] = tx
	l.bumpRevision()
	event := logger.Debug().Stringer("id", tx.ID()).Stringer("kind", tx.Kind())
	if existed {
		event.Msg("transaction edited")
	} else {
		event.Msg("transaction added")
	}
}

func copyCategoryAmounts(in []CategoryAmount) []CategoryAmount {
	out := make([]CategoryAmount, len(in))
	copy(out, in)
	return out
}

func copyTagAmounts(in []TagAmount) []TagAmount {
	if len(in) == 0 {
		return nil
	}
	out := make([]TagAmount, len(in))
	copy(out, in)
	return out
}

func removeUUID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := ids[:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}
