package kapytal

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxDescriptionLength = 256

// TransactionKind identifies the concrete variant of a Transaction. The set
// is closed: every variant is defined in this file.
type TransactionKind int

const (
	KindIncome TransactionKind = iota
	KindExpense
	KindCashTransfer
	KindRefund
	KindBuy
	KindSell
	KindDividend
	KindSecurityTransfer
)

func (k TransactionKind) String() string {
	switch k {
	case KindIncome:
		return "income"
	case KindExpense:
		return "expense"
	case KindCashTransfer:
		return "transfer"
	case KindRefund:
		return "refund"
	case KindBuy:
		return "buy"
	case KindSell:
		return "sell"
	case KindDividend:
		return "dividend"
	case KindSecurityTransfer:
		return "security-transfer"
	default:
		return "unknown"
	}
}

// Transaction is the closed interface over all transaction variants. Every
// transaction carries a UUIDv4 identity, a date-time (seconds reserved for
// tie-breaking), an optional description and audit timestamps.
//
// Transactions are created, edited and deleted only through the Ledger, which
// re-validates every invariant on each mutation.
type Transaction interface {
	ID() uuid.UUID
	When() time.Time
	Description() string
	CreatedAt() time.Time
	EditedAt() time.Time
	Kind() TransactionKind
	TagAmounts() []TagAmount

	// involvedAccounts lists every account item the transaction references.
	involvedAccounts() []uuid.UUID
	// balanceEffects lists the cash deltas the transaction applies per account.
	balanceEffects() []BalanceEffect
	// validate re-checks all per-variant invariants against the ledger.
	validate(l *Ledger) error

	base() *txBase
}

// BalanceEffect is one (account, cash delta) contribution of a transaction.
type BalanceEffect struct {
	Account uuid.UUID
	Delta   Money
}

// ShareEffect is one (security account, security, share delta) contribution.
type ShareEffect struct {
	Account  uuid.UUID
	Security uuid.UUID
	Shares   decimal.Decimal // signed
}

// TagAmount attaches a tag to a transaction, optionally with a split amount
// smaller than the full transaction amount. A weak-zero Amount means the tag
// covers the full amount.
type TagAmount struct {
	Tag    uuid.UUID
	Amount Money
}

// CategoryAmount is one (category, amount) split of a cash transaction.
type CategoryAmount struct {
	Category uuid.UUID
	Amount   Money
}

type txBase struct {
	id          uuid.UUID
	when        time.Time
	description string
	created     time.Time
	edited      time.Time
	tags        []TagAmount
}

func (t *txBase) ID() uuid.UUID        { return t.id }
func (t *txBase) When() time.Time      { return t.when }
func (t *txBase) Description() string  { return t.description }
func (t *txBase) CreatedAt() time.Time { return t.created }
func (t *txBase) EditedAt() time.Time  { return t.edited }
func (t *txBase) base() *txBase        { return t }

func (t *txBase) TagAmounts() []TagAmount {
	out := make([]TagAmount, len(t.tags))
	copy(out, t.tags)
	return out
}

func (t *txBase) hasTag(id uuid.UUID) bool {
	for _, ta := range t.tags {
		if ta.Tag == id {
			return true
		}
	}
	return false
}

func (t *txBase) validateBase(l *Ledger, fullAmount Money) error {
	if t.when.IsZero() {
		return newValidationError("transaction date must be set")
	}
	if utf8.RuneCountInString(t.description) > maxDescriptionLength {
		return newValidationError("description is longer than %d characters", maxDescriptionLength)
	}
	seen := make(map[uuid.UUID]bool, len(t.tags))
	for _, ta := range t.tags {
		if _, err := l.tag(ta.Tag); err != nil {
			return err
		}
		if seen[ta.Tag] {
			return newValidationError("duplicate tag on transaction")
		}
		seen[ta.Tag] = true
		if ta.Amount.Currency() == nil {
			continue // defaults to the full amount
		}
		if fullAmount.Currency() == nil {
			return newValidationError("tag amounts are not allowed on this transaction kind")
		}
		if !ta.Amount.IsPositive() || ta.Amount.GreaterThan(fullAmount) {
			return newValidationError("tag amount %s must be within (0, %s]", ta.Amount, fullAmount)
		}
	}
	return nil
}

// effectiveTagAmount resolves a tag split against the full amount.
func effectiveTagAmount(ta TagAmount, fullAmount Money) Money {
	if ta.Amount.Currency() == nil {
		return fullAmount
	}
	return ta.Amount
}

// compareTransactions defines the total order of transactions: date-time,
// then creation timestamp, then UUID. Editing minutes or seconds is how the
// user-facing model reorders same-day transactions.
func compareTransactions(a, b Transaction) int {
	if c := a.When().Compare(b.When()); c != 0 {
		return c
	}
	if c := a.CreatedAt().Compare(b.CreatedAt()); c != 0 {
		return c
	}
	return strings.Compare(a.ID().String(), b.ID().String())
}

// --- CashTransaction ---

// CashTransactionType is the direction of a cash transaction.
type CashTransactionType int

const (
	CashIncome CashTransactionType = iota
	CashExpense
)

func (t CashTransactionType) String() string {
	if t == CashIncome {
		return "income"
	}
	return "expense"
}

// CashTransaction is an income or expense on a cash account, attributed to a
// payee and split across one or more categories. The transaction amount is
// the sum of its category splits, so the split-sum invariant holds by
// construction; each split is validated instead.
type CashTransaction struct {
	txBase
	typ        CashTransactionType
	account    uuid.UUID
	payee      uuid.UUID
	categories []CategoryAmount
	refunds    []uuid.UUID // refunds targeting this transaction (expense only)
}

func (t *CashTransaction) Kind() TransactionKind {
	if t.typ == CashIncome {
		return KindIncome
	}
	return KindExpense
}

// Type returns the direction of the transaction.
func (t *CashTransaction) Type() CashTransactionType { return t.typ }

// AccountID returns the cash account the transaction belongs to.
func (t *CashTransaction) AccountID() uuid.UUID { return t.account }

// PayeeID returns the transaction's payee.
func (t *CashTransaction) PayeeID() uuid.UUID { return t.payee }

// CategoryAmounts returns the ordered category splits.
func (t *CashTransaction) CategoryAmounts() []CategoryAmount {
	out := make([]CategoryAmount, len(t.categories))
	copy(out, t.categories)
	return out
}

// Amount returns the total amount: the exact sum of the category splits.
func (t *CashTransaction) Amount() Money {
	var total Money
	for _, ca := range t.categories {
		total = total.Add(ca.Amount)
	}
	return total
}

// RefundIDs returns the refunds currently attached to this expense.
func (t *CashTransaction) RefundIDs() []uuid.UUID {
	out := make([]uuid.UUID, len(t.refunds))
	copy(out, t.refunds)
	return out
}

// IsRefunded reports whether at least one refund targets this transaction.
func (t *CashTransaction) IsRefunded() bool { return len(t.refunds) > 0 }

func (t *CashTransaction) involvedAccounts() []uuid.UUID { return []uuid.UUID{t.account} }

func (t *CashTransaction) balanceEffects() []BalanceEffect {
	delta := t.Amount()
	if t.typ == CashExpense {
		delta = delta.Neg()
	}
	return []BalanceEffect{{Account: t.account, Delta: delta}}
}

func (t *CashTransaction) validate(l *Ledger) error {
	account, err := l.cashAccount(t.account)
	if err != nil {
		return err
	}
	if _, err := l.payee(t.payee); err != nil {
		return err
	}
	if len(t.categories) == 0 {
		return newValidationError("cash transaction must have at least one category split")
	}
	seen := make(map[uuid.UUID]bool, len(t.categories))
	for _, ca := range t.categories {
		category, err := l.category(ca.Category)
		if err != nil {
			return err
		}
		if seen[ca.Category] {
			return newValidationError("duplicate category split for %q", category.name)
		}
		seen[ca.Category] = true
		if !category.kind.accepts(t.typ) {
			return newValidationError("category %q of kind %s cannot be used on an %s transaction",
				l.CategoryPath(category.id), category.kind, t.typ)
		}
		if !ca.Amount.IsPositive() {
			return newValidationError("category split amount must be positive, got %s", ca.Amount)
		}
		if ca.Amount.Currency() != account.cur {
			return newValidationError("category split currency %s does not match account currency %s",
				ca.Amount.Currency(), account.cur)
		}
		if !ca.Amount.IsRounded() {
			return newValidationError("category split amount %s exceeds the %d places of %s",
				ca.Amount, account.cur.Places(), account.cur)
		}
	}
	return t.validateBase(l, t.Amount())
}

// --- CashTransfer ---

// CashTransfer moves cash between two cash accounts. The sent and received
// amounts are independent, each in its own account's currency; their ratio
// implies an effective exchange rate independent of the rate graph.
type CashTransfer struct {
	txBase
	sender    uuid.UUID
	recipient uuid.UUID
	sent      Money
	received  Money
}

func (t *CashTransfer) Kind() TransactionKind { return KindCashTransfer }

// SenderID returns the sending cash account.
func (t *CashTransfer) SenderID() uuid.UUID { return t.sender }

// RecipientID returns the receiving cash account.
func (t *CashTransfer) RecipientID() uuid.UUID { return t.recipient }

// AmountSent returns the amount leaving the sender, in its currency.
func (t *CashTransfer) AmountSent() Money { return t.sent }

// AmountReceived returns the amount entering the recipient, in its currency.
func (t *CashTransfer) AmountReceived() Money { return t.received }

func (t *CashTransfer) involvedAccounts() []uuid.UUID { return []uuid.UUID{t.sender, t.recipient} }

func (t *CashTransfer) balanceEffects() []BalanceEffect {
	return []BalanceEffect{
		{Account: t.sender, Delta: t.sent.Neg()},
		{Account: t.recipient, Delta: t.received},
	}
}

func (t *CashTransfer) validate(l *Ledger) error {
	if t.sender == t.recipient {
		return newValidationError("cash transfer sender and recipient must differ")
	}
	sender, err := l.cashAccount(t.sender)
	if err != nil {
		return err
	}
	recipient, err := l.cashAccount(t.recipient)
	if err != nil {
		return err
	}
	if !t.sent.IsPositive() || !t.received.IsPositive() {
		return newValidationError("transfer amounts must be positive, got %s and %s", t.sent, t.received)
	}
	if t.sent.Currency() != sender.cur {
		return newValidationError("sent amount currency %s does not match sender currency %s",
			t.sent.Currency(), sender.cur)
	}
	if t.received.Currency() != recipient.cur {
		return newValidationError("received amount currency %s does not match recipient currency %s",
			t.received.Currency(), recipient.cur)
	}
	if !t.sent.IsRounded() || !t.received.IsRounded() {
		return newValidationError("transfer amounts must be rounded to their currencies' places")
	}
	return t.validateBase(l, Money{})
}

// --- SecurityTransaction ---

// SecurityTransactionType is the kind of a security transaction.
type SecurityTransactionType int

const (
	SecurityBuy SecurityTransactionType = iota
	SecuritySell
	SecurityDividend
)

func (t SecurityTransactionType) String() string {
	switch t {
	case SecurityBuy:
		return "buy"
	case SecuritySell:
		return "sell"
	default:
		return "dividend"
	}
}

// SecurityTransaction is a buy, sell or dividend: cash moves on a cash
// account, shares move on a security account (dividends move no shares). The
// per-share amount is in the security's currency and may carry more decimal
// places than the currency allows; only the total is rounded.
type SecurityTransaction struct {
	txBase
	typ             SecurityTransactionType
	security        uuid.UUID
	shares          decimal.Decimal // positive; the sign of effects comes from typ
	amountPerShare  Money
	cashAccount     uuid.UUID
	securityAccount uuid.UUID
}

func (t *SecurityTransaction) Kind() TransactionKind {
	switch t.typ {
	case SecurityBuy:
		return KindBuy
	case SecuritySell:
		return KindSell
	default:
		return KindDividend
	}
}

// Type returns the kind of the security transaction.
func (t *SecurityTransaction) Type() SecurityTransactionType { return t.typ }

// SecurityID returns the traded security.
func (t *SecurityTransaction) SecurityID() uuid.UUID { return t.security }

// Shares returns the (positive) number of shares involved.
func (t *SecurityTransaction) Shares() decimal.Decimal { return t.shares }

// AmountPerShare returns the price or dividend per share.
func (t *SecurityTransaction) AmountPerShare() Money { return t.amountPerShare }

// CashAccountID returns the cash account paying or receiving the total.
func (t *SecurityTransaction) CashAccountID() uuid.UUID { return t.cashAccount }

// SecurityAccountID returns the security account holding the shares.
func (t *SecurityTransaction) SecurityAccountID() uuid.UUID { return t.securityAccount }

// Amount returns shares x amount-per-share, rounded to the currency's places.
func (t *SecurityTransaction) Amount() Money {
	return t.amountPerShare.Mul(t.shares).Round()
}

func (t *SecurityTransaction) involvedAccounts() []uuid.UUID {
	return []uuid.UUID{t.cashAccount, t.securityAccount}
}

func (t *SecurityTransaction) balanceEffects() []BalanceEffect {
	delta := t.Amount()
	if t.typ == SecurityBuy {
		delta = delta.Neg()
	}
	return []BalanceEffect{{Account: t.cashAccount, Delta: delta}}
}

func (t *SecurityTransaction) shareEffects() []ShareEffect {
	switch t.typ {
	case SecurityBuy:
		return []ShareEffect{{Account: t.securityAccount, Security: t.security, Shares: t.shares}}
	case SecuritySell:
		return []ShareEffect{{Account: t.securityAccount, Security: t.security, Shares: t.shares.Neg()}}
	default:
		return nil // dividends move no shares
	}
}

func (t *SecurityTransaction) validate(l *Ledger) error {
	security, err := l.security(t.security)
	if err != nil {
		return err
	}
	cashAccount, err := l.cashAccount(t.cashAccount)
	if err != nil {
		return err
	}
	if _, err := l.securityAccount(t.securityAccount); err != nil {
		return err
	}
	if !t.shares.IsPositive() {
		return newValidationError("security transaction shares must be positive, got %s", t.shares)
	}
	if !security.validShares(t.shares) {
		return newValidationError("shares %s exceed the %d decimals of %s",
			t.shares, security.ShareDecimals(), security.name)
	}
	if t.amountPerShare.IsNegative() {
		return newValidationError("amount per share must not be negative, got %s", t.amountPerShare)
	}
	if t.amountPerShare.Currency() != security.cur {
		return newValidationError("amount per share currency %s does not match security currency %s",
			t.amountPerShare.Currency(), security.cur)
	}
	if cashAccount.cur != security.cur {
		return newValidationError("cash account currency %s does not match security currency %s",
			cashAccount.cur, security.cur)
	}
	return t.validateBase(l, Money{})
}

// --- SecurityTransfer ---

// SecurityTransfer moves shares between two security accounts.
type SecurityTransfer struct {
	txBase
	security  uuid.UUID
	shares    decimal.Decimal // positive
	sender    uuid.UUID
	recipient uuid.UUID
}

func (t *SecurityTransfer) Kind() TransactionKind { return KindSecurityTransfer }

// SecurityID returns the transferred security.
func (t *SecurityTransfer) SecurityID() uuid.UUID { return t.security }

// Shares returns the (positive) number of shares transferred.
func (t *SecurityTransfer) Shares() decimal.Decimal { return t.shares }

// SenderID returns the sending security account.
func (t *SecurityTransfer) SenderID() uuid.UUID { return t.sender }

// RecipientID returns the receiving security account.
func (t *SecurityTransfer) RecipientID() uuid.UUID { return t.recipient }

func (t *SecurityTransfer) involvedAccounts() []uuid.UUID {
	return []uuid.UUID{t.sender, t.recipient}
}

func (t *SecurityTransfer) balanceEffects() []BalanceEffect { return nil }

func (t *SecurityTransfer) shareEffects() []ShareEffect {
	return []ShareEffect{
		{Account: t.sender, Security: t.security, Shares: t.shares.Neg()},
		{Account: t.recipient, Security: t.security, Shares: t.shares},
	}
}

func (t *SecurityTransfer) validate(l *Ledger) error {
	if t.sender == t.recipient {
		return newValidationError("security transfer sender and recipient must differ")
	}
	security, err := l.security(t.security)
	if err != nil {
		return err
	}
	if _, err := l.securityAccount(t.sender); err != nil {
		return err
	}
	if _, err := l.securityAccount(t.recipient); err != nil {
		return err
	}
	if !t.shares.IsPositive() {
		return newValidationError("security transfer shares must be positive, got %s", t.shares)
	}
	if !security.validShares(t.shares) {
		return newValidationError("shares %s exceed the %d decimals of %s",
			t.shares, security.ShareDecimals(), security.name)
	}
	return t.validateBase(l, Money{})
}

// --- RefundTransaction ---

// RefundTransaction attaches to an expense CashTransaction and reduces its
// effective amount. Refund splits may only use categories present on the
// refunded expense, and the sum of all refunds against one expense can never
// exceed the expense amount; the ceiling is enforced by the ledger across
// sibling refunds on every mutation.
type RefundTransaction struct {
	txBase
	account    uuid.UUID // cash account receiving the refund
	target     uuid.UUID // the refunded expense
	payee      uuid.UUID
	categories []CategoryAmount
}

func (t *RefundTransaction) Kind() TransactionKind { return KindRefund }

// AccountID returns the cash account receiving the refund.
func (t *RefundTransaction) AccountID() uuid.UUID { return t.account }

// TargetID returns the refunded expense transaction.
func (t *RefundTransaction) TargetID() uuid.UUID { return t.target }

// PayeeID returns the refund's payee.
func (t *RefundTransaction) PayeeID() uuid.UUID { return t.payee }

// CategoryAmounts returns the ordered category splits.
func (t *RefundTransaction) CategoryAmounts() []CategoryAmount {
	out := make([]CategoryAmount, len(t.categories))
	copy(out, t.categories)
	return out
}

// Amount returns the refunded total: the exact sum of the category splits.
func (t *RefundTransaction) Amount() Money {
	var total Money
	for _, ca := range t.categories {
		total = total.Add(ca.Amount)
	}
	return total
}

func (t *RefundTransaction) involvedAccounts() []uuid.UUID { return []uuid.UUID{t.account} }

func (t *RefundTransaction) balanceEffects() []BalanceEffect {
	return []BalanceEffect{{Account: t.account, Delta: t.Amount()}}
}

func (t *RefundTransaction) validate(l *Ledger) error {
	account, err := l.cashAccount(t.account)
	if err != nil {
		return err
	}
	if _, err := l.payee(t.payee); err != nil {
		return err
	}
	target, err := l.cashTransaction(t.target)
	if err != nil {
		return err
	}
	if target.typ != CashExpense {
		return newValidationError("only expense transactions can be refunded")
	}
	targetAccount, err := l.cashAccount(target.account)
	if err != nil {
		return err
	}
	if account.cur != targetAccount.cur {
		return newValidationError("refund account currency %s does not match refunded expense currency %s",
			account.cur, targetAccount.cur)
	}
	if t.when.Before(target.when) {
		return newValidationError("refund on %s predates the refunded expense on %s",
			DateOf(t.when), DateOf(target.when))
	}
	if len(t.categories) == 0 {
		return newValidationError("refund must have at least one category split")
	}
	allowed := make(map[uuid.UUID]bool, len(target.categories))
	for _, ca := range target.categories {
		allowed[ca.Category] = true
	}
	seen := make(map[uuid.UUID]bool, len(t.categories))
	for _, ca := range t.categories {
		if _, err := l.category(ca.Category); err != nil {
			return err
		}
		if !allowed[ca.Category] {
			return newValidationError("refund category %q is not present on the refunded expense",
				l.CategoryPath(ca.Category))
		}
		if seen[ca.Category] {
			return newValidationError("duplicate category split on refund")
		}
		seen[ca.Category] = true
		if !ca.Amount.IsPositive() {
			return newValidationError("refund split amount must be positive, got %s", ca.Amount)
		}
		if ca.Amount.Currency() != account.cur {
			return newValidationError("refund split currency %s does not match account currency %s",
				ca.Amount.Currency(), account.cur)
		}
		if !ca.Amount.IsRounded() {
			return newValidationError("refund split amount %s exceeds the %d places of %s",
				ca.Amount, account.cur.Places(), account.cur)
		}
	}
	// The refund ceiling across sibling refunds is checked by the ledger in
	// validateRefundCeiling, so that edits of siblings are caught too.
	return t.validateBase(l, t.Amount())
}

var (
	_ Transaction = (*CashTransaction)(nil)
	_ Transaction = (*CashTransfer)(nil)
	_ Transaction = (*SecurityTransaction)(nil)
	_ Transaction = (*SecurityTransfer)(nil)
	_ Transaction = (*RefundTransaction)(nil)
)
