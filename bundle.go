package kapytal

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bundle is the plain-record form of a complete ledger, the shape the
// persistence and import collaborators exchange with the core. Records
// reference each other by code, name or path; transactions carry their
// UUIDs, category UUIDs are process-local and never serialized.
type Bundle struct {
	BaseCurrency  string              `json:"base_currency"`
	Currencies    []CurrencyRecord    `json:"currencies"`
	ExchangeRates []RateSeriesRecord  `json:"exchange_rates"`
	Securities    []SecurityRecord    `json:"securities"`
	Categories    []CategoryRecord    `json:"categories"`
	Tags          []string            `json:"tags"`
	Payees        []string            `json:"payees"`
	AccountItems  []AccountItemRecord `json:"account_items"`
	Transactions  []TransactionRecord `json:"transactions"`
}

// CurrencyRecord declares one currency.
type CurrencyRecord struct {
	Code   string `json:"code"`
	Places int    `json:"places"`
}

// ObservationRecord is one dated decimal value of a rate or price series.
type ObservationRecord struct {
	Date  Date   `json:"date"`
	Value string `json:"value"`
}

// RateSeriesRecord is one exchange-rate pair with its observations.
type RateSeriesRecord struct {
	Primary      string              `json:"primary"`
	Secondary    string              `json:"secondary"`
	Observations []ObservationRecord `json:"observations"`
}

// SecurityRecord declares one security with its price history.
type SecurityRecord struct {
	Name          string              `json:"name"`
	Symbol        string              `json:"symbol,omitempty"`
	Currency      string              `json:"currency"`
	ShareDecimals int                 `json:"share_decimals"`
	Prices        []ObservationRecord `json:"prices"`
}

// CategoryRecord declares one category by path. Parents must precede
// children in the bundle.
type CategoryRecord struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
}

// AccountItemRecord declares one account-tree node by path. Parents must
// precede children.
type AccountItemRecord struct {
	Path     string `json:"path"`
	Type     string `json:"type"`
	Currency string `json:"currency,omitempty"` // cash accounts only
}

// SplitRecord is one (attribute, amount) split of a transaction amount.
// An empty amount on a tag split means the full transaction amount.
type SplitRecord struct {
	Name   string `json:"name"` // category path or tag name
	Amount string `json:"amount,omitempty"`
}

// TransactionRecord is the flattened form of any transaction variant; which
// fields are meaningful depends on Kind.
type TransactionRecord struct {
	ID          string        `json:"id"`
	Kind        string        `json:"kind"`
	Date        time.Time     `json:"date"`
	Description string        `json:"description,omitempty"`
	Created     time.Time     `json:"created"`
	Edited      time.Time     `json:"edited"`
	Tags        []SplitRecord `json:"tags,omitempty"`

	// Cash incomes, expenses and refunds.
	Account    string        `json:"account,omitempty"`
	Payee      string        `json:"payee,omitempty"`
	Categories []SplitRecord `json:"categories,omitempty"`
	Target     string        `json:"target,omitempty"` // refunded transaction UUID

	// Transfers of cash or shares.
	Sender    string `json:"sender,omitempty"`
	Recipient string `json:"recipient,omitempty"`
	Sent      string `json:"sent,omitempty"`
	Received  string `json:"received,omitempty"`

	// Security transactions and transfers.
	Security        string `json:"security,omitempty"`
	Shares          string `json:"shares,omitempty"`
	AmountPerShare  string `json:"amount_per_share,omitempty"`
	CashAccount     string `json:"cash_account,omitempty"`
	SecurityAccount string `json:"security_account,omitempty"`
}

// LoadBundle builds a fully validated ledger from a bundle, or fails with a
// structured error naming the first violated invariant. Transactions are
// committed in bundle order, so refunds must follow their targets.
func LoadBundle(b Bundle) (*Ledger, error) {
	l := NewLedger()

	for _, r := range b.Currencies {
		if _, err := l.AddCurrency(r.Code, r.Places); err != nil {
			return nil, err
		}
	}
	if b.BaseCurrency != "" {
		if err := l.SetBaseCurrency(b.BaseCurrency); err != nil {
			return nil, err
		}
	}
	for _, r := range b.ExchangeRates {
		e, err := l.AddExchangeRate(r.Primary, r.Secondary)
		if err != nil {
			return nil, err
		}
		for _, o := range r.Observations {
			rate, err := decimal.NewFromString(o.Value)
			if err != nil {
				return nil, newValidationError("exchange rate %s on %s: %v", e.Code(), o.Date, err)
			}
			if err := e.SetRate(o.Date, rate); err != nil {
				return nil, err
			}
		}
	}
	for _, r := range b.Securities {
		s, err := l.AddSecurity(r.Name, r.Symbol, r.Currency, r.ShareDecimals)
		if err != nil {
			return nil, err
		}
		for _, o := range r.Prices {
			price, err := decimal.NewFromString(o.Value)
			if err != nil {
				return nil, newValidationError("price of %q on %s: %v", r.Name, o.Date, err)
			}
			if err := s.SetPrice(o.Date, price); err != nil {
				return nil, err
			}
		}
	}
	for _, r := range b.Categories {
		kind, err := ParseCategoryKind(r.Kind)
		if err != nil {
			return nil, err
		}
		if _, err := l.AddCategory(r.Path, kind); err != nil {
			return nil, err
		}
	}
	for _, name := range b.Tags {
		if _, err := l.AddTag(name); err != nil {
			return nil, err
		}
	}
	for _, name := range b.Payees {
		if _, err := l.AddPayee(name); err != nil {
			return nil, err
		}
	}
	for _, r := range b.AccountItems {
		var err error
		switch r.Type {
		case AccountGroupItem.String():
			_, err = l.AddAccountGroup(r.Path)
		case CashAccountItem.String():
			_, err = l.AddCashAccount(r.Path, r.Currency)
		case SecurityAccountItem.String():
			_, err = l.AddSecurityAccount(r.Path)
		default:
			err = newValidationError("unknown account item type %q", r.Type)
		}
		if err != nil {
			return nil, err
		}
	}
	for _, r := range b.Transactions {
		if err := l.loadTransaction(r); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// ToBundle serializes the ledger into its plain-record form, the exact
// inverse of LoadBundle: loading the result reproduces an equal ledger.
func (l *Ledger) ToBundle() Bundle {
	var b Bundle
	if l.baseCurrency != nil {
		b.BaseCurrency = l.baseCurrency.code
	}
	for _, cur := range l.Currencies() {
		b.Currencies = append(b.Currencies, CurrencyRecord{Code: cur.code, Places: cur.Places()})
	}
	for _, e := range l.ExchangeRates() {
		r := RateSeriesRecord{Primary: e.primary.code, Secondary: e.secondary.code}
		for o := range e.Observations() {
			r.Observations = append(r.Observations, ObservationRecord{Date: o.Day, Value: o.Value.String()})
		}
		b.ExchangeRates = append(b.ExchangeRates, r)
	}
	for _, s := range l.Securities() {
		r := SecurityRecord{Name: s.name, Symbol: s.symbol, Currency: s.cur.code, ShareDecimals: s.ShareDecimals()}
		for o := range s.Prices() {
			r.Prices = append(r.Prices, ObservationRecord{Date: o.Day, Value: o.Value.String()})
		}
		b.Securities = append(b.Securities, r)
	}
	for _, c := range l.Categories() {
		b.Categories = append(b.Categories, CategoryRecord{Path: l.CategoryPath(c.id), Kind: c.kind.String()})
	}
	for _, t := range l.Tags() {
		b.Tags = append(b.Tags, t.name)
	}
	for _, p := range l.Payees() {
		b.Payees = append(b.Payees, p.name)
	}
	for _, item := range l.AccountItems() {
		r := AccountItemRecord{Path: l.AccountItemPath(item.ID()), Type: item.Type().String()}
		if a, ok := item.(*CashAccount); ok {
			r.Currency = a.cur.code
		}
		b.AccountItems = append(b.AccountItems, r)
	}
	for _, tx := range l.Transactions() {
		b.Transactions = append(b.Transactions, l.transactionRecord(tx))
	}
	return b
}

func (l *Ledger) transactionRecord(tx Transaction) TransactionRecord {
	b := tx.base()
	r := TransactionRecord{
		ID:          b.id.String(),
		Kind:        tx.Kind().String(),
		Date:        b.when,
		Description: b.description,
		Created:     b.created,
		Edited:      b.edited,
	}
	for _, ta := range b.tags {
		split := SplitRecord{Name: l.tags[ta.Tag].name}
		if ta.Amount.Currency() != nil {
			split.Amount = ta.Amount.Decimal().String()
		}
		r.Tags = append(r.Tags, split)
	}
	categoryRecords := func(splits []CategoryAmount) []SplitRecord {
		out := make([]SplitRecord, 0, len(splits))
		for _, ca := range splits {
			out = append(out, SplitRecord{Name: l.CategoryPath(ca.Category), Amount: ca.Amount.Decimal().String()})
		}
		return out
	}
	switch t := tx.(type) {
	case *CashTransaction:
		r.Account = l.AccountItemPath(t.account)
		r.Payee = l.payees[t.payee].name
		r.Categories = categoryRecords(t.categories)
	case *RefundTransaction:
		r.Account = l.AccountItemPath(t.account)
		r.Payee = l.payees[t.payee].name
		r.Categories = categoryRecords(t.categories)
		r.Target = t.target.String()
	case *CashTransfer:
		r.Sender = l.AccountItemPath(t.sender)
		r.Recipient = l.AccountItemPath(t.recipient)
		r.Sent = t.sent.Decimal().String()
		r.Received = t.received.Decimal().String()
	case *SecurityTransaction:
		r.Security = l.securities[t.security].name
		r.Shares = t.shares.String()
		r.AmountPerShare = t.amountPerShare.Decimal().String()
		r.CashAccount = l.AccountItemPath(t.cashAccount)
		r.SecurityAccount = l.AccountItemPath(t.securityAccount)
	case *SecurityTransfer:
		r.Security = l.securities[t.security].name
		r.Shares = t.shares.String()
		r.Sender = l.AccountItemPath(t.sender)
		r.Recipient = l.AccountItemPath(t.recipient)
	}
	return r
}

// loadTransaction rebuilds one transaction from its record, preserving its
// UUID and audit timestamps, and commits it through the normal validation
// path.
func (l *Ledger) loadTransaction(r TransactionRecord) error {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return newValidationError("transaction id %q: %v", r.ID, err)
	}
	if _, exists := l.transactions[id]; exists {
		return newValidationError("duplicate transaction id %s", id)
	}
	base := txBase{
		id:          id,
		when:        r.Date,
		description: r.Description,
		created:     r.Created,
		edited:      r.Edited,
	}
	for _, split := range r.Tags {
		tag, err := l.TagByName(split.Name)
		if err != nil {
			return err
		}
		ta := TagAmount{Tag: tag.id}
		if split.Amount != "" {
			amount, cur, err := l.loadCashAmountFor(r, split.Amount)
			if err != nil {
				return err
			}
			ta.Amount = cur.Amount(amount)
		}
		base.tags = append(base.tags, ta)
	}

	var tx Transaction
	switch r.Kind {
	case KindIncome.String(), KindExpense.String():
		typ := CashIncome
		if r.Kind == KindExpense.String() {
			typ = CashExpense
		}
		ct := &CashTransaction{txBase: base, typ: typ}
		if err := l.loadCashFields(r, &ct.account, &ct.payee, &ct.categories); err != nil {
			return err
		}
		tx = ct
	case KindRefund.String():
		rt := &RefundTransaction{txBase: base}
		if err := l.loadCashFields(r, &rt.account, &rt.payee, &rt.categories); err != nil {
			return err
		}
		target, err := uuid.Parse(r.Target)
		if err != nil {
			return newValidationError("refund target %q: %v", r.Target, err)
		}
		rt.target = target
		tx = rt
	case KindCashTransfer.String():
		sender, err := l.CashAccountByPath(r.Sender)
		if err != nil {
			return err
		}
		recipient, err := l.CashAccountByPath(r.Recipient)
		if err != nil {
			return err
		}
		sent, err := sender.cur.AmountFromString(r.Sent)
		if err != nil {
			return err
		}
		received, err := recipient.cur.AmountFromString(r.Received)
		if err != nil {
			return err
		}
		tx = &CashTransfer{txBase: base, sender: sender.id, recipient: recipient.id, sent: sent, received: received}
	case KindBuy.String(), KindSell.String(), KindDividend.String():
		typ := SecurityBuy
		switch r.Kind {
		case KindSell.String():
			typ = SecuritySell
		case KindDividend.String():
			typ = SecurityDividend
		}
		s, err := l.SecurityByName(r.Security)
		if err != nil {
			return err
		}
		shares, err := decimal.NewFromString(r.Shares)
		if err != nil {
			return newValidationError("shares %q: %v", r.Shares, err)
		}
		perShare, err := s.cur.AmountFromString(r.AmountPerShare)
		if err != nil {
			return err
		}
		cashAccount, err := l.CashAccountByPath(r.CashAccount)
		if err != nil {
			return err
		}
		securityAccount, err := l.SecurityAccountByPath(r.SecurityAccount)
		if err != nil {
			return err
		}
		tx = &SecurityTransaction{
			txBase: base, typ: typ, security: s.id, shares: shares,
			amountPerShare: perShare, cashAccount: cashAccount.id, securityAccount: securityAccount.id,
		}
	case KindSecurityTransfer.String():
		s, err := l.SecurityByName(r.Security)
		if err != nil {
			return err
		}
		shares, err := decimal.NewFromString(r.Shares)
		if err != nil {
			return newValidationError("shares %q: %v", r.Shares, err)
		}
		sender, err := l.SecurityAccountByPath(r.Sender)
		if err != nil {
			return err
		}
		recipient, err := l.SecurityAccountByPath(r.Recipient)
		if err != nil {
			return err
		}
		tx = &SecurityTransfer{txBase: base, security: s.id, shares: shares, sender: sender.id, recipient: recipient.id}
	default:
		return newValidationError("unknown transaction kind %q", r.Kind)
	}

	if err := tx.validate(l); err != nil {
		return err
	}
	if rt, ok := tx.(*RefundTransaction); ok {
		if err := l.validateRefundCeiling(rt); err != nil {
			return err
		}
		target, err := l.cashTransaction(rt.target)
		if err != nil {
			return err
		}
		l.commit(tx)
		target.refunds = append(target.refunds, rt.id)
		return nil
	}
	l.commit(tx)
	return nil
}

// loadCashFields resolves the account, payee and category splits shared by
// cash transactions and refunds.
func (l *Ledger) loadCashFields(r TransactionRecord, account, payee *uuid.UUID, categories *[]CategoryAmount) error {
	a, err := l.CashAccountByPath(r.Account)
	if err != nil {
		return err
	}
	*account = a.id
	p, err := l.PayeeByName(r.Payee)
	if err != nil {
		return err
	}
	*payee = p.id
	for _, split := range r.Categories {
		c, err := l.CategoryByPath(split.Name)
		if err != nil {
			return err
		}
		amount, err := a.cur.AmountFromString(split.Amount)
		if err != nil {
			return err
		}
		*categories = append(*categories, CategoryAmount{Category: c.id, Amount: amount})
	}
	return nil
}

// loadCashAmountFor parses a tag split amount in the currency of the
// record's cash side.
func (l *Ledger) loadCashAmountFor(r TransactionRecord, raw string) (decimal.Decimal, *Currency, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, nil, newValidationError("amount %q: %v", raw, err)
	}
	var path string
	switch {
	case r.Account != "":
		path = r.Account
	case r.CashAccount != "":
		path = r.CashAccount
	case r.Sender != "":
		path = r.Sender
	default:
		return decimal.Zero, nil, newValidationError("tag amount %q on a transaction without a cash side", raw)
	}
	a, err := l.CashAccountByPath(path)
	if err != nil {
		return decimal.Zero, nil, err
	}
	return amount, a.cur, nil
}

// SetSecurityPrice upserts one price observation, the quote-update entry
// point for the external market-data collaborator.
func (l *Ledger) SetSecurityPrice(name string, day Date, price decimal.Decimal) error {
	s, err := l.SecurityByName(name)
	if err != nil {
		return err
	}
	if err := s.SetPrice(day, price); err != nil {
		return err
	}
	l.bumpRevision()
	return nil
}

// SetExchangeRate upserts one rate observation by pair code ("EUR/CZK").
func (l *Ledger) SetExchangeRate(pairCode string, day Date, rate decimal.Decimal) error {
	e, err := l.ExchangeRateByCode(pairCode)
	if err != nil {
		return err
	}
	if err := e.SetRate(day, rate); err != nil {
		return err
	}
	l.bumpRevision()
	return nil
}
