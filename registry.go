package kapytal

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// This file holds the entity registry half of the Ledger: creation, rename,
// move and removal of currencies, exchange rates, securities, categories,
// tags, payees and account items. Every removal checks referential integrity
// so that no transaction or entity is ever left pointing at a ghost.

// --- currencies ---

// AddCurrency registers a currency. The first currency added becomes the base
// currency. places < 0 selects the ISO 4217 fraction for the code.
func (l *Ledger) AddCurrency(code string, places int) (*Currency, error) {
	cur, err := NewCurrency(code, places)
	if err != nil {
		return nil, err
	}
	if _, exists := l.currencies[cur.code]; exists {
		return nil, newValidationError("currency %q already exists", cur.code)
	}
	l.currencies[cur.code] = cur
	if l.baseCurrency == nil {
		l.baseCurrency = cur
	}
	l.bumpRevision()
	return cur, nil
}

// Currency returns the registered currency with the given code.
func (l *Ledger) Currency(code string) (*Currency, error) {
	cur, ok := l.currencies[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, &NotFoundError{Kind: "currency", Key: code}
	}
	return cur, nil
}

// Currencies returns all registered currencies sorted by code.
func (l *Ledger) Currencies() []*Currency {
	out := make([]*Currency, 0, len(l.currencies))
	for _, cur := range l.currencies {
		out = append(out, cur)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].code < out[j].code })
	return out
}

// BaseCurrency returns the currency all reports are valued in, or nil when no
// currency is registered yet.
func (l *Ledger) BaseCurrency() *Currency { return l.baseCurrency }

// SetBaseCurrency selects the currency reports are valued in.
func (l *Ledger) SetBaseCurrency(code string) error {
	cur, err := l.Currency(code)
	if err != nil {
		return err
	}
	if l.baseCurrency != cur {
		l.baseCurrency = cur
		l.bumpRevision()
	}
	return nil
}

// RemoveCurrency removes an unused currency. A currency referenced by a cash
// account, a security or an exchange rate cannot be removed.
func (l *Ledger) RemoveCurrency(code string) error {
	cur, err := l.Currency(code)
	if err != nil {
		return err
	}
	for _, item := range l.accounts {
		if a, ok := item.(*CashAccount); ok && a.cur == cur {
			return &ReferentialIntegrityError{Entity: "currency", Name: cur.code}
		}
	}
	for _, s := range l.securities {
		if s.cur == cur {
			return &ReferentialIntegrityError{Entity: "currency", Name: cur.code}
		}
	}
	for _, e := range l.exchangeRates {
		if e.relatesTo(cur) {
			return &ReferentialIntegrityError{Entity: "currency", Name: cur.code}
		}
	}
	delete(l.currencies, cur.code)
	if l.baseCurrency == cur {
		l.baseCurrency = nil
		if rest := l.Currencies(); len(rest) > 0 {
			l.baseCurrency = rest[0]
		}
	}
	l.bumpRevision()
	return nil
}

// --- exchange rates ---

// AddExchangeRate registers a rate series between two currencies. Only one
// series may exist per currency pair, in either orientation.
func (l *Ledger) AddExchangeRate(primaryCode, secondaryCode string) (*ExchangeRate, error) {
	primary, err := l.Currency(primaryCode)
	if err != nil {
		return nil, err
	}
	secondary, err := l.Currency(secondaryCode)
	if err != nil {
		return nil, err
	}
	if primary == secondary {
		return nil, newValidationError("an exchange rate needs two distinct currencies, got %q twice", primary.code)
	}
	for _, e := range l.exchangeRates {
		if e.relatesTo(primary) && e.relatesTo(secondary) {
			return nil, newValidationError("exchange rate %s already relates %q and %q",
				e.Code(), primary.code, secondary.code)
		}
	}
	e := newExchangeRate(primary, secondary)
	l.exchangeRates = append(l.exchangeRates, e)
	l.bumpRevision()
	return e, nil
}

// ExchangeRateByCode returns the rate series with the given "AAA/BBB" code.
func (l *Ledger) ExchangeRateByCode(code string) (*ExchangeRate, error) {
	for _, e := range l.exchangeRates {
		if e.Code() == code {
			return e, nil
		}
	}
	return nil, &NotFoundError{Kind: "exchange rate", Key: code}
}

// ExchangeRates returns all rate series in registration order.
func (l *Ledger) ExchangeRates() []*ExchangeRate {
	out := make([]*ExchangeRate, len(l.exchangeRates))
	copy(out, l.exchangeRates)
	return out
}

// RemoveExchangeRate removes a rate series and all its observations.
func (l *Ledger) RemoveExchangeRate(code string) error {
	for i, e := range l.exchangeRates {
		if e.Code() == code {
			l.exchangeRates = append(l.exchangeRates[:i], l.exchangeRates[i+1:]...)
			l.bumpRevision()
			return nil
		}
	}
	return &NotFoundError{Kind: "exchange rate", Key: code}
}

// --- securities ---

// AddSecurity registers a security. Names are unique; the currency and share
// precision are fixed for the security's lifetime.
func (l *Ledger) AddSecurity(name, symbol, currencyCode string, shareDecimals int) (*Security, error) {
	cur, err := l.Currency(currencyCode)
	if err != nil {
		return nil, err
	}
	if _, exists := l.securitiesByName[name]; exists {
		return nil, newValidationError("security %q already exists", name)
	}
	s, err := newSecurity(name, symbol, cur, shareDecimals)
	if err != nil {
		return nil, err
	}
	l.securities[s.id] = s
	l.securitiesByName[s.name] = s
	l.bumpRevision()
	return s, nil
}

// SecurityByName returns the security with the given name.
func (l *Ledger) SecurityByName(name string) (*Security, error) {
	s, ok := l.securitiesByName[name]
	if !ok {
		return nil, &NotFoundError{Kind: "security", Key: name}
	}
	return s, nil
}

// Securities returns all securities sorted by name.
func (l *Ledger) Securities() []*Security {
	out := make([]*Security, 0, len(l.securities))
	for _, s := range l.securities {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// RenameSecurity changes a security's name and symbol. Currency and share
// precision are immutable.
func (l *Ledger) RenameSecurity(name, newName, newSymbol string) error {
	s, err := l.SecurityByName(name)
	if err != nil {
		return err
	}
	if err := validateName(newName); err != nil {
		return err
	}
	if other, exists := l.securitiesByName[newName]; exists && other != s {
		return newValidationError("security %q already exists", newName)
	}
	delete(l.securitiesByName, s.name)
	s.name = newName
	s.symbol = strings.TrimSpace(newSymbol)
	l.securitiesByName[s.name] = s
	l.bumpRevision()
	return nil
}

// RemoveSecurity removes a security that no transaction references.
func (l *Ledger) RemoveSecurity(name string) error {
	s, err := l.SecurityByName(name)
	if err != nil {
		return err
	}
	for _, tx := range l.transactions {
		switch t := tx.(type) {
		case *SecurityTransaction:
			if t.security == s.id {
				return &ReferentialIntegrityError{Entity: "security", Name: s.name}
			}
		case *SecurityTransfer:
			if t.security == s.id {
				return &ReferentialIntegrityError{Entity: "security", Name: s.name}
			}
		}
	}
	delete(l.securities, s.id)
	delete(l.securitiesByName, s.name)
	l.bumpRevision()
	return nil
}

// --- categories ---

// CategoryByPath resolves a category path like "Food/Groceries".
func (l *Ledger) CategoryByPath(path string) (*Category, error) {
	ids := l.rootCategories
	var found *Category
	for _, name := range strings.Split(path, PathSeparator) {
		found = nil
		for _, id := range ids {
			if c := l.categories[id]; c.name == name {
				found = c
				break
			}
		}
		if found == nil {
			return nil, &NotFoundError{Kind: "category", Key: path}
		}
		ids = found.children
	}
	return found, nil
}

// CategoryPath returns the full path of a category, or "" when the UUID is
// unknown.
func (l *Ledger) CategoryPath(id uuid.UUID) string {
	c, ok := l.categories[id]
	if !ok {
		return ""
	}
	path := c.name
	for c.parent != uuid.Nil {
		c = l.categories[c.parent]
		path = joinPath(c.name, path)
	}
	return path
}

// Categories returns all categories in depth-first tree order.
func (l *Ledger) Categories() []*Category {
	var out []*Category
	var walk func(ids []uuid.UUID)
	walk = func(ids []uuid.UUID) {
		for _, id := range ids {
			c := l.categories[id]
			out = append(out, c)
			walk(c.children)
		}
	}
	walk(l.rootCategories)
	return out
}

// AddCategory creates the category at the given path. The parent part of the
// path must already exist; a child's kind must match its parent's kind.
func (l *Ledger) AddCategory(path string, kind CategoryKind) (*Category, error) {
	parentPath, name := splitPath(path)
	if err := validateTreeName(name); err != nil {
		return nil, err
	}
	var parent *Category
	if parentPath != "" {
		var err error
		parent, err = l.CategoryByPath(parentPath)
		if err != nil {
			return nil, err
		}
		if parent.kind != kind {
			return nil, newValidationError("category %q is %s, child %q cannot be %s",
				parentPath, parent.kind, name, kind)
		}
	}
	siblings := l.rootCategories
	if parent != nil {
		siblings = parent.children
	}
	for _, id := range siblings {
		if l.categories[id].name == name {
			return nil, newValidationError("category %q already exists", path)
		}
	}
	now := l.now()
	c := &Category{id: uuid.New(), name: name, kind: kind, created: now, edited: now}
	if parent != nil {
		c.parent = parent.id
		parent.children = append(parent.children, c.id)
	} else {
		l.rootCategories = append(l.rootCategories, c.id)
	}
	l.categories[c.id] = c
	l.bumpRevision()
	return c, nil
}

// GetOrMakeCategory resolves a category path, creating the category and any
// missing ancestors with the given kind.
func (l *Ledger) GetOrMakeCategory(path string, kind CategoryKind) (*Category, error) {
	if c, err := l.CategoryByPath(path); err == nil {
		if c.kind != kind {
			return nil, newValidationError("category %q is %s, not %s", path, c.kind, kind)
		}
		return c, nil
	}
	parentPath, _ := splitPath(path)
	if parentPath != "" {
		if _, err := l.GetOrMakeCategory(parentPath, kind); err != nil {
			return nil, err
		}
	}
	return l.AddCategory(path, kind)
}

// RenameCategory changes a category's name, keeping it in place.
func (l *Ledger) RenameCategory(path, newName string) error {
	c, err := l.CategoryByPath(path)
	if err != nil {
		return err
	}
	if err := validateTreeName(newName); err != nil {
		return err
	}
	siblings := l.rootCategories
	if c.parent != uuid.Nil {
		siblings = l.categories[c.parent].children
	}
	for _, id := range siblings {
		if id != c.id && l.categories[id].name == newName {
			return newValidationError("category %q already has a sibling named %q", path, newName)
		}
	}
	c.name = newName
	c.edited = l.now()
	l.bumpRevision()
	return nil
}

// MoveCategory reparents a category. The new parent must share the category's
// kind and must not be the category itself or one of its descendants.
func (l *Ledger) MoveCategory(path, newParentPath string) error {
	c, err := l.CategoryByPath(path)
	if err != nil {
		return err
	}
	var newParent *Category
	if newParentPath != "" {
		newParent, err = l.CategoryByPath(newParentPath)
		if err != nil {
			return err
		}
		if newParent.kind != c.kind {
			return newValidationError("category %q is %s, cannot adopt %s category %q",
				newParentPath, newParent.kind, c.kind, path)
		}
		for p := newParent; p != nil; {
			if p.id == c.id {
				return newValidationError("cannot move category %q under its own descendant %q", path, newParentPath)
			}
			if p.parent == uuid.Nil {
				break
			}
			p = l.categories[p.parent]
		}
	}
	siblings := l.rootCategories
	if newParent != nil {
		siblings = newParent.children
	}
	for _, id := range siblings {
		if id != c.id && l.categories[id].name == c.name {
			return newValidationError("category %q already exists under %q", c.name, newParentPath)
		}
	}
	if c.parent != uuid.Nil {
		old := l.categories[c.parent]
		old.children = removeUUID(old.children, c.id)
	} else {
		l.rootCategories = removeUUID(l.rootCategories, c.id)
	}
	if newParent != nil {
		c.parent = newParent.id
		newParent.children = append(newParent.children, c.id)
	} else {
		c.parent = uuid.Nil
		l.rootCategories = append(l.rootCategories, c.id)
	}
	c.edited = l.now()
	l.bumpRevision()
	return nil
}

// RemoveCategory removes a leaf category that no transaction references.
func (l *Ledger) RemoveCategory(path string) error {
	c, err := l.CategoryByPath(path)
	if err != nil {
		return err
	}
	if len(c.children) > 0 {
		return newValidationError("category %q has %d child categories", path, len(c.children))
	}
	for _, tx := range l.transactions {
		for _, ca := range transactionCategoryAmounts(tx) {
			if ca.Category == c.id {
				return &ReferentialIntegrityError{Entity: "category", Name: path}
			}
		}
	}
	if c.parent != uuid.Nil {
		parent := l.categories[c.parent]
		parent.children = removeUUID(parent.children, c.id)
	} else {
		l.rootCategories = removeUUID(l.rootCategories, c.id)
	}
	delete(l.categories, c.id)
	l.bumpRevision()
	return nil
}

func transactionCategoryAmounts(tx Transaction) []CategoryAmount {
	switch t := tx.(type) {
	case *CashTransaction:
		return t.categories
	case *RefundTransaction:
		return t.categories
	default:
		return nil
	}
}

// --- tags ---

// TagByName returns the tag with the given case-sensitive name.
func (l *Ledger) TagByName(name string) (*Tag, error) {
	for _, t := range l.tags {
		if t.name == name {
			return t, nil
		}
	}
	return nil, &NotFoundError{Kind: "tag", Key: name}
}

// Tags returns all tags sorted by name.
func (l *Ledger) Tags() []*Tag {
	out := make([]*Tag, 0, len(l.tags))
	for _, t := range l.tags {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// AddTag creates a tag with a unique name.
func (l *Ledger) AddTag(name string) (*Tag, error) {
	if err := validateFlatName(name); err != nil {
		return nil, err
	}
	if _, err := l.TagByName(name); err == nil {
		return nil, newValidationError("tag %q already exists", name)
	}
	t := &Tag{id: uuid.New(), name: name, created: l.now()}
	l.tags[t.id] = t
	l.bumpRevision()
	return t, nil
}

// RenameTag changes a tag's name; every transaction referencing the tag sees
// the new name immediately since tags are shared by reference.
func (l *Ledger) RenameTag(name, newName string) error {
	t, err := l.TagByName(name)
	if err != nil {
		return err
	}
	if err := validateFlatName(newName); err != nil {
		return err
	}
	if other, err := l.TagByName(newName); err == nil && other != t {
		return newValidationError("tag %q already exists", newName)
	}
	t.name = newName
	l.bumpRevision()
	return nil
}

// RemoveTag removes a tag that no transaction references.
func (l *Ledger) RemoveTag(name string) error {
	t, err := l.TagByName(name)
	if err != nil {
		return err
	}
	for _, tx := range l.transactions {
		for _, ta := range tx.base().tags {
			if ta.Tag == t.id {
				return &ReferentialIntegrityError{Entity: "tag", Name: name}
			}
		}
	}
	delete(l.tags, t.id)
	l.bumpRevision()
	return nil
}

// TagTransactions adds a tag to each listed transaction, covering the
// transaction's full amount. Transactions already carrying the tag keep
// their existing amount.
func (l *Ledger) TagTransactions(name string, txIDs []uuid.UUID) error {
	t, err := l.TagByName(name)
	if err != nil {
		return err
	}
	targets := make([]*txBase, 0, len(txIDs))
	for _, id := range txIDs {
		tx, err := l.Transaction(id)
		if err != nil {
			return err
		}
		targets = append(targets, tx.base())
	}
	changed := false
	for _, b := range targets {
		if b.hasTag(t.id) {
			continue
		}
		b.tags = append(b.tags, TagAmount{Tag: t.id})
		b.edited = l.now()
		changed = true
	}
	if changed {
		l.bumpRevision()
	}
	return nil
}

// UntagTransactions removes a tag from each listed transaction that carries it.
func (l *Ledger) UntagTransactions(name string, txIDs []uuid.UUID) error {
	t, err := l.TagByName(name)
	if err != nil {
		return err
	}
	targets := make([]*txBase, 0, len(txIDs))
	for _, id := range txIDs {
		tx, err := l.Transaction(id)
		if err != nil {
			return err
		}
		targets = append(targets, tx.base())
	}
	changed := false
	for _, b := range targets {
		if !b.hasTag(t.id) {
			continue
		}
		kept := b.tags[:0]
		for _, ta := range b.tags {
			if ta.Tag != t.id {
				kept = append(kept, ta)
			}
		}
		b.tags = kept
		b.edited = l.now()
		changed = true
	}
	if changed {
		l.bumpRevision()
	}
	return nil
}

// --- payees ---

// PayeeByName returns the payee with the given case-sensitive name.
func (l *Ledger) PayeeByName(name string) (*Payee, error) {
	for _, p := range l.payees {
		if p.name == name {
			return p, nil
		}
	}
	return nil, &NotFoundError{Kind: "payee", Key: name}
}

// Payees returns all payees sorted by name.
func (l *Ledger) Payees() []*Payee {
	out := make([]*Payee, 0, len(l.payees))
	for _, p := range l.payees {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// AddPayee creates a payee with a unique name.
func (l *Ledger) AddPayee(name string) (*Payee, error) {
	if err := validateFlatName(name); err != nil {
		return nil, err
	}
	if _, err := l.PayeeByName(name); err == nil {
		return nil, newValidationError("payee %q already exists", name)
	}
	p := &Payee{id: uuid.New(), name: name, created: l.now()}
	l.payees[p.id] = p
	l.bumpRevision()
	return p, nil
}

// RenamePayee changes a payee's name.
func (l *Ledger) RenamePayee(name, newName string) error {
	p, err := l.PayeeByName(name)
	if err != nil {
		return err
	}
	if err := validateFlatName(newName); err != nil {
		return err
	}
	if other, err := l.PayeeByName(newName); err == nil && other != p {
		return newValidationError("payee %q already exists", newName)
	}
	p.name = newName
	l.bumpRevision()
	return nil
}

// RemovePayee removes a payee that no transaction references.
func (l *Ledger) RemovePayee(name string) error {
	p, err := l.PayeeByName(name)
	if err != nil {
		return err
	}
	for _, tx := range l.transactions {
		switch t := tx.(type) {
		case *CashTransaction:
			if t.payee == p.id {
				return &ReferentialIntegrityError{Entity: "payee", Name: name}
			}
		case *RefundTransaction:
			if t.payee == p.id {
				return &ReferentialIntegrityError{Entity: "payee", Name: name}
			}
		}
	}
	delete(l.payees, p.id)
	l.bumpRevision()
	return nil
}

// --- account items ---

// AccountItemByPath resolves an account-tree path like "Bank/Checking".
func (l *Ledger) AccountItemByPath(path string) (AccountItem, error) {
	ids := l.rootAccounts
	var found AccountItem
	for _, name := range strings.Split(path, PathSeparator) {
		found = nil
		for _, id := range ids {
			if item := l.accounts[id]; item.Name() == name {
				found = item
				break
			}
		}
		if found == nil {
			return nil, &NotFoundError{Kind: "account item", Key: path}
		}
		ids = found.node().children
	}
	return found, nil
}

// CashAccountByPath resolves a path that must lead to a cash account.
func (l *Ledger) CashAccountByPath(path string) (*CashAccount, error) {
	item, err := l.AccountItemByPath(path)
	if err != nil {
		return nil, err
	}
	account, ok := item.(*CashAccount)
	if !ok {
		return nil, newValidationError("account item %q is not a cash account", path)
	}
	return account, nil
}

// SecurityAccountByPath resolves a path that must lead to a security account.
func (l *Ledger) SecurityAccountByPath(path string) (*SecurityAccount, error) {
	item, err := l.AccountItemByPath(path)
	if err != nil {
		return nil, err
	}
	account, ok := item.(*SecurityAccount)
	if !ok {
		return nil, newValidationError("account item %q is not a security account", path)
	}
	return account, nil
}

// AccountItemPath returns the full path of an account item, or "" when the
// UUID is unknown.
func (l *Ledger) AccountItemPath(id uuid.UUID) string {
	item, ok := l.accounts[id]
	if !ok {
		return ""
	}
	n := item.node()
	path := n.name
	for n.parent != uuid.Nil {
		n = l.accounts[n.parent].node()
		path = joinPath(n.name, path)
	}
	return path
}

// AccountItems returns all account items in depth-first tree order.
func (l *Ledger) AccountItems() []AccountItem {
	var out []AccountItem
	var walk func(ids []uuid.UUID)
	walk = func(ids []uuid.UUID) {
		for _, id := range ids {
			item := l.accounts[id]
			out = append(out, item)
			walk(item.node().children)
		}
	}
	walk(l.rootAccounts)
	return out
}

// accountSubtree adds the account item and every descendant to set. Unknown
// UUIDs are ignored.
func (l *Ledger) accountSubtree(id uuid.UUID, set map[uuid.UUID]bool) {
	item, ok := l.accounts[id]
	if !ok {
		return
	}
	set[id] = true
	for _, child := range item.node().children {
		l.accountSubtree(child, set)
	}
}

// AddAccountGroup creates an account group at the given path. The parent
// part of the path must already exist and be a group.
func (l *Ledger) AddAccountGroup(path string) (*AccountGroup, error) {
	node, err := l.newAccountNode(path)
	if err != nil {
		return nil, err
	}
	g := &AccountGroup{accountNode: *node}
	l.insertAccountItem(g)
	return g, nil
}

// AddCashAccount creates a cash account at the given path with a fixed
// currency.
func (l *Ledger) AddCashAccount(path, currencyCode string) (*CashAccount, error) {
	cur, err := l.Currency(currencyCode)
	if err != nil {
		return nil, err
	}
	node, err := l.newAccountNode(path)
	if err != nil {
		return nil, err
	}
	a := &CashAccount{accountNode: *node, cur: cur}
	l.insertAccountItem(a)
	return a, nil
}

// AddSecurityAccount creates a security account at the given path.
func (l *Ledger) AddSecurityAccount(path string) (*SecurityAccount, error) {
	node, err := l.newAccountNode(path)
	if err != nil {
		return nil, err
	}
	a := &SecurityAccount{accountNode: *node}
	l.insertAccountItem(a)
	return a, nil
}

// newAccountNode validates a path for a new account item and builds its node.
func (l *Ledger) newAccountNode(path string) (*accountNode, error) {
	parentPath, name := splitPath(path)
	if err := validateTreeName(name); err != nil {
		return nil, err
	}
	var parent uuid.UUID
	siblings := l.rootAccounts
	if parentPath != "" {
		item, err := l.AccountItemByPath(parentPath)
		if err != nil {
			return nil, err
		}
		if item.Type() != AccountGroupItem {
			return nil, newValidationError("account item %q is not a group and cannot have children", parentPath)
		}
		parent = item.ID()
		siblings = item.node().children
	}
	for _, id := range siblings {
		if l.accounts[id].Name() == name {
			return nil, newValidationError("account item %q already exists", path)
		}
	}
	now := l.now()
	return &accountNode{id: uuid.New(), name: name, parent: parent, created: now, edited: now}, nil
}

func (l *Ledger) insertAccountItem(item AccountItem) {
	n := item.node()
	l.accounts[n.id] = item
	if n.parent != uuid.Nil {
		parent := l.accounts[n.parent].node()
		parent.children = append(parent.children, n.id)
	} else {
		l.rootAccounts = append(l.rootAccounts, n.id)
	}
	l.bumpRevision()
}

// RenameAccountItem changes an account item's name, keeping it in place.
func (l *Ledger) RenameAccountItem(path, newName string) error {
	item, err := l.AccountItemByPath(path)
	if err != nil {
		return err
	}
	if err := validateTreeName(newName); err != nil {
		return err
	}
	n := item.node()
	siblings := l.rootAccounts
	if n.parent != uuid.Nil {
		siblings = l.accounts[n.parent].node().children
	}
	for _, id := range siblings {
		if id != n.id && l.accounts[id].Name() == newName {
			return newValidationError("account item %q already has a sibling named %q", path, newName)
		}
	}
	n.name = newName
	n.edited = l.now()
	l.bumpRevision()
	return nil
}

// MoveAccountItem reparents an account item. The new parent must be a group
// and must not be the item itself or one of its descendants.
func (l *Ledger) MoveAccountItem(path, newParentPath string) error {
	item, err := l.AccountItemByPath(path)
	if err != nil {
		return err
	}
	n := item.node()
	var newParent *accountNode
	if newParentPath != "" {
		parentItem, err := l.AccountItemByPath(newParentPath)
		if err != nil {
			return err
		}
		if parentItem.Type() != AccountGroupItem {
			return newValidationError("account item %q is not a group and cannot have children", newParentPath)
		}
		newParent = parentItem.node()
		for p := newParent; p != nil; {
			if p.id == n.id {
				return newValidationError("cannot move account item %q under its own descendant %q", path, newParentPath)
			}
			if p.parent == uuid.Nil {
				break
			}
			p = l.accounts[p.parent].node()
		}
	}
	siblings := l.rootAccounts
	if newParent != nil {
		siblings = newParent.children
	}
	for _, id := range siblings {
		if id != n.id && l.accounts[id].Name() == n.name {
			return newValidationError("account item %q already exists under %q", n.name, newParentPath)
		}
	}
	if n.parent != uuid.Nil {
		old := l.accounts[n.parent].node()
		old.children = removeUUID(old.children, n.id)
	} else {
		l.rootAccounts = removeUUID(l.rootAccounts, n.id)
	}
	if newParent != nil {
		n.parent = newParent.id
		newParent.children = append(newParent.children, n.id)
	} else {
		n.parent = uuid.Nil
		l.rootAccounts = append(l.rootAccounts, n.id)
	}
	n.edited = l.now()
	l.bumpRevision()
	return nil
}

// RemoveAccountItem removes an account item. Groups must be empty; accounts
// must not be referenced by any transaction.
func (l *Ledger) RemoveAccountItem(path string) error {
	item, err := l.AccountItemByPath(path)
	if err != nil {
		return err
	}
	n := item.node()
	if len(n.children) > 0 {
		return newValidationError("account group %q has %d children", path, len(n.children))
	}
	for _, tx := range l.transactions {
		for _, id := range tx.involvedAccounts() {
			if id == n.id {
				return &ReferentialIntegrityError{Entity: "account item", Name: path}
			}
		}
	}
	if n.parent != uuid.Nil {
		parent := l.accounts[n.parent].node()
		parent.children = removeUUID(parent.children, n.id)
	} else {
		l.rootAccounts = removeUUID(l.rootAccounts, n.id)
	}
	delete(l.accounts, n.id)
	l.bumpRevision()
	return nil
}
