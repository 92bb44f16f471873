package kapytal

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// shareEffector is implemented by the transaction variants that move shares.
type shareEffector interface {
	shareEffects() []ShareEffect
}

// CashBalance returns the balance of a cash account at the end of the given
// day, in the account's native currency. Balances are replayed from the
// transaction history and memoized per (account, day, revision); any ledger
// mutation invalidates every cached balance by changing the revision.
func (l *Ledger) CashBalance(account uuid.UUID, asOf Date) (Money, error) {
	a, err := l.cashAccount(account)
	if err != nil {
		return Money{}, err
	}
	key := fmt.Sprintf("cash|%s|%s|%d", account, asOf, l.revision)
	if cached, ok := l.balances.Get(key); ok {
		return cached.(Money), nil
	}
	balance := a.cur.Zero()
	for _, tx := range l.Transactions() {
		if DateOf(tx.When()).After(asOf) {
			break
		}
		for _, effect := range tx.balanceEffects() {
			if effect.Account == account {
				balance = balance.Add(effect.Delta)
			}
		}
	}
	l.balances.SetDefault(key, balance)
	return balance, nil
}

// SecurityHoldings returns the shares held per security in a security account
// at the end of the given day. Securities with a zero net position are
// omitted.
func (l *Ledger) SecurityHoldings(account uuid.UUID, asOf Date) (map[uuid.UUID]decimal.Decimal, error) {
	if _, err := l.securityAccount(account); err != nil {
		return nil, err
	}
	holdings := make(map[uuid.UUID]decimal.Decimal)
	for _, tx := range l.Transactions() {
		if DateOf(tx.When()).After(asOf) {
			break
		}
		se, ok := tx.(shareEffector)
		if !ok {
			continue
		}
		for _, effect := range se.shareEffects() {
			if effect.Account == account {
				holdings[effect.Security] = holdings[effect.Security].Add(effect.Shares)
			}
		}
	}
	for id, shares := range holdings {
		if shares.IsZero() {
			delete(holdings, id)
		}
	}
	return holdings, nil
}

// MarketValue returns the value of a security account's holdings at the end
// of the given day, priced with the latest known price per security and
// converted to the target currency. A held security with no price observation
// yet makes the value unavailable: a NoPriceAvailableError is returned.
func (l *Ledger) MarketValue(account uuid.UUID, asOf Date, target *Currency) (Money, error) {
	holdings, err := l.SecurityHoldings(account, asOf)
	if err != nil {
		return Money{}, err
	}
	ids := make([]uuid.UUID, 0, len(holdings))
	for id := range holdings {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	total := target.Zero()
	for _, id := range ids {
		s, err := l.security(id)
		if err != nil {
			return Money{}, err
		}
		price, ok := s.Price(asOf)
		if !ok {
			return Money{}, &NoPriceAvailableError{Security: s.name, Day: asOf}
		}
		value, err := l.Convert(price.Mul(holdings[id]), target, asOf)
		if err != nil {
			return Money{}, err
		}
		total = total.Add(value)
	}
	return total, nil
}

// ItemValue returns the value of an account item at the end of the given day
// in the target currency: the converted balance of a cash account, the market
// value of a security account, or the recursive sum over a group's children.
func (l *Ledger) ItemValue(item AccountItem, asOf Date, target *Currency) (Money, error) {
	switch it := item.(type) {
	case *CashAccount:
		balance, err := l.CashBalance(it.id, asOf)
		if err != nil {
			return Money{}, err
		}
		return l.Convert(balance, target, asOf)
	case *SecurityAccount:
		return l.MarketValue(it.id, asOf, target)
	case *AccountGroup:
		total := target.Zero()
		for _, childID := range it.children {
			child, err := l.accountItem(childID)
			if err != nil {
				return Money{}, err
			}
			value, err := l.ItemValue(child, asOf, target)
			if err != nil {
				return Money{}, err
			}
			total = total.Add(value)
		}
		return total, nil
	default:
		return Money{}, newValidationError("unknown account item type %T", item)
	}
}
